// Package database manages the GORM connection to the lead database.
//
// Production deployments use the MySQL driver; tests and local development
// can use the sqlite driver with an in-memory database. Connection pooling
// and an initial ping are applied for MySQL connections.
package database
