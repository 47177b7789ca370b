// Package models defines the persistent types of the lead feature: the Lead
// record itself and the append-only sync error log.
package models
