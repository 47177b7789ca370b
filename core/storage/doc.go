// Package storage wraps the Minio S3-compatible client behind a small
// interface so callers can be tested against mocks.
//
// The service uses object storage as an optional dead-letter archive: log
// entries that could not be persisted to the database are written here as
// JSON objects. The client is created with strict transport timeouts so a
// dead endpoint cannot stall the synchronization path.
package storage
