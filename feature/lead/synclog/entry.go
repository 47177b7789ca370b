package synclog

import "time"

// Kind classifies a synchronization failure.
type Kind string

const (
	// KindNone marks a successful outcome.
	KindNone Kind = ""
	// KindAPI marks a non-2xx response from the external system.
	KindAPI Kind = "api_error"
	// KindTransport marks a call that never completed (timeout, refused, TLS).
	KindTransport Kind = "transport_error"
	// KindPersistence marks a failed local write-back.
	KindPersistence Kind = "persistence_error"
	// KindScheduling marks a failure to enqueue the remaining work.
	KindScheduling Kind = "scheduling_error"
	// KindInternal marks an unexpected batch-level failure.
	KindInternal Kind = "internal_error"
)

// Entry is one failure to be recorded. Entries are immutable once created.
type Entry struct {
	// Integration names the external system.
	Integration string
	// RecordID identifies the affected lead. Batch-level entries join all
	// affected identifiers.
	RecordID string
	// Message describes the failure.
	Message string
	// StatusCode is the HTTP status for API failures, zero otherwise.
	StatusCode int
	// RawResponse preserves the response body verbatim.
	RawResponse string
	// ErrorKind classifies the failure.
	ErrorKind Kind
	// At is the time of the failure. Zero means "now" at record time.
	At time.Time
}
