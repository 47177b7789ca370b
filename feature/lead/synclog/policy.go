package synclog

// AccessPolicy answers whether the current execution context may persist
// log entries, and which entry fields it may write. It replaces ad-hoc
// permission checks so the recorder stays testable without a live
// permission system.
type AccessPolicy interface {
	// CanCreate reports whether sync_error_logs rows may be created at all.
	CanCreate() bool
	// CanWrite reports whether the named entry field may be written.
	CanWrite(field string) bool
}

// OpenPolicy permits everything. It is the default in deployments without
// row- or field-level restrictions.
type OpenPolicy struct{}

func (OpenPolicy) CanCreate() bool            { return true }
func (OpenPolicy) CanWrite(field string) bool { return true }
