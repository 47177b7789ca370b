// Package synclog records lead synchronization failures durably.
//
// The Recorder is the system's safety net: Record never returns an error and
// absorbs its own failure modes internally, so a logging problem can never
// escalate into a synchronization outage. When the injected AccessPolicy
// denies creation, or the database insert fails, entries degrade to the zap
// fallback sink and optionally to a dead-letter archive in object storage.
package synclog
