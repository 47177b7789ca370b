package lead

import "lead-sync/feature/lead/models"

// Operation is the kind of change captured on a lead.
type Operation string

const (
	// OpCreate marks a newly inserted lead.
	OpCreate Operation = "create"
	// OpUpdate marks a modified lead.
	OpUpdate Operation = "update"
)

// Snapshot is a point-in-time view of a lead's fields, keyed by the field
// names used in the tracked-field configuration.
type Snapshot map[string]string

// SnapshotOf captures the sync-relevant fields of a lead.
func SnapshotOf(l *models.Lead) Snapshot {
	return Snapshot{
		"first_name":   l.FirstName,
		"last_name":    l.LastName,
		"company":      l.Company,
		"email":        l.Email,
		"phone":        l.Phone,
		"source":       l.Source,
		"status":       l.Status,
		"external_ref": l.ExternalRef,
	}
}

// ChangeEvent is one captured create or update of a lead, with before and
// after snapshots. Old is nil for creates.
type ChangeEvent struct {
	ID  string
	Op  Operation
	Old Snapshot
	New Snapshot
}

// Cycle is the recursion guard for one synchronous change-capture cycle.
// Identifiers written back by the synchronization engine are marked here so
// the store's own change hook cannot trigger a second sync pass within the
// same cycle. A Cycle is never persisted and never shared across cycles.
type Cycle struct {
	seen map[string]struct{}
}

// NewCycle creates an empty cycle.
func NewCycle() *Cycle {
	return &Cycle{seen: make(map[string]struct{})}
}

// Mark records identifiers as handled within this cycle.
func (c *Cycle) Mark(ids ...string) {
	for _, id := range ids {
		c.seen[id] = struct{}{}
	}
}

// Seen reports whether an identifier was already handled in this cycle.
func (c *Cycle) Seen(id string) bool {
	_, ok := c.seen[id]
	return ok
}

// Len returns the number of marked identifiers.
func (c *Cycle) Len() int {
	return len(c.seen)
}
