package lead

import "fmt"

// FilterChanges decides which change events require a remote sync and
// returns their identifiers in event order.
//
// Creates are always candidates. Updates are candidates only if at least one
// tracked field differs between the old and new snapshot. Identifiers
// already marked in the cycle are excluded unconditionally; that is the
// loop-prevention rule for write-backs performed by the engine itself.
//
// The cycle is read, never mutated. An event without an identifier is a
// programming error and panics.
func FilterChanges(events []ChangeEvent, cycle *Cycle, tracked []string) []string {
	candidates := make([]string, 0, len(events))

	for _, ev := range events {
		if ev.ID == "" {
			panic(fmt.Sprintf("lead: change event without identifier (op=%s)", ev.Op))
		}

		if cycle != nil && cycle.Seen(ev.ID) {
			continue
		}

		switch ev.Op {
		case OpCreate:
			candidates = append(candidates, ev.ID)
		case OpUpdate:
			if trackedFieldChanged(ev.Old, ev.New, tracked) {
				candidates = append(candidates, ev.ID)
			}
		}
	}

	return candidates
}

func trackedFieldChanged(old, new Snapshot, tracked []string) bool {
	for _, field := range tracked {
		if old[field] != new[field] {
			return true
		}
	}
	return false
}
