package lead

import (
	"context"
	"fmt"

	"lead-sync/core/scheduler"
)

// Orchestrator turns a filtered candidate set into exactly one scheduling
// request. It is stateless and never inspects record content.
type Orchestrator struct {
	sched scheduler.Scheduler
	build func(queue []string) scheduler.Task
}

// NewOrchestrator creates an orchestrator submitting to sched. build
// constructs the processor owning the queue.
func NewOrchestrator(sched scheduler.Scheduler, build func(queue []string) scheduler.Task) *Orchestrator {
	return &Orchestrator{sched: sched, build: build}
}

// Dispatch deduplicates the identifiers (insertion order preserved) and
// submits one task carrying the full work queue. A scheduler rejection
// propagates synchronously; no asynchronous attempt was made yet.
func (o *Orchestrator) Dispatch(ctx context.Context, ids []string) (scheduler.Handle, error) {
	queue := dedupe(ids)
	if len(queue) == 0 {
		return scheduler.Handle{}, nil
	}

	handle, err := o.sched.Enqueue(ctx, o.build(queue))
	if err != nil {
		return scheduler.Handle{}, fmt.Errorf("enqueue lead sync run: %w", err)
	}
	return handle, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
