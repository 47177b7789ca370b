package lead

import (
	"context"
	"fmt"
	"strings"

	"lead-sync/core/scheduler"
	"lead-sync/feature/lead/models"
	"lead-sync/feature/lead/synclog"

	"go.uber.org/zap"
)

// State is the lifecycle of one processor invocation.
type State string

const (
	// StateIdle means the processor has not run yet.
	StateIdle State = "idle"
	// StateRunning means the processor is working on its batch.
	StateRunning State = "running"
	// StateRescheduled means the batch finished and the remainder was
	// handed to a new processor.
	StateRescheduled State = "rescheduled"
	// StateCompleted means the queue drained.
	StateCompleted State = "completed"
	// StateFailed means the remainder could not be enqueued; the run stops.
	StateFailed State = "failed"
)

// RecordStore is the slice of the lead store the processor needs.
type RecordStore interface {
	GetByIDs(ctx context.Context, ids []string) ([]models.Lead, error)
	ApplyExternalRefs(ctx context.Context, refs map[string]string, cycle *Cycle) error
}

// FailureRecorder is the slice of the synclog recorder the processor needs.
type FailureRecorder interface {
	Record(ctx context.Context, entries ...synclog.Entry)
}

// Processor drains a work queue of lead identifiers in fixed-size chunks.
// One processor owns one queue for the duration of one scheduled
// invocation; when work remains it hands the tail to a fresh processor via
// the scheduler. Per-record failures never abort the batch, and a batch
// failure never blocks the remainder.
type Processor struct {
	queue       []string
	chunkSize   int
	integration string

	store    RecordStore
	sender   Sender
	recorder FailureRecorder
	sched    scheduler.Scheduler
	logger   *zap.Logger

	state State
}

// NewProcessor creates a processor owning the given queue.
func NewProcessor(queue []string, chunkSize int, integration string, store RecordStore,
	sender Sender, recorder FailureRecorder, sched scheduler.Scheduler, logger *zap.Logger) *Processor {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Processor{
		queue:       queue,
		chunkSize:   chunkSize,
		integration: integration,
		store:       store,
		sender:      sender,
		recorder:    recorder,
		sched:       sched,
		logger:      logger,
		state:       StateIdle,
	}
}

// State returns the processor's current state.
func (p *Processor) State() State {
	return p.state
}

// Run processes one chunk and reschedules the remainder. It implements
// scheduler.Task.
func (p *Processor) Run(ctx context.Context) {
	p.state = StateRunning

	batch := p.queue
	var rest []string
	if len(batch) > p.chunkSize {
		rest = batch[p.chunkSize:]
		batch = batch[:p.chunkSize]
	}

	p.processBatch(ctx, batch)

	if len(rest) == 0 {
		p.state = StateCompleted
		p.logger.Info("lead sync run completed", zap.Int("batch", len(batch)))
		return
	}

	// Ownership of the tail moves to the next processor.
	next := NewProcessor(rest, p.chunkSize, p.integration, p.store, p.sender,
		p.recorder, p.sched, p.logger)
	if _, err := p.sched.Enqueue(ctx, next); err != nil {
		p.recorder.Record(ctx, synclog.Entry{
			Integration: p.integration,
			RecordID:    strings.Join(rest, ","),
			Message:     fmt.Sprintf("failed to reschedule remaining %d leads: %v", len(rest), err),
			ErrorKind:   synclog.KindScheduling,
		})
		p.state = StateFailed
		p.logger.Error("lead sync run failed: remainder not rescheduled",
			zap.Int("remaining", len(rest)), zap.Error(err))
		return
	}

	p.state = StateRescheduled
	p.logger.Info("lead sync chunk done, remainder rescheduled",
		zap.Int("batch", len(batch)), zap.Int("remaining", len(rest)))
}

// processBatch handles one chunk. All failure modes are absorbed here: a
// panic or a bulk-read error becomes a single batch-wide log entry so the
// caller can still reschedule the remainder.
func (p *Processor) processBatch(ctx context.Context, batch []string) {
	defer func() {
		if rec := recover(); rec != nil {
			p.recorder.Record(ctx, synclog.Entry{
				Integration: p.integration,
				RecordID:    strings.Join(batch, ","),
				Message:     fmt.Sprintf("batch processing panicked: %v", rec),
				ErrorKind:   synclog.KindInternal,
			})
		}
	}()

	leads, err := p.store.GetByIDs(ctx, batch)
	if err != nil {
		p.recorder.Record(ctx, synclog.Entry{
			Integration: p.integration,
			RecordID:    strings.Join(batch, ","),
			Message:     fmt.Sprintf("bulk read failed: %v", err),
			ErrorKind:   synclog.KindPersistence,
		})
		return
	}

	refs := make(map[string]string)
	var failures []synclog.Entry

	for i := range leads {
		res := p.sender.Send(ctx, &leads[i])
		if res.OK() {
			refs[res.RecordID] = res.ExternalRef
			continue
		}
		failures = append(failures, synclog.Entry{
			Integration: p.integration,
			RecordID:    res.RecordID,
			Message:     res.Message,
			StatusCode:  res.StatusCode,
			RawResponse: res.RawBody,
			ErrorKind:   res.Kind,
		})
	}

	if len(failures) > 0 {
		p.recorder.Record(ctx, failures...)
	}

	if len(refs) == 0 {
		return
	}

	// The write-back runs in its own change cycle; marking happens inside
	// ApplyExternalRefs before the store hook can fire.
	if err := p.store.ApplyExternalRefs(ctx, refs, NewCycle()); err != nil {
		entries := make([]synclog.Entry, 0, len(refs))
		for id := range refs {
			entries = append(entries, synclog.Entry{
				Integration: p.integration,
				RecordID:    id,
				Message:     fmt.Sprintf("external ref write-back failed: %v", err),
				ErrorKind:   synclog.KindPersistence,
			})
		}
		p.recorder.Record(ctx, entries...)
	}
}
