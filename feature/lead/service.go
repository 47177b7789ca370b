package lead

import (
	"context"

	"lead-sync/core/scheduler"
	"lead-sync/feature/lead/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service wires the lead store, change filter, orchestrator and processor
// together. Mutations performed through the service fire change capture;
// eligible leads are synchronized asynchronously.
type Service struct {
	store    *Store
	orch     *Orchestrator
	recorder FailureRecorder
	tracked  []string
	logger   *zap.Logger
}

// NewService builds the full synchronization pipeline.
func NewService(db *gorm.DB, sched scheduler.Scheduler, sender Sender,
	recorder FailureRecorder, cfg Config, logger *zap.Logger) *Service {
	store := NewStore(db, logger)

	build := func(queue []string) scheduler.Task {
		return NewProcessor(queue, cfg.Chunk(), cfg.Integration, store, sender,
			recorder, sched, logger)
	}
	orch := NewOrchestrator(sched, build)

	s := &Service{
		store:    store,
		orch:     orch,
		recorder: recorder,
		tracked:  cfg.Tracked(),
		logger:   logger,
	}

	store.OnChange(func(ctx context.Context, events []ChangeEvent, cycle *Cycle) error {
		candidates := FilterChanges(events, cycle, s.tracked)
		if len(candidates) == 0 {
			return nil
		}
		_, err := s.orch.Dispatch(ctx, candidates)
		return err
	})

	return s
}

// Store exposes the underlying lead store.
func (s *Service) Store() *Store {
	return s.store
}

// CreateLead inserts one lead; change capture dispatches the sync.
func (s *Service) CreateLead(ctx context.Context, l *models.Lead) error {
	return s.store.CreateLeads(ctx, []*models.Lead{l})
}

// UpdateLead saves one lead; change capture decides whether a sync is due.
func (s *Service) UpdateLead(ctx context.Context, l *models.Lead) error {
	return s.store.UpdateLeads(ctx, []*models.Lead{l})
}

// GetLead loads one lead.
func (s *Service) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	return s.store.GetByID(ctx, id)
}

// SyncByIDs dispatches a synchronization run for explicit identifiers,
// bypassing the change filter. Used by operators.
func (s *Service) SyncByIDs(ctx context.Context, ids []string) (scheduler.Handle, error) {
	return s.orch.Dispatch(ctx, ids)
}

// SyncUnsynced dispatches a run covering every lead without an external
// reference. Returns the handle and the number of enqueued identifiers.
func (s *Service) SyncUnsynced(ctx context.Context) (scheduler.Handle, int, error) {
	ids, err := s.store.ListUnsynced(ctx)
	if err != nil {
		return scheduler.Handle{}, 0, err
	}
	if len(ids) == 0 {
		return scheduler.Handle{}, 0, nil
	}
	handle, err := s.orch.Dispatch(ctx, ids)
	return handle, len(ids), err
}

// ListErrors returns recent sync failures from the durable log.
func (s *Service) ListErrors(ctx context.Context, limit int) ([]models.SyncErrorLog, error) {
	return s.store.ListErrors(ctx, limit)
}
