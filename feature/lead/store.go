package lead

import (
	"context"
	"fmt"

	"lead-sync/feature/lead/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ChangeHook receives the change events of one synchronous mutation cycle,
// together with that cycle's recursion guard. It runs on the caller's
// goroutine, at the point of mutation.
type ChangeHook func(ctx context.Context, events []ChangeEvent, cycle *Cycle) error

// Store is the durable lead store and the change source. Every mutating
// operation captures before/after snapshots and fires the registered change
// hook synchronously.
type Store struct {
	db     *gorm.DB
	hook   ChangeHook
	logger *zap.Logger
}

// NewStore creates a store on the given connection.
func NewStore(db *gorm.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// OnChange registers the change hook. At most one hook is supported.
func (s *Store) OnChange(hook ChangeHook) {
	s.hook = hook
}

// CreateLeads inserts the leads and fires the change hook with create
// events. Missing identifiers are assigned.
func (s *Store) CreateLeads(ctx context.Context, leads []*models.Lead) error {
	if len(leads) == 0 {
		return nil
	}

	for _, l := range leads {
		if l.ID == "" {
			l.ID = uuid.NewString()
		}
	}

	if err := s.db.WithContext(ctx).Create(&leads).Error; err != nil {
		return fmt.Errorf("create leads: %w", err)
	}

	events := make([]ChangeEvent, len(leads))
	for i, l := range leads {
		events[i] = ChangeEvent{ID: l.ID, Op: OpCreate, New: SnapshotOf(l)}
	}

	return s.dispatch(ctx, events, NewCycle())
}

// UpdateLeads saves the leads and fires the change hook with update events
// carrying before/after snapshots.
func (s *Store) UpdateLeads(ctx context.Context, leads []*models.Lead) error {
	if len(leads) == 0 {
		return nil
	}

	ids := make([]string, len(leads))
	for i, l := range leads {
		if l.ID == "" {
			return fmt.Errorf("update leads: lead without identifier")
		}
		ids[i] = l.ID
	}

	before, err := s.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	old := make(map[string]Snapshot, len(before))
	for i := range before {
		old[before[i].ID] = SnapshotOf(&before[i])
	}

	events := make([]ChangeEvent, 0, len(leads))
	for _, l := range leads {
		prev, ok := old[l.ID]
		if !ok {
			return fmt.Errorf("update leads: lead %s not found", l.ID)
		}
		if err := s.db.WithContext(ctx).Save(l).Error; err != nil {
			return fmt.Errorf("update lead %s: %w", l.ID, err)
		}
		events = append(events, ChangeEvent{ID: l.ID, Op: OpUpdate, Old: prev, New: SnapshotOf(l)})
	}

	return s.dispatch(ctx, events, NewCycle())
}

// GetByIDs loads leads in a single bulk read. Missing identifiers are
// silently absent from the result.
func (s *Store) GetByIDs(ctx context.Context, ids []string) ([]models.Lead, error) {
	var leads []models.Lead
	if len(ids) == 0 {
		return leads, nil
	}
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&leads).Error; err != nil {
		return nil, fmt.Errorf("load leads: %w", err)
	}
	return leads, nil
}

// GetByID loads one lead.
func (s *Store) GetByID(ctx context.Context, id string) (*models.Lead, error) {
	var l models.Lead
	if err := s.db.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// ListUnsynced returns the identifiers of all leads without an external
// reference, in insertion order.
func (s *Store) ListUnsynced(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&models.Lead{}).
		Where("external_ref = ?", "").
		Order("created_at").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list unsynced leads: %w", err)
	}
	return ids, nil
}

// ApplyExternalRefs writes external references back in one transaction.
// Every affected identifier is marked in the cycle before the write, so the
// change hook fired by the write-back cannot re-trigger a sync within this
// cycle.
func (s *Store) ApplyExternalRefs(ctx context.Context, refs map[string]string, cycle *Cycle) error {
	if len(refs) == 0 {
		return nil
	}

	ids := make([]string, 0, len(refs))
	for id := range refs {
		ids = append(ids, id)
	}

	before, err := s.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}

	// Mark first: the recursion guard must be closed before the write-back
	// can fire the change hook.
	cycle.Mark(ids...)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for id, ref := range refs {
			if err := tx.Model(&models.Lead{}).Where("id = ?", id).
				Update("external_ref", ref).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write back external refs: %w", err)
	}

	events := make([]ChangeEvent, 0, len(before))
	for i := range before {
		after := before[i]
		after.ExternalRef = refs[after.ID]
		events = append(events, ChangeEvent{
			ID:  after.ID,
			Op:  OpUpdate,
			Old: SnapshotOf(&before[i]),
			New: SnapshotOf(&after),
		})
	}

	return s.dispatch(ctx, events, cycle)
}

// ListErrors returns the most recent sync error log rows.
func (s *Store) ListErrors(ctx context.Context, limit int) ([]models.SyncErrorLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.SyncErrorLog
	err := s.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list sync errors: %w", err)
	}
	return rows, nil
}

func (s *Store) dispatch(ctx context.Context, events []ChangeEvent, cycle *Cycle) error {
	if s.hook == nil || len(events) == 0 {
		return nil
	}
	return s.hook(ctx, events, cycle)
}
