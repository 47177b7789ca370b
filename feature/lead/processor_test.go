package lead

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"lead-sync/core/scheduler"
	"lead-sync/feature/lead/models"
	"lead-sync/feature/lead/synclog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStore is an in-memory RecordStore.
type fakeStore struct {
	leads    map[string]models.Lead
	reads    [][]string
	applied  []map[string]string
	readErr  error
	applyErr error
}

func newFakeStore(ids ...string) *fakeStore {
	f := &fakeStore{leads: make(map[string]models.Lead)}
	for _, id := range ids {
		f.leads[id] = models.Lead{ID: id, FirstName: "Lead", LastName: id, Status: "new"}
	}
	return f
}

func (f *fakeStore) GetByIDs(ctx context.Context, ids []string) ([]models.Lead, error) {
	f.reads = append(f.reads, ids)
	if f.readErr != nil {
		return nil, f.readErr
	}
	out := make([]models.Lead, 0, len(ids))
	for _, id := range ids {
		if l, ok := f.leads[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) ApplyExternalRefs(ctx context.Context, refs map[string]string, cycle *Cycle) error {
	f.applied = append(f.applied, refs)
	if f.applyErr != nil {
		return f.applyErr
	}
	cycle.Mark(keysOf(refs)...)
	for id, ref := range refs {
		l := f.leads[id]
		l.ExternalRef = ref
		f.leads[id] = l
	}
	return nil
}

func keysOf(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// fakeSender succeeds with EXT-<id> unless an override is registered.
type fakeSender struct {
	overrides map[string]Result
	panicOn   string
	sent      []string
}

func (f *fakeSender) Send(ctx context.Context, l *models.Lead) Result {
	if f.panicOn != "" && l.ID == f.panicOn {
		panic("sender exploded")
	}
	f.sent = append(f.sent, l.ID)
	if res, ok := f.overrides[l.ID]; ok {
		res.RecordID = l.ID
		return res
	}
	return Result{RecordID: l.ID, ExternalRef: "EXT-" + l.ID, StatusCode: 200}
}

// fakeRecorder collects entries.
type fakeRecorder struct {
	entries []synclog.Entry
}

func (f *fakeRecorder) Record(ctx context.Context, entries ...synclog.Entry) {
	f.entries = append(f.entries, entries...)
}

func (f *fakeRecorder) byKind(kind synclog.Kind) []synclog.Entry {
	var out []synclog.Entry
	for _, e := range f.entries {
		if e.ErrorKind == kind {
			out = append(out, e)
		}
	}
	return out
}

// stepScheduler captures enqueued tasks so the test drives execution.
type stepScheduler struct {
	tasks     []scheduler.Task
	failAfter int // enqueues accepted before ErrUnavailable; -1 = never fail
	enqueued  int
}

func (s *stepScheduler) Enqueue(ctx context.Context, task scheduler.Task) (scheduler.Handle, error) {
	if s.failAfter >= 0 && s.enqueued >= s.failAfter {
		return scheduler.Handle{}, scheduler.ErrUnavailable
	}
	s.enqueued++
	s.tasks = append(s.tasks, task)
	return scheduler.Handle{ID: fmt.Sprintf("h-%d", s.enqueued)}, nil
}

func (s *stepScheduler) pop() scheduler.Task {
	if len(s.tasks) == 0 {
		return nil
	}
	t := s.tasks[0]
	s.tasks = s.tasks[1:]
	return t
}

func idRange(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("l%03d", i)
	}
	return ids
}

func newTestProcessor(queue []string, chunk int, store *fakeStore, sender *fakeSender,
	rec *fakeRecorder, sched *stepScheduler) *Processor {
	return NewProcessor(queue, chunk, "crm", store, sender, rec, sched, zap.NewNop())
}

func TestProcessor_SingleChunkCompletes(t *testing.T) {
	ids := []string{"l1", "l2", "l3"}
	store := newFakeStore(ids...)
	sender := &fakeSender{}
	rec := &fakeRecorder{}
	sched := &stepScheduler{failAfter: -1}

	p := newTestProcessor(ids, 50, store, sender, rec, sched)
	assert.Equal(t, StateIdle, p.State())

	p.Run(context.Background())

	assert.Equal(t, StateCompleted, p.State())
	require.Len(t, store.reads, 1)
	assert.Equal(t, ids, store.reads[0])
	require.Len(t, store.applied, 1)
	assert.Equal(t, "EXT-l2", store.applied[0]["l2"])
	assert.Empty(t, rec.entries)
	assert.Zero(t, sched.enqueued)
}

func TestProcessor_ChunkingScenario(t *testing.T) {
	// 120 candidates, chunk size 50: three invocations processing 50/50/20.
	ids := idRange(120)
	store := newFakeStore(ids...)
	sender := &fakeSender{}
	rec := &fakeRecorder{}
	sched := &stepScheduler{failAfter: -1}

	p1 := newTestProcessor(ids, 50, store, sender, rec, sched)
	p1.Run(context.Background())
	assert.Equal(t, StateRescheduled, p1.State())

	p2 := sched.pop().(*Processor)
	p2.Run(context.Background())
	assert.Equal(t, StateRescheduled, p2.State())

	p3 := sched.pop().(*Processor)
	p3.Run(context.Background())
	assert.Equal(t, StateCompleted, p3.State())

	assert.Nil(t, sched.pop())
	require.Len(t, store.reads, 3)
	assert.Len(t, store.reads[0], 50)
	assert.Len(t, store.reads[1], 50)
	assert.Len(t, store.reads[2], 20)

	// Union of processed identifiers equals the original set, no duplicates.
	seen := make(map[string]int)
	for _, batch := range store.reads {
		for _, id := range batch {
			seen[id]++
		}
	}
	assert.Len(t, seen, 120)
	for id, count := range seen {
		assert.Equal(t, 1, count, "id %s processed more than once", id)
	}
	assert.Empty(t, rec.entries)
}

func TestProcessor_TransportFailureDoesNotAbortBatch(t *testing.T) {
	ids := []string{"l1", "l2", "l3"}
	store := newFakeStore(ids...)
	sender := &fakeSender{overrides: map[string]Result{
		"l2": {Kind: synclog.KindTransport, Message: "dial tcp: connection refused"},
	}}
	rec := &fakeRecorder{}
	sched := &stepScheduler{failAfter: -1}

	p := newTestProcessor(ids, 50, store, sender, rec, sched)
	p.Run(context.Background())

	assert.Equal(t, StateCompleted, p.State())
	require.Len(t, store.applied, 1)
	assert.Equal(t, map[string]string{"l1": "EXT-l1", "l3": "EXT-l3"}, store.applied[0])

	transport := rec.byKind(synclog.KindTransport)
	require.Len(t, transport, 1)
	assert.Equal(t, "l2", transport[0].RecordID)
	assert.Zero(t, transport[0].StatusCode)
}

func TestProcessor_ApiErrorPreservesRawBody(t *testing.T) {
	ids := []string{"l1"}
	store := newFakeStore(ids...)
	sender := &fakeSender{overrides: map[string]Result{
		"l1": {
			Kind:       synclog.KindAPI,
			StatusCode: 500,
			RawBody:    `{"error":"rate_limited"}`,
			Message:    "external system returned status 500",
		},
	}}
	rec := &fakeRecorder{}
	sched := &stepScheduler{failAfter: -1}

	p := newTestProcessor(ids, 50, store, sender, rec, sched)
	p.Run(context.Background())

	assert.Equal(t, StateCompleted, p.State())
	assert.Empty(t, store.applied)

	api := rec.byKind(synclog.KindAPI)
	require.Len(t, api, 1)
	assert.Equal(t, 500, api[0].StatusCode)
	assert.Equal(t, `{"error":"rate_limited"}`, api[0].RawResponse)
	assert.Equal(t, "crm", api[0].Integration)
}

func TestProcessor_WriteBackFailureLogsPersistenceEntries(t *testing.T) {
	ids := []string{"l1", "l2"}
	store := newFakeStore(ids...)
	store.applyErr = fmt.Errorf("deadlock found")
	sender := &fakeSender{}
	rec := &fakeRecorder{}
	sched := &stepScheduler{failAfter: -1}

	p := newTestProcessor(ids, 50, store, sender, rec, sched)
	p.Run(context.Background())

	// The write-back failure is absorbed; the run still completes.
	assert.Equal(t, StateCompleted, p.State())

	persistence := rec.byKind(synclog.KindPersistence)
	require.Len(t, persistence, 2)
	got := []string{persistence[0].RecordID, persistence[1].RecordID}
	assert.ElementsMatch(t, ids, got)
}

func TestProcessor_BulkReadFailureStillReschedules(t *testing.T) {
	ids := idRange(60)
	store := newFakeStore(ids...)
	store.readErr = fmt.Errorf("connection lost")
	sender := &fakeSender{}
	rec := &fakeRecorder{}
	sched := &stepScheduler{failAfter: -1}

	p := newTestProcessor(ids, 50, store, sender, rec, sched)
	p.Run(context.Background())

	assert.Equal(t, StateRescheduled, p.State())
	assert.Equal(t, 1, sched.enqueued)

	persistence := rec.byKind(synclog.KindPersistence)
	require.Len(t, persistence, 1)
	// One batch-wide entry referencing every identifier in the batch.
	assert.Len(t, strings.Split(persistence[0].RecordID, ","), 50)
}

func TestProcessor_PanicIsRecoveredAndRemainderProceeds(t *testing.T) {
	ids := idRange(60)
	store := newFakeStore(ids...)
	sender := &fakeSender{panicOn: "l010"}
	rec := &fakeRecorder{}
	sched := &stepScheduler{failAfter: -1}

	p := newTestProcessor(ids, 50, store, sender, rec, sched)
	p.Run(context.Background())

	assert.Equal(t, StateRescheduled, p.State())

	internal := rec.byKind(synclog.KindInternal)
	require.Len(t, internal, 1)
	assert.Contains(t, internal[0].Message, "panicked")
	assert.Len(t, strings.Split(internal[0].RecordID, ","), 50)
}

func TestProcessor_SchedulingFailureTerminatesRun(t *testing.T) {
	ids := idRange(60)
	store := newFakeStore(ids...)
	sender := &fakeSender{}
	rec := &fakeRecorder{}
	sched := &stepScheduler{failAfter: 0}

	p := newTestProcessor(ids, 50, store, sender, rec, sched)
	p.Run(context.Background())

	assert.Equal(t, StateFailed, p.State())
	// The first chunk was still processed and written back.
	require.Len(t, store.applied, 1)
	assert.Len(t, store.applied[0], 50)

	scheduling := rec.byKind(synclog.KindScheduling)
	require.Len(t, scheduling, 1)
	assert.Len(t, strings.Split(scheduling[0].RecordID, ","), 10)
}
