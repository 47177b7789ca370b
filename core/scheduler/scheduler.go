package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrUnavailable is returned when a task cannot be accepted, either because
// the queue is full or because the pool has been stopped.
var ErrUnavailable = errors.New("scheduler: cannot enqueue task")

// Task is a unit of work executed asynchronously by the pool.
type Task interface {
	Run(ctx context.Context)
}

// Handle acknowledges an accepted task.
type Handle struct {
	// ID uniquely identifies the scheduling request.
	ID string
	// EnqueuedAt is the time the task was accepted.
	EnqueuedAt time.Time
}

// Scheduler accepts tasks for asynchronous execution. Enqueue either accepts
// the task and returns a handle, or fails with ErrUnavailable; it never
// blocks the caller.
type Scheduler interface {
	Enqueue(ctx context.Context, task Task) (Handle, error)
}

// Pool is the default Scheduler: a bounded queue drained by a fixed set of
// worker goroutines. Tasks run one at a time per worker, so two invocations
// never overlap on the same worker.
type Pool struct {
	tasks   chan Task
	workers int
	logger  *zap.Logger

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
	pending sync.WaitGroup
}

// NewPool creates a pool with the configured capacity and worker count.
// Workers do not run until Start is called.
func NewPool(cfg Config, logger *zap.Logger) *Pool {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = 64
	}
	return &Pool{
		tasks:   make(chan Task, capacity),
		workers: cfg.Workers,
		logger:  logger,
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start(ctx context.Context) {
	workers := 2
	if p.workers > 0 {
		workers = p.workers
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.work(ctx)
	}
}

// Enqueue accepts a task if the queue has room. It never blocks.
func (p *Pool) Enqueue(ctx context.Context, task Task) (Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return Handle{}, ErrUnavailable
	}

	select {
	case p.tasks <- task:
		p.pending.Add(1)
		return Handle{ID: uuid.NewString(), EnqueuedAt: time.Now()}, nil
	default:
		return Handle{}, ErrUnavailable
	}
}

// Drain blocks until every accepted task, including tasks those tasks
// enqueued in turn, has finished. It does not stop the pool.
func (p *Pool) Drain() {
	p.pending.Wait()
}

// Stop refuses new tasks, drains the queue, and waits for in-flight tasks
// to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) work(ctx context.Context) {
	defer p.wg.Done()
	for task := range p.tasks {
		func() {
			defer p.pending.Done()
			defer func() {
				if r := recover(); r != nil {
					p.logger.Error("task panicked", zap.Any("panic", r))
				}
			}()
			task.Run(ctx)
		}()
	}
}
