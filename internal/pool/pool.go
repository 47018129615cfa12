package pool

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/BrianGomezM/minizinc-novelas/internal/domain"
	"github.com/BrianGomezM/minizinc-novelas/internal/metrics"
)

// Task is a unit of blocking work executed by a pool worker.
type Task func(ctx context.Context)

// WorkerPool manages a fixed-size pool of goroutines that run blocking tasks
// away from the goroutines serving requests.
type WorkerPool struct {
	size   int
	tasks  chan Task
	logger *zap.Logger
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool creates a new fixed-size worker pool with a buffered queue.
func NewWorkerPool(size, queue int, logger *zap.Logger) *WorkerPool {
	if size < 1 {
		size = 1
	}
	if queue < 0 {
		queue = 0
	}
	return &WorkerPool{
		size:   size,
		tasks:  make(chan Task, queue),
		logger: logger,
	}
}

// Size returns the number of workers.
func (p *WorkerPool) Size() int { return p.size }

// Start launches all worker goroutines. ctx is handed to every task so a
// cancelled ctx asks running tasks to give up. Call Stop to wait for them.
func (p *WorkerPool) Start(ctx context.Context) {
	p.logger.Info("Starting worker pool", zap.Int("pool_size", p.size))

	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Submit queues a task. It blocks while the queue is full and fails with
// domain.ErrPoolClosed once Stop has been called.
func (p *WorkerPool) Submit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return domain.ErrPoolClosed
	}
	p.tasks <- task
	return nil
}

// Stop closes the queue and waits for the workers to drain it and exit.
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("Worker pool stopped")
}

func (p *WorkerPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	p.logger.Debug("Worker started", zap.Int("worker_id", id))

	// Queued tasks are always run, even after ctx is cancelled: each one owns
	// cleanup (deregistration, result delivery) that must not be skipped.
	for task := range p.tasks {
		p.run(ctx, id, task)
	}

	p.logger.Debug("Task queue closed", zap.Int("worker_id", id))
}

func (p *WorkerPool) run(ctx context.Context, id int, task Task) {
	metrics.WorkersActive.Inc()
	defer metrics.WorkersActive.Dec()
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Worker panic recovered",
				zap.Int("worker_id", id),
				zap.Any("panic", r),
			)
		}
	}()

	task(ctx)
}
