package solver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BrianGomezM/minizinc-novelas/internal/domain"
	"github.com/BrianGomezM/minizinc-novelas/internal/pool"
)

// DefaultTimeout is the wait ceiling for a single solver run.
const DefaultTimeout = 900 * time.Second

// ErrWaitAborted is returned when a wait ended without producing an outcome,
// e.g. the waiting task panicked. The job is deregistered regardless.
var ErrWaitAborted = errors.New("solver wait aborted")

// Supervisor ties admission, the wait pool and deregistration together.
type Supervisor struct {
	registry   *Registry
	controller *Controller
	waiter     *Waiter
	pool       *pool.WorkerPool
	timeout    time.Duration
	logger     *zap.Logger
}

// NewSupervisor creates a Supervisor. The pool must be started by the caller.
func NewSupervisor(
	registry *Registry,
	controller *Controller,
	waiter *Waiter,
	workers *pool.WorkerPool,
	timeout time.Duration,
	logger *zap.Logger,
) *Supervisor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Supervisor{
		registry:   registry,
		controller: controller,
		waiter:     waiter,
		pool:       workers,
		timeout:    timeout,
		logger:     logger,
	}
}

// Timeout returns the configured wait ceiling.
func (s *Supervisor) Timeout() time.Duration { return s.timeout }

// Bound returns the admission bound.
func (s *Supervisor) Bound() int { return s.controller.Bound() }

// Start admits req and schedules the wait on the pool. The returned channel
// yields exactly one outcome and is then closed; it is closed without a value
// only if the wait was aborted.
func (s *Supervisor) Start(req domain.SolveRequest) (domain.Job, <-chan domain.Outcome, error) {
	job, h, err := s.controller.Admit(req)
	if err != nil {
		return domain.Job{}, nil, err
	}

	outcomes := make(chan domain.Outcome, 1)
	task := func(ctx context.Context) {
		defer close(outcomes)
		if outcome, ok := s.await(ctx, job, h); ok {
			outcomes <- outcome
		}
	}

	if err := s.pool.Submit(task); err != nil {
		h.Kill()
		s.registry.Remove(job.ID)
		return domain.Job{}, nil, fmt.Errorf("schedule wait for job %s: %w", job.ID, err)
	}
	return job, outcomes, nil
}

// await runs the waiter and deregisters the job on every path, before the
// outcome is handed to anyone.
func (s *Supervisor) await(ctx context.Context, job domain.Job, h *Handle) (outcome domain.Outcome, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Solver wait panicked",
				zap.String("job_id", job.ID.String()),
				zap.Any("panic", r),
			)
			ok = false
		}
		h.Kill()
		s.registry.Remove(job.ID)
	}()

	outcome = s.waiter.Await(ctx, h, s.timeout)
	s.logger.Info("Job finished",
		zap.String("job_id", job.ID.String()),
		zap.String("outcome", string(outcome.Kind)),
		zap.Duration("elapsed", outcome.Duration),
	)
	return outcome, true
}

// Run admits req and blocks until its outcome is known or ctx is done.
// A done ctx does not stop the job; its outcome is still produced and the
// job deregistered by the pool.
func (s *Supervisor) Run(ctx context.Context, req domain.SolveRequest) (domain.Job, domain.Outcome, error) {
	job, outcomes, err := s.Start(req)
	if err != nil {
		return domain.Job{}, domain.Outcome{}, err
	}

	outcome, err := Receive(ctx, outcomes)
	return job, outcome, err
}

// Receive waits for the single outcome on ch.
func Receive(ctx context.Context, ch <-chan domain.Outcome) (domain.Outcome, error) {
	select {
	case outcome, ok := <-ch:
		if !ok {
			return domain.Outcome{}, ErrWaitAborted
		}
		return outcome, nil
	case <-ctx.Done():
		return domain.Outcome{}, ctx.Err()
	}
}

// Active returns the registered jobs, oldest first.
func (s *Supervisor) Active() []domain.Job {
	return s.registry.Snapshot()
}

// Shutdown preempts every registered job. Their waiters report Preempted.
func (s *Supervisor) Shutdown() {
	for _, job := range s.registry.preemptAll() {
		s.logger.Info("Job preempted on shutdown",
			zap.String("job_id", job.ID.String()),
			zap.Int("pid", job.PID),
		)
	}
}
