package solver

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BrianGomezM/minizinc-novelas/internal/domain"
)

// Waiter blocks on a solver process until it exits, times out or is killed,
// and classifies how it ended. It is meant to run on a pool worker.
type Waiter struct {
	logger *zap.Logger
}

// NewWaiter creates a new Waiter.
func NewWaiter(logger *zap.Logger) *Waiter {
	return &Waiter{logger: logger}
}

// Await waits for h for at most timeout, measured from the process start.
// Precedence: Preempted, then Timeout, then SolverError, then Success. A
// preemption ends the wait at once, even if the process is not reaped yet.
// A cancelled ctx means the service is shutting down; the process is then
// killed as if preempted.
func (w *Waiter) Await(ctx context.Context, h *Handle, timeout time.Duration) domain.Outcome {
	deadline := h.StartedAt().Add(timeout)
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	select {
	case <-h.Done():
		return w.classify(h, deadline)
	case <-h.CancelRequested():
		// Reaping stays with the handle; the caller learns of the preemption now.
		return domain.Preempted(h.elapsed())
	case <-ctx.Done():
		h.preempt()
		w.logger.Info("Solver killed on shutdown", zap.Int("pid", h.PID()))
		return domain.Preempted(h.elapsed())
	case <-timer.C:
	}

	// The process may have exited right at the deadline.
	select {
	case <-h.Done():
		return w.classify(h, deadline)
	default:
	}

	h.Kill()
	if h.Cancelled() {
		return domain.Preempted(h.elapsed())
	}

	w.logger.Warn("Solver exceeded time limit, killed",
		zap.Int("pid", h.PID()),
		zap.Duration("timeout", timeout),
	)
	// Reaping continues in the handle's own goroutine; a process stuck in the
	// kernel must not hold this worker past the ceiling.
	return domain.Timeout(h.elapsed())
}

func (w *Waiter) classify(h *Handle, deadline time.Time) domain.Outcome {
	elapsed := h.elapsed()

	if h.Cancelled() {
		return domain.Preempted(elapsed)
	}
	if h.stoppedAt.After(deadline) {
		return domain.Timeout(elapsed)
	}

	var outcome domain.Outcome
	if code := h.ExitCode(); code != 0 {
		w.logger.Debug("Solver exited with error",
			zap.Int("pid", h.PID()),
			zap.Int("exit_code", code),
		)
		outcome = domain.SolverError(h.Stdout(), h.Stderr(), code, elapsed)
	} else {
		outcome = domain.Success(h.Stdout(), elapsed)
	}

	if h.Truncated() {
		outcome.Truncated = true
		w.logger.Warn("Solver output exceeded capture limit",
			zap.Int("pid", h.PID()),
			zap.Int("limit_bytes", maxOutputBytes),
		)
	}
	return outcome
}
