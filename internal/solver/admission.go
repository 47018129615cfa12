package solver

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BrianGomezM/minizinc-novelas/internal/domain"
	"github.com/BrianGomezM/minizinc-novelas/internal/metrics"
)

// DefaultMaxConcurrent is the admission bound used when none is configured.
const DefaultMaxConcurrent = 2

// Controller enforces the admission bound. When the registry is full it
// preempts the oldest job (first admitted, first evicted) before launching.
type Controller struct {
	registry *Registry
	launcher *Launcher
	bound    int
	logger   *zap.Logger
}

// NewController creates a Controller admitting at most bound concurrent jobs.
func NewController(registry *Registry, launcher *Launcher, bound int, logger *zap.Logger) *Controller {
	if bound < 1 {
		bound = DefaultMaxConcurrent
	}
	return &Controller{
		registry: registry,
		launcher: launcher,
		bound:    bound,
		logger:   logger,
	}
}

// Bound returns the admission bound.
func (c *Controller) Bound() int { return c.bound }

// Admit launches the solver for req and registers it under a fresh id.
// The bound check, eviction, launch and insert happen under one lock, so
// concurrent admissions never pick the same victim nor overshoot the bound.
// A binary that cannot be resolved fails before anything is evicted.
func (c *Controller) Admit(req domain.SolveRequest) (domain.Job, *Handle, error) {
	cmd := c.launcher.CommandFor(req)
	h, err := c.launcher.prepare(cmd)
	if err != nil {
		return domain.Job{}, nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return domain.Job{}, nil, fmt.Errorf("generate job id: %w", err)
	}

	c.registry.mu.Lock()
	defer c.registry.mu.Unlock()

	for len(c.registry.entries) >= c.bound {
		victim := c.registry.oldestLocked()
		victim.handle.preempt()
		c.registry.removeLocked(victim.job.ID)

		metrics.Preemptions.WithLabelValues(string(victim.job.Model)).Inc()
		c.logger.Info("Job preempted by concurrency limit",
			zap.String("job_id", victim.job.ID.String()),
			zap.Int("pid", victim.job.PID),
			zap.String("admitting_job_id", id.String()),
			zap.Int("bound", c.bound),
		)
	}

	if err := c.launcher.start(h, cmd); err != nil {
		return domain.Job{}, nil, err
	}

	job := domain.Job{
		ID:        id,
		Model:     req.Model,
		PID:       h.PID(),
		CreatedAt: h.StartedAt().UTC(),
	}
	c.registry.insertLocked(job, h)

	c.logger.Info("Job admitted",
		zap.String("job_id", id.String()),
		zap.String("model", string(req.Model)),
		zap.Int("pid", job.PID),
		zap.Int("active", len(c.registry.entries)),
	)
	return job, h, nil
}
