// Package memory holds process-local stores used when no database or cache
// is configured.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BrianGomezM/minizinc-novelas/internal/domain"
	"github.com/BrianGomezM/minizinc-novelas/internal/repository"
)

var _ repository.JobRepository = (*JobRepository)(nil)

// JobRepository keeps job records in a map.
type JobRepository struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]domain.JobRecord
}

// NewJobRepository creates an empty in-memory job repository.
func NewJobRepository() *JobRepository {
	return &JobRepository{jobs: make(map[uuid.UUID]domain.JobRecord)}
}

func (r *JobRepository) Create(ctx context.Context, rec *domain.JobRecord) error {
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[rec.JobID] = *rec
	return nil
}

// GetByID returns a copy of the stored record.
func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.JobRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return &rec, nil
}

func (r *JobRepository) SetResult(ctx context.Context, id uuid.UUID, resp *domain.SolveResponse, durationMs int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	rec.Status = resp.Status
	rec.Response = resp
	rec.DurationMs = &durationMs
	rec.UpdatedAt = time.Now().UTC()
	r.jobs[id] = rec
	return nil
}
