package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/google/uuid"

	"github.com/BrianGomezM/minizinc-novelas/internal/domain"
)

// JobRepository defines the interface for job history persistence.
// Implementations must be safe for concurrent use.
type JobRepository interface {
	// Create inserts a new job record.
	Create(ctx context.Context, rec *domain.JobRecord) error

	// GetByID retrieves a job record by its UUID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.JobRecord, error)

	// SetResult stores the terminal status and normalized response of a job.
	SetResult(ctx context.Context, id uuid.UUID, resp *domain.SolveResponse, durationMs int64) error
}

// ResultCache stores successful responses keyed by CacheKey.
type ResultCache interface {
	// Get returns domain.ErrCacheMiss when key is absent.
	Get(ctx context.Context, key string) (*domain.SolveResponse, error)
	Set(ctx context.Context, key string, resp *domain.SolveResponse) error
}

// CacheKey identifies a (model, data) pair.
func CacheKey(model domain.Model, data []byte) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
