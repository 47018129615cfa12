package mock

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/BrianGomezM/minizinc-novelas/internal/domain"
	"github.com/BrianGomezM/minizinc-novelas/internal/repository"
)

var (
	_ repository.JobRepository = (*JobRepository)(nil)
	_ repository.ResultCache   = (*ResultCache)(nil)
)

// JobRepository is an in-memory mock of the job repository for testing.
type JobRepository struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*domain.JobRecord

	// Hook functions for injecting errors
	CreateFn    func(ctx context.Context, rec *domain.JobRecord) error
	GetByIDFn   func(ctx context.Context, id uuid.UUID) (*domain.JobRecord, error)
	SetResultFn func(ctx context.Context, id uuid.UUID, resp *domain.SolveResponse, durationMs int64) error

	SetResultCalls int
}

// NewJobRepository creates a new mock repository.
func NewJobRepository() *JobRepository {
	return &JobRepository{jobs: make(map[uuid.UUID]*domain.JobRecord)}
}

func (m *JobRepository) Create(ctx context.Context, rec *domain.JobRecord) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.jobs[rec.JobID] = &cp
	return nil
}

func (m *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.JobRecord, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *JobRepository) SetResult(ctx context.Context, id uuid.UUID, resp *domain.SolveResponse, durationMs int64) error {
	m.mu.Lock()
	m.SetResultCalls++
	m.mu.Unlock()

	if m.SetResultFn != nil {
		return m.SetResultFn(ctx, id, resp, durationMs)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.jobs[id]
	if !ok {
		return domain.ErrJobNotFound
	}
	rec.Status = resp.Status
	rec.Response = resp
	rec.DurationMs = &durationMs
	return nil
}

// GetAll returns all stored records (for test assertions).
func (m *JobRepository) GetAll() []*domain.JobRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.JobRecord, 0, len(m.jobs))
	for _, rec := range m.jobs {
		cp := *rec
		out = append(out, &cp)
	}
	return out
}

// ResultCache is a map-backed mock cache.
type ResultCache struct {
	mu      sync.Mutex
	entries map[string]*domain.SolveResponse

	GetFn func(ctx context.Context, key string) (*domain.SolveResponse, error)
	SetFn func(ctx context.Context, key string, resp *domain.SolveResponse) error
}

// NewResultCache creates an empty mock cache.
func NewResultCache() *ResultCache {
	return &ResultCache{entries: make(map[string]*domain.SolveResponse)}
}

func (m *ResultCache) Get(ctx context.Context, key string) (*domain.SolveResponse, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	resp, ok := m.entries[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return resp, nil
}

func (m *ResultCache) Set(ctx context.Context, key string, resp *domain.SolveResponse) error {
	if m.SetFn != nil {
		return m.SetFn(ctx, key, resp)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = resp
	return nil
}

// Len returns the number of cached entries.
func (m *ResultCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
