package solver

import (
	"sync"

	"github.com/google/uuid"

	"github.com/BrianGomezM/minizinc-novelas/internal/domain"
	"github.com/BrianGomezM/minizinc-novelas/internal/metrics"
)

type entry struct {
	job    domain.Job
	handle *Handle
}

// Registry is the set of active jobs in admission order. All mutations go
// through mu; the Controller holds it across check-evict-launch-insert.
type Registry struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*entry
	order   []uuid.UUID
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[uuid.UUID]*entry)}
}

// Len returns the number of registered jobs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Contains reports whether id is registered.
func (r *Registry) Contains(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	return ok
}

// Snapshot returns the registered jobs, oldest first.
func (r *Registry) Snapshot() []domain.Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	jobs := make([]domain.Job, 0, len(r.order))
	for _, id := range r.order {
		jobs = append(jobs, r.entries[id].job)
	}
	return jobs
}

// Remove deregisters id. It reports false when id was not registered, so a
// job evicted earlier is never removed twice.
func (r *Registry) Remove(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(id)
}

// preemptAll kills and deregisters every job.
func (r *Registry) preemptAll() []domain.Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	var jobs []domain.Job
	for len(r.order) > 0 {
		e := r.oldestLocked()
		e.handle.preempt()
		r.removeLocked(e.job.ID)
		jobs = append(jobs, e.job)
	}
	return jobs
}

func (r *Registry) insertLocked(job domain.Job, h *Handle) {
	r.entries[job.ID] = &entry{job: job, handle: h}
	r.order = append(r.order, job.ID)
	metrics.ActiveJobs.Set(float64(len(r.entries)))
}

func (r *Registry) oldestLocked() *entry {
	if len(r.order) == 0 {
		return nil
	}
	return r.entries[r.order[0]]
}

func (r *Registry) removeLocked(id uuid.UUID) bool {
	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	metrics.ActiveJobs.Set(float64(len(r.entries)))
	return true
}
