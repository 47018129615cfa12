package memory

import (
	"context"
	"sync"
	"time"

	"github.com/BrianGomezM/minizinc-novelas/internal/domain"
	"github.com/BrianGomezM/minizinc-novelas/internal/repository"
)

var _ repository.ResultCache = (*ResultCache)(nil)

type cachedResult struct {
	resp      domain.SolveResponse
	expiresAt time.Time
}

// ResultCache is a TTL map. Expired entries are dropped on read and by Run.
type ResultCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cachedResult
}

// NewResultCache creates a cache whose entries live for ttl.
func NewResultCache(ttl time.Duration) *ResultCache {
	return &ResultCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedResult),
	}
}

func (c *ResultCache) Get(ctx context.Context, key string) (*domain.SolveResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, domain.ErrCacheMiss
	}
	resp := e.resp
	return &resp, nil
}

func (c *ResultCache) Set(ctx context.Context, key string, resp *domain.SolveResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cachedResult{resp: *resp, expiresAt: c.now().Add(c.ttl)}
	return nil
}

// Sweep drops every expired entry and returns how many were removed.
func (c *ResultCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Run sweeps expired entries every interval until ctx is done.
func (c *ResultCache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.Sweep()
		case <-ctx.Done():
			return
		}
	}
}

// Len returns the number of stored entries, expired ones included.
func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
