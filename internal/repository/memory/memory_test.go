package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/BrianGomezM/minizinc-novelas/internal/domain"
)

func TestJobRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewJobRepository()

	id := uuid.Must(uuid.NewV7())
	rec := &domain.JobRecord{JobID: id, Model: domain.ModelParte1, Status: domain.StatusRunning}
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	resp := &domain.SolveResponse{Status: domain.StatusSuccess, Result: &domain.Schedule{TotalCost: 7}}
	if err := repo.SetResult(ctx, id, resp, 1500); err != nil {
		t.Fatalf("set result: %v", err)
	}

	got, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.StatusSuccess {
		t.Errorf("expected SUCCESS, got %s", got.Status)
	}
	if got.DurationMs == nil || *got.DurationMs != 1500 {
		t.Errorf("expected duration 1500, got %v", got.DurationMs)
	}
	if got.Response.Result.TotalCost != 7 {
		t.Errorf("expected cost 7, got %d", got.Response.Result.TotalCost)
	}
}

func TestJobRepository_NotFound(t *testing.T) {
	repo := NewJobRepository()
	id := uuid.Must(uuid.NewV7())

	if _, err := repo.GetByID(context.Background(), id); !errors.Is(err, domain.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
	err := repo.SetResult(context.Background(), id, &domain.SolveResponse{Status: domain.StatusTimeout}, 1)
	if !errors.Is(err, domain.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestResultCache_TTL(t *testing.T) {
	ctx := context.Background()
	c := NewResultCache(time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	if _, err := c.Get(ctx, "k"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}

	_ = c.Set(ctx, "k", &domain.SolveResponse{Status: domain.StatusSuccess})
	got, err := c.Get(ctx, "k")
	if err != nil || got.Status != domain.StatusSuccess {
		t.Fatalf("expected hit, got %v %v", got, err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := c.Get(ctx, "k"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Errorf("expected expired entry to miss, got %v", err)
	}
}

func TestResultCache_SweepDropsExpired(t *testing.T) {
	ctx := context.Background()
	c := NewResultCache(time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "old", &domain.SolveResponse{Status: domain.StatusSuccess})
	now = now.Add(30 * time.Second)
	_ = c.Set(ctx, "fresh", &domain.SolveResponse{Status: domain.StatusSuccess})
	now = now.Add(45 * time.Second)

	if removed := c.Sweep(); removed != 1 {
		t.Errorf("expected 1 entry swept, got %d", removed)
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry left, got %d", c.Len())
	}
	if _, err := c.Get(ctx, "fresh"); err != nil {
		t.Errorf("fresh entry should survive the sweep, got %v", err)
	}
}

func TestResultCache_RunStopsWithContext(t *testing.T) {
	c := NewResultCache(time.Millisecond)
	_ = c.Set(context.Background(), "k", &domain.SolveResponse{Status: domain.StatusSuccess})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for c.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if c.Len() != 0 {
		t.Errorf("expected expired entry to be swept, %d left", c.Len())
	}
}
