package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BrianGomezM/minizinc-novelas/internal/domain"
	"github.com/BrianGomezM/minizinc-novelas/internal/metrics"
	"github.com/BrianGomezM/minizinc-novelas/internal/publisher"
	"github.com/BrianGomezM/minizinc-novelas/internal/repository"
	"github.com/BrianGomezM/minizinc-novelas/internal/result"
	"github.com/BrianGomezM/minizinc-novelas/internal/solver"
)

// storeTimeout bounds history, cache and broker writes made after a job ended.
const storeTimeout = 5 * time.Second

// JobRunner admits solver jobs. *solver.Supervisor implements it.
type JobRunner interface {
	Start(req domain.SolveRequest) (domain.Job, <-chan domain.Outcome, error)
	Active() []domain.Job
	Bound() int
}

// SolveInput is one uploaded data file for a model.
type SolveInput struct {
	Model domain.Model
	Data  []byte
}

// SolveJobUsecase runs uploaded data files through the solver and records
// the normalized outcome.
type SolveJobUsecase struct {
	runner     JobRunner
	normalizer *result.Normalizer
	repo       repository.JobRepository
	cache      repository.ResultCache
	publisher  publisher.Publisher
	models     map[domain.Model]string
	maxBytes   int64
	tmpDir     string
	logger     *zap.Logger

	inflight sync.WaitGroup
}

// NewSolveJobUsecase creates a new SolveJobUsecase. models maps each model
// name to its .mzn file; maxBytes caps the data file size.
func NewSolveJobUsecase(
	runner JobRunner,
	normalizer *result.Normalizer,
	repo repository.JobRepository,
	cache repository.ResultCache,
	pub publisher.Publisher,
	models map[domain.Model]string,
	maxBytes int64,
	logger *zap.Logger,
) *SolveJobUsecase {
	return &SolveJobUsecase{
		runner:     runner,
		normalizer: normalizer,
		repo:       repo,
		cache:      cache,
		publisher:  pub,
		models:     models,
		maxBytes:   maxBytes,
		tmpDir:     os.TempDir(),
		logger:     logger,
	}
}

// Solve runs in and blocks until its record is final or ctx is done. A done
// ctx leaves the job running; its record is still finalized.
func (uc *SolveJobUsecase) Solve(ctx context.Context, in SolveInput) (*domain.JobRecord, error) {
	_, final, err := uc.begin(ctx, in)
	if err != nil {
		return nil, err
	}

	select {
	case rec := <-final:
		return rec, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Submit starts in and returns immediately with the job id.
func (uc *SolveJobUsecase) Submit(ctx context.Context, in SolveInput) (*domain.SubmitResponse, error) {
	rec, _, err := uc.begin(ctx, in)
	if err != nil {
		return nil, err
	}
	return &domain.SubmitResponse{JobID: rec.JobID, Status: rec.Status}, nil
}

// Wait blocks until every started job has been finalized.
func (uc *SolveJobUsecase) Wait() {
	uc.inflight.Wait()
}

func (uc *SolveJobUsecase) validate(in SolveInput) (string, error) {
	modelPath, ok := uc.models[in.Model]
	if !ok {
		return "", domain.ErrUnknownModel
	}
	if len(bytes.TrimSpace(in.Data)) == 0 {
		return "", domain.ErrEmptyDataFile
	}
	if int64(len(in.Data)) > uc.maxBytes {
		return "", domain.ErrPayloadTooLarge
	}
	return modelPath, nil
}

// begin validates and starts in. The returned channel yields the final
// record exactly once.
func (uc *SolveJobUsecase) begin(ctx context.Context, in SolveInput) (*domain.JobRecord, <-chan *domain.JobRecord, error) {
	modelPath, err := uc.validate(in)
	if err != nil {
		return nil, nil, err
	}

	key := repository.CacheKey(in.Model, in.Data)
	if rec, ok := uc.fromCache(ctx, in.Model, key); ok {
		final := make(chan *domain.JobRecord, 1)
		final <- rec
		return rec, final, nil
	}

	dataPath, err := uc.writeDataFile(in.Data)
	if err != nil {
		return nil, nil, err
	}

	job, outcomes, err := uc.runner.Start(domain.SolveRequest{
		Model:     in.Model,
		ModelPath: modelPath,
		DataPath:  dataPath,
	})
	if err != nil {
		uc.removeDataFile(dataPath)
		uc.logger.Error("Failed to start solver job", zap.Error(err), zap.String("model", string(in.Model)))
		return nil, nil, err
	}

	rec := &domain.JobRecord{
		JobID:     job.ID,
		Model:     job.Model,
		Status:    domain.StatusRunning,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.CreatedAt,
	}
	if err := uc.repo.Create(ctx, rec); err != nil {
		// The job is already running; history is best effort from here on.
		uc.logger.Error("Failed to record job", zap.Error(err), zap.String("job_id", job.ID.String()))
	}

	final := make(chan *domain.JobRecord, 1)
	uc.inflight.Add(1)
	go func() {
		defer uc.inflight.Done()
		defer uc.removeDataFile(dataPath)
		final <- uc.finalize(*rec, key, outcomes)
	}()

	uc.logger.Info("Job started",
		zap.String("job_id", job.ID.String()),
		zap.String("model", string(job.Model)),
		zap.Int("pid", job.PID),
	)
	return rec, final, nil
}

func (uc *SolveJobUsecase) finalize(rec domain.JobRecord, key string, outcomes <-chan domain.Outcome) *domain.JobRecord {
	var (
		resp     domain.SolveResponse
		duration time.Duration
	)
	outcome, err := solver.Receive(context.Background(), outcomes)
	if err != nil {
		resp = domain.SolveResponse{Status: domain.StatusInternalError, Message: err.Error()}
	} else {
		resp = uc.normalizer.Normalize(outcome)
		duration = outcome.Duration
		metrics.JobDuration.WithLabelValues(string(rec.Model)).Observe(duration.Seconds())
	}
	metrics.JobsTotal.WithLabelValues(string(rec.Model), string(resp.Status)).Inc()

	durationMs := duration.Milliseconds()
	rec.Status = resp.Status
	rec.Response = &resp
	rec.DurationMs = &durationMs
	rec.UpdatedAt = time.Now().UTC()

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if err := uc.repo.SetResult(ctx, rec.JobID, &resp, durationMs); err != nil {
		uc.logger.Error("Failed to store result", zap.Error(err), zap.String("job_id", rec.JobID.String()))
	}

	if resp.Status == domain.StatusSuccess {
		if err := uc.cache.Set(ctx, key, &resp); err != nil {
			uc.logger.Warn("Failed to cache result", zap.Error(err), zap.String("job_id", rec.JobID.String()))
		}
	}

	event := &domain.OutcomeEvent{
		JobID:      rec.JobID,
		Model:      rec.Model,
		Status:     resp.Status,
		DurationMs: durationMs,
		FinishedAt: rec.UpdatedAt,
	}
	if err := uc.publisher.Publish(ctx, event); err != nil {
		uc.logger.Warn("Failed to publish outcome event", zap.Error(err), zap.String("job_id", rec.JobID.String()))
	}

	uc.logger.Info("Job finalized",
		zap.String("job_id", rec.JobID.String()),
		zap.String("status", string(resp.Status)),
		zap.Int64("duration_ms", durationMs),
	)
	return &rec
}

// fromCache answers a resubmission of an already solved (model, data) pair.
func (uc *SolveJobUsecase) fromCache(ctx context.Context, model domain.Model, key string) (*domain.JobRecord, bool) {
	resp, err := uc.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			uc.logger.Warn("Result cache lookup failed", zap.Error(err))
		}
		return nil, false
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, false
	}
	var zero int64
	rec := &domain.JobRecord{
		JobID:      id,
		Model:      model,
		Status:     resp.Status,
		Response:   resp,
		DurationMs: &zero,
		Cached:     true,
	}
	if err := uc.repo.Create(ctx, rec); err != nil {
		uc.logger.Error("Failed to record cached job", zap.Error(err), zap.String("job_id", id.String()))
	}

	metrics.CacheHits.WithLabelValues(string(model)).Inc()
	metrics.JobsTotal.WithLabelValues(string(model), string(resp.Status)).Inc()
	uc.logger.Info("Job answered from cache", zap.String("job_id", id.String()), zap.String("model", string(model)))
	return rec, true
}

func (uc *SolveJobUsecase) writeDataFile(data []byte) (string, error) {
	f, err := os.CreateTemp(uc.tmpDir, "novelas-*.dzn")
	if err != nil {
		return "", fmt.Errorf("create data file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write data file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close data file: %w", err)
	}
	return f.Name(), nil
}

func (uc *SolveJobUsecase) removeDataFile(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		uc.logger.Warn("Failed to remove data file", zap.String("path", path), zap.Error(err))
	}
}
