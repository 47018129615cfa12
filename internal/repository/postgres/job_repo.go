package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BrianGomezM/minizinc-novelas/internal/domain"
	"github.com/BrianGomezM/minizinc-novelas/internal/repository"
)

//go:embed schema.sql
var schema string

// Ensure pgJobRepo implements repository.JobRepository.
var _ repository.JobRepository = (*pgJobRepo)(nil)

type pgJobRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresJobRepository creates a new PostgreSQL-backed job repository.
func NewPostgresJobRepository(pool *pgxpool.Pool) repository.JobRepository {
	return &pgJobRepo{pool: pool}
}

// EnsureSchema creates the job history table if it does not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return nil
}

func (r *pgJobRepo) Create(ctx context.Context, rec *domain.JobRecord) error {
	query := `
		INSERT INTO solver_jobs (job_id, model, status, response, duration_ms, cached, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	resp, err := marshalResponse(rec.Response)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	_, err = r.pool.Exec(ctx, query,
		rec.JobID, rec.Model, rec.Status, resp, rec.DurationMs, rec.Cached, now, now,
	)
	if err != nil {
		return fmt.Errorf("postgres: create job: %w", err)
	}
	rec.CreatedAt = now
	rec.UpdatedAt = now
	return nil
}

func (r *pgJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.JobRecord, error) {
	query := `
		SELECT job_id, model, status, response, duration_ms, cached, created_at, updated_at
		FROM solver_jobs
		WHERE job_id = $1`

	rec := &domain.JobRecord{}
	var resp []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rec.JobID, &rec.Model, &rec.Status, &resp,
		&rec.DurationMs, &rec.Cached, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get job by id: %w", err)
	}

	if len(resp) > 0 {
		rec.Response = &domain.SolveResponse{}
		if err := json.Unmarshal(resp, rec.Response); err != nil {
			return nil, fmt.Errorf("postgres: decode response: %w", err)
		}
	}
	return rec, nil
}

func (r *pgJobRepo) SetResult(ctx context.Context, id uuid.UUID, resp *domain.SolveResponse, durationMs int64) error {
	query := `
		UPDATE solver_jobs
		SET status = $1, response = $2, duration_ms = $3, updated_at = $4
		WHERE job_id = $5`

	body, err := marshalResponse(resp)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, query, resp.Status, body, durationMs, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("postgres: set result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

func marshalResponse(resp *domain.SolveResponse) ([]byte, error) {
	if resp == nil {
		return nil, nil
	}
	body, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("postgres: encode response: %w", err)
	}
	return body, nil
}
