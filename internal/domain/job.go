package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the lifecycle state of a solver job.
type JobStatus string

const (
	StatusRunning       JobStatus = "RUNNING"
	StatusSuccess       JobStatus = "SUCCESS"
	StatusSolverError   JobStatus = "SOLVER_ERROR"
	StatusTimeout       JobStatus = "TIMEOUT"
	StatusPreempted     JobStatus = "PREEMPTED"
	StatusParseError    JobStatus = "PARSE_ERROR"
	StatusInternalError JobStatus = "INTERNAL_ERROR"
)

// IsTerminal returns true if the status represents a final state.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusSolverError, StatusTimeout,
		StatusPreempted, StatusParseError, StatusInternalError:
		return true
	}
	return false
}

// Model names one of the fixed optimization models the service can run.
type Model string

const (
	ModelParte1 Model = "parte_1"
	ModelParte2 Model = "parte_2"
)

// Job is one admitted solver invocation while it is registered.
type Job struct {
	ID        uuid.UUID `json:"job_id"`
	Model     Model     `json:"model"`
	PID       int       `json:"pid"`
	CreatedAt time.Time `json:"created_at"`
}

// SolveRequest is a resolved (model, data) pair ready to be admitted.
type SolveRequest struct {
	Model     Model
	ModelPath string
	DataPath  string
}

// SolveResponse is the normalized, user-facing form of an outcome.
type SolveResponse struct {
	Status   JobStatus `json:"status"`
	Message  string    `json:"message,omitempty"`
	ExitCode *int      `json:"exit_code,omitempty"`
	Stdout   string    `json:"stdout,omitempty"`
	Stderr   string    `json:"stderr,omitempty"`
	Result   *Schedule `json:"result,omitempty"`

	OutputTruncated bool `json:"output_truncated,omitempty"`
}

// JobRecord is the persisted history of a job, kept after it leaves the registry.
type JobRecord struct {
	JobID      uuid.UUID      `json:"job_id"`
	Model      Model          `json:"model"`
	Status     JobStatus      `json:"status"`
	Response   *SolveResponse `json:"response,omitempty"`
	DurationMs *int64         `json:"duration_ms,omitempty"`
	Cached     bool           `json:"cached"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// SubmitResponse is returned after an asynchronous submission.
type SubmitResponse struct {
	JobID  uuid.UUID `json:"job_id"`
	Status JobStatus `json:"status"`
}

// ModelInfo describes a configured model.
type ModelInfo struct {
	Name Model  `json:"name"`
	Path string `json:"path"`
}

// OutcomeEvent is published once a job reaches a terminal status.
type OutcomeEvent struct {
	JobID      uuid.UUID `json:"job_id"`
	Model      Model     `json:"model"`
	Status     JobStatus `json:"status"`
	DurationMs int64     `json:"duration_ms"`
	FinishedAt time.Time `json:"finished_at"`
}
