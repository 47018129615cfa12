package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BrianGomezM/minizinc-novelas/internal/domain"
)

// Pre-job rejection statuses; job statuses come from domain.JobStatus.
const (
	statusRejected    = "REJECTED"
	statusUnavailable = "UNAVAILABLE"
)

// failureBody is returned for every job that did not end in SUCCESS.
type failureBody struct {
	JobID    uuid.UUID        `json:"job_id"`
	Status   domain.JobStatus `json:"status"`
	Message  string           `json:"message"`
	ExitCode *int             `json:"exit_code,omitempty"`
	Stdout   string           `json:"stdout,omitempty"`
	Stderr   string           `json:"stderr,omitempty"`
}

// statusCode maps a terminal job status onto an HTTP status.
func statusCode(s domain.JobStatus) int {
	switch s {
	case domain.StatusSuccess:
		return http.StatusOK
	case domain.StatusSolverError:
		return http.StatusUnprocessableEntity
	case domain.StatusTimeout:
		return http.StatusGatewayTimeout
	case domain.StatusPreempted:
		return http.StatusConflict
	case domain.StatusParseError:
		return http.StatusBadGateway
	case domain.StatusRunning:
		return http.StatusAccepted
	}
	return http.StatusInternalServerError
}

// writeError maps errors returned before or instead of a job outcome.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownModel),
		errors.Is(err, domain.ErrEmptyDataFile),
		errors.Is(err, errMissingFile):
		c.JSON(http.StatusBadRequest, gin.H{"status": statusRejected, "message": err.Error()})
	case errors.Is(err, domain.ErrPayloadTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"status": statusRejected, "message": err.Error()})
	case errors.Is(err, domain.ErrLaunch):
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": statusUnavailable, "message": "solver could not be launched"})
	case errors.Is(err, domain.ErrPoolClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": statusUnavailable, "message": "service is shutting down"})
	case errors.Is(err, context.Canceled):
		// Client went away; nobody is left to read a body.
		c.Abort()
	default:
		logger.Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"status": domain.StatusInternalError, "message": "internal server error"})
	}
}

// presentResponse returns a copy of resp with solver warnings removed from stderr.
func presentResponse(resp *domain.SolveResponse) *domain.SolveResponse {
	if resp == nil {
		return nil
	}
	out := *resp
	out.Stderr = filterWarnings(resp.Stderr)
	return &out
}

func presentRecord(rec *domain.JobRecord) *domain.JobRecord {
	out := *rec
	out.Response = presentResponse(rec.Response)
	return &out
}

// filterWarnings drops MiniZinc "Warning:" lines, which are noise to users.
func filterWarnings(stderr string) string {
	if !strings.Contains(stderr, "Warning:") {
		return stderr
	}
	lines := strings.Split(stderr, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "Warning:") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
