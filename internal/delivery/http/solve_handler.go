package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BrianGomezM/minizinc-novelas/internal/domain"
	"github.com/BrianGomezM/minizinc-novelas/internal/usecase"
)

const uploadField = "file"

var errMissingFile = errors.New(`multipart field "file" is required`)

// SolveHandler handles .dzn uploads.
type SolveHandler struct {
	solveUC  *usecase.SolveJobUsecase
	maxBytes int64
	logger   *zap.Logger
}

// NewSolveHandler creates a new SolveHandler.
func NewSolveHandler(solveUC *usecase.SolveJobUsecase, maxBytes int64, logger *zap.Logger) *SolveHandler {
	return &SolveHandler{
		solveUC:  solveUC,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Solve returns a handler for POST /parte_1/ and /parte_2/ that blocks until
// the job's outcome is known. On success the body is the schedule itself.
func (h *SolveHandler) Solve(model domain.Model) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := h.readUpload(c)
		if err != nil {
			writeError(c, h.logger, err)
			return
		}

		rec, err := h.solveUC.Solve(c.Request.Context(), usecase.SolveInput{Model: model, Data: data})
		if err != nil {
			writeError(c, h.logger, err)
			return
		}

		c.Header("X-Job-ID", rec.JobID.String())
		resp := presentResponse(rec.Response)
		if rec.Status == domain.StatusSuccess {
			c.JSON(http.StatusOK, resp.Result)
			return
		}
		c.JSON(statusCode(rec.Status), failureBody{
			JobID:    rec.JobID,
			Status:   resp.Status,
			Message:  resp.Message,
			ExitCode: resp.ExitCode,
			Stdout:   resp.Stdout,
			Stderr:   resp.Stderr,
		})
	}
}

// Submit handles POST /api/v1/jobs?model=parte_1 and returns 202 at once.
func (h *SolveHandler) Submit(c *gin.Context) {
	model := domain.Model(c.Query("model"))
	if model == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": statusRejected, "message": "query parameter model is required"})
		return
	}

	data, err := h.readUpload(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	resp, err := h.solveUC.Submit(c.Request.Context(), usecase.SolveInput{Model: model, Data: data})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.Header("Location", "/api/v1/jobs/"+resp.JobID.String())
	c.JSON(http.StatusAccepted, resp)
}

func (h *SolveHandler) readUpload(c *gin.Context) ([]byte, error) {
	fh, err := c.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, domain.ErrPayloadTooLarge
		}
		return nil, errMissingFile
	}
	if fh.Size > h.maxBytes {
		return nil, domain.ErrPayloadTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}
