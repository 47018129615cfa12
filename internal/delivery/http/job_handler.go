package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BrianGomezM/minizinc-novelas/internal/domain"
	"github.com/BrianGomezM/minizinc-novelas/internal/usecase"
)

// JobHandler serves job inspection requests.
type JobHandler struct {
	getJobUC     *usecase.GetJobUsecase
	listActiveUC *usecase.ListActiveUsecase
	logger       *zap.Logger
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(getJobUC *usecase.GetJobUsecase, listActiveUC *usecase.ListActiveUsecase, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		getJobUC:     getJobUC,
		listActiveUC: listActiveUC,
		logger:       logger,
	}
}

// ListActive handles GET /api/v1/jobs. It only reads the registry.
func (h *JobHandler) ListActive(c *gin.Context) {
	c.JSON(http.StatusOK, h.listActiveUC.Execute())
}

// GetByID handles GET /api/v1/jobs/:id
func (h *JobHandler) GetByID(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": statusRejected, "message": "invalid job ID format"})
		return
	}

	rec, err := h.getJobUC.Execute(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"status": statusRejected, "message": "job not found"})
			return
		}
		h.logger.Error("Get job failed", zap.Error(err), zap.String("job_id", idStr))
		c.JSON(http.StatusInternalServerError, gin.H{"status": domain.StatusInternalError, "message": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, presentRecord(rec))
}
