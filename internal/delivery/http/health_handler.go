package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/BrianGomezM/minizinc-novelas/internal/usecase"
)

const healthCheckTimeout = 2 * time.Second

// Check probes one dependency.
type Check func(ctx context.Context) error

// HealthHandler handles health check requests.
type HealthHandler struct {
	checks       map[string]Check
	listActiveUC *usecase.ListActiveUsecase
	logger       *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. checks is keyed by dependency
// name; only configured dependencies are listed.
func NewHealthHandler(checks map[string]Check, listActiveUC *usecase.ListActiveUsecase, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{checks: checks, listActiveUC: listActiveUC, logger: logger}
}

// Health handles GET /api/v1/health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	code := http.StatusOK
	status := "ok"
	services := gin.H{}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.logger.Warn("Health check failed", zap.String("service", name), zap.Error(err))
			services[name] = err.Error()
			code = http.StatusServiceUnavailable
			status = "degraded"
			continue
		}
		services[name] = "ok"
	}

	active := h.listActiveUC.Execute()
	c.JSON(code, gin.H{
		"status":         status,
		"services":       services,
		"active_jobs":    len(active.Jobs),
		"max_concurrent": active.Bound,
	})
}
