package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BrianGomezM/minizinc-novelas/internal/delivery/http/middleware"
	"github.com/BrianGomezM/minizinc-novelas/internal/domain"
	"github.com/BrianGomezM/minizinc-novelas/internal/usecase"
)

// multipartOverhead is allowed on top of the data file for multipart framing.
const multipartOverhead = 64 << 10

// RouterConfig carries everything NewRouter wires.
type RouterConfig struct {
	SolveUC        *usecase.SolveJobUsecase
	GetJobUC       *usecase.GetJobUsecase
	ListActiveUC   *usecase.ListActiveUsecase
	ListModelsUC   *usecase.ListModelsUsecase
	HealthChecks   map[string]Check
	AllowedOrigins []string
	RateLimit      int
	MaxUploadBytes int64
	MetricsEnabled bool
	Logger         *zap.Logger
}

// NewRouter creates and configures the Gin router with all routes and
// middleware. ctx bounds background middleware goroutines.
func NewRouter(ctx context.Context, cfg RouterConfig) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.Logger(cfg.Logger))

	// Metrics endpoint (no rate limiting)
	if cfg.MetricsEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	solveHandler := NewSolveHandler(cfg.SolveUC, cfg.MaxUploadBytes, cfg.Logger)
	upload := []gin.HandlerFunc{
		middleware.RateLimiter(ctx, cfg.RateLimit),
		middleware.BodySizeLimit(cfg.MaxUploadBytes + multipartOverhead),
	}

	// Blocking endpoints used by the scheduling frontend
	router.POST("/parte_1/", append(upload, solveHandler.Solve(domain.ModelParte1))...)
	router.POST("/parte_2/", append(upload, solveHandler.Solve(domain.ModelParte2))...)

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		healthHandler := NewHealthHandler(cfg.HealthChecks, cfg.ListActiveUC, cfg.Logger)
		v1.GET("/health", healthHandler.Health)

		modelHandler := NewModelHandler(cfg.ListModelsUC)
		v1.GET("/models", modelHandler.List)

		jobHandler := NewJobHandler(cfg.GetJobUC, cfg.ListActiveUC, cfg.Logger)
		v1.POST("/jobs", append(upload, solveHandler.Submit)...)
		v1.GET("/jobs", jobHandler.ListActive)
		v1.GET("/jobs/:id", jobHandler.GetByID)

		// WebSocket for real-time updates
		wsHandler := NewWebSocketHandler(cfg.GetJobUC, cfg.AllowedOrigins, cfg.Logger)
		v1.GET("/jobs/:id/stream", wsHandler.Stream)
	}

	return router
}
