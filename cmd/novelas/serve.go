package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	handler "github.com/BrianGomezM/minizinc-novelas/internal/delivery/http"
	"github.com/BrianGomezM/minizinc-novelas/internal/parser"
	"github.com/BrianGomezM/minizinc-novelas/internal/pool"
	"github.com/BrianGomezM/minizinc-novelas/internal/publisher"
	"github.com/BrianGomezM/minizinc-novelas/internal/repository"
	"github.com/BrianGomezM/minizinc-novelas/internal/repository/memory"
	"github.com/BrianGomezM/minizinc-novelas/internal/repository/postgres"
	redisrepo "github.com/BrianGomezM/minizinc-novelas/internal/repository/redis"
	"github.com/BrianGomezM/minizinc-novelas/internal/result"
	"github.com/BrianGomezM/minizinc-novelas/internal/solver"
	"github.com/BrianGomezM/minizinc-novelas/internal/usecase"
)

const (
	shutdownTimeout    = 10 * time.Second
	cacheSweepInterval = time.Minute
)

func doServe(cmd *cobra.Command, args []string) error {
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting novelas solver service",
		zap.String("solver", cfg.Solver.Path),
		zap.Int("max_concurrent", cfg.Solver.MaxConcurrent),
		zap.Duration("timeout", cfg.Solver.Timeout),
	)

	gin.SetMode(cfg.Server.GinMode)
	checks := map[string]handler.Check{}

	// Job history: PostgreSQL when configured, in-memory otherwise
	var jobRepo repository.JobRepository = memory.NewJobRepository()
	if cfg.Database.URL != "" {
		dbPool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("connect to PostgreSQL: %w", err)
		}
		defer dbPool.Close()

		if err := dbPool.Ping(ctx); err != nil {
			return fmt.Errorf("ping PostgreSQL: %w", err)
		}
		if err := postgres.EnsureSchema(ctx, dbPool); err != nil {
			return err
		}
		jobRepo = postgres.NewPostgresJobRepository(dbPool)
		checks["postgres"] = dbPool.Ping
		logger.Info("Connected to PostgreSQL")
	}

	// Result cache: Redis when configured, in-memory otherwise
	var cache repository.ResultCache
	if cfg.Redis.URL == "" {
		memCache := memory.NewResultCache(cfg.Redis.ResultTTL)
		go memCache.Run(ctx, cacheSweepInterval)
		cache = memCache
	} else {
		redisOpts, err := goredis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("parse Redis URL: %w", err)
		}
		rdb := goredis.NewClient(redisOpts)
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping Redis: %w", err)
		}
		cache = redisrepo.NewRedisResultCache(rdb, cfg.Redis.ResultTTL)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		logger.Info("Connected to Redis")
	}

	// Outcome events: RabbitMQ when configured
	var pub publisher.Publisher = publisher.Noop{}
	if cfg.RabbitMQ.URL != "" {
		p, err := publisher.NewRabbitMQPublisher(cfg.RabbitMQ.URL, logger)
		if err != nil {
			return err
		}
		defer p.Close()
		pub = p
		logger.Info("Connected to RabbitMQ")
	}

	// Solver supervision. Waits run on their own pool, never on request goroutines.
	bound := cfg.Solver.MaxConcurrent
	poolCtx, cancelPool := context.WithCancel(context.Background())
	defer cancelPool()
	waitPool := pool.NewWorkerPool(bound*2, bound*4, logger)
	waitPool.Start(poolCtx)

	registry := solver.NewRegistry()
	launcher := solver.NewLauncher(cfg.Solver.Path, cfg.Solver.Backend, cfg.Solver.KillGrace, logger)
	controller := solver.NewController(registry, launcher, bound, logger)
	supervisor := solver.NewSupervisor(registry, controller, solver.NewWaiter(logger), waitPool, cfg.Solver.Timeout, logger)

	models := cfg.Models()
	solveUC := usecase.NewSolveJobUsecase(
		supervisor,
		result.NewNormalizer(parser.NewMiniZinc(), bound),
		jobRepo, cache, pub,
		models, cfg.Server.MaxUploadBytes, logger,
	)

	router := handler.NewRouter(ctx, handler.RouterConfig{
		SolveUC:        solveUC,
		GetJobUC:       usecase.NewGetJobUsecase(jobRepo, logger),
		ListActiveUC:   usecase.NewListActiveUsecase(supervisor),
		ListModelsUC:   usecase.NewListModelsUsecase(models),
		HealthChecks:   checks,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.Server.RateLimit,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		MetricsEnabled: cfg.Metrics.Enabled,
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("API server listening", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down novelas solver service...")

		// Kill running solvers first so blocked requests get their answer.
		supervisor.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	err := g.Wait()

	// Jobs admitted while the listener was draining.
	supervisor.Shutdown()
	// Waits still blocked on an unreaped process give up as preempted.
	cancelPool()
	waitPool.Stop()
	solveUC.Wait()

	logger.Info("novelas solver service stopped")
	return err
}
