package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/forgo/nonagon/internal/codec"
	"github.com/forgo/nonagon/internal/config"
	"github.com/forgo/nonagon/internal/database"
	"github.com/forgo/nonagon/internal/jobs"
	"github.com/forgo/nonagon/internal/repository"
	"github.com/forgo/nonagon/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logging
	level, _ := cfg.Server.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Initialize database connection
	db := database.NewSurrealDB(cfg.Database.Connection())

	ctx := context.Background()
	if err := db.Connect(ctx); err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	slog.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)

	policy, _ := cfg.Codec.Policy()
	cdc := codec.New(codec.WithUnknownEnums(policy))

	// Initialize repositories
	schema := database.NewSchema(db)
	questRepo := repository.NewQuestRepository(db, schema, cdc)
	characterRepo := repository.NewCharacterRepository(db, schema, cdc)
	userRepo := repository.NewUserRepository(db, schema, cdc)
	summaryRepo := repository.NewSummaryRepository(db, schema, cdc)
	// Registered for its index; lookups are served by nonagonctl.
	_ = repository.NewLookupRepository(db, schema, cdc)

	if err := schema.Ensure(ctx); err != nil {
		slog.Error("failed to define indexes", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Identifier allocation
	allocatorCfg := service.AllocatorConfig{
		Existence:   repository.NewExistence(questRepo, characterRepo, userRepo, summaryRepo),
		MaxAttempts: cfg.Allocator.MaxAttempts,
		Metrics:     service.NewAllocatorMetrics(registry),
		Logger:      logger,
	}
	if cfg.Redis.Enabled() {
		opts, err := cfg.Redis.Options()
		if err != nil {
			slog.Error("invalid redis url", slog.String("error", err.Error()))
			os.Exit(1)
		}
		rdb := redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()

		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Error("failed to connect to redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		allocatorCfg.Claimer = service.NewRedisClaimer(rdb, service.WithClaimTTL(cfg.Redis.ClaimTTL))
		slog.Info("identifier claims enabled", slog.String("addr", opts.Addr))
	}
	allocator := service.NewAllocator(allocatorCfg)

	// Initialize services
	questService := service.NewQuestService(service.QuestServiceConfig{
		DB:         db,
		Quests:     questRepo,
		Users:      userRepo,
		Characters: characterRepo,
		Allocator:  allocator,
		Logger:     logger,
	})

	// Start background jobs
	lifecycle := jobs.NewQuestLifecycleProcessor(jobs.QuestLifecycleConfig{
		Guilds:      questRepo,
		Quests:      questService,
		Interval:    cfg.Server.LifecycleInterval,
		Concurrency: cfg.Server.LifecycleConcurrency,
		Logger:      logger,
	})
	lifecycle.Start()
	defer lifecycle.Stop()

	// Metrics endpoint
	var server *http.Server
	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		server = &http.Server{
			Addr:              cfg.Server.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			slog.Info("serving metrics", slog.String("addr", cfg.Server.MetricsAddr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server error", slog.String("error", err.Error()))
			}
		}()
	}

	slog.Info("nonagon started", slog.String("env", cfg.Server.Env))

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if server != nil {
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server forced to shutdown", slog.String("error", err.Error()))
		}
	}

	slog.Info("nonagon exited")
}
