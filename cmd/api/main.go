package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brokerage_backend/internal/directory"
	"brokerage_backend/internal/events"
	apphttp "brokerage_backend/internal/http"
	"brokerage_backend/internal/http/router"
	"brokerage_backend/internal/leads"
	"brokerage_backend/internal/notification"
	"brokerage_backend/internal/scheduler"
	"brokerage_backend/migrations"
	"brokerage_backend/platform/config"
	"brokerage_backend/platform/db"
	"brokerage_backend/platform/logger"
	"brokerage_backend/platform/metrics"
	"brokerage_backend/platform/validator"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	pool, err := db.Connect(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if cfg.GetMigrateOnStart() {
		if err := db.Retry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
			return db.RunMigrations(ctx, pool, migrations.FS, log)
		}); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
		log.Info("database migrations complete")
	}

	registry := metrics.NewRegistry()
	appMetrics := metrics.New(registry)

	eventBus := events.NewInMemoryBus(log)
	resolver := directory.NewResolver(directory.NewRepository(pool))
	health := map[string]apphttp.HealthChecker{"database": pool}

	// ========================================================================
	// Domain Modules
	// ========================================================================

	notificationModule := notification.New(pool, resolver, cfg, appMetrics, log)
	notificationModule.RegisterHandlers(eventBus)

	if cfg.IsSchedulerEnabled() {
		client, redisClient, err := initFanoutQueue(cfg)
		if err != nil {
			log.Error("failed to initialize fanout queue; dispatching in-process", "error", err)
		} else {
			defer func() { _ = client.Close() }()
			defer func() { _ = redisClient.Close() }()
			notificationModule.SetEnqueuer(client)
			health["redis"] = db.NewRedisHealth(redisClient)
		}
	} else {
		log.Warn("REDIS_URL not configured; notification fanout runs in-process")
	}

	leadsModule := leads.NewModule(
		pool,
		resolver,
		notificationModule.InAppService(),
		eventBus,
		validator.New(),
		cfg,
		appMetrics,
	)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   health,
		Metrics:  appMetrics,
		Gatherer: registry,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			notificationModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initFanoutQueue(cfg *config.Config) (*scheduler.Client, *redis.Client, error) {
	client, err := scheduler.NewClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	if opt.TLSConfig != nil && cfg.GetRedisTLSInsecure() {
		opt.TLSConfig.InsecureSkipVerify = true
	}
	return client, redis.NewClient(opt), nil
}
