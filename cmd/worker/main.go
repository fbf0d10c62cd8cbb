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
	"brokerage_backend/internal/notification"
	"brokerage_backend/internal/scheduler"
	"brokerage_backend/platform/config"
	"brokerage_backend/platform/db"
	"brokerage_backend/platform/logger"
	"brokerage_backend/platform/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting notification fanout worker", "env", cfg.Env)

	if !cfg.IsSchedulerEnabled() {
		panic("REDIS_URL is required for the notification fanout worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	resolver := directory.NewResolver(directory.NewRepository(pool))
	registry := metrics.NewRegistry()
	notificationModule := notification.New(pool, resolver, cfg, metrics.New(registry), log)

	worker, err := scheduler.NewWorker(cfg, notificationModule.Dispatcher(), log)
	if err != nil {
		log.Error("failed to initialize fanout worker", "error", err)
		panic("failed to initialize fanout worker: " + err.Error())
	}

	if addr := cfg.GetWorkerMetricsAddr(); addr != "" {
		srv := newMetricsServer(addr, registry)
		go func() {
			log.Info("metrics listening", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("metrics server shutdown failed", "error", err)
			}
		}()
	}

	log.Info("fanout worker running", "queue", cfg.GetAsynqQueueName(), "concurrency", cfg.GetAsynqConcurrency())
	worker.Run(ctx)
	log.Info("fanout worker stopped")
}

func newMetricsServer(addr string, registry *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(registry))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
