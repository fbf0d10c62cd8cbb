// Package http provides HTTP server infrastructure including module registration.
package http

import (
	"context"

	"brokerage_backend/internal/events"
	"brokerage_backend/platform/config"
	"brokerage_backend/platform/logger"
	"brokerage_backend/platform/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the router configuration (HTTP and JWT settings only).
	Config RouterConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Health lists readiness dependencies by name, e.g. "database" and "redis".
	Health map[string]HealthChecker
	// Metrics records per-request counters. May be nil.
	Metrics *metrics.Metrics
	// Gatherer backs the /metrics endpoint. Nil disables it.
	Gatherer prometheus.Gatherer
	// EventBus is the domain event bus for cross-module communication.
	EventBus events.Bus
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
