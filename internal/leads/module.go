// Package leads provides the lead distribution bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"brokerage_backend/internal/directory"
	"brokerage_backend/internal/events"
	apphttp "brokerage_backend/internal/http"
	"brokerage_backend/internal/leads/handler"
	"brokerage_backend/internal/leads/ledger"
	"brokerage_backend/internal/leads/management"
	"brokerage_backend/internal/leads/repository"
	"brokerage_backend/internal/leads/visibility"
	"brokerage_backend/platform/config"
	"brokerage_backend/platform/metrics"
	"brokerage_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the leads module with all its dependencies.
// drainer removes notifications referencing a lead before it is deleted.
func NewModule(
	pool *pgxpool.Pool,
	resolver *directory.Resolver,
	drainer management.NotificationDrainer,
	eventBus events.Bus,
	val *validator.Validator,
	cfg config.LeadsConfig,
	m *metrics.Metrics,
) *Module {
	repo := repository.New(pool)

	ledgerSvc := ledger.New(repo, resolver, m)
	builder := visibility.NewBuilder(resolver).WithPhoneRegion(cfg.GetPhoneDefaultRegion())
	mgmtSvc := management.New(repo, ledgerSvc, resolver, builder, drainer, eventBus, cfg.GetPhoneDefaultRegion())

	return &Module{
		handler: handler.New(mgmtSvc, resolver, val),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// All leads routes require authentication
	leadsGroup := ctx.Protected.Group("/leads")
	m.handler.RegisterRoutes(leadsGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
