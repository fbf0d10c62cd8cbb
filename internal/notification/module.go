// Package notification turns lead lifecycle events into in-app notifications
// and serves the recipient inbox. It subscribes to the event bus, so the leads
// module never depends on who gets notified or how.
package notification

import (
	"context"

	"brokerage_backend/internal/events"
	apphttp "brokerage_backend/internal/http"
	"brokerage_backend/internal/notification/fanout"
	notifhandler "brokerage_backend/internal/notification/handler"
	"brokerage_backend/internal/notification/inapp"
	"brokerage_backend/platform/config"
	"brokerage_backend/platform/logger"
	"brokerage_backend/platform/metrics"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Fanout delivers one event to its recipients.
type Fanout interface {
	Dispatch(ctx context.Context, event events.Event) (fanout.Result, error)
}

// Enqueuer hands an event to the background worker instead of dispatching it
// in-process.
type Enqueuer interface {
	EnqueueNotificationFanout(ctx context.Context, event events.Event) error
}

// Module handles lead event subscriptions and the inbox routes.
type Module struct {
	inAppService *inapp.Service
	inAppHandler *notifhandler.HTTPHandler
	dispatcher   Fanout
	enqueuer     Enqueuer
	log          *logger.Logger
}

var _ apphttp.Module = (*Module)(nil)

// New creates the notification module. dir is consulted on every fanout.
func New(pool *pgxpool.Pool, dir fanout.Directory, cfg config.NotificationConfig, m *metrics.Metrics, log *logger.Logger) *Module {
	inAppSvc := inapp.NewService(inapp.NewRepository(pool), log)
	dispatcher := fanout.NewDispatcher(dir, inAppSvc, m, log, cfg.GetFanoutTimeout(), cfg.GetFanoutParallelism())
	return newModule(inAppSvc, dispatcher, log)
}

func newModule(inAppSvc *inapp.Service, dispatcher Fanout, log *logger.Logger) *Module {
	return &Module{
		inAppService: inAppSvc,
		inAppHandler: notifhandler.NewHTTPHandler(inAppSvc),
		dispatcher:   dispatcher,
		log:          log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "notification" }

// RegisterRoutes registers the inbox routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.inAppHandler.RegisterRoutes(ctx.Protected.Group("/notifications"))
}

// InAppService exposes the inbox service; the leads module drains it on delete.
func (m *Module) InAppService() *inapp.Service { return m.inAppService }

// Dispatcher exposes the fanout so the worker can run queued events.
func (m *Module) Dispatcher() Fanout { return m.dispatcher }

// SetEnqueuer routes fanout through the task queue. Without one, fanout runs
// on the bus goroutine.
func (m *Module) SetEnqueuer(e Enqueuer) { m.enqueuer = e }

// RegisterHandlers subscribes to every lead lifecycle event.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadCreatedName, m)
	bus.Subscribe(events.LeadTransferredName, m)
	bus.Subscribe(events.LeadStatusChangedName, m)
	bus.Subscribe(events.LeadDeletedName, m)
}

// Handle implements events.Handler.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	if m.enqueuer != nil {
		err := m.enqueuer.EnqueueNotificationFanout(ctx, event)
		if err == nil {
			return nil
		}
		m.log.Warn("fanout enqueue failed, dispatching in-process",
			"event", event.EventName(),
			"error", err,
		)
	}

	res, err := m.dispatcher.Dispatch(ctx, event)
	if err != nil {
		m.log.Error("notification fanout failed", "event", event.EventName(), "error", err)
		return err
	}
	m.log.Debug("notification fanout complete",
		"event", event.EventName(),
		"recipients", res.Recipients,
		"delivered", res.Delivered,
		"failed", res.Failed,
	)
	return nil
}
