// Package fanout turns lead lifecycle events into one in-app notification per
// distinct recipient. Delivery is best-effort: failures are logged and
// counted, never returned to the operation that raised the event.
package fanout

import (
	"context"
	"fmt"
	"time"

	"brokerage_backend/internal/events"
	"brokerage_backend/internal/notification/inapp"
	"brokerage_backend/platform/logger"
	"brokerage_backend/platform/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const resourceTypeLead = "lead"

// Sender persists a single notification.
type Sender interface {
	Send(ctx context.Context, p inapp.SendParams) error
}

// Result summarizes one fanout run.
type Result struct {
	Recipients int
	Delivered  int
	Failed     int
}

// Dispatcher resolves recipients and writes notifications concurrently.
type Dispatcher struct {
	dir         Directory
	sender      Sender
	metrics     *metrics.Metrics
	log         *logger.Logger
	timeout     time.Duration
	parallelism int
}

// NewDispatcher creates a dispatcher. m may be nil.
func NewDispatcher(dir Directory, sender Sender, m *metrics.Metrics, log *logger.Logger, timeout time.Duration, parallelism int) *Dispatcher {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Dispatcher{
		dir:         dir,
		sender:      sender,
		metrics:     m,
		log:         log,
		timeout:     timeout,
		parallelism: parallelism,
	}
}

// message is the rendered notification for one event.
type message struct {
	typ     inapp.Type
	leadID  uuid.UUID
	title   string
	content string
}

// Dispatch notifies every recipient of event. The returned error covers only
// recipient resolution; per-recipient write failures are reported in Result.
func (d *Dispatcher) Dispatch(ctx context.Context, event events.Event) (Result, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	msg, recipients, err := d.resolve(ctx, event)
	if err != nil {
		return Result{}, fmt.Errorf("resolve recipients for %s: %w", event.EventName(), err)
	}

	start := time.Now()
	defer d.metrics.ObserveFanout(string(msg.typ), start)

	failures := make([]bool, len(recipients))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.parallelism)
	for i, userID := range recipients {
		i, userID := i, userID
		g.Go(func() error {
			err := d.sender.Send(gctx, inapp.SendParams{
				UserID:       userID,
				Type:         msg.typ,
				Title:        msg.title,
				Content:      msg.content,
				ResourceID:   &msg.leadID,
				ResourceType: resourceTypeLead,
			})
			if err != nil {
				failures[i] = true
				d.metrics.NotificationFailed(string(msg.typ))
				d.log.NotificationDropped(string(msg.typ), msg.leadID.String(), userID.String(), err)
				return nil
			}
			d.metrics.NotificationCreated(string(msg.typ))
			return nil
		})
	}
	_ = g.Wait()

	res := Result{Recipients: len(recipients)}
	for _, failed := range failures {
		if failed {
			res.Failed++
		}
	}
	res.Delivered = res.Recipients - res.Failed
	return res, nil
}

func (d *Dispatcher) resolve(ctx context.Context, event events.Event) (message, []uuid.UUID, error) {
	switch e := event.(type) {
	case events.LeadCreated:
		recipients, err := adminsAndCreator(ctx, d.dir, e.CreatorBroker, e.ActorUserID)
		return message{
			typ:     inapp.TypeCreated,
			leadID:  e.LeadID,
			title:   "New lead",
			content: fmt.Sprintf("Lead %s was created.", e.CustomerName),
		}, recipients, err

	case events.LeadTransferred:
		recipients, err := transferTargets(ctx, d.dir, e.FromBroker, e.Grants)
		return message{
			typ:     inapp.TypeTransferred,
			leadID:  e.LeadID,
			title:   "Lead shared with you",
			content: fmt.Sprintf("Lead %s was shared with you.", e.CustomerName),
		}, recipients, err

	case events.LeadStatusChanged:
		recipients, err := creatorAndLedger(ctx, d.dir, e.CreatorBroker, e.LedgerBrokers)
		return message{
			typ:     inapp.TypeStatusChanged,
			leadID:  e.LeadID,
			title:   "Lead status changed",
			content: fmt.Sprintf("Lead %s moved from %s to %s.", e.CustomerName, e.OldStatus, e.NewStatus),
		}, recipients, err

	case events.LeadDeleted:
		recipients, err := adminsAndCreator(ctx, d.dir, e.CreatorBroker, e.ActorUserID)
		return message{
			typ:     inapp.TypeDeleted,
			leadID:  e.LeadID,
			title:   "Lead deleted",
			content: fmt.Sprintf("Lead %s was deleted.", e.CustomerName),
		}, recipients, err
	}
	return message{}, nil, fmt.Errorf("unsupported event %T", event)
}
