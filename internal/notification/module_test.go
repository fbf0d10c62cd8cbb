package notification

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"brokerage_backend/internal/events"
	"brokerage_backend/internal/notification/fanout"
	"brokerage_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingFanout struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (r *recordingFanout) Dispatch(_ context.Context, event events.Event) (fanout.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event.EventName())
	return fanout.Result{Recipients: 1, Delivered: 1}, r.err
}

type stubEnqueuer struct {
	queued []string
	err    error
}

func (s *stubEnqueuer) EnqueueNotificationFanout(_ context.Context, event events.Event) error {
	if s.err != nil {
		return s.err
	}
	s.queued = append(s.queued, event.EventName())
	return nil
}

func testLogger() *logger.Logger {
	return logger.NewWithWriter("test", io.Discard)
}

func TestHandlersCoverEveryLeadEvent(t *testing.T) {
	rec := &recordingFanout{}
	m := newModule(nil, rec, testLogger())
	bus := events.NewInMemoryBus(testLogger())
	m.RegisterHandlers(bus)

	ctx := context.Background()
	lead := uuid.New()
	bus.Publish(ctx, events.LeadCreated{LeadID: lead})
	bus.Publish(ctx, events.LeadTransferred{LeadID: lead})
	bus.Publish(ctx, events.LeadStatusChanged{LeadID: lead})
	bus.Publish(ctx, events.LeadDeleted{LeadID: lead})
	bus.Wait()

	assert.ElementsMatch(t, []string{
		events.LeadCreatedName,
		events.LeadTransferredName,
		events.LeadStatusChangedName,
		events.LeadDeletedName,
	}, rec.events)
}

func TestHandlePrefersQueue(t *testing.T) {
	rec := &recordingFanout{}
	q := &stubEnqueuer{}
	m := newModule(nil, rec, testLogger())
	m.SetEnqueuer(q)

	require.NoError(t, m.Handle(context.Background(), events.LeadCreated{LeadID: uuid.New()}))
	assert.Equal(t, []string{events.LeadCreatedName}, q.queued)
	assert.Empty(t, rec.events)
}

func TestHandleFallsBackWhenQueueUnavailable(t *testing.T) {
	rec := &recordingFanout{}
	m := newModule(nil, rec, testLogger())
	m.SetEnqueuer(&stubEnqueuer{err: errors.New("redis down")})

	require.NoError(t, m.Handle(context.Background(), events.LeadDeleted{LeadID: uuid.New()}))
	assert.Equal(t, []string{events.LeadDeletedName}, rec.events)
}

func TestHandleReportsResolutionFailure(t *testing.T) {
	rec := &recordingFanout{err: errors.New("directory offline")}
	m := newModule(nil, rec, testLogger())

	err := m.Handle(context.Background(), events.LeadCreated{LeadID: uuid.New()})
	assert.Error(t, err)
}
