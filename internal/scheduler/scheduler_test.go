package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"

	"brokerage_backend/internal/events"
	"brokerage_backend/internal/notification/fanout"
	"brokerage_backend/platform/config"
	"brokerage_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureRunner struct {
	got events.Event
	err error
}

func (c *captureRunner) Dispatch(_ context.Context, event events.Event) (fanout.Result, error) {
	c.got = event
	return fanout.Result{Recipients: 2, Delivered: 2}, c.err
}

func testWorker(runner FanoutRunner) *Worker {
	return &Worker{fanout: runner, log: logger.NewWithWriter("test", io.Discard)}
}

func TestFanoutTaskRoundTrip(t *testing.T) {
	to := uuid.New()
	sent := events.LeadTransferred{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       uuid.New(),
		CustomerName: "Ada",
		FromBroker:   uuid.New(),
		Grants:       []events.Grant{{ShareType: "individual", ToBroker: &to}},
	}

	task, err := NewNotificationFanoutTask(sent)
	require.NoError(t, err)
	assert.Equal(t, TaskNotificationFanout, task.Type())

	decoded, err := ParseNotificationFanoutPayload(task)
	require.NoError(t, err)
	got, ok := decoded.(events.LeadTransferred)
	require.True(t, ok)
	assert.Equal(t, sent.LeadID, got.LeadID)
	assert.Equal(t, sent.FromBroker, got.FromBroker)
	assert.Equal(t, to, *got.Grants[0].ToBroker)
}

func TestWorkerDispatchesQueuedEvent(t *testing.T) {
	runner := &captureRunner{}
	task, err := NewNotificationFanoutTask(events.LeadDeleted{LeadID: uuid.New(), CustomerName: "Bo"})
	require.NoError(t, err)

	require.NoError(t, testWorker(runner).handleNotificationFanout(context.Background(), task))
	assert.Equal(t, events.LeadDeletedName, runner.got.EventName())
}

func TestWorkerSkipsRetryOnBadPayload(t *testing.T) {
	runner := &captureRunner{}
	task := asynq.NewTask(TaskNotificationFanout, []byte(`{"eventName":"leads.lead.unknown","event":{}}`))

	err := testWorker(runner).handleNotificationFanout(context.Background(), task)
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Nil(t, runner.got)
}

func TestWorkerReturnsDispatchError(t *testing.T) {
	runner := &captureRunner{err: errors.New("directory offline")}
	task, err := NewNotificationFanoutTask(events.LeadCreated{LeadID: uuid.New()})
	require.NoError(t, err)

	assert.Error(t, testWorker(runner).handleNotificationFanout(context.Background(), task))
}

func TestRedisClientOpt(t *testing.T) {
	opt, err := redisClientOpt("redis://:pw@localhost:6380/2", false)
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", opt.Addr)
	assert.Equal(t, "pw", opt.Password)
	assert.Equal(t, 2, opt.DB)
	assert.Nil(t, opt.TLSConfig)

	opt, err = redisClientOpt("rediss://localhost:6380", true)
	require.NoError(t, err)
	require.NotNil(t, opt.TLSConfig)
	assert.True(t, opt.TLSConfig.InsecureSkipVerify)
}

func TestNewClientRequiresRedis(t *testing.T) {
	_, err := NewClient(&config.Config{})
	assert.Error(t, err)

	var nilClient *Client
	assert.Error(t, nilClient.EnqueueNotificationFanout(context.Background(), events.LeadCreated{}))
	assert.NoError(t, nilClient.Close())
}
