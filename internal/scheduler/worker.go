package scheduler

import (
	"context"
	"fmt"

	"brokerage_backend/internal/events"
	"brokerage_backend/internal/notification/fanout"
	"brokerage_backend/platform/config"
	"brokerage_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// FanoutRunner delivers a decoded event to its recipients.
type FanoutRunner interface {
	Dispatch(ctx context.Context, event events.Event) (fanout.Result, error)
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	fanout FanoutRunner
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, runner FanoutRunner, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		fanout: runner,
		log:    log,
	}
	mux.HandleFunc(TaskNotificationFanout, w.handleNotificationFanout)

	return w, nil
}

func (w *Worker) handleNotificationFanout(ctx context.Context, task *asynq.Task) error {
	event, err := ParseNotificationFanoutPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	res, err := w.fanout.Dispatch(ctx, event)
	if err != nil {
		w.log.Error("queued fanout failed", "event", event.EventName(), "error", err)
		return err
	}
	w.log.Info("queued fanout complete",
		"event", event.EventName(),
		"recipients", res.Recipients,
		"failed", res.Failed,
	)
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
