package scheduler

import (
	"encoding/json"
	"fmt"

	"brokerage_backend/internal/events"

	"github.com/hibiken/asynq"
)

const TaskNotificationFanout = "notification.fanout"

// NotificationFanoutPayload carries one lead event to the worker.
type NotificationFanoutPayload struct {
	EventName string          `json:"eventName"`
	Event     json.RawMessage `json:"event"`
}

func NewNotificationFanoutTask(event events.Event) (*asynq.Task, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(NotificationFanoutPayload{
		EventName: event.EventName(),
		Event:     body,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationFanout, data), nil
}

func ParseNotificationFanoutPayload(task *asynq.Task) (events.Event, error) {
	var payload NotificationFanoutPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return nil, err
	}
	if payload.EventName == "" {
		return nil, fmt.Errorf("fanout payload has no event name")
	}
	return events.Decode(payload.EventName, payload.Event)
}
