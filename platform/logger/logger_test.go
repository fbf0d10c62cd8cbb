package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestWithContextAddsRequestAndUser(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("production", &buf)

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, UserIDKey, "user-1")
	log.WithContext(ctx).Info("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected json output, got %q: %v", buf.String(), err)
	}
	if entry["request_id"] != "req-1" || entry["user_id"] != "user-1" {
		t.Fatalf("missing context attributes: %v", entry)
	}
}

func TestNotificationDroppedIsWarning(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("development", &buf)

	log.NotificationDropped("transferred", "lead-1", "user-2", errors.New("boom"))

	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "notification_dropped") {
		t.Fatalf("unexpected output: %q", out)
	}
	if !strings.Contains(out, "recipient_id=user-2") {
		t.Fatalf("expected recipient in output: %q", out)
	}
}
