package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"brokerage_backend/platform/metrics"
)

func TestMetricsServerServesFanoutCollectors(t *testing.T) {
	registry := metrics.NewRegistry()
	metrics.New(registry).NotificationFailed("deleted")

	srv := newMetricsServer(":0", registry)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `brokerage_notifications_failed_total{event_type="deleted"} 1`) {
		t.Fatal("expected fanout failure counter in exposition")
	}

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 outside /metrics, got %d", rec.Code)
	}
}
