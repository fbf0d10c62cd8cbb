package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrement(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.TransferAppended("individual")
	m.TransferAppended("individual")
	m.TransferDuplicate("region")
	m.NotificationCreated("created")
	m.NotificationFailed("created")
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/leads", http.StatusOK, 5*time.Millisecond)

	if got := testutil.ToFloat64(m.TransfersAppended.WithLabelValues("individual")); got != 2 {
		t.Fatalf("expected 2 appended, got %v", got)
	}
	if got := testutil.ToFloat64(m.TransfersDuplicate.WithLabelValues("region")); got != 1 {
		t.Fatalf("expected 1 duplicate, got %v", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodGet, "/api/v1/leads", "200")); got != 1 {
		t.Fatalf("expected 1 request, got %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.TransferAppended("all")
	m.TransferRemoved()
	m.NotificationFailed("deleted")
	m.ObserveFanout("deleted", time.Now())
	m.ObserveHTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
}

func TestHandlerExposesRegisteredCollectors(t *testing.T) {
	reg := NewRegistry()
	m := New(reg)
	m.NotificationCreated("transferred")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`brokerage_notifications_created_total{event_type="transferred"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in exposition", want)
		}
	}
}
