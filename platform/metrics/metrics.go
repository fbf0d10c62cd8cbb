// Package metrics holds the Prometheus collectors for the brokerage backend.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks ledger mutations, notification fanout and HTTP traffic.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	TransfersAppended    *prometheus.CounterVec
	TransfersDuplicate   *prometheus.CounterVec
	TransfersRemoved     prometheus.Counter
	NotificationsCreated *prometheus.CounterVec
	NotificationsFailed  *prometheus.CounterVec
	FanoutDuration       *prometheus.HistogramVec
	HTTPRequests         *prometheus.CounterVec
	HTTPDuration         *prometheus.HistogramVec
}

// NewRegistry returns a registry carrying the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler serves the collectors gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// New registers all collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TransfersAppended: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "brokerage_lead_transfers_appended_total",
			Help: "Ledger entries appended, by share type",
		}, []string{"share_type"}),
		TransfersDuplicate: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "brokerage_lead_transfers_duplicate_total",
			Help: "Transfer specs skipped because their key was already in the ledger",
		}, []string{"share_type"}),
		TransfersRemoved: factory.NewCounter(prometheus.CounterOpts{
			Name: "brokerage_lead_transfers_removed_total",
			Help: "Individual ledger entries removed",
		}),
		NotificationsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "brokerage_notifications_created_total",
			Help: "Notification records created by fanout, by event type",
		}, []string{"event_type"}),
		NotificationsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "brokerage_notifications_failed_total",
			Help: "Notification records dropped after a failed write or recipient lookup",
		}, []string{"event_type"}),
		FanoutDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "brokerage_notification_fanout_duration_seconds",
			Help:    "Duration of one fanout run",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"event_type"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "brokerage_http_requests_total",
			Help: "HTTP requests served",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "brokerage_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// TransferAppended records a newly appended ledger entry.
func (m *Metrics) TransferAppended(shareType string) {
	if m == nil {
		return
	}
	m.TransfersAppended.WithLabelValues(shareType).Inc()
}

// TransferDuplicate records a requested transfer skipped as already present.
func (m *Metrics) TransferDuplicate(shareType string) {
	if m == nil {
		return
	}
	m.TransfersDuplicate.WithLabelValues(shareType).Inc()
}

// TransferRemoved records a removed ledger entry.
func (m *Metrics) TransferRemoved() {
	if m == nil {
		return
	}
	m.TransfersRemoved.Inc()
}

// NotificationCreated records a persisted notification.
func (m *Metrics) NotificationCreated(eventType string) {
	if m == nil {
		return
	}
	m.NotificationsCreated.WithLabelValues(eventType).Inc()
}

// NotificationFailed records a dropped notification.
func (m *Metrics) NotificationFailed(eventType string) {
	if m == nil {
		return
	}
	m.NotificationsFailed.WithLabelValues(eventType).Inc()
}

// ObserveFanout records the duration of a fanout run started at start.
func (m *Metrics) ObserveFanout(eventType string, start time.Time) {
	if m == nil {
		return
	}
	m.FanoutDuration.WithLabelValues(eventType).Observe(time.Since(start).Seconds())
}

// ObserveHTTPRequest implements httpkit.RequestRecorder.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
