// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Source labels for fetcher metrics.
const (
	SourceRPC    = "rpc"
	SourceQuote  = "quote"
	SourceMarket = "market"
)

// Metrics holds all Prometheus metrics for the bot. A nil *Metrics is
// valid and records nothing, which keeps handler tests free of registry
// bookkeeping.
type Metrics struct {
	MessagesHandled  prometheus.Counter
	CallbacksHandled prometheus.Counter
	InvalidAddresses prometheus.Counter
	ReportsDelivered prometheus.Counter

	FetchFailures *prometheus.CounterVec
	FetchLatency  *prometheus.HistogramVec
}

// NewMetrics creates a Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_token_bot"
	}

	return &Metrics{
		MessagesHandled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_handled_total",
			Help:      "Inbound chat messages that passed the mint pre-filter.",
		}),
		CallbacksHandled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callbacks_handled_total",
			Help:      "Inline-keyboard callbacks answered.",
		}),
		InvalidAddresses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalid_addresses_total",
			Help:      "Inputs rejected by the address decoder.",
		}),
		ReportsDelivered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_delivered_total",
			Help:      "Token reports delivered to chats.",
		}),
		FetchFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Fetches that degraded to unavailable, by source.",
		}, []string{"source"}),
		FetchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Fetch latency by source.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
	}
}

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// IncMessage records one handled chat message.
func (m *Metrics) IncMessage() {
	if m != nil {
		m.MessagesHandled.Inc()
	}
}

// IncCallback records one answered callback.
func (m *Metrics) IncCallback() {
	if m != nil {
		m.CallbacksHandled.Inc()
	}
}

// IncInvalidAddress records one rejected input.
func (m *Metrics) IncInvalidAddress() {
	if m != nil {
		m.InvalidAddresses.Inc()
	}
}

// IncReport records one delivered report.
func (m *Metrics) IncReport() {
	if m != nil {
		m.ReportsDelivered.Inc()
	}
}

// ObserveFetch records one fetch attempt for a source.
func (m *Metrics) ObserveFetch(source string, d time.Duration, ok bool) {
	if m == nil {
		return
	}
	m.FetchLatency.WithLabelValues(source).Observe(d.Seconds())
	if !ok {
		m.FetchFailures.WithLabelValues(source).Inc()
	}
}
