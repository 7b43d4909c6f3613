// Package metrics exposes Prometheus instruments for the login flow.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// providerLatencyBuckets spread observations across typical provider round trips.
var providerLatencyBuckets = []float64{0.025, 0.05, 0.1, 0.2}

// Metrics tracks callback outcomes and outbound provider latency.
type Metrics struct {
	registry *prometheus.Registry

	Callbacks       *prometheus.CounterVec
	ProviderLatency *prometheus.HistogramVec
}

// New registers the login instruments on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		Callbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "oauth_login_callbacks_total",
			Help: "OAuth callbacks handled, by provider and outcome",
		}, []string{"provider", "outcome"}),
		ProviderLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "oauth_login_provider_request_duration_seconds",
			Help:    "Duration of outbound provider requests (token exchange, profile fetch)",
			Buckets: providerLatencyBuckets,
		}, []string{"provider", "operation"}),
	}
}

// ObserveCallback counts one finished callback.
func (m *Metrics) ObserveCallback(provider, outcome string) {
	m.Callbacks.WithLabelValues(provider, outcome).Inc()
}

// ObserveProviderRequest records the duration of one provider call.
func (m *Metrics) ObserveProviderRequest(provider, operation string, elapsed time.Duration) {
	m.ProviderLatency.WithLabelValues(provider, operation).Observe(elapsed.Seconds())
}

// Registry returns the registry holding the login instruments.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
