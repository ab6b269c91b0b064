// Package metrics exposes Prometheus counters for gateway traffic.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the gateway's Prometheus collectors on a private
// registry so constructing a second instance (tests) never collides.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	fallbacksTotal  prometheus.Counter
	rejectionsTotal *prometheus.CounterVec
	tokensTotal     *prometheus.CounterVec
}

// New creates and registers the gateway metrics.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_requests_total",
				Help: "Chat completions served, by provider and routing reason",
			},
			[]string{"provider", "reason"},
		),

		fallbacksTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gateway_cloud_fallbacks_total",
				Help: "Requests downgraded from cloud to local after a failed cloud attempt",
			},
		),

		rejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_admission_rejections_total",
				Help: "Requests rejected by the admission pipeline, by stage",
			},
			[]string{"stage"},
		),

		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_tokens_total",
				Help: "Tokens consumed, by provider and direction",
			},
			[]string{"provider", "type"},
		),
	}

	m.registry.MustRegister(
		m.requestsTotal,
		m.fallbacksTotal,
		m.rejectionsTotal,
		m.tokensTotal,
	)

	return m
}

// RecordRequest counts one served completion.
func (m *Metrics) RecordRequest(provider, reason string) {
	m.requestsTotal.WithLabelValues(provider, reason).Inc()
}

// RecordFallback counts a cloud-to-local downgrade.
func (m *Metrics) RecordFallback() {
	m.fallbacksTotal.Inc()
}

// RecordRejection counts an admission rejection at the given stage
// (auth, rate_limit, daily_quota).
func (m *Metrics) RecordRejection(stage string) {
	m.rejectionsTotal.WithLabelValues(stage).Inc()
}

// RecordTokens counts prompt and completion tokens for a provider.
func (m *Metrics) RecordTokens(provider string, prompt, completion int) {
	m.tokensTotal.WithLabelValues(provider, "prompt").Add(float64(prompt))
	m.tokensTotal.WithLabelValues(provider, "completion").Add(float64(completion))
}

// Handler returns the Prometheus exposition endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
