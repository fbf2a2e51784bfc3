package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the converter's collectors. A nil *Metrics is valid and
// records nothing, so the console front-end can run without a registry.
type Metrics struct {
	CacheLookupsTotal     *prometheus.CounterVec
	ProviderRequestsTotal *prometheus.CounterVec
	ProviderFetchDuration *prometheus.HistogramVec
	ProviderRotations     prometheus.Counter
	ConversionsTotal      *prometheus.CounterVec
}

// New registers every collector on registerer.
func New(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		CacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "converter_cache_lookups_total",
				Help: "Rate cache lookups by result (hit, miss).",
			},
			[]string{"result"},
		),
		ProviderRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "converter_provider_requests_total",
				Help: "Upstream rate requests by provider and outcome.",
			},
			[]string{"provider", "outcome"},
		),
		ProviderFetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "converter_provider_fetch_duration_seconds",
				Help:    "Latency of upstream rate requests.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"provider"},
		),
		ProviderRotations: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "converter_provider_rotations_total",
				Help: "Times the failover cursor moved past a failing provider.",
			},
		),
		ConversionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "converter_conversions_total",
				Help: "Conversions by outcome (ok, same_currency or an error kind).",
			},
			[]string{"outcome"},
		),
	}
}

func (m *Metrics) CacheHit() {
	if m == nil {
		return
	}
	m.CacheLookupsTotal.WithLabelValues("hit").Inc()
}

func (m *Metrics) CacheMiss() {
	if m == nil {
		return
	}
	m.CacheLookupsTotal.WithLabelValues("miss").Inc()
}

func (m *Metrics) ObserveProviderRequest(provider, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ProviderRequestsTotal.WithLabelValues(provider, outcome).Inc()
	m.ProviderFetchDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func (m *Metrics) Rotated() {
	if m == nil {
		return
	}
	m.ProviderRotations.Inc()
}

func (m *Metrics) Conversion(outcome string) {
	if m == nil {
		return
	}
	m.ConversionsTotal.WithLabelValues(outcome).Inc()
}
