package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	DirectoryRefreshesTotal  *prometheus.CounterVec
	DirectoryRefreshDuration prometheus.Histogram
	CandidateInstances       prometheus.Gauge

	InstanceRequestsTotal   *prometheus.CounterVec
	InstanceRequestDuration prometheus.Histogram

	RateLimitHitsTotal prometheus.Counter

	registry *prometheus.Registry
}

// New регистрирует метрики в собственном registry, чтобы в тестах можно было
// создавать несколько экземпляров без паники на повторной регистрации
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "searx_proxy_requests_total",
				Help: "Total number of proxied requests",
			},
			[]string{"type", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "searx_proxy_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"type"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "searx_proxy_requests_in_flight",
				Help: "Number of requests currently being processed",
			},
		),

		DirectoryRefreshesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "searx_proxy_directory_refreshes_total",
				Help: "Total number of instance directory refreshes",
			},
			[]string{"status"},
		),
		DirectoryRefreshDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "searx_proxy_directory_refresh_duration_seconds",
				Help:    "Directory fetch and filter duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
		),
		CandidateInstances: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "searx_proxy_candidate_instances",
				Help: "Number of instances in the current candidate set",
			},
		),

		InstanceRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "searx_proxy_instance_requests_total",
				Help: "Total number of requests to upstream instances",
			},
			[]string{"status"},
		),
		InstanceRequestDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "searx_proxy_instance_request_duration_seconds",
				Help:    "Upstream instance request duration in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		),

		RateLimitHitsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "searx_proxy_rate_limit_hits_total",
				Help: "Total number of rate limited inbound requests",
			},
		),

		registry: reg,
	}

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordRequest(reqType, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(reqType, status).Inc()
	m.RequestDuration.WithLabelValues(reqType).Observe(duration.Seconds())
}

func (m *Metrics) RecordRefresh(status string, duration time.Duration, candidates int) {
	m.DirectoryRefreshesTotal.WithLabelValues(status).Inc()
	m.DirectoryRefreshDuration.Observe(duration.Seconds())
	if status == "ok" {
		m.CandidateInstances.Set(float64(candidates))
	}
}

func (m *Metrics) RecordInstanceRequest(status string, duration time.Duration) {
	m.InstanceRequestsTotal.WithLabelValues(status).Inc()
	m.InstanceRequestDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordRateLimitHit() {
	m.RateLimitHitsTotal.Inc()
}

func (m *Metrics) IncRequestsInFlight() {
	m.RequestsInFlight.Inc()
}

func (m *Metrics) DecRequestsInFlight() {
	m.RequestsInFlight.Dec()
}
