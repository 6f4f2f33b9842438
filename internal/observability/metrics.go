package observability

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	llmRequests *prometheus.CounterVec
	llmLatency  *prometheus.HistogramVec

	roadmapGenerations *prometheus.CounterVec
	roadmapStage       *prometheus.HistogramVec

	authEvents *prometheus.CounterVec
}

// NewMetrics registers every collector, plus the go and process collectors, on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roadmap_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		apiLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "roadmap_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roadmap_http_inflight_requests",
			Help: "HTTP requests currently being served",
		}),
		llmRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roadmap_llm_requests_total",
				Help: "Total number of language model calls",
			},
			[]string{"status"},
		),
		llmLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "roadmap_llm_request_duration_seconds",
				Help:    "Language model call duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120, 300},
			},
			[]string{"status"},
		),
		roadmapGenerations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roadmap_generation_total",
				Help: "Roadmap generation requests by outcome",
			},
			[]string{"outcome"},
		),
		roadmapStage: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "roadmap_generation_stage_duration_seconds",
				Help:    "Duration of each roadmap generation stage",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage", "status"},
		),
		authEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "roadmap_auth_events_total",
				Help: "Authentication events by kind and result",
			},
			[]string{"event", "result"},
		),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests,
		m.apiLatency,
		m.apiInflight,
		m.llmRequests,
		m.llmLatency,
		m.roadmapGenerations,
		m.roadmapStage,
		m.authEvents,
	)
	return m
}

// RegisterDB exports connection pool stats for db under db_name.
func (m *Metrics) RegisterDB(db *sql.DB, name string) error {
	if m == nil || db == nil {
		return nil
	}
	return m.registry.Register(collectors.NewDBStatsCollector(db, name))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveLLMRequest(status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.llmRequests.WithLabelValues(status).Inc()
	m.llmLatency.WithLabelValues(status).Observe(dur.Seconds())
}

func (m *Metrics) IncRoadmapGeneration(outcome string) {
	if m == nil {
		return
	}
	m.roadmapGenerations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRoadmapStage(stage, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.roadmapStage.WithLabelValues(stage, status).Observe(dur.Seconds())
}

func (m *Metrics) IncAuthEvent(event, result string) {
	if m == nil {
		return
	}
	m.authEvents.WithLabelValues(event, result).Inc()
}
