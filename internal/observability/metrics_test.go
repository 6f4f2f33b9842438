package observability

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoadmapGenerationCounter(t *testing.T) {
	m := NewMetrics()
	m.IncRoadmapGeneration("success")
	m.IncRoadmapGeneration("success")
	m.IncRoadmapGeneration("bad_upstream_format")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.roadmapGenerations.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.roadmapGenerations.WithLabelValues("bad_upstream_format")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	m.ObserveAPI("POST", "/generate-roadmap", "200", 150*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `roadmap_http_requests_total{method="POST",route="/generate-roadmap",status="200"} 1`)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncRoadmapGeneration("x")
		m.ObserveAPI("GET", "/", "200", time.Second)
		m.ApiInflightInc()
		m.IncAuthEvent("login", "ok")
	})
}
