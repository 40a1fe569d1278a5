package telemetry

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/revops-risk/internal/models"
)

func TestCountersRecordObservations(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveFetch("http:revenue", models.KindRevenue, 10*time.Millisecond, nil)
	m.ObserveFetch("http:revenue", models.KindRevenue, 10*time.Millisecond, errors.New("boom"))
	m.ObserveUnmapped(map[string]int{"region": 2, "source": 1})
	m.ObserveAdjustments([]models.Adjustment{{Rule: "carve_out"}, {Rule: "carve_out"}})
	m.ObserveReport(time.Second, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceFailures.WithLabelValues("http:revenue", "revenue_actuals")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.UnmappedValues.WithLabelValues("region")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Adjustments.WithLabelValues("carve_out")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reports.WithLabelValues("ok")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveFetch("x", models.KindTargets, 0, nil)
		m.SetBreakerState("x", 2)
		m.ObserveUnmapped(map[string]int{"region": 1})
		m.ObserveReport(0, errors.New("x"))
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.SetBreakerState("warehouse:targets", 2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `riskreport_source_breaker_state{source="warehouse:targets"} 2`))
}
