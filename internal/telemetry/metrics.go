// Package telemetry holds the Prometheus collectors of the report engine.
// A nil *Metrics is valid and records nothing.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AngelCh415/revops-risk/internal/models"
)

type Metrics struct {
	SourceFetchDuration *prometheus.HistogramVec
	SourceFailures      *prometheus.CounterVec
	BreakerState        *prometheus.GaugeVec
	UnmappedValues      *prometheus.CounterVec
	Adjustments         *prometheus.CounterVec
	Reports             *prometheus.CounterVec
	ReportDuration      prometheus.Histogram

	gatherer prometheus.Gatherer
}

// New builds the collectors and registers them on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		SourceFetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "riskreport_source_fetch_duration_seconds",
				Help:    "Duration of one source adapter fetch in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"source", "kind", "result"},
		),
		SourceFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskreport_source_failures_total",
				Help: "Source fetches that failed and were replaced by an empty record set",
			},
			[]string{"source", "kind"},
		),
		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "riskreport_source_breaker_state",
				Help: "Circuit breaker state per source (0=closed, 1=half-open, 2=open)",
			},
			[]string{"source"},
		),
		UnmappedValues: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskreport_unmapped_values_total",
				Help: "Raw values that fell back to a default or were quarantined, by field",
			},
			[]string{"field"},
		),
		Adjustments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskreport_reconciliation_adjustments_total",
				Help: "Values changed by a reconciliation rule",
			},
			[]string{"rule"},
		),
		Reports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskreport_reports_total",
				Help: "Report generations by result",
			},
			[]string{"result"},
		),
		ReportDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "riskreport_report_duration_seconds",
				Help:    "End-to-end report generation time in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		gatherer: reg,
	}
	reg.MustRegister(
		m.SourceFetchDuration,
		m.SourceFailures,
		m.BreakerState,
		m.UnmappedValues,
		m.Adjustments,
		m.Reports,
		m.ReportDuration,
	)
	return m
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveFetch(source string, kind models.Kind, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
		m.SourceFailures.WithLabelValues(source, string(kind)).Inc()
	}
	m.SourceFetchDuration.WithLabelValues(source, string(kind), result).Observe(d.Seconds())
}

func (m *Metrics) SetBreakerState(source string, state int) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(source).Set(float64(state))
}

func (m *Metrics) ObserveUnmapped(byField map[string]int) {
	if m == nil {
		return
	}
	for f, n := range byField {
		m.UnmappedValues.WithLabelValues(f).Add(float64(n))
	}
}

func (m *Metrics) ObserveAdjustments(adj []models.Adjustment) {
	if m == nil {
		return
	}
	for _, a := range adj {
		m.Adjustments.WithLabelValues(a.Rule).Inc()
	}
}

func (m *Metrics) ObserveReport(d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Reports.WithLabelValues(result).Inc()
	m.ReportDuration.Observe(d.Seconds())
}
