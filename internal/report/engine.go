package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AngelCh415/revops-risk/internal/config"
	"github.com/AngelCh415/revops-risk/internal/ingest"
	"github.com/AngelCh415/revops-risk/internal/models"
	"github.com/AngelCh415/revops-risk/internal/telemetry"
)

// ErrRequiredInputUnavailable means every source of a required kind failed.
var ErrRequiredInputUnavailable = errors.New("required input unavailable")

// RequiredKinds must have at least one healthy source for a report.
var RequiredKinds = []models.Kind{models.KindTargets, models.KindRevenue}

type Engine struct {
	collector *ingest.Collector
	cfg       config.ReportConfig
	log       *slog.Logger
	metrics   *telemetry.Metrics
	now       func() time.Time
}

func NewEngine(c *ingest.Collector, cfg config.ReportConfig, log *slog.Logger, m *telemetry.Metrics) *Engine {
	return &Engine{collector: c, cfg: cfg, log: log, metrics: m, now: time.Now}
}

func (e *Engine) Config() config.ReportConfig { return e.cfg }

// Generate collects from every source and builds the report for filter.
func (e *Engine) Generate(ctx context.Context, filter models.Filter) (models.Report, error) {
	start := time.Now()
	rep, unmapped, err := e.generate(ctx, filter)
	e.metrics.ObserveReport(time.Since(start), err)
	if err != nil {
		e.log.Error("report failed", slog.String("err", err.Error()))
		return models.Report{}, err
	}
	e.metrics.ObserveAdjustments(rep.DataQuality.Adjustments)
	e.metrics.ObserveUnmapped(unmapped)
	e.log.Info("report generated",
		slog.String("report_id", rep.ReportID),
		slog.Int("attainment_rows", len(rep.AttainmentDetail)),
		slog.Int("funnel_rows", len(rep.FunnelPacing)),
		slog.Int("failed_sources", len(rep.DataQuality.FailedSources)),
		slog.Duration("took", time.Since(start)))
	return rep, nil
}

func (e *Engine) generate(ctx context.Context, filter models.Filter) (models.Report, map[string]int, error) {
	filter, err := Prepare(filter, e.cfg, e.now())
	if err != nil {
		return models.Report{}, nil, err
	}
	col := e.collector.Collect(ctx, filter)
	for _, k := range RequiredKinds {
		if col.AllFailed(k) {
			return models.Report{}, nil, fmt.Errorf("%w: every %s source failed", ErrRequiredInputUnavailable, k)
		}
	}
	if err := ctx.Err(); err != nil {
		return models.Report{}, nil, err
	}
	b := builder{cfg: e.cfg, log: e.log, now: e.now()}
	rep, unmapped := b.build(col.Records(), filter, col.FailedSources())
	return rep, unmapped, nil
}
