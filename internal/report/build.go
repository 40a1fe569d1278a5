// Package report assembles one risk report: collect, reconcile, score and
// derive insights.
package report

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/AngelCh415/revops-risk/internal/config"
	"github.com/AngelCh415/revops-risk/internal/insights"
	"github.com/AngelCh415/revops-risk/internal/metrics"
	"github.com/AngelCh415/revops-risk/internal/models"
	"github.com/AngelCh415/revops-risk/internal/resolve"
)

var ErrInvalidFilter = errors.New("invalid filter")

// Prepare fills the defaults of filter: the window defaults to the
// configured quarter, ending today when today falls inside it.
func Prepare(filter models.Filter, cfg config.ReportConfig, now time.Time) (models.Filter, error) {
	if filter.StartDate.IsZero() {
		filter.StartDate = cfg.QuarterStart
	}
	if filter.EndDate.IsZero() {
		filter.EndDate = cfg.QuarterEnd
		today := models.NewDate(now.UTC().Date())
		if !today.Before(cfg.QuarterStart.Time) && today.Before(cfg.QuarterEnd.Time) {
			filter.EndDate = today
		}
	}
	if filter.EndDate.Before(filter.StartDate.Time) {
		return filter, fmt.Errorf("%w: end_date %s before start_date %s", ErrInvalidFilter, filter.EndDate, filter.StartDate)
	}
	if filter.RiskProfile == "" {
		filter.RiskProfile = cfg.RiskProfile
	}
	var err error
	if filter.Products, err = canonical(filter.Products, models.ParseProduct); err != nil {
		return filter, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	}
	if filter.Regions, err = canonical(filter.Regions, models.ParseRegion); err != nil {
		return filter, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	}
	return filter, nil
}

// canonical pasa cada valor por su parser estricto; nada desconocido pasa.
func canonical[T ~string](xs []T, parse func(string) (T, error)) ([]T, error) {
	if len(xs) == 0 {
		return xs, nil
	}
	out := make([]T, 0, len(xs))
	for _, x := range xs {
		v, err := parse(string(x))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Build scores already collected rows. It is pure apart from the report id
// and timestamp.
func Build(records []models.RawRecord, filter models.Filter, cfg config.ReportConfig) models.Report {
	b := builder{cfg: cfg, log: slog.Default(), now: time.Now()}
	rep, _ := b.build(records, filter, nil)
	return rep
}

type builder struct {
	cfg config.ReportConfig
	log *slog.Logger
	now time.Time
}

// build also returns the unmapped value counts per field, for metrics.
func (b builder) build(records []models.RawRecord, filter models.Filter, failed []string) (models.Report, map[string]int) {
	period := metrics.Period(b.cfg.QuarterStart, b.cfg.QuarterEnd, filter.EndDate)
	frac := metrics.Fraction(period)
	res := resolve.New(b.cfg.Rules(), b.log).Resolve(records, filter)

	rows, funnel := b.score(res, frac)
	bySource, funnelBySource := b.scoreSources(res, frac)
	set := insights.Generate(rows, funnel, b.cfg.TopRiskLimit)

	if failed == nil {
		failed = []string{}
	}
	return models.Report{
		ReportID:         uuid.NewString(),
		GeneratedAtUTC:   b.now.UTC(),
		RiskProfile:      filter.RiskProfile,
		FiltersApplied:   filter,
		Period:           period,
		GrandTotal:       metrics.Totals(rows),
		ProductTotals:    orEmpty(metrics.ProductTotals(rows)),
		AttainmentDetail: rows,
		FunnelPacing:     funnel,
		SourceAttainment: bySource,
		FunnelBySource:   funnelBySource,
		Wins:             orEmpty(set.Wins),
		RiskPockets:      orEmpty(set.RiskPockets),
		Momentum:         orEmpty(set.Momentum),
		ActionItems:      orEmpty(set.Actions),
		ExecutiveCounts:  set.Counts,
		DataQuality: models.DataQuality{
			FailedSources: failed,
			Unmapped:      orEmpty(res.Unmapped),
			Adjustments:   orEmpty(res.Adjustments),
		},
	}, res.UnmappedByField
}

// score computes attainment and funnel rows per segment, in key order.
func (b builder) score(res resolve.Result, frac float64) ([]models.AttainmentRow, []models.FunnelPacingRow) {
	segs := res.Rollup()
	policy := b.cfg.Policy()

	rows := []models.AttainmentRow{}
	funnel := []models.FunnelPacingRow{}
	for _, k := range segmentKeys(res, segs) {
		rec := policy.Prorate(segs[k], k.Category, frac)
		deal, hasDeal := res.Deals[k]
		var uplift float64
		if k.Category == models.CategoryRenewal {
			uplift = res.Uplifts[models.UpliftKey{Product: k.Product, Region: k.Region}]
		}
		if hasRevenue(rec) || hasDeal || uplift != 0 {
			rows = append(rows, metrics.Attainment(k, rec, deal, uplift))
		}
		if hasFunnel(rec) {
			funnel = append(funnel, metrics.Funnel(k, rec, b.cfg.Profile(k.Product)))
		}
	}
	return rows, funnel
}

// scoreSources scores each source-level key on its own, prorated like its
// segment. Deals and uplift have no source, so they stay out.
func (b builder) scoreSources(res resolve.Result, frac float64) ([]models.AttainmentRow, []models.FunnelPacingRow) {
	policy := b.cfg.Policy()

	rows := []models.AttainmentRow{}
	funnel := []models.FunnelPacingRow{}
	for _, k := range res.Keys() {
		if k.Source == models.SourceNone {
			continue
		}
		rec := policy.Prorate(res.Records[k], k.Category, frac)
		if hasRevenue(rec) {
			row := metrics.Attainment(k, rec, models.DealAggregate{}, 0)
			row.Source = k.Source
			rows = append(rows, row)
		}
		if hasFunnel(rec) {
			f := metrics.Funnel(k, rec, b.cfg.Profile(k.Product))
			f.Source = k.Source
			funnel = append(funnel, f)
		}
	}
	return rows, funnel
}

// segmentKeys une las claves de registros, deals y uplift (solo RENEWAL).
func segmentKeys(res resolve.Result, segs map[models.DimensionKey]models.MetricRecord) []models.DimensionKey {
	set := make(map[models.DimensionKey]struct{}, len(segs))
	for k := range segs {
		set[k] = struct{}{}
	}
	for k := range res.Deals {
		set[k.Segment()] = struct{}{}
	}
	for k := range res.Uplifts {
		set[models.DimensionKey{Product: k.Product, Region: k.Region, Category: models.CategoryRenewal}] = struct{}{}
	}
	keys := make([]models.DimensionKey, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b models.DimensionKey) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
	return keys
}

func hasRevenue(rec models.MetricRecord) bool {
	return rec.TargetACV != 0 || rec.ActualACV != 0 || rec.WonDeals != 0
}

func hasFunnel(rec models.MetricRecord) bool {
	for _, s := range models.Stages {
		if rec.Target[s] != 0 || rec.Actual[s] != 0 {
			return true
		}
	}
	return false
}

func orEmpty[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}
