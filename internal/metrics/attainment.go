package metrics

import "github.com/AngelCh415/revops-risk/internal/models"

// Policy controls how full-period targets are prorated.
type Policy struct {
	// ProrateRenewals prorates RENEWAL targets like every other category.
	// Off by default: renewal bookings are lumpy and compared against the
	// full-quarter target.
	ProrateRenewals bool
}

// Prorate fills the period targets of rec for the elapsed fraction.
func (p Policy) Prorate(rec models.MetricRecord, c models.Category, frac float64) models.MetricRecord {
	f := clamp01(frac)
	if c == models.CategoryRenewal && !p.ProrateRenewals {
		f = 1
	}
	rec.PeriodTargetACV = round2(rec.TargetACV * f)
	for _, s := range models.Stages {
		rec.PeriodTarget[s] = round2(rec.Target[s] * f)
	}
	return rec
}

// AttainmentPct is round(basis / target × 100), with a zero target defined
// as met.
func AttainmentPct(basis, target float64) float64 {
	if target == 0 {
		return 100
	}
	return round0(safeDiv(basis, target) * 100)
}

// Gap is basis − target, 0 when there is no target.
func Gap(basis, target float64) float64 {
	if target == 0 {
		return 0
	}
	return round2(basis - target)
}

// Coverage is pipeline over the remaining gap to the full target; 0 when
// nothing remains.
func Coverage(pipeline, fullTarget, basis float64) float64 {
	remaining := fullTarget - basis
	if remaining <= 0 {
		return 0
	}
	return round2(safeDiv(pipeline, remaining))
}

func WinRate(won, lost float64) float64 {
	return round1(safeDiv(won, won+lost) * 100)
}

// Attainment builds the row for a segment key. rec must already carry its
// period targets (see Policy.Prorate). uplift is only read for RENEWAL.
func Attainment(k models.DimensionKey, rec models.MetricRecord, deal models.DealAggregate, uplift float64) models.AttainmentRow {
	won := rec.WonDeals
	if won == 0 {
		won = deal.WonCount
	}
	row := models.AttainmentRow{
		Product:         k.Product,
		Region:          k.Region,
		Category:        k.Category,
		FullTargetACV:   round2(rec.TargetACV),
		PeriodTargetACV: round2(rec.PeriodTargetACV),
		ActualACV:       round2(rec.ActualACV),
		Q1ProgressPct:   round1(safeDiv(rec.ActualACV, rec.TargetACV) * 100),
		PipelineACV:     round2(deal.PipelineACV),
		Coverage:        Coverage(deal.PipelineACV, rec.TargetACV, rec.ActualACV),
		WonDeals:        won,
		LostDeals:       deal.LostCount,
		LostACV:         round2(deal.LostACV),
		WinRatePct:      WinRate(won, deal.LostCount),
	}

	basis := rec.ActualACV
	if k.Category == models.CategoryRenewal {
		up := round2(uplift)
		forecast := round2(rec.ActualACV + up)
		literal := AttainmentPct(rec.ActualACV, rec.PeriodTargetACV)
		row.UpliftACV = &up
		row.ForecastACV = &forecast
		row.LiteralAttainmentPct = &literal
		basis = forecast
	}

	row.AttainmentPct = AttainmentPct(basis, rec.PeriodTargetACV)
	row.GapACV = Gap(basis, rec.PeriodTargetACV)
	row.RAG = Classify(row.AttainmentPct)
	if k.Category == models.CategoryRenewal {
		row.ForecastRAG = classifyPtr(row.AttainmentPct)
	}
	return row
}
