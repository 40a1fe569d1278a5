package metrics

import "github.com/AngelCh415/revops-risk/internal/models"

// Totals sums attainment rows and recomputes the ratios from the sums.
// Renewal uplift is not part of the totals.
func Totals(rows []models.AttainmentRow) models.Totals {
	var t models.Totals
	for _, r := range rows {
		t.FullTargetACV += r.FullTargetACV
		t.PeriodTargetACV += r.PeriodTargetACV
		t.ActualACV += r.ActualACV
		t.PipelineACV += r.PipelineACV
		t.WonDeals += r.WonDeals
		t.LostDeals += r.LostDeals
		t.LostACV += r.LostACV
	}
	t.FullTargetACV = round2(t.FullTargetACV)
	t.PeriodTargetACV = round2(t.PeriodTargetACV)
	t.ActualACV = round2(t.ActualACV)
	t.PipelineACV = round2(t.PipelineACV)
	t.LostACV = round2(t.LostACV)
	t.AttainmentPct = AttainmentPct(t.ActualACV, t.PeriodTargetACV)
	t.GapACV = Gap(t.ActualACV, t.PeriodTargetACV)
	t.Coverage = Coverage(t.PipelineACV, t.FullTargetACV, t.ActualACV)
	t.WinRatePct = WinRate(t.WonDeals, t.LostDeals)
	t.Q1ProgressPct = round1(safeDiv(t.ActualACV, t.FullTargetACV) * 100)
	t.RAG = Classify(t.AttainmentPct)
	return t
}

// ProductTotals returns one roll-up per product present in rows, in
// canonical product order.
func ProductTotals(rows []models.AttainmentRow) []models.Totals {
	by := make(map[models.Product][]models.AttainmentRow)
	for _, r := range rows {
		by[r.Product] = append(by[r.Product], r)
	}
	out := make([]models.Totals, 0, len(by))
	for _, p := range models.Products {
		if rs, ok := by[p]; ok {
			t := Totals(rs)
			t.Product = p
			out = append(out, t)
		}
	}
	return out
}
