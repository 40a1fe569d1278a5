// Package insights derives ranked wins, risk pockets, momentum signals and
// action items from attainment and funnel rows. Every list is rebuilt on
// each call; nothing here holds state.
package insights

import (
	"fmt"
	"sort"

	"github.com/AngelCh415/revops-risk/internal/metrics"
	"github.com/AngelCh415/revops-risk/internal/models"
)

// Umbrales de las reglas de insights.
const (
	ExceptionalPct    = 120.0
	OnTrackPct        = 100.0
	MomentumCoverage  = 2.0
	LeadSignalPacing  = 90.0
	ImmediateCoverage = 2.0
	ImmediateWinRate  = 25.0
	HealthyCoverage   = 3.0
	LeakageDrop       = 20.0
)

type Set struct {
	Wins        []models.WinBrightSpot
	RiskPockets []models.RiskPocket
	Momentum    []models.MomentumIndicator
	Actions     []models.ActionItem
	Counts      models.ExecutiveCounts
}

// Generate runs the four classifiers. topRiskLimit caps the risk pockets;
// 0 means no cap.
func Generate(rows []models.AttainmentRow, funnel []models.FunnelPacingRow, topRiskLimit int) Set {
	byKey := indexFunnel(funnel)
	s := Set{
		Wins:        Wins(rows),
		RiskPockets: RiskPockets(rows, topRiskLimit),
		Momentum:    Momentum(rows, byKey),
		Actions:     Actions(rows, byKey),
	}
	s.Counts = Counts(rows, s.Momentum)
	return s
}

func indexFunnel(funnel []models.FunnelPacingRow) map[models.DimensionKey]models.FunnelPacingRow {
	out := make(map[models.DimensionKey]models.FunnelPacingRow, len(funnel))
	for _, f := range funnel {
		out[f.Key()] = f
	}
	return out
}

func Tier(pct float64) models.PerformanceTier {
	switch {
	case pct >= ExceptionalPct:
		return models.TierExceptional
	case pct >= OnTrackPct:
		return models.TierOnTrack
	default:
		return models.TierNeedsAttention
	}
}

// Wins lists GREEN rows by attainment, highest first.
func Wins(rows []models.AttainmentRow) []models.WinBrightSpot {
	out := []models.WinBrightSpot{}
	for _, r := range rows {
		if r.RAG != models.RAGGreen {
			continue
		}
		tier := Tier(r.AttainmentPct)
		out = append(out, models.WinBrightSpot{
			Product:            r.Product,
			Region:             r.Region,
			Category:           r.Category,
			AttainmentPct:      r.AttainmentPct,
			ActualACV:          r.ActualACV,
			PeriodTargetACV:    r.PeriodTargetACV,
			Tier:               tier,
			Commentary:         winCommentary(r, tier),
			ContributingFactor: contributingFactor(r),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AttainmentPct != out[j].AttainmentPct {
			return out[i].AttainmentPct > out[j].AttainmentPct
		}
		return keyOf(out[i].Product, out[i].Region, out[i].Category).Less(keyOf(out[j].Product, out[j].Region, out[j].Category))
	})
	return out
}

// RiskPockets lists RED rows by gap, most negative first.
func RiskPockets(rows []models.AttainmentRow, limit int) []models.RiskPocket {
	out := []models.RiskPocket{}
	for _, r := range rows {
		if r.RAG != models.RAGRed {
			continue
		}
		out = append(out, models.RiskPocket{
			Product:         r.Product,
			Region:          r.Region,
			Category:        r.Category,
			AttainmentPct:   r.AttainmentPct,
			GapACV:          r.GapACV,
			ActualACV:       r.ActualACV,
			PeriodTargetACV: r.PeriodTargetACV,
			Coverage:        r.Coverage,
			WinRatePct:      r.WinRatePct,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].GapACV != out[j].GapACV {
			return out[i].GapACV < out[j].GapACV
		}
		return keyOf(out[i].Product, out[i].Region, out[i].Category).Less(keyOf(out[j].Product, out[j].Region, out[j].Category))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Momentum lists YELLOW rows showing a leading signal. Rows with no signal
// are left out.
func Momentum(rows []models.AttainmentRow, funnel map[models.DimensionKey]models.FunnelPacingRow) []models.MomentumIndicator {
	out := []models.MomentumIndicator{}
	for _, r := range rows {
		if r.RAG != models.RAGYellow {
			continue
		}
		cov := r.Coverage >= MomentumCoverage
		lead := leadSignal(funnel, r.Key())
		if !cov && !lead {
			continue
		}
		tier := models.MomentumModerate
		if cov && lead {
			tier = models.MomentumStrong
		}
		out = append(out, models.MomentumIndicator{
			Product:        r.Product,
			Region:         r.Region,
			Category:       r.Category,
			AttainmentPct:  r.AttainmentPct,
			Coverage:       r.Coverage,
			CoverageSignal: cov,
			LeadSignal:     lead,
			GapToGreenACV:  gapToGreen(r),
			Tier:           tier,
			Commentary:     momentumCommentary(r, cov, lead),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Tier != out[j].Tier {
			return out[i].Tier == models.MomentumStrong
		}
		if out[i].AttainmentPct != out[j].AttainmentPct {
			return out[i].AttainmentPct > out[j].AttainmentPct
		}
		return keyOf(out[i].Product, out[i].Region, out[i].Category).Less(keyOf(out[j].Product, out[j].Region, out[j].Category))
	})
	return out
}

// leadSignal: MQL o SQL activos con pacing ≥ 90.
func leadSignal(funnel map[models.DimensionKey]models.FunnelPacingRow, k models.DimensionKey) bool {
	f, ok := funnel[k]
	if !ok {
		return false
	}
	for _, s := range []models.Stage{models.StageMQL, models.StageSQL} {
		if sp := f.Stage(s); sp != nil && sp.Active && sp.PacingPct >= LeadSignalPacing {
			return true
		}
	}
	return false
}

// gapToGreen is the extra ACV needed to reach the GREEN threshold.
func gapToGreen(r models.AttainmentRow) float64 {
	basis := r.ActualACV
	if r.ForecastACV != nil {
		basis = *r.ForecastACV
	}
	need := r.PeriodTargetACV*metrics.GreenThreshold/100 - basis
	if need < 0 {
		return 0
	}
	return metrics.Round2(need)
}

func Counts(rows []models.AttainmentRow, momentum []models.MomentumIndicator) models.ExecutiveCounts {
	var c models.ExecutiveCounts
	for _, r := range rows {
		if r.AttainmentPct >= OnTrackPct {
			c.AreasExceedingTarget++
		}
		switch r.RAG {
		case models.RAGRed:
			c.AreasAtRisk++
		case models.RAGYellow:
			c.AreasNeedingAttention++
		}
	}
	c.AreasWithMomentum = len(momentum)
	return c
}

func keyOf(p models.Product, r models.Region, c models.Category) models.DimensionKey {
	return models.DimensionKey{Product: p, Region: r, Category: c}
}

func segmentName(r models.AttainmentRow) string {
	return fmt.Sprintf("%s %s %s", r.Product, r.Region, r.Category)
}

func winCommentary(r models.AttainmentRow, tier models.PerformanceTier) string {
	switch tier {
	case models.TierExceptional:
		return fmt.Sprintf("%s is at %.0f%% of QTD target, well ahead of plan", segmentName(r), r.AttainmentPct)
	case models.TierOnTrack:
		return fmt.Sprintf("%s has met its QTD target at %.0f%%", segmentName(r), r.AttainmentPct)
	}
	return fmt.Sprintf("%s is green at %.0f%% but still short of full QTD target", segmentName(r), r.AttainmentPct)
}

func contributingFactor(r models.AttainmentRow) string {
	switch {
	case r.ForecastACV != nil && r.UpliftACV != nil && *r.UpliftACV > 0:
		return fmt.Sprintf("renewal uplift of %.2f lifts the forecast", *r.UpliftACV)
	case r.WinRatePct >= 50:
		return fmt.Sprintf("win rate of %.1f%%", r.WinRatePct)
	case r.WonDeals > 0:
		return fmt.Sprintf("%.0f deals closed QTD", r.WonDeals)
	case r.PeriodTargetACV == 0:
		return "no QTD target set"
	}
	return "bookings ahead of prorated target"
}

func momentumCommentary(r models.AttainmentRow, cov, lead bool) string {
	switch {
	case cov && lead:
		return fmt.Sprintf("%.2fx pipeline coverage and lead stages pacing on plan", r.Coverage)
	case cov:
		return fmt.Sprintf("%.2fx pipeline coverage on the remaining gap", r.Coverage)
	}
	return "lead stages pacing on plan"
}
