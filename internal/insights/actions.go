package insights

import (
	"fmt"
	"sort"

	"github.com/AngelCh415/revops-risk/internal/models"
)

// Actions evaluates every rule on every row independently, so one row can
// produce several items across urgency tiers.
func Actions(rows []models.AttainmentRow, funnel map[models.DimensionKey]models.FunnelPacingRow) []models.ActionItem {
	out := []models.ActionItem{}
	for _, r := range rows {
		f, hasFunnel := funnel[r.Key()]
		add := func(u models.Urgency, sev models.Severity, area models.ActionCategory, metric float64, issue, action string) {
			out = append(out, models.ActionItem{
				Product: r.Product, Region: r.Region, Category: r.Category,
				Urgency: u, Severity: sev, Area: area,
				Issue: issue, Action: action, Metric: metric,
			})
		}

		switch r.RAG {
		case models.RAGRed:
			if r.Coverage < ImmediateCoverage {
				add(models.UrgencyImmediate, models.SeverityCritical, models.ActionPipeline, r.Coverage,
					fmt.Sprintf("%s at %.0f%% with %.2fx pipeline coverage", segmentName(r), r.AttainmentPct, r.Coverage),
					"Build pipeline now: run targeted outbound and pull forward late-quarter opportunities")
			}
			if r.WonDeals+r.LostDeals > 0 && r.WinRatePct < ImmediateWinRate {
				add(models.UrgencyImmediate, models.SeverityCritical, models.ActionWinRate, r.WinRatePct,
					fmt.Sprintf("%s win rate is %.1f%%", segmentName(r), r.WinRatePct),
					"Review lost deals and put deal coaching on open late-stage opportunities")
			}
			if hasFunnel {
				if from, to, drop, ok := leakage(f); ok {
					add(models.UrgencyShortTerm, models.SeverityHigh, models.ActionFunnel, drop,
						fmt.Sprintf("%s funnel pacing drops %.0f points from %s to %s", segmentName(r), drop, from, to),
						fmt.Sprintf("Tighten %s to %s conversion and follow-up SLAs", from, to))
				}
			}
		case models.RAGYellow:
			if r.Coverage < HealthyCoverage {
				add(models.UrgencyShortTerm, models.SeverityHigh, models.ActionPipeline, r.Coverage,
					fmt.Sprintf("%s pipeline coverage is %.2fx", segmentName(r), r.Coverage),
					"Add qualified pipeline to reach 3x coverage of the remaining gap")
			}
			if hasFunnel && leadShortfall(f) {
				add(models.UrgencyStrategic, models.SeverityMedium, models.ActionLeadGen, leadPacing(f),
					fmt.Sprintf("%s lead and qualified-lead stages are both pacing below %.0f%%", segmentName(r), LeadSignalPacing),
					"Rebalance demand-generation spend toward the channels converting best")
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if ui, uj := urgencyRank(out[i].Urgency), urgencyRank(out[j].Urgency); ui != uj {
			return ui < uj
		}
		ki, kj := keyOf(out[i].Product, out[i].Region, out[i].Category), keyOf(out[j].Product, out[j].Region, out[j].Category)
		if ki != kj {
			return ki.Less(kj)
		}
		return out[i].Area < out[j].Area
	})
	return out
}

func urgencyRank(u models.Urgency) int {
	switch u {
	case models.UrgencyImmediate:
		return 0
	case models.UrgencyShortTerm:
		return 1
	}
	return 2
}

// leakage devuelve la mayor caída de pacing entre etapas activas
// consecutivas, si llega a LeakageDrop.
func leakage(f models.FunnelPacingRow) (from, to string, drop float64, ok bool) {
	var prev *models.StagePacing
	for i := range f.Stages {
		sp := &f.Stages[i]
		if !sp.Active {
			continue
		}
		if prev != nil {
			if d := prev.PacingPct - sp.PacingPct; d >= LeakageDrop && d > drop {
				from, to, drop, ok = prev.Stage, sp.Stage, d, true
			}
		}
		prev = sp
	}
	return from, to, drop, ok
}

// leadShortfall: MQL y SQL activos y ambos por debajo del umbral.
func leadShortfall(f models.FunnelPacingRow) bool {
	mql, sql := f.Stage(models.StageMQL), f.Stage(models.StageSQL)
	if mql == nil || sql == nil || !mql.Active || !sql.Active {
		return false
	}
	return mql.PacingPct < LeadSignalPacing && sql.PacingPct < LeadSignalPacing
}

func leadPacing(f models.FunnelPacingRow) float64 {
	return f.Stage(models.StageMQL).PacingPct
}
