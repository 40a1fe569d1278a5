package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/revops-risk/internal/metrics"
	"github.com/AngelCh415/revops-risk/internal/models"
)

func row(p models.Product, r models.Region, c models.Category, pct, gap, cov float64) models.AttainmentRow {
	return models.AttainmentRow{
		Product: p, Region: r, Category: c,
		AttainmentPct: pct, GapACV: gap, Coverage: cov,
		PeriodTargetACV: 1000, ActualACV: pct * 10,
		RAG: metrics.Classify(pct),
	}
}

func funnelRow(k models.DimensionKey, pacing ...float64) models.FunnelPacingRow {
	f := models.FunnelPacingRow{Product: k.Product, Region: k.Region, Category: k.Category}
	for i, p := range pacing {
		f.Stages = append(f.Stages, models.StagePacing{Stage: models.Stage(i).String(), PacingPct: p, Active: p >= 0})
	}
	return f
}

func TestWinsAreTieredAndSorted(t *testing.T) {
	rows := []models.AttainmentRow{
		row(models.ProductPOR, models.RegionAMER, models.CategoryNewLogo, 95, -50, 1),
		row(models.ProductPOR, models.RegionEMEA, models.CategoryNewLogo, 130, 300, 0),
		row(models.ProductR360, models.RegionAMER, models.CategoryExpansion, 105, 50, 0),
		row(models.ProductPOR, models.RegionAPAC, models.CategoryNewLogo, 40, -600, 0),
		row(models.ProductPOR, models.RegionAMER, models.CategoryExpansion, 105, 50, 0),
	}
	wins := Wins(rows)
	require.Len(t, wins, 4)
	assert.Equal(t, models.TierExceptional, wins[0].Tier)
	assert.Equal(t, models.RegionEMEA, wins[0].Region)
	// empate: orden canónico de la clave
	assert.Equal(t, models.ProductPOR, wins[1].Product)
	assert.Equal(t, models.ProductR360, wins[2].Product)
	assert.Equal(t, models.TierOnTrack, wins[1].Tier)
	assert.Equal(t, models.TierNeedsAttention, wins[3].Tier)
	for _, w := range wins {
		assert.NotEmpty(t, w.Commentary)
		assert.NotEmpty(t, w.ContributingFactor)
	}
}

func TestRiskPocketsSortedByGapAndCapped(t *testing.T) {
	rows := []models.AttainmentRow{
		row(models.ProductPOR, models.RegionAMER, models.CategoryNewLogo, 50, -500, 1),
		row(models.ProductPOR, models.RegionEMEA, models.CategoryNewLogo, 60, -900, 1),
		row(models.ProductPOR, models.RegionAPAC, models.CategoryNewLogo, 10, -100, 1),
		row(models.ProductPOR, models.RegionAPAC, models.CategoryExpansion, 80, -10, 1),
	}
	all := RiskPockets(rows, 0)
	require.Len(t, all, 3)
	assert.Equal(t, []float64{-900, -500, -100}, []float64{all[0].GapACV, all[1].GapACV, all[2].GapACV})

	assert.Len(t, RiskPockets(rows, 2), 2)
}

func TestMomentumTiersAndExclusion(t *testing.T) {
	strong := row(models.ProductPOR, models.RegionAMER, models.CategoryNewLogo, 80, -200, 2.5)
	moderateCov := row(models.ProductPOR, models.RegionEMEA, models.CategoryNewLogo, 75, -250, 2.0)
	moderateLead := row(models.ProductPOR, models.RegionAPAC, models.CategoryNewLogo, 72, -280, 0.5)
	none := row(models.ProductR360, models.RegionAMER, models.CategoryNewLogo, 85, -150, 1.0)
	inactiveLead := row(models.ProductR360, models.RegionEMEA, models.CategoryNewLogo, 85, -150, 1.0)

	funnel := indexFunnel([]models.FunnelPacingRow{
		funnelRow(strong.Key(), 95, 50, 50, 50),
		funnelRow(moderateLead.Key(), 40, 91, 50, 50),
		funnelRow(none.Key(), 89, 89, 89, 89),
		// MQL inactivo con pacing alto no cuenta
		funnelRow(inactiveLead.Key(), -100, 10, 10, 10),
	})
	funnel[inactiveLead.Key()].Stages[0].PacingPct = 150

	m := Momentum([]models.AttainmentRow{strong, moderateCov, moderateLead, none, inactiveLead}, funnel)
	require.Len(t, m, 3)
	assert.Equal(t, models.MomentumStrong, m[0].Tier)
	assert.True(t, m[0].CoverageSignal && m[0].LeadSignal)
	assert.Equal(t, models.MomentumModerate, m[1].Tier)
	assert.Equal(t, models.RegionEMEA, m[1].Region)
	assert.Equal(t, models.RegionAPAC, m[2].Region)
	assert.True(t, m[2].LeadSignal)
	// 90% de 1000 menos 800
	assert.Equal(t, 100.0, m[0].GapToGreenACV)
}

func TestActionRules(t *testing.T) {
	redLowCov := row(models.ProductPOR, models.RegionAMER, models.CategoryNewLogo, 40, -600, 1.5)
	redLowCov.WonDeals, redLowCov.LostDeals, redLowCov.WinRatePct = 1, 4, 20

	redNoDeals := row(models.ProductPOR, models.RegionEMEA, models.CategoryNewLogo, 40, -600, 2.5)

	yellow := row(models.ProductR360, models.RegionAMER, models.CategoryNewLogo, 80, -200, 2.5)

	funnel := indexFunnel([]models.FunnelPacingRow{
		funnelRow(redNoDeals.Key(), 100, 75, -1, 70),
		funnelRow(yellow.Key(), 85, 60, -1, 95),
	})

	items := Actions([]models.AttainmentRow{redLowCov, redNoDeals, yellow}, funnel)
	type sig struct {
		region models.Region
		prod   models.Product
		u      models.Urgency
		a      models.ActionCategory
	}
	var got []sig
	for _, it := range items {
		got = append(got, sig{it.Region, it.Product, it.Urgency, it.Area})
	}
	assert.Equal(t, []sig{
		{models.RegionAMER, models.ProductPOR, models.UrgencyImmediate, models.ActionPipeline},
		{models.RegionAMER, models.ProductPOR, models.UrgencyImmediate, models.ActionWinRate},
		{models.RegionEMEA, models.ProductPOR, models.UrgencyShortTerm, models.ActionFunnel},
		{models.RegionAMER, models.ProductR360, models.UrgencyShortTerm, models.ActionPipeline},
		{models.RegionAMER, models.ProductR360, models.UrgencyStrategic, models.ActionLeadGen},
	}, got)
	assert.Equal(t, models.SeverityCritical, items[0].Severity)
	assert.Equal(t, 25.0, items[2].Metric)
}

func TestWinRateActionNeedsDecidedDeals(t *testing.T) {
	r := row(models.ProductPOR, models.RegionAMER, models.CategoryNewLogo, 40, -600, 5)
	assert.Empty(t, Actions([]models.AttainmentRow{r}, nil))
}

func TestGenerateCounts(t *testing.T) {
	rows := []models.AttainmentRow{
		row(models.ProductPOR, models.RegionAMER, models.CategoryNewLogo, 130, 300, 0),
		row(models.ProductPOR, models.RegionEMEA, models.CategoryNewLogo, 100, 0, 0),
		row(models.ProductPOR, models.RegionAPAC, models.CategoryNewLogo, 75, -100, 2.5),
		row(models.ProductR360, models.RegionAPAC, models.CategoryNewLogo, 10, -900, 0),
	}
	s := Generate(rows, nil, 10)
	assert.Equal(t, models.ExecutiveCounts{AreasExceedingTarget: 2, AreasAtRisk: 1, AreasNeedingAttention: 1, AreasWithMomentum: 1}, s.Counts)
	assert.Len(t, s.Wins, 2)
	assert.Len(t, s.RiskPockets, 1)
	assert.Len(t, s.Momentum, 1)
}

func TestGapToGreenRoundsToCents(t *testing.T) {
	r := models.AttainmentRow{PeriodTargetACV: 333.33, ActualACV: 100}
	assert.Equal(t, 200.0, gapToGreen(r))

	f := 310.0
	r.ForecastACV = &f
	assert.Zero(t, gapToGreen(r))
}
