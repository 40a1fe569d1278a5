package metrics

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/revops-risk/internal/models"
)

func seg(p models.Product, c models.Category) models.DimensionKey {
	return models.DimensionKey{Product: p, Region: models.RegionAMER, Category: c}
}

func TestPeriodCountsBothBoundsInclusive(t *testing.T) {
	start, end := models.NewDate(2026, time.January, 1), models.NewDate(2026, time.March, 31)

	p := Period(start, end, models.NewDate(2026, time.January, 1))
	assert.Equal(t, 1, p.DaysElapsed)
	assert.Equal(t, 90, p.TotalDays)

	p = Period(start, end, end)
	assert.Equal(t, 1.0, Fraction(p))
	assert.Equal(t, 100.0, p.QuarterPctComplete)

	p = Period(start, end, models.NewDate(2026, time.February, 14))
	assert.Equal(t, 45, p.DaysElapsed)
	assert.Equal(t, 0.5, Fraction(p))

	assert.Equal(t, 0.0, Fraction(Period(start, end, models.NewDate(2025, time.December, 1))))
	assert.Equal(t, 1.0, Fraction(Period(start, end, models.NewDate(2026, time.June, 1))))
}

func TestClassifyPartition(t *testing.T) {
	assert.Equal(t, models.RAGRed, Classify(0))
	assert.Equal(t, models.RAGRed, Classify(69.99))
	assert.Equal(t, models.RAGYellow, Classify(70))
	assert.Equal(t, models.RAGYellow, Classify(89))
	assert.Equal(t, models.RAGGreen, Classify(90))
	assert.Equal(t, models.RAGGreen, Classify(1e9))

	for pct := 0.0; pct < 500; pct += 0.5 {
		n := 0
		for _, lo := range []bool{pct >= GreenThreshold, pct >= YellowThreshold && pct < GreenThreshold, pct < YellowThreshold} {
			if lo {
				n++
			}
		}
		require.Equal(t, 1, n, "pct %v", pct)
	}
}

func TestZeroTargetPolicy(t *testing.T) {
	// escenario 1
	rec := models.MetricRecord{ActualACV: 500}
	row := Attainment(seg(models.ProductPOR, models.CategoryNewLogo), Policy{}.Prorate(rec, models.CategoryNewLogo, 0.5), models.DealAggregate{PipelineACV: 1000}, 0)
	assert.Equal(t, 100.0, row.AttainmentPct)
	assert.Equal(t, 0.0, row.GapACV)
	assert.Equal(t, 0.0, row.Coverage)
	assert.Equal(t, models.RAGGreen, row.RAG)

	for _, actual := range []float64{0, 1, 1e6} {
		r := Attainment(seg(models.ProductR360, models.CategoryExpansion), models.MetricRecord{ActualACV: actual}, models.DealAggregate{}, 0)
		assert.Equal(t, 100.0, r.AttainmentPct)
		assert.Equal(t, 0.0, r.GapACV)
	}
}

func TestProratedAttainment(t *testing.T) {
	// escenario 2
	rec := Policy{}.Prorate(models.MetricRecord{TargetACV: 1_000_000, ActualACV: 400_000}, models.CategoryNewLogo, 0.5)
	assert.Equal(t, 500_000.0, rec.PeriodTargetACV)

	row := Attainment(seg(models.ProductPOR, models.CategoryNewLogo), rec, models.DealAggregate{PipelineACV: 1_200_000}, 0)
	assert.Equal(t, 80.0, row.AttainmentPct)
	assert.Equal(t, models.RAGYellow, row.RAG)
	assert.Equal(t, -100_000.0, row.GapACV)
	assert.Equal(t, 40.0, row.Q1ProgressPct)
	assert.Equal(t, 2.0, row.Coverage)
	assert.Nil(t, row.ForecastACV)
}

func TestRenewalUsesForecast(t *testing.T) {
	// escenario 3
	rec := Policy{}.Prorate(models.MetricRecord{TargetACV: 300_000, ActualACV: 200_000}, models.CategoryRenewal, 0.5)
	assert.Equal(t, 300_000.0, rec.PeriodTargetACV, "renewals compare against the full target")

	row := Attainment(seg(models.ProductPOR, models.CategoryRenewal), rec, models.DealAggregate{PipelineACV: 150_000}, 50_000)
	require.NotNil(t, row.ForecastACV)
	assert.Equal(t, 250_000.0, *row.ForecastACV)
	assert.Equal(t, 200_000.0, row.ActualACV)
	assert.Equal(t, 83.0, row.AttainmentPct)
	assert.Equal(t, 67.0, *row.LiteralAttainmentPct)
	assert.Equal(t, models.RAGYellow, row.RAG)
	assert.Equal(t, models.RAGYellow, *row.ForecastRAG)
	assert.Equal(t, -50_000.0, row.GapACV)
	// la cobertura excluye el uplift
	assert.Equal(t, 1.5, row.Coverage)
}

func TestProrateRenewalsWhenEnabled(t *testing.T) {
	rec := Policy{ProrateRenewals: true}.Prorate(models.MetricRecord{TargetACV: 300_000, Target: models.StageCounts{10}}, models.CategoryRenewal, 0.5)
	assert.Equal(t, 150_000.0, rec.PeriodTargetACV)
	assert.Equal(t, 5.0, rec.PeriodTarget[models.StageMQL])
}

func TestWinRate(t *testing.T) {
	assert.Equal(t, 0.0, WinRate(0, 0))
	assert.Equal(t, 33.3, WinRate(1, 2))
	assert.Equal(t, 100.0, WinRate(4, 0))

	row := Attainment(seg(models.ProductPOR, models.CategoryMigration), models.MetricRecord{}, models.DealAggregate{WonCount: 3, LostCount: 1}, 0)
	assert.Equal(t, 3.0, row.WonDeals)
	assert.Equal(t, 75.0, row.WinRatePct)
}

func TestPacingZeroBars(t *testing.T) {
	assert.Equal(t, 100.0, Pacing(5, 0))
	assert.Equal(t, 0.0, Pacing(0, 0))
	assert.Equal(t, 50.0, Pacing(5, 10))
	assert.Equal(t, 0.0, Pacing(0, 10))
}

func TestRenormalizeDropsInactiveStage(t *testing.T) {
	// escenario 4: SAL sin target en el perfil de 4 etapas
	w, ok := Renormalize([models.NumStages]float64{10, 20, 30, 40}, [models.NumStages]bool{true, true, false, true})
	require.True(t, ok)
	assert.InDelta(t, 14.3, w[models.StageMQL], 0.05)
	assert.InDelta(t, 28.6, w[models.StageSQL], 0.05)
	assert.Equal(t, 0.0, w[models.StageSAL])
	assert.InDelta(t, 57.1, w[models.StageSQO], 0.05)

	r360 := DefaultProfiles()[models.ProductR360].Weights
	for _, s := range []models.Stage{models.StageMQL, models.StageSQL, models.StageSQO} {
		assert.InDelta(t, r360[s], w[s], 0.05)
	}
}

func TestRenormalizedWeightsSumTo100(t *testing.T) {
	base := DefaultProfiles()[models.ProductPOR].Weights
	for mask := 1; mask < 1<<models.NumStages; mask++ {
		var active [models.NumStages]bool
		for s := range active {
			active[s] = mask&(1<<s) != 0
		}
		w, ok := Renormalize(base, active)
		require.True(t, ok)
		var sum float64
		for _, v := range w {
			sum += v
		}
		assert.InDelta(t, 100, sum, 1)
	}

	_, ok := Renormalize(base, [models.NumStages]bool{})
	assert.False(t, ok)
}

func TestTOFScoreIsOrderInvariant(t *testing.T) {
	scores := []StageScore{{PacingPct: 120, Weight: 14.2857}, {PacingPct: 75, Weight: 28.5714}, {PacingPct: 40, Weight: 57.1429}}
	want := TOFScore(scores)
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		rng.Shuffle(len(scores), func(a, b int) { scores[a], scores[b] = scores[b], scores[a] })
		assert.Equal(t, want, TOFScore(scores))
	}
	assert.Equal(t, math.Round(120*0.142857+75*0.285714+40*0.571429), want)
}

func TestFunnelActivationAndProfiles(t *testing.T) {
	rec := Policy{}.Prorate(models.MetricRecord{
		Target: models.StageCounts{100, 50, 20, 10},
		Actual: models.StageCounts{60, 20, 10, 2},
	}, models.CategoryNewLogo, 0.5)

	por := Funnel(seg(models.ProductPOR, models.CategoryNewLogo), rec, DefaultProfiles()[models.ProductPOR])
	assert.Equal(t, "MQL", por.LeadStage)
	require.Len(t, por.Stages, 4)
	for _, sp := range por.Stages {
		assert.True(t, sp.Active)
		assert.NotNil(t, sp.RAG)
	}
	assert.Equal(t, 120.0, por.Stages[models.StageMQL].PacingPct)
	// 120×.1 + 80×.2 + 100×.3 + 40×.4 = 74
	require.NotNil(t, por.TOFScore)
	assert.Equal(t, 74.0, *por.TOFScore)
	assert.Equal(t, models.RAGYellow, *por.TOFRAG)

	r360 := Funnel(seg(models.ProductR360, models.CategoryNewLogo), rec, DefaultProfiles()[models.ProductR360])
	assert.Equal(t, "EQL", r360.LeadStage)
	assert.Equal(t, "EQL", r360.Stages[models.StageMQL].Stage)
	assert.False(t, r360.Stages[models.StageSAL].Active, "R360 has no SAL stage")
	assert.Nil(t, r360.Stages[models.StageSAL].RAG)
}

func TestFunnelWithoutActiveStages(t *testing.T) {
	row := Funnel(seg(models.ProductPOR, models.CategoryOther), models.MetricRecord{Actual: models.StageCounts{3}}, DefaultProfiles()[models.ProductPOR])
	assert.Nil(t, row.TOFScore)
	assert.Nil(t, row.TOFRAG)
	assert.Equal(t, 100.0, row.Stages[models.StageMQL].PacingPct)
	assert.False(t, row.Stages[models.StageMQL].Active)
}

func TestTotalsRecomputeFromSums(t *testing.T) {
	rows := []models.AttainmentRow{
		{Product: models.ProductPOR, FullTargetACV: 200, PeriodTargetACV: 100, ActualACV: 90, PipelineACV: 55, WonDeals: 1, LostDeals: 1, LostACV: 12.5},
		{Product: models.ProductR360, FullTargetACV: 100, PeriodTargetACV: 50, ActualACV: 30, PipelineACV: 0, WonDeals: 1, LostACV: 7.25},
		{Product: models.ProductPOR, FullTargetACV: 0, PeriodTargetACV: 0, ActualACV: 10},
	}
	g := Totals(rows)
	assert.Equal(t, 130.0, g.ActualACV)
	assert.Equal(t, 87.0, g.AttainmentPct)
	assert.Equal(t, -20.0, g.GapACV)
	assert.Equal(t, 0.32, g.Coverage)
	assert.Equal(t, 66.7, g.WinRatePct)
	assert.Equal(t, 19.75, g.LostACV)
	assert.Equal(t, models.RAGYellow, g.RAG)

	pt := ProductTotals(rows)
	require.Len(t, pt, 2)
	assert.Equal(t, models.ProductPOR, pt[0].Product)
	assert.Equal(t, 100.0, pt[0].AttainmentPct)
	assert.Equal(t, 12.5, pt[0].LostACV)
	assert.Equal(t, models.ProductR360, pt[1].Product)
	assert.Equal(t, 60.0, pt[1].AttainmentPct)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.01, Round2(1.005000001))
	assert.Equal(t, -2.5, Round2(-2.499))
	assert.Equal(t, 0.0, Round2(math.NaN()))
	assert.Equal(t, 0.0, Round2(math.Inf(1)))
}
