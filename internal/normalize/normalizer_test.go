package normalize

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/revops-risk/internal/models"
)

func TestNumberDefensiveParsing(t *testing.T) {
	cases := []struct {
		in   models.Flex
		want float64
		ok   bool
	}{
		{models.Flex{}, 0, false},
		{models.Flex{Raw: "", Valid: true}, 0, false},
		{models.Flex{Raw: "abc", Valid: true}, 0, false},
		{models.Flex{Raw: "NaN", Valid: true}, 0, false},
		{models.Flex{Raw: "+Inf", Valid: true}, 0, false},
		{models.Flex{Raw: "-12", Valid: true}, 0, true},
		{models.Flex{Raw: "$1,234.567", Valid: true}, 1234.567, true},
		{models.F(42), 42, true},
	}
	for _, c := range cases {
		got, ok := Number(c.in)
		assert.Equal(t, c.want, got, "input %q", c.in.Raw)
		assert.Equal(t, c.ok, ok, "input %q", c.in.Raw)
		assert.False(t, math.IsNaN(got))
	}
}

func TestNormalizeRoundsCountsAndCurrency(t *testing.T) {
	n := New(models.Filter{})
	p, ok := n.Normalize(models.TargetRow{
		Product: "por", Region: " US ", FunnelType: "Inbound",
		TargetACV: models.Flex{Raw: "1000.129", Valid: true},
		TargetMQL: models.Flex{Raw: "10.6", Valid: true},
	})
	require.True(t, ok)
	assert.Equal(t, models.DimensionKey{Product: models.ProductPOR, Region: models.RegionAMER, Category: models.CategoryNewLogo}, p.Key)
	assert.Equal(t, 1000.13, p.Metrics.TargetACV)
	assert.Equal(t, 11.0, p.Metrics.Target[models.StageMQL])
	assert.Zero(t, n.Tally().Total())
}

func TestNormalizeEqualKeysFromDifferentSources(t *testing.T) {
	n := New(models.Filter{})
	a, ok := n.Normalize(models.RevenueRow{Product: "R360", Region: "UK", DealType: "New Business", Source: "ae_sourced"})
	require.True(t, ok)
	b, ok := n.Normalize(models.FunnelRow{Product: "RECORD360", Region: "emea", FunnelType: "R360 NEW LOGO", Source: "AE SOURCED"})
	require.True(t, ok)
	assert.Equal(t, a.Key, b.Key)
}

func TestNormalizeFallbacksAreTallied(t *testing.T) {
	n := New(models.Filter{})

	p, ok := n.Normalize(models.RevenueRow{Product: "POR", Region: "AU", DealType: "Barter", Source: "Carrier pigeon"})
	require.True(t, ok)
	assert.Equal(t, models.CategoryOther, p.Key.Category)
	assert.Equal(t, models.SourceInbound, p.Key.Source)

	_, ok = n.Normalize(models.RevenueRow{Product: "POR", Region: "MARS", DealType: "Renewal"})
	assert.False(t, ok, "unknown region is quarantined")
	_, ok = n.Normalize(models.RevenueRow{Product: "XYZ", Region: "US", DealType: "Renewal"})
	assert.False(t, ok, "unknown product is quarantined")

	assert.Equal(t, map[string]int{FieldDealType: 1, FieldSource: 1, FieldRegion: 1, FieldProduct: 1}, n.Tally().ByField())
	assert.Equal(t, 4, n.Tally().Total())
}

func TestNormalizeEmptySourceMeansNoSource(t *testing.T) {
	n := New(models.Filter{})
	p, ok := n.Normalize(models.FunnelRow{Product: "POR", Region: "US", FunnelType: "EXPANSION"})
	require.True(t, ok)
	assert.Equal(t, models.SourceNone, p.Key.Source)
	assert.Zero(t, n.Tally().Total())
}

func TestNormalizeOverridesKeepOnlyPresentFields(t *testing.T) {
	var rows []models.DedupFunnelRow
	require.NoError(t, json.Unmarshal([]byte(`[{"product":"POR","region":"US","funnel_type":"NEW LOGO","actual_mql":"12","actual_sql":null,"actual_sqo":3}]`), &rows))

	n := New(models.Filter{})
	p, ok := n.Normalize(rows[0])
	require.True(t, ok)
	assert.Equal(t, models.FieldValues{models.FieldActualMQL: 12, models.FieldActualSQO: 3}, p.Values)
}

func TestNormalizeAppliesAllowLists(t *testing.T) {
	n := New(models.Filter{Products: []models.Product{models.ProductR360}, Regions: []models.Region{models.RegionEMEA}})
	_, ok := n.Normalize(models.UpliftRow{Product: "POR", Region: "UK", UpliftACV: models.F(1)})
	assert.False(t, ok)
	p, ok := n.Normalize(models.UpliftRow{Product: "R360", Region: "UK", UpliftACV: models.F(1)})
	require.True(t, ok)
	assert.Equal(t, models.CategoryRenewal, p.Key.Category)
	assert.Equal(t, 1.0, p.Uplift)
	assert.Zero(t, n.Tally().Total())
}

func TestTallyValuesAreOrdered(t *testing.T) {
	tl := NewTally()
	tl.Add(FieldSource, "b")
	tl.Add(FieldRegion, "x")
	tl.Add(FieldSource, "a")
	tl.Add(FieldSource, "a")
	assert.Equal(t, []models.UnmappedValue{
		{Field: FieldRegion, Raw: "x", Count: 1},
		{Field: FieldSource, Raw: "a", Count: 2},
		{Field: FieldSource, Raw: "b", Count: 1},
	}, tl.Values())
}

func TestAliasesInvertTables(t *testing.T) {
	assert.Equal(t, []string{"AMER", "US"}, RegionAliases(models.RegionAMER))
	assert.Equal(t, []string{"R360", "RECORD360"}, ProductAliases(models.ProductR360))
}
