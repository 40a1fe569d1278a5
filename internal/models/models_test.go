package models

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDimensionsAreStrict(t *testing.T) {
	p, err := ParseProduct(" r360 ")
	require.NoError(t, err)
	assert.Equal(t, ProductR360, p)

	_, err = ParseRegion("US")
	assert.ErrorIs(t, err, ErrUnknownRegion)
	_, err = ParseCategory("New Business")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestDimensionKeyOrder(t *testing.T) {
	keys := []DimensionKey{
		{Product: ProductR360, Region: RegionAMER, Category: CategoryNewLogo},
		{Product: ProductPOR, Region: RegionAPAC, Category: CategoryNewLogo},
		{Product: ProductPOR, Region: RegionAMER, Category: CategoryRenewal},
		{Product: ProductPOR, Region: RegionAMER, Category: CategoryNewLogo, Source: SourceOutbound},
		{Product: ProductPOR, Region: RegionAMER, Category: CategoryNewLogo},
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	assert.Equal(t, "POR|AMER|NEW LOGO", keys[0].String())
	assert.Equal(t, "POR|AMER|NEW LOGO|OUTBOUND", keys[1].String())
	assert.Equal(t, "POR|AMER|RENEWAL", keys[2].String())
	assert.Equal(t, "POR|APAC|NEW LOGO", keys[3].String())
	assert.Equal(t, "R360|AMER|NEW LOGO", keys[4].String())
	assert.Equal(t, keys[0], keys[1].Segment())
}

func TestFlexKeepsRawText(t *testing.T) {
	var row RevenueRow
	require.NoError(t, json.Unmarshal([]byte(`{"deal_count":"12","total_acv":1.5e3,"source":null}`), &row))
	assert.Equal(t, Flex{Raw: "12", Valid: true}, row.DealCount)
	assert.Equal(t, Flex{Raw: "1.5e3", Valid: true}, row.TotalACV)

	require.NoError(t, json.Unmarshal([]byte(`{"total_acv":null}`), &row))
	assert.False(t, row.TotalACV.Valid)

	var f Flex
	require.NoError(t, f.Scan([]byte("$1,200")))
	assert.Equal(t, "$1,200", f.Raw)
	require.NoError(t, f.Scan(int64(7)))
	assert.Equal(t, "7", f.Raw)
	require.NoError(t, f.Scan(nil))
	assert.False(t, f.Valid)
}

func TestDecodeRowsByKind(t *testing.T) {
	rows, err := DecodeRows(KindUplift, []byte(`[{"product":"POR","region":"AU","uplift_acv":10}]`))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	u, ok := rows[0].(UpliftRow)
	require.True(t, ok)
	assert.Equal(t, "AU", u.Region)
	assert.Equal(t, "src", u.WithOrigin("src").Origin())

	_, err = DecodeRows(Kind("bookings"), []byte(`[]`))
	assert.Error(t, err)
	_, err = DecodeRows(KindTargets, []byte(`{}`))
	assert.Error(t, err)
}

func TestDateJSON(t *testing.T) {
	var f Filter
	require.NoError(t, json.Unmarshal([]byte(`{"start_date":"2026-01-01","end_date":""}`), &f))
	assert.Equal(t, NewDate(2026, 1, 1), f.StartDate)
	assert.True(t, f.EndDate.IsZero())

	b, err := json.Marshal(f.StartDate)
	require.NoError(t, err)
	assert.Equal(t, `"2026-01-01"`, string(b))
}

func TestMetricRecordFields(t *testing.T) {
	var r MetricRecord
	r.Set(ActualField(StageSQL), 4)
	r.Set(FieldActualACV, 10)
	assert.Equal(t, 4.0, r.Actual[StageSQL])
	assert.Equal(t, 10.0, r.Get(FieldActualACV))
	assert.True(t, ActualField(StageSQL).IsCount())
	assert.False(t, FieldTargetACV.IsCount())

	var m FieldMask
	m = m.With(FieldActualMQL)
	assert.True(t, m.Has(FieldActualMQL))
	assert.False(t, m.Has(FieldActualSQL))
	assert.False(t, r.IsZero())
}
