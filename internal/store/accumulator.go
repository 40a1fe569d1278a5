// Package store holds the keyed in-memory accumulator the resolver merges into.
package store

import (
	"sort"

	"github.com/AngelCh415/revops-risk/internal/models"
)

// Accumulator keeps one MetricRecord per key. It is used from a single
// goroutine after all sources have been collected, so it carries no lock.
type Accumulator struct {
	recs     map[models.DimensionKey]*models.MetricRecord
	replaced map[models.DimensionKey]models.FieldMask // procedencia por campo
	uplifts  map[models.UpliftKey]float64
	deals    map[models.DimensionKey]*models.DealAggregate
}

func NewAccumulator() *Accumulator {
	return &Accumulator{
		recs:     make(map[models.DimensionKey]*models.MetricRecord),
		replaced: make(map[models.DimensionKey]models.FieldMask),
		uplifts:  make(map[models.UpliftKey]float64),
		deals:    make(map[models.DimensionKey]*models.DealAggregate),
	}
}

func (a *Accumulator) get(k models.DimensionKey) *models.MetricRecord {
	rec, ok := a.recs[k]
	if !ok {
		rec = &models.MetricRecord{}
		a.recs[k] = rec
	}
	return rec
}

// Add sums rec into the record for k field by field.
func (a *Accumulator) Add(k models.DimensionKey, rec models.MetricRecord) {
	a.get(k).Add(rec)
}

// Set writes v into field f of k and returns the previous value.
func (a *Accumulator) Set(k models.DimensionKey, f models.Field, v float64) float64 {
	rec := a.get(k)
	before := rec.Get(f)
	rec.Set(f, v)
	return before
}

// Replace is Set for values coming from the distinct-count source; the
// field is remembered as replaced.
func (a *Accumulator) Replace(k models.DimensionKey, f models.Field, v float64) float64 {
	a.replaced[k] = a.replaced[k].With(f)
	return a.Set(k, f, v)
}

func (a *Accumulator) Replaced(k models.DimensionKey) models.FieldMask { return a.replaced[k] }

func (a *Accumulator) Get(k models.DimensionKey) (models.MetricRecord, bool) {
	rec, ok := a.recs[k]
	if !ok {
		return models.MetricRecord{}, false
	}
	return *rec, true
}

func (a *Accumulator) AddUplift(k models.UpliftKey, v float64) { a.uplifts[k] += v }

func (a *Accumulator) AddDeal(k models.DimensionKey, d models.DealAggregate) {
	agg, ok := a.deals[k]
	if !ok {
		agg = &models.DealAggregate{}
		a.deals[k] = agg
	}
	agg.Add(d)
}

// Keys returns the record keys in canonical order.
func (a *Accumulator) Keys() []models.DimensionKey {
	out := make([]models.DimensionKey, 0, len(a.recs))
	for k := range a.recs {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Records copies the accumulated records out.
func (a *Accumulator) Records() map[models.DimensionKey]models.MetricRecord {
	out := make(map[models.DimensionKey]models.MetricRecord, len(a.recs))
	for k, v := range a.recs {
		out[k] = *v
	}
	return out
}

func (a *Accumulator) Uplifts() map[models.UpliftKey]float64 {
	out := make(map[models.UpliftKey]float64, len(a.uplifts))
	for k, v := range a.uplifts {
		out[k] = v
	}
	return out
}

func (a *Accumulator) Deals() map[models.DimensionKey]models.DealAggregate {
	out := make(map[models.DimensionKey]models.DealAggregate, len(a.deals))
	for k, v := range a.deals {
		out[k] = *v
	}
	return out
}
