// Package resolve merges normalized rows into exactly one MetricRecord per
// dimension key. The steps always run in the same order: normalize, sum by
// key, precedence overrides, replacement overrides, carve-out subtraction.
package resolve

import (
	"log/slog"
	"sort"

	"github.com/AngelCh415/revops-risk/internal/models"
	"github.com/AngelCh415/revops-risk/internal/normalize"
	"github.com/AngelCh415/revops-risk/internal/store"
)

const (
	RulePrecedence  = "precedence_override"
	RuleReplacement = "replacement_override"
	RuleCarveOut    = "carve_out"
)

// CarveOut removes Child's distinct counts from Parent for the same
// product, region and source.
type CarveOut struct {
	Child  models.Category
	Parent models.Category
}

type Rules struct {
	// Precedence lists the categories whose targets are owned by the
	// authoritative target source.
	Precedence []models.Category
	CarveOuts  []CarveOut
}

func DefaultRules() Rules {
	return Rules{
		Precedence: []models.Category{models.CategoryRenewal},
		CarveOuts:  []CarveOut{{Child: models.CategoryStrategic, Parent: models.CategoryNewLogo}},
	}
}

type Resolver struct {
	rules Rules
	log   *slog.Logger
}

func New(rules Rules, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{rules: rules, log: log}
}

type Result struct {
	Records     map[models.DimensionKey]models.MetricRecord
	Uplifts     map[models.UpliftKey]float64
	Deals       map[models.DimensionKey]models.DealAggregate
	Adjustments []models.Adjustment
	Unmapped    []models.UnmappedValue
	// UnmappedByField suma Unmapped por nombre de campo.
	UnmappedByField map[string]int
}

// Keys returns the record keys in canonical order.
func (r Result) Keys() []models.DimensionKey {
	out := make([]models.DimensionKey, 0, len(r.Records))
	for k := range r.Records {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Rollup sums records across the source dimension.
func (r Result) Rollup() map[models.DimensionKey]models.MetricRecord {
	out := make(map[models.DimensionKey]models.MetricRecord)
	for _, k := range r.Keys() {
		seg := k.Segment()
		rec := out[seg]
		rec.Add(r.Records[k])
		out[seg] = rec
	}
	return out
}

// Resolve runs the whole pipeline over raw rows. The output does not depend
// on the order of raws.
func (r *Resolver) Resolve(raws []models.RawRecord, filter models.Filter) Result {
	n := normalize.New(filter)
	parts := n.All(raws)
	res := r.Merge(parts)
	res.Unmapped = n.Tally().Values()
	res.UnmappedByField = n.Tally().ByField()
	return res
}

// Merge applies steps 2 to 5 to already normalized rows.
func (r *Resolver) Merge(parts []normalize.Partial) Result {
	sorted := make([]normalize.Partial, len(parts))
	copy(sorted, parts)
	sortPartials(sorted)

	acc := store.NewAccumulator()
	m := &merge{acc: acc, log: r.log}

	var authoritative, overrides []normalize.Partial
	for _, p := range sorted {
		switch p.Kind {
		case models.KindTargets, models.KindRevenue, models.KindFunnel:
			acc.Add(p.Key, p.Metrics)
		case models.KindAuthoritativeTarget:
			if r.hasPrecedence(p.Key.Category) {
				authoritative = append(authoritative, p)
				continue
			}
			var rec models.MetricRecord
			for f, v := range p.Values {
				rec.Set(f, v)
			}
			acc.Add(p.Key, rec)
		case models.KindDedupFunnel:
			overrides = append(overrides, p)
		case models.KindUplift:
			acc.AddUplift(models.UpliftKey{Product: p.Key.Product, Region: p.Key.Region}, p.Uplift)
		case models.KindDeals:
			acc.AddDeal(p.Key.Segment(), p.Deal)
		}
	}

	m.overwrite(sumValues(authoritative), RulePrecedence, false)
	m.overwrite(sumValues(overrides), RuleReplacement, true)
	for _, co := range r.rules.CarveOuts {
		m.carveOut(co)
	}

	r.log.Info("resolve complete",
		slog.Int("partials", len(parts)),
		slog.Int("keys", len(acc.Keys())),
		slog.Int("adjustments", len(m.adj)))

	return Result{
		Records:     acc.Records(),
		Uplifts:     acc.Uplifts(),
		Deals:       acc.Deals(),
		Adjustments: m.adj,
	}
}

func (r *Resolver) hasPrecedence(c models.Category) bool {
	for _, p := range r.rules.Precedence {
		if p == c {
			return true
		}
	}
	return false
}

type merge struct {
	acc *store.Accumulator
	log *slog.Logger
	adj []models.Adjustment
}

func (m *merge) record(k models.DimensionKey, f models.Field, rule string, before, after float64) {
	if before == after {
		return
	}
	m.adj = append(m.adj, models.Adjustment{Key: k, Field: f, Rule: rule, Before: before, After: after})
	m.log.Debug("reconciliation adjustment",
		slog.String("key", k.String()),
		slog.String("field", f.String()),
		slog.String("rule", rule),
		slog.Float64("before", before),
		slog.Float64("after", after))
}

// overwrite writes each value over what was summed. A value on a key
// without source owns the whole segment, so source-level values of the
// same field are cleared.
func (m *merge) overwrite(vals []keyedValues, rule string, replace bool) {
	keys := m.acc.Keys()
	for _, kv := range vals {
		for _, f := range kv.fields() {
			v := kv.vals[f]
			m.set(kv.key, f, v, rule, replace)
			if kv.key.Source != models.SourceNone {
				continue
			}
			for _, k := range keys {
				if k.Source != models.SourceNone && k.Segment() == kv.key {
					m.set(k, f, 0, rule, replace)
				}
			}
		}
	}
}

func (m *merge) set(k models.DimensionKey, f models.Field, v float64, rule string, replace bool) {
	var before float64
	if replace {
		before = m.acc.Replace(k, f, v)
	} else {
		before = m.acc.Set(k, f, v)
	}
	m.record(k, f, rule, before, v)
}

// carveOut subtracts only fields both keys took from the distinct-count
// source; the result is floored at zero. The parent is the key with the
// child's source or, failing that, the parent segment without source.
func (m *merge) carveOut(co CarveOut) {
	for _, child := range m.acc.Keys() {
		if child.Category != co.Child {
			continue
		}
		cr, _ := m.acc.Get(child)
		replaced := m.acc.Replaced(child)
		for _, s := range models.Stages {
			f := models.ActualField(s)
			if !replaced.Has(f) {
				continue
			}
			parent, ok := m.carveParent(child, co.Parent, f)
			if !ok {
				continue
			}
			pr, _ := m.acc.Get(parent)
			after := pr.Get(f) - cr.Get(f)
			if after < 0 {
				after = 0
			}
			before := m.acc.Set(parent, f, after)
			m.record(parent, f, RuleCarveOut, before, after)
		}
	}
}

func (m *merge) carveParent(child models.DimensionKey, c models.Category, f models.Field) (models.DimensionKey, bool) {
	exact := child
	exact.Category = c
	if m.acc.Replaced(exact).Has(f) {
		return exact, true
	}
	seg := exact.Segment()
	if seg != exact && m.acc.Replaced(seg).Has(f) {
		return seg, true
	}
	return models.DimensionKey{}, false
}

type keyedValues struct {
	key  models.DimensionKey
	vals models.FieldValues
}

func (kv keyedValues) fields() []models.Field {
	out := make([]models.Field, 0, len(kv.vals))
	for f := range kv.vals {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// sumValues suma por clave y campo las filas de una misma fuente; parts ya
// viene ordenado, así que el resultado también.
func sumValues(parts []normalize.Partial) []keyedValues {
	var out []keyedValues
	idx := make(map[models.DimensionKey]int)
	for _, p := range parts {
		i, ok := idx[p.Key]
		if !ok {
			i = len(out)
			idx[p.Key] = i
			out = append(out, keyedValues{key: p.Key, vals: models.FieldValues{}})
		}
		for f, v := range p.Values {
			out[i].vals[f] += v
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].key.Less(out[j].key) })
	return out
}
