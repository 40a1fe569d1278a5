// Package normalize maps heterogeneous source rows onto the canonical
// dimension key. It is total: every row either yields a Partial or is
// quarantined, and every fallback is counted.
package normalize

import (
	"github.com/AngelCh415/revops-risk/internal/models"
)

// Partial is one normalized row. Which payload is set depends on Kind.
type Partial struct {
	Kind   models.Kind
	Origin string
	Key    models.DimensionKey

	Metrics models.MetricRecord // targets, revenue and funnel rows
	Values  models.FieldValues  // authoritative targets and dedup overrides
	Uplift  float64
	Deal    models.DealAggregate
}

type Normalizer struct {
	filter models.Filter
	tally  *Tally
}

// New returns a normalizer that drops rows outside the filter allow-lists.
func New(filter models.Filter) *Normalizer {
	return &Normalizer{filter: filter, tally: NewTally()}
}

func (n *Normalizer) Tally() *Tally { return n.tally }

// All normalizes a batch, skipping quarantined and filtered rows.
func (n *Normalizer) All(raws []models.RawRecord) []Partial {
	out := make([]Partial, 0, len(raws))
	for _, r := range raws {
		if p, ok := n.Normalize(r); ok {
			out = append(out, p)
		}
	}
	return out
}

// Normalize maps one raw row. ok is false when the row was quarantined
// (unknown product or region) or falls outside the filter.
func (n *Normalizer) Normalize(raw models.RawRecord) (Partial, bool) {
	p := Partial{Kind: raw.Kind(), Origin: raw.Origin()}
	var (
		product, region string
		ok              bool
	)
	switch r := raw.(type) {
	case models.TargetRow:
		product, region = r.Product, r.Region
		p.Key.Category = n.funnelType(r.FunnelType)
		p.Key.Source = n.source(r.Source)
		p.Metrics.TargetACV = n.currency(r.TargetACV)
		p.Metrics.Target = models.StageCounts{n.count(r.TargetMQL), n.count(r.TargetSQL), n.count(r.TargetSAL), n.count(r.TargetSQO)}
	case models.AuthoritativeTargetRow:
		product, region = r.Product, r.Region
		p.Key.Category = n.category(r.Category)
		p.Values = models.FieldValues{}
		n.present(p.Values, models.FieldTargetACV, r.TargetACV)
		n.present(p.Values, models.FieldTargetMQL, r.TargetMQL)
		n.present(p.Values, models.FieldTargetSQL, r.TargetSQL)
		n.present(p.Values, models.FieldTargetSAL, r.TargetSAL)
		n.present(p.Values, models.FieldTargetSQO, r.TargetSQO)
	case models.RevenueRow:
		product, region = r.Product, r.Region
		p.Key.Category = n.dealType(r.DealType)
		p.Key.Source = n.source(r.Source)
		p.Metrics.ActualACV = n.currency(r.TotalACV)
		p.Metrics.WonDeals = n.count(r.DealCount)
	case models.FunnelRow:
		product, region = r.Product, r.Region
		p.Key.Category = n.funnelType(r.FunnelType)
		p.Key.Source = n.source(r.Source)
		p.Metrics.Actual = models.StageCounts{n.count(r.MQL), n.count(r.SQL), n.count(r.SAL), n.count(r.SQO)}
	case models.DedupFunnelRow:
		product, region = r.Product, r.Region
		p.Key.Category = n.funnelType(r.FunnelType)
		p.Key.Source = n.source(r.Source)
		p.Values = models.FieldValues{}
		n.present(p.Values, models.FieldActualMQL, r.MQL)
		n.present(p.Values, models.FieldActualSQL, r.SQL)
		n.present(p.Values, models.FieldActualSAL, r.SAL)
		n.present(p.Values, models.FieldActualSQO, r.SQO)
	case models.UpliftRow:
		product, region = r.Product, r.Region
		p.Key.Category = models.CategoryRenewal
		p.Uplift = n.currency(r.UpliftACV)
	case models.DealRow:
		product, region = r.Product, r.Region
		p.Key.Category = n.dealType(r.DealType)
		p.Deal = models.DealAggregate{
			WonCount:    n.count(r.WonCount),
			LostCount:   n.count(r.LostCount),
			LostACV:     n.currency(r.LostACV),
			PipelineACV: n.currency(r.PipelineACV),
		}
	default:
		return Partial{}, false
	}

	// cuarentena: sin producto o región no hay clave posible
	if p.Key.Product, ok = n.product(product); !ok {
		return Partial{}, false
	}
	if p.Key.Region, ok = n.region(region); !ok {
		return Partial{}, false
	}
	if !n.filter.AllowsProduct(p.Key.Product) || !n.filter.AllowsRegion(p.Key.Region) {
		return Partial{}, false
	}
	return p, true
}

// present stores the value only when the column carried a readable number.
func (n *Normalizer) present(vals models.FieldValues, f models.Field, raw models.Flex) {
	if !raw.Valid {
		return
	}
	v, ok := Number(raw)
	if !ok {
		n.number(raw)
		return
	}
	if f.IsCount() {
		vals[f] = Count(v)
	} else {
		vals[f] = Currency(v)
	}
}
