package normalize

import (
	"slices"
	"strings"

	"github.com/AngelCh415/revops-risk/internal/models"
)

// Tablas de vocabulario de cada fuente; las claves van en mayúsculas y sin
// espacios repetidos.
var regionTable = map[string]models.Region{
	"US":   models.RegionAMER,
	"AMER": models.RegionAMER,
	"UK":   models.RegionEMEA,
	"EMEA": models.RegionEMEA,
	"AU":   models.RegionAPAC,
	"APAC": models.RegionAPAC,
}

var productTable = map[string]models.Product{
	"POR":       models.ProductPOR,
	"R360":      models.ProductR360,
	"RECORD360": models.ProductR360,
}

var dealTypeTable = map[string]models.Category{
	"NEW BUSINESS":      models.CategoryNewLogo,
	"EXISTING BUSINESS": models.CategoryExpansion,
	"MIGRATION":         models.CategoryMigration,
	"RENEWAL":           models.CategoryRenewal,
	"STRATEGIC":         models.CategoryStrategic,
	"NEW LOGO":          models.CategoryNewLogo,
	"EXPANSION":         models.CategoryExpansion,
	"OTHER":             models.CategoryOther,
}

var funnelTypeTable = map[string]models.Category{
	"INBOUND":        models.CategoryNewLogo,
	"R360 INBOUND":   models.CategoryNewLogo,
	"NEW LOGO":       models.CategoryNewLogo,
	"R360 NEW LOGO":  models.CategoryNewLogo,
	"EXPANSION":      models.CategoryExpansion,
	"R360 EXPANSION": models.CategoryExpansion,
	"MIGRATION":      models.CategoryMigration,
	"R360 MIGRATION": models.CategoryMigration,
	"STRATEGIC":      models.CategoryStrategic,
	"R360 STRATEGIC": models.CategoryStrategic,
	"RENEWAL":        models.CategoryRenewal,
	"R360 RENEWAL":   models.CategoryRenewal,
	"OTHER":          models.CategoryOther,
}

var sourceTable = map[string]models.Source{
	"INBOUND":      models.SourceInbound,
	"OUTBOUND":     models.SourceOutbound,
	"AE SOURCED":   models.SourceAESourced,
	"AE_SOURCED":   models.SourceAESourced,
	"AM SOURCED":   models.SourceAMSourced,
	"AM_SOURCED":   models.SourceAMSourced,
	"TRADESHOW":    models.SourceTradeshow,
	"EVENT":        models.SourceTradeshow,
	"EVENTS":       models.SourceTradeshow,
	"PARTNERSHIPS": models.SourcePartnerships,
	"PARTNERSHIP":  models.SourcePartnerships,
	"PARTNER":      models.SourcePartnerships,
}

// Nombres de campo usados en el conteo de valores sin mapear.
const (
	FieldRegion     = "region"
	FieldProduct    = "product"
	FieldDealType   = "deal_type"
	FieldFunnelType = "funnel_type"
	FieldCategory   = "category"
	FieldSource     = "source"
	FieldNumber     = "number"
)

// RegionAliases lists the raw labels that map to r, sorted. Adapters use it
// to push a region allow-list down to a source that stores raw labels.
func RegionAliases(r models.Region) []string { return aliases(regionTable, r) }

func ProductAliases(p models.Product) []string { return aliases(productTable, p) }

func aliases[T comparable](table map[string]T, v T) []string {
	var out []string
	for raw, c := range table {
		if c == v {
			out = append(out, raw)
		}
	}
	slices.Sort(out)
	return out
}

func fold(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(s)), " ")
}

func (n *Normalizer) region(raw string) (models.Region, bool) {
	if r, ok := regionTable[fold(raw)]; ok {
		return r, true
	}
	n.tally.Add(FieldRegion, raw)
	return "", false
}

func (n *Normalizer) product(raw string) (models.Product, bool) {
	if p, ok := productTable[fold(raw)]; ok {
		return p, true
	}
	n.tally.Add(FieldProduct, raw)
	return "", false
}

// dealType cae en OTHER cuando el tipo no está en la tabla.
func (n *Normalizer) dealType(raw string) models.Category {
	if c, ok := dealTypeTable[fold(raw)]; ok {
		return c
	}
	n.tally.Add(FieldDealType, raw)
	return models.CategoryOther
}

func (n *Normalizer) funnelType(raw string) models.Category {
	if c, ok := funnelTypeTable[fold(raw)]; ok {
		return c
	}
	n.tally.Add(FieldFunnelType, raw)
	return models.CategoryOther
}

// category acepta etiquetas canónicas y también tipos de deal.
func (n *Normalizer) category(raw string) models.Category {
	if c, err := models.ParseCategory(fold(raw)); err == nil {
		return c
	}
	if c, ok := dealTypeTable[fold(raw)]; ok {
		return c
	}
	n.tally.Add(FieldCategory, raw)
	return models.CategoryOther
}

// source: vacío significa sin dimensión de fuente; lo desconocido va a INBOUND.
func (n *Normalizer) source(raw string) models.Source {
	f := fold(raw)
	if f == "" {
		return models.SourceNone
	}
	if s, ok := sourceTable[f]; ok {
		return s
	}
	n.tally.Add(FieldSource, raw)
	return models.SourceInbound
}
