package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/AngelCh415/revops-risk/internal/models"
)

// Number reads a loosely typed scalar. Null, empty, non-numeric and
// non-finite values read as 0 and ok=false; negatives clamp to 0.
func Number(f models.Flex) (v float64, ok bool) {
	if !f.Valid {
		return 0, false
	}
	s := strings.TrimSpace(f.Raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if v < 0 {
		return 0, true
	}
	return v, true
}

func Count(v float64) float64    { return math.Round(v) }
func Currency(v float64) float64 { return math.Round(v*100) / 100 }

func (n *Normalizer) count(f models.Flex) float64 {
	return Count(n.number(f))
}

func (n *Normalizer) currency(f models.Flex) float64 {
	return Currency(n.number(f))
}

// number cuenta como malformado todo valor presente que no se pudo leer.
func (n *Normalizer) number(f models.Flex) float64 {
	v, ok := Number(f)
	if !ok && f.Valid && strings.TrimSpace(f.Raw) != "" {
		n.tally.Add(FieldNumber, f.Raw)
	}
	return v
}
