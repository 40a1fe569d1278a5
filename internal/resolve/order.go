package resolve

import (
	"cmp"
	"sort"

	"github.com/AngelCh415/revops-risk/internal/models"
	"github.com/AngelCh415/revops-risk/internal/normalize"
)

// sortPartials fija un orden total antes de acumular: clave, tipo, origen y
// luego los valores. Con esto las sumas en coma flotante no dependen del
// orden de llegada.
func sortPartials(ps []normalize.Partial) {
	sort.SliceStable(ps, func(i, j int) bool { return comparePartial(ps[i], ps[j]) < 0 })
}

func comparePartial(a, b normalize.Partial) int {
	if a.Key != b.Key {
		if a.Key.Less(b.Key) {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(string(a.Kind), string(b.Kind)); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Origin, b.Origin); c != 0 {
		return c
	}
	for f := models.Field(0); f < models.NumFields; f++ {
		if c := cmp.Compare(a.Metrics.Get(f), b.Metrics.Get(f)); c != 0 {
			return c
		}
	}
	for f := models.Field(0); f < models.NumFields; f++ {
		av, aok := a.Values[f]
		bv, bok := b.Values[f]
		if aok != bok {
			if !aok {
				return -1
			}
			return 1
		}
		if c := cmp.Compare(av, bv); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(a.Uplift, b.Uplift); c != 0 {
		return c
	}
	for _, pair := range [][2]float64{
		{a.Deal.WonCount, b.Deal.WonCount},
		{a.Deal.LostCount, b.Deal.LostCount},
		{a.Deal.LostACV, b.Deal.LostACV},
		{a.Deal.PipelineACV, b.Deal.PipelineACV},
	} {
		if c := cmp.Compare(pair[0], pair[1]); c != 0 {
			return c
		}
	}
	return 0
}
