package normalize

import (
	"sort"

	"github.com/AngelCh415/revops-risk/internal/models"
)

type tallyKey struct{ field, raw string }

// Tally counts raw values that fell back to a default or were quarantined.
type Tally struct {
	counts map[tallyKey]int
}

func NewTally() *Tally { return &Tally{counts: make(map[tallyKey]int)} }

func (t *Tally) Add(field, raw string) { t.counts[tallyKey{field, raw}]++ }

func (t *Tally) Total() int {
	n := 0
	for _, c := range t.counts {
		n += c
	}
	return n
}

// ByField sums the counts per field name.
func (t *Tally) ByField() map[string]int {
	out := make(map[string]int)
	for k, c := range t.counts {
		out[k.field] += c
	}
	return out
}

// Values returns the tally ordered by field, then raw value.
func (t *Tally) Values() []models.UnmappedValue {
	out := make([]models.UnmappedValue, 0, len(t.counts))
	for k, c := range t.counts {
		out = append(out, models.UnmappedValue{Field: k.field, Raw: k.raw, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Field != out[j].Field {
			return out[i].Field < out[j].Field
		}
		return out[i].Raw < out[j].Raw
	})
	return out
}
