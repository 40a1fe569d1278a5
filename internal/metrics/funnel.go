package metrics

import (
	"fmt"

	"github.com/AngelCh415/revops-risk/internal/models"
)

// Profile is the funnel shape of a product: base stage weights, stages the
// product does not have, and the label of its lead stage.
type Profile struct {
	Weights   [models.NumStages]float64
	Excluded  []models.Stage
	LeadLabel string
}

func DefaultProfiles() map[models.Product]Profile {
	return map[models.Product]Profile{
		models.ProductPOR:  {Weights: [models.NumStages]float64{10, 20, 30, 40}, LeadLabel: "MQL"},
		models.ProductR360: {Weights: [models.NumStages]float64{14.3, 28.6, 0, 57.1}, Excluded: []models.Stage{models.StageSAL}, LeadLabel: "EQL"},
	}
}

func (p Profile) Excludes(s models.Stage) bool {
	for _, e := range p.Excluded {
		if e == s {
			return true
		}
	}
	return false
}

func (p Profile) Validate() error {
	var sum float64
	for s, w := range p.Weights {
		if w < 0 {
			return fmt.Errorf("negative weight for %s", models.Stage(s))
		}
		sum += w
	}
	if sum <= 0 {
		return fmt.Errorf("weights sum to %v", sum)
	}
	return nil
}

func (p Profile) label(s models.Stage) string {
	if s == models.StageMQL && p.LeadLabel != "" {
		return p.LeadLabel
	}
	return s.String()
}

// Pacing is round(actual / target × 100). A zero target is met (100) when
// there is any actual and reads 0 when there is none.
func Pacing(actual, target float64) float64 {
	if target == 0 {
		if actual > 0 {
			return 100
		}
		return 0
	}
	return round0(safeDiv(actual, target) * 100)
}

// Renormalize drops inactive weights and scales the rest to sum to 100.
// ok is false when no active stage carries weight.
func Renormalize(weights [models.NumStages]float64, active [models.NumStages]bool) (out [models.NumStages]float64, ok bool) {
	var sum float64
	for s, w := range weights {
		if active[s] {
			sum += w
		}
	}
	if sum <= 0 {
		return out, false
	}
	for s, w := range weights {
		if active[s] {
			out[s] = w / sum * 100
		}
	}
	return out, true
}

// StageScore is one stage's input to the TOF score.
type StageScore struct {
	PacingPct float64
	Weight    float64
}

// TOFScore is round(Σ pacing × weight / 100) over renormalized weights.
func TOFScore(stages []StageScore) float64 {
	var sum float64
	for _, s := range stages {
		sum += s.PacingPct * s.Weight / 100
	}
	return round0(sum)
}

// Funnel builds the pacing row of a segment. rec must carry period targets.
func Funnel(k models.DimensionKey, rec models.MetricRecord, prof Profile) models.FunnelPacingRow {
	var active [models.NumStages]bool
	for _, s := range models.Stages {
		active[s] = rec.Target[s] != 0 && !prof.Excludes(s)
	}
	weights, ok := Renormalize(prof.Weights, active)

	row := models.FunnelPacingRow{
		Product:   k.Product,
		Region:    k.Region,
		Category:  k.Category,
		LeadStage: prof.label(models.StageMQL),
		Stages:    make([]models.StagePacing, 0, models.NumStages),
	}
	var scores []StageScore
	for _, s := range models.Stages {
		sp := models.StagePacing{
			Stage:        prof.label(s),
			Actual:       rec.Actual[s],
			FullTarget:   rec.Target[s],
			PeriodTarget: rec.PeriodTarget[s],
			PacingPct:    Pacing(rec.Actual[s], rec.PeriodTarget[s]),
			Gap:          round2(rec.Actual[s] - rec.PeriodTarget[s]),
			Weight:       round1(weights[s]),
			Active:       active[s],
		}
		if active[s] {
			sp.RAG = classifyPtr(sp.PacingPct)
			scores = append(scores, StageScore{PacingPct: sp.PacingPct, Weight: weights[s]})
		}
		row.Stages = append(row.Stages, sp)
	}
	if ok {
		tof := TOFScore(scores)
		row.TOFScore = &tof
		row.TOFRAG = classifyPtr(tof)
	}
	return row
}
