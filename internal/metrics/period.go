package metrics

import (
	"time"

	"github.com/AngelCh415/revops-risk/internal/models"
)

// Period computes the elapsed share of [start, end] at asOf. Both bounds
// count as full days and the fraction is clamped to [0, 1].
func Period(start, end, asOf models.Date) models.Period {
	total := days(start, end) + 1
	if total < 1 {
		total = 1
	}
	elapsed := days(start, asOf) + 1
	switch {
	case asOf.Before(start.Time):
		elapsed = 0
	case elapsed > total:
		elapsed = total
	}
	frac := clamp01(float64(elapsed) / float64(total))
	return models.Period{
		QuarterStart:       start,
		QuarterEnd:         end,
		AsOf:               asOf,
		DaysElapsed:        elapsed,
		TotalDays:          total,
		ElapsedFraction:    round4(frac),
		QuarterPctComplete: round1(frac * 100),
	}
}

// Fraction is the unrounded elapsed fraction of p.
func Fraction(p models.Period) float64 {
	if p.TotalDays <= 0 {
		return 0
	}
	return clamp01(float64(p.DaysElapsed) / float64(p.TotalDays))
}

func days(a, b models.Date) int {
	return int(b.Truncate(24*time.Hour).Sub(a.Truncate(24*time.Hour)).Hours() / 24)
}
