package metrics

import "math"

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return finite(a / b)
}

// finite maps NaN and ±Inf to 0 so nothing non-finite reaches the report.
func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func round0(f float64) float64 { return math.Round(finite(f)) }
func round1(f float64) float64 { return math.Round(finite(f)*10) / 10 }
func round2(f float64) float64 { return math.Round(finite(f)*100) / 100 }
func round4(f float64) float64 { return math.Round(finite(f)*10000) / 10000 }

// Round2 rounds money to cents, half away from zero; NaN and ±Inf become 0.
func Round2(f float64) float64 { return round2(f) }

func clamp01(f float64) float64 {
	switch {
	case f < 0 || math.IsNaN(f):
		return 0
	case f > 1:
		return 1
	}
	return f
}
