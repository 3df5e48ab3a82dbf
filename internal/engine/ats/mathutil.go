package ats

import "math"

// finite maps NaN and ±Inf to 0.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	v = finite(v)
	return max(lo, min(hi, v))
}

func clamp01(v float64) float64 { return clamp(v, 0, 1) }

func round2(v float64) float64 {
	return math.Round(finite(v)*100) / 100
}
