package domain

import "github.com/shopspring/decimal"

// clamp01 bounds v to [0,1]. NaN maps to 0.
func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v > hi {
		return hi
	}
	if v > lo {
		return v
	}
	return lo
}

// roundTo rounds half away from zero on the decimal representation, so 0.125
// becomes 0.13 rather than drifting with binary float error.
func roundTo(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
