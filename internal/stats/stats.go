// Package stats provides the small numeric toolkit shared by the
// snapshot builders. Every function is total: degenerate input (empty
// series, zero variance, zero denominators) yields a neutral zero
// instead of NaN or Inf.
package stats

import "math"

// Sum returns the sum of a series.
func Sum(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum
}

// Mean returns the arithmetic mean, or 0 for an empty series.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Sum(values) / float64(len(values))
}

// MeanStd returns the mean and population standard deviation.
// An empty series yields (0, 0).
func MeanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean = Mean(values)
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

// Correlation returns the Pearson correlation coefficient of two
// equal-length series. Series shorter than two points, mismatched
// lengths, or zero variance on either side yield 0.
func Correlation(a, b []float64) float64 {
	if len(a) != len(b) || len(a) < 2 {
		return 0
	}
	meanA := Mean(a)
	meanB := Mean(b)

	var cov, varA, varB float64
	for i := range a {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	r := cov / math.Sqrt(varA*varB)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	// Floating point can push |r| a hair past 1.
	return Clamp(r, -1, 1)
}

// SafeDiv divides num by den, reporting ok=false when den is 0 or the
// result is not finite so callers can substitute their documented
// neutral default instead.
func SafeDiv(num, den float64) (float64, bool) {
	if den == 0 {
		return 0, false
	}
	r := num / den
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	return r, true
}

// Ratio divides num by den, returning 0 when den is 0 or the result
// is not finite.
func Ratio(num, den float64) float64 {
	r, _ := SafeDiv(num, den)
	return r
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// CAGR returns the compound annual growth rate in percent between a
// first and last value over the given number of years. Non-positive
// endpoints or zero years yield 0.
func CAGR(first, last, years float64) float64 {
	if first <= 0 || last <= 0 || years <= 0 {
		return 0
	}
	r := (math.Pow(last/first, 1/years) - 1) * 100
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}
