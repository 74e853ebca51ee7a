// Package numeric holds the pure statistical primitives shared by the scoring
// engine, the rhythm analyzer, and the time-series analytics. Every function is
// deterministic and guards its divisions, so callers never see NaN or Inf.
package numeric

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Epsilon guards denominators in coefficient-of-variation style ratios.
const Epsilon = 1e-9

// Clamp bounds x to [lo, hi]. Non-finite input maps to lo.
func Clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return lo
	}
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// ClampScore bounds a component or composite score to [0, 100].
func ClampScore(x float64) float64 { return Clamp(x, 0, 100) }

// Clamp01 bounds a unit-scale value to [0, 1].
func Clamp01(x float64) float64 { return Clamp(x, 0, 1) }

// Sigmoid is the logistic function.
func Sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// StdDev returns the population standard deviation, 0 for fewer than two
// elements.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return math.Sqrt(stat.PopVariance(xs, nil))
}

// Variance returns the population variance, 0 for fewer than two elements.
func Variance(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.PopVariance(xs, nil)
}

// CoefVar is stddev/(mean+Epsilon), the epsilon keeping constant series at a
// finite 0 instead of dividing by zero.
func CoefVar(xs []float64) float64 {
	return StdDev(xs) / (Mean(xs) + Epsilon)
}

// Median returns the middle value, 0 for an empty slice.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	cp := append([]float64(nil), xs...)
	sort.Float64s(cp)
	mid := len(cp) / 2
	if len(cp)%2 == 1 {
		return cp[mid]
	}
	return 0.5 * (cp[mid-1] + cp[mid])
}

// MAD returns the median absolute deviation from the median.
func MAD(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := Median(xs)
	res := make([]float64, len(xs))
	for i, v := range xs {
		res[i] = math.Abs(v - m)
	}
	return Median(res)
}

// Quantile returns the p-quantile (0..1) using linear interpolation between
// order statistics at rank p*(n-1).
func Quantile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	cp := append([]float64(nil), xs...)
	sort.Float64s(cp)
	p = Clamp01(p)
	rank := p * float64(len(cp)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return cp[lo]
	}
	frac := rank - float64(lo)
	return cp[lo]*(1-frac) + cp[hi]*frac
}

// Pearson returns the correlation of x and y, or 0 when the series are
// degenerate (mismatched length, too short, or near-constant).
func Pearson(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}
	if StdDev(x) < Epsilon || StdDev(y) < Epsilon {
		return 0
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return r
}

// TrendSlope is the ordinary least-squares slope of value against index.
func TrendSlope(series []float64) float64 {
	if len(series) < 2 {
		return 0
	}
	xs := make([]float64, len(series))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, slope := stat.LinearRegression(xs, series, nil, false)
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return 0
	}
	return slope
}

// EWMA returns the exponentially weighted moving average of the series:
// e[0]=series[0], e[i]=alpha*series[i]+(1-alpha)*e[i-1].
func EWMA(series []float64, alpha float64) []float64 {
	if len(series) == 0 {
		return nil
	}
	out := make([]float64, len(series))
	out[0] = series[0]
	for i := 1; i < len(series); i++ {
		out[i] = alpha*series[i] + (1-alpha)*out[i-1]
	}
	return out
}
