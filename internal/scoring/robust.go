package scoring

import (
	"math"

	"github.com/prodpulse/prodmeter/internal/numeric"
)

// iqrToSigma rescales the interquartile range to a normal-equivalent sigma.
const iqrToSigma = 1.35

// RobustSigmoid01 squashes values through a logistic centered on the median
// with an IQR-derived scale, mapping each onto (0,1). A zero scale (constant
// input) falls back to 1 so the output stays defined.
func RobustSigmoid01(xs []float64) []float64 {
	if len(xs) == 0 {
		return nil
	}
	center := numeric.Median(xs)
	scale := (numeric.Quantile(xs, 0.75) - numeric.Quantile(xs, 0.25)) / iqrToSigma
	if scale == 0 {
		scale = 1
	}

	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = 1 / (1 + math.Exp(-(x-center)/scale))
	}
	return out
}

// RobustSmooth maps a component column onto the 0-100 scale through
// RobustSigmoid01. Used by the robust profile to damp outlier tasks before
// the day average.
func RobustSmooth(xs []float64) []float64 {
	squashed := RobustSigmoid01(xs)
	for i, v := range squashed {
		squashed[i] = numeric.ClampScore(100 * v)
	}
	return squashed
}
