package analytics

import (
	"fmt"

	"github.com/prodpulse/prodmeter/internal/numeric"
)

// BlendMethod names a closed-form per-entry estimate built from the mean and
// spread of the entry's first week of values. The historical UI labeled
// these after optimization algorithms (adam, pso, bayesian); none of them
// iterates, so the names here say what the formulas actually do. The legacy
// labels are still accepted by ParseBlendMethod.
type BlendMethod string

const (
	// BlendMean is the plain first-week mean.
	BlendMean BlendMethod = "mean"
	// BlendVariance mixes the mean with a spread term: 0.7*mean + 0.3*(2*std).
	BlendVariance BlendMethod = "variance"
	// BlendShrinkage pulls the mean toward a fixed prior by an amount that
	// grows with the entry's variance.
	BlendShrinkage BlendMethod = "shrinkage"
)

// Shrinkage prior parameters.
const (
	shrinkagePrior = 60.0
	shrinkageTau2  = 400.0
)

// ParseBlendMethod maps both the honest names and the legacy optimizer
// labels onto blend methods.
func ParseBlendMethod(s string) (BlendMethod, error) {
	switch s {
	case string(BlendMean), "adam", "":
		return BlendMean, nil
	case string(BlendVariance), "pso":
		return BlendVariance, nil
	case string(BlendShrinkage), "bayesian":
		return BlendShrinkage, nil
	default:
		return "", fmt.Errorf("unknown blend method %q", s)
	}
}

// Blend computes the named estimate over the entry's first week of values.
// An empty entry yields 0.
func Blend(values []float64, method BlendMethod) (float64, error) {
	n := len(values)
	if n > entryWeek {
		n = entryWeek
	}
	week := values[:n]

	mean := numeric.Mean(week)
	switch method {
	case BlendMean, "":
		return mean, nil
	case BlendVariance:
		return 0.7*mean + 0.3*(2*numeric.StdDev(week)), nil
	case BlendShrinkage:
		variance := numeric.Variance(week)
		w := shrinkageTau2 / (shrinkageTau2 + variance)
		return w*mean + (1-w)*shrinkagePrior, nil
	default:
		return 0, fmt.Errorf("unknown blend method %q", method)
	}
}
