// Package scoring converts task and goal records into bounded component
// scores and combines them into a single 0-100 composite. All scorers are
// pure functions of their inputs; configuration travels in explicit values.
package scoring

import (
	"math"

	"github.com/prodpulse/prodmeter/internal/numeric"
)

// Component names used as weight keys and in score breakdowns.
const (
	ComponentEffort   = "effort"
	ComponentDuration = "duration"
	ComponentQuality  = "quality"
	ComponentGoal     = "goal"
	ComponentRhythm   = "rhythm"
)

// WeightFloor is the minimum share any component keeps after normalization.
const WeightFloor = 0.05

// Weights maps component names to their share of the composite. A valid
// vector has at least one positive entry; Normalize enforces the floor and
// the sum-to-1 invariant.
type Weights map[string]float64

// DefaultRhythm5Weights is the five-component profile.
func DefaultRhythm5Weights() Weights {
	return Weights{
		ComponentEffort:   0.20,
		ComponentDuration: 0.20,
		ComponentQuality:  0.25,
		ComponentGoal:     0.20,
		ComponentRhythm:   0.15,
	}
}

// DefaultClassic4Weights is the four-component profile with equal shares.
func DefaultClassic4Weights() Weights {
	return Weights{
		ComponentEffort:   0.25,
		ComponentDuration: 0.25,
		ComponentQuality:  0.25,
		ComponentGoal:     0.25,
	}
}

// Validate reports whether the vector can be normalized at all. A vector
// whose entries are all zero or negative has no meaningful direction and is
// rejected rather than silently renormalized.
func (w Weights) Validate() error {
	for _, v := range w {
		if v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0) {
			return nil
		}
	}
	return ErrInvalidWeights(w)
}

// Normalize applies the floor to every entry and rescales so the vector sums
// to 1. Entries pinned at the floor keep exactly the floor share while the
// rest split the remaining mass proportionally, so the result is a true
// fixpoint: normalizing an already-normalized vector is a no-op, and every
// entry ends at or above the floor whenever floor*len(w) <= 1. In the
// degenerate floor*len(w) > 1 case the floor cannot hold together with the
// sum-to-1 invariant; the vector collapses to equal shares.
func (w Weights) Normalize() Weights {
	n := len(w)
	if n == 0 {
		return Weights{}
	}

	out := make(Weights, n)
	for k, v := range w {
		out[k] = numeric.Clamp(v, 0, math.MaxFloat64)
	}

	if WeightFloor*float64(n) > 1 {
		for k := range out {
			out[k] = 1 / float64(n)
		}
		return out
	}

	pinned := make(map[string]bool, n)
	for iter := 0; iter <= n; iter++ {
		free := 1.0
		freeSum := 0.0
		for k, v := range out {
			if pinned[k] {
				free -= WeightFloor
			} else {
				freeSum += v
			}
		}

		changed := false
		for k, v := range out {
			if pinned[k] {
				out[k] = WeightFloor
				continue
			}
			nv := WeightFloor
			if freeSum > 0 {
				nv = v * free / freeSum
			}
			if nv < WeightFloor {
				pinned[k] = true
				out[k] = WeightFloor
				changed = true
			} else {
				out[k] = nv
			}
		}
		if !changed {
			break
		}
	}
	return out
}

// Clone returns an independent copy.
func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}
