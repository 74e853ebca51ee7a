package scoring

import (
	"math"

	"github.com/prodpulse/prodmeter/internal/types"
)

// ScoringState is the explicit value a caller threads through repeated
// evaluations: the rolling score history plus the current weight vector.
// Nothing here is shared or mutated in place; Evaluate returns a new state.
type ScoringState struct {
	History []types.ScoreRecord
	Weights Weights
}

// NewScoringState starts from the given weights (nil selects the rhythm-5
// defaults) and an empty history.
func NewScoringState(w Weights) ScoringState {
	if w == nil {
		w = DefaultRhythm5Weights()
	}
	return ScoringState{Weights: w.Clone()}
}

// Evaluate scores one day under the state's weights and returns the advanced
// state alongside the record. The input's own Weights field, when set,
// overrides the state's vector for that evaluation only.
func Evaluate(state ScoringState, in DayInput) (ScoringState, types.ScoreRecord, error) {
	if in.Weights == nil {
		in.Weights = state.Weights
	}
	rec, err := ScoreDay(in)
	if err != nil {
		return state, types.ScoreRecord{}, err
	}

	next := ScoringState{
		History: append(append([]types.ScoreRecord(nil), state.History...), rec),
		Weights: state.Weights.Clone(),
	}
	return next, rec, nil
}

// Moment parameters for the momentum-style weight update. These match the
// conventional Adam constants, but the update below is a single closed-form
// step applied to caller-supplied gradients, not an iterative optimizer.
const (
	momentBeta1 = 0.9
	momentBeta2 = 0.999
	momentEps   = 1e-8
	momentEta   = 0.001
	updateFloor = 0.01
)

// MomentState carries the first and second moment accumulators between
// weight updates.
type MomentState struct {
	M Weights
	V Weights
}

// MomentumWeightUpdate applies one bias-corrected momentum step to the weight
// vector and renormalizes. The literal sequence is: step, divide by the new
// total, then floor at 0.01 — so the floored result can sum slightly above 1;
// callers wanting the strict sum-to-1 invariant pass the result through
// Normalize.
func MomentumWeightUpdate(w Weights, gradients Weights, iteration int, ms MomentState) (Weights, MomentState) {
	if iteration < 1 {
		iteration = 1
	}
	// accumulators are copied so repeated calls with the same inputs are
	// deterministic
	ms = MomentState{M: ms.M.Clone(), V: ms.V.Clone()}

	updated := Weights{}
	for key, g := range gradients {
		ms.M[key] = momentBeta1*ms.M[key] + (1-momentBeta1)*g
		ms.V[key] = momentBeta2*ms.V[key] + (1-momentBeta2)*g*g

		mHat := ms.M[key] / (1 - math.Pow(momentBeta1, float64(iteration)))
		vHat := ms.V[key] / (1 - math.Pow(momentBeta2, float64(iteration)))

		updated[key] = w[key] - momentEta*(mHat/(math.Sqrt(vHat)+momentEps))
	}

	total := 0.0
	for _, v := range updated {
		total += v
	}
	if total != 0 {
		for key := range updated {
			updated[key] = math.Max(updateFloor, updated[key]/total)
		}
	}
	return updated, ms
}
