package scoring

import (
	"fmt"

	errbuilder "github.com/ZanzyTHEbar/errbuilder-go"
)

// ErrInvalidWeights signals a weight vector with no positive entry. This is
// the only failure the scoring core surfaces; everything else degrades to a
// documented default instead of erroring.
func ErrInvalidWeights(w Weights) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(fmt.Sprintf("weight vector has no positive entry: %v", w))
}
