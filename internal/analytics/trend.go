// Package analytics runs over stored score histories: trend classification,
// anomaly flagging, per-entry blend estimates, and a reliability measure.
// Like the scoring core it is pure and deterministic.
package analytics

import "github.com/prodpulse/prodmeter/internal/numeric"

// Direction is a three-way trend classification.
type Direction string

const (
	TrendImproving Direction = "improving"
	TrendDeclining Direction = "declining"
	TrendStable    Direction = "stable"
)

// slopeDeadband is the absolute least-squares slope below which a series
// counts as stable. One rule everywhere: slope with a fixed deadband, no
// endpoint comparison.
const slopeDeadband = 0.5

// TrendResult pairs the classification with the slope that produced it.
type TrendResult struct {
	Direction Direction `json:"direction"`
	Slope     float64   `json:"slope"`
}

// Trend classifies a score series by its ordinary least-squares slope.
// Series shorter than two points are stable by definition.
func Trend(series []float64) TrendResult {
	slope := numeric.TrendSlope(series)
	dir := TrendStable
	switch {
	case slope > slopeDeadband:
		dir = TrendImproving
	case slope < -slopeDeadband:
		dir = TrendDeclining
	}
	return TrendResult{Direction: dir, Slope: slope}
}
