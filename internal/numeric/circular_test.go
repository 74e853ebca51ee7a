package numeric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCircularMeanStraddlingMidnight(t *testing.T) {
	// 23:30 and 00:30 should average near midnight, not noon. A linear mean
	// of the raw minute values would land at 12:00.
	angles := []float64{
		MinutesToAngle(23*60 + 30),
		MinutesToAngle(0*60 + 30),
	}
	cs := Circular(angles)

	mean := AngleToMinutes(cs.Mean)
	// accept either side of the wrap point
	if mean > 720 {
		mean -= 1440
	}
	assert.InDelta(t, 0, mean, 1.0)
}

func TestCircularVariance(t *testing.T) {
	tests := []struct {
		name    string
		minutes []float64
		lowVar  bool
	}{
		{
			name:    "identical times have zero variance",
			minutes: []float64{420, 420, 420},
			lowVar:  true,
		},
		{
			name:    "tight cluster has low variance",
			minutes: []float64{415, 420, 425},
			lowVar:  true,
		},
		{
			name:    "opposite times have maximal variance",
			minutes: []float64{0, 720},
			lowVar:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			angles := make([]float64, len(tt.minutes))
			for i, m := range tt.minutes {
				angles[i] = MinutesToAngle(m)
			}
			cs := Circular(angles)
			if tt.lowVar {
				assert.Less(t, cs.Variance, 0.01)
			} else {
				assert.InDelta(t, 1.0, cs.Variance, 1e-9)
			}
		})
	}
}

func TestCircularEmptyInput(t *testing.T) {
	cs := Circular(nil)
	assert.Equal(t, 1.0, cs.Variance)
	assert.Equal(t, 0.0, cs.R)
}

func TestCircularDistance(t *testing.T) {
	// quarter turn either way is the same distance
	assert.InDelta(t, math.Pi/2, CircularDistance(0, math.Pi/2), 1e-9)
	assert.InDelta(t, math.Pi/2, CircularDistance(0, 3*math.Pi/2), 1e-9)
	// never exceeds half the circle
	assert.InDelta(t, math.Pi, CircularDistance(0, math.Pi), 1e-9)
	assert.InDelta(t, 0, CircularDistance(math.Pi/4, math.Pi/4), 1e-9)
}

func TestAngleMinutesRoundTrip(t *testing.T) {
	for _, m := range []float64{0, 30, 720, 1410, 1439} {
		assert.InDelta(t, m, AngleToMinutes(MinutesToAngle(m)), 1e-6)
	}
}
