package rhythm

import (
	"math"

	"github.com/prodpulse/prodmeter/internal/numeric"
)

// AttendanceScore rates punctuality from an ordered run of on-time flags.
// Unbroken on-time streaks earn a logarithmic bonus, while erratically
// spaced misses (irregular gaps between false flags) cost a penalty:
//
// score = clamp01(baseRate + 0.2*streakBonus - 0.1*irregularityPenalty)
func AttendanceScore(flags []bool) float64 {
	total := len(flags)
	if total == 0 {
		return neutralScore
	}

	onTime := 0
	for _, f := range flags {
		if f {
			onTime++
		}
	}
	baseRate := float64(onTime) / float64(total)

	streakBonus := 0.0
	run := 0
	for _, f := range flags {
		if f {
			run++
			continue
		}
		if run > 0 {
			streakBonus += math.Log(1 + float64(run))
			run = 0
		}
	}
	if run > 0 {
		streakBonus += math.Log(1 + float64(run))
	}
	streakBonus /= float64(total)

	// gaps between consecutive misses; fewer than two gaps means no basis
	// for an irregularity estimate
	var missIndices []int
	for i, f := range flags {
		if !f {
			missIndices = append(missIndices, i)
		}
	}
	irregularity := 0.0
	if len(missIndices) >= 3 {
		gaps := make([]float64, 0, len(missIndices)-1)
		for i := 1; i < len(missIndices); i++ {
			gaps = append(gaps, float64(missIndices[i]-missIndices[i-1]))
		}
		if mean := numeric.Mean(gaps); mean > 0 {
			irregularity = numeric.StdDev(gaps) / mean
		}
	}

	return numeric.Clamp01(baseRate + 0.2*streakBonus - 0.1*irregularity)
}
