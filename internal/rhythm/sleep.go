package rhythm

import (
	"math"

	"github.com/prodpulse/prodmeter/internal/numeric"
	"github.com/prodpulse/prodmeter/internal/types"
)

// SleepScore measures sleep regularity and alignment with the ideal schedule.
// Sleep and wake times are independent points on the 24-hour circle, so a
// 23:30 bedtime and a 00:30 bedtime are an hour apart, not 23 hours.
//
// consistency = exp(-2*(varSleep+varWake))
// alignment   = exp(-0.5*(dist(meanSleep, ideal) + dist(meanWake, ideal)))
// score       = 0.6*consistency + 0.4*alignment
func SleepScore(records []types.SleepRecord, cfg Config) float64 {
	var sleepAngles, wakeAngles []float64
	for _, r := range records {
		if m, ok := types.ParseClock(r.SleepTime); ok {
			sleepAngles = append(sleepAngles, numeric.MinutesToAngle(float64(m)))
		}
		if m, ok := types.ParseClock(r.WakeTime); ok {
			wakeAngles = append(wakeAngles, numeric.MinutesToAngle(float64(m)))
		}
	}
	if len(sleepAngles) == 0 || len(wakeAngles) == 0 {
		return neutralScore
	}

	sleepStats := numeric.Circular(sleepAngles)
	wakeStats := numeric.Circular(wakeAngles)
	consistency := math.Exp(-2 * (sleepStats.Variance + wakeStats.Variance))

	alignment := neutralScore
	idealSleep, okS := types.ParseClock(cfg.IdealSleepTime)
	idealWake, okW := types.ParseClock(cfg.IdealWakeTime)
	if okS && okW {
		dist := numeric.CircularDistance(sleepStats.Mean, numeric.MinutesToAngle(float64(idealSleep))) +
			numeric.CircularDistance(wakeStats.Mean, numeric.MinutesToAngle(float64(idealWake)))
		alignment = math.Exp(-0.5 * dist)
	}

	return numeric.Clamp01(0.6*consistency + 0.4*alignment)
}
