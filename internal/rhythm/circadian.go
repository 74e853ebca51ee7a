package rhythm

import "github.com/prodpulse/prodmeter/internal/numeric"

// circadianWindow is a contiguous (possibly midnight-wrapping) range of hours
// with a score contribution per unit of activity probability inside it.
type circadianWindow struct {
	name      string
	startHour int // inclusive
	endHour   int // inclusive; < startHour means the window wraps midnight
	weight    float64
}

var circadianWindows = []circadianWindow{
	{name: "morning-peak", startHour: 10, endHour: 12, weight: 0.3},
	{name: "afternoon-peak", startHour: 16, endHour: 18, weight: 0.3},
	{name: "post-lunch-dip", startHour: 13, endHour: 15, weight: -0.2},
	{name: "late-night", startHour: 23, endHour: 5, weight: -0.5},
}

func (w circadianWindow) contains(hour int) bool {
	if w.startHour <= w.endHour {
		return hour >= w.startHour && hour <= w.endHour
	}
	return hour >= w.startHour || hour <= w.endHour
}

// CircadianScore buckets activity timestamps into 24 hourly probabilities and
// scores how well the distribution lines up with productive hours: activity
// in the morning and late-afternoon peaks raises the score, the post-lunch
// dip and late-night hours lower it.
func CircadianScore(activityMinutes []int) float64 {
	if len(activityMinutes) == 0 {
		return neutralScore
	}

	var counts [24]float64
	total := 0.0
	for _, m := range activityMinutes {
		h := (m / 60) % 24
		if h < 0 {
			h += 24
		}
		counts[h]++
		total++
	}

	score := 0.5
	for _, w := range circadianWindows {
		mass := 0.0
		for h := 0; h < 24; h++ {
			if w.contains(h) {
				mass += counts[h] / total
			}
		}
		score += w.weight * mass
	}
	return numeric.Clamp01(score)
}
