package scoring

import (
	"math"
	"time"

	"github.com/prodpulse/prodmeter/internal/numeric"
	"github.com/prodpulse/prodmeter/internal/types"
)

// GoalLookup resolves a task's goal reference. The bool result is false for
// dangling references, which scorers treat the same as "no goal".
type GoalLookup func(goalID string) (types.Goal, bool)

// NoGoals is the lookup for callers without goal context.
func NoGoals(string) (types.Goal, bool) { return types.Goal{}, false }

const (
	effortDurationCap = 120.0 // minutes; effort stops growing past two hours
	durationBaseline  = 60.0  // minutes; no overrun penalty within the hour
	durationKappa     = 0.01  // overrun decay rate per minute past baseline
	durationNeutral   = 50.0  // incomplete tasks get a neutral duration score
	goalFloor         = 30.0  // tasks without a resolvable goal
	goalUrgencyRate   = 0.05  // per day until deadline
)

// sanitizeMinutes maps NaN, Inf, and negative durations to 0.
func sanitizeMinutes(m float64) float64 {
	return numeric.Clamp(m, 0, math.MaxFloat64)
}

// EffortScore scales the priority weight by time invested, capped at two
// hours: 100 * priorityWeight * min(duration/120, 1).
func EffortScore(t types.Task) float64 {
	dur := sanitizeMinutes(t.DurationMinutes)
	durationFactor := math.Min(dur/effortDurationCap, 1)
	return numeric.ClampScore(100 * t.Priority.Weight() * durationFactor)
}

// DurationScore rewards completing without overrunning the hour baseline.
// Incomplete tasks score a neutral 50. Finishing early relative to an
// estimate earns nothing extra; only wall-clock duration matters.
func DurationScore(t types.Task) float64 {
	if !t.Completed {
		return durationNeutral
	}
	dur := sanitizeMinutes(t.DurationMinutes)
	efficiency := 1.0
	if dur > durationBaseline {
		efficiency = math.Exp(-durationKappa * (dur - durationBaseline))
	}
	return numeric.ClampScore(100 * efficiency)
}

// QualityScore is the category base weight, cut to 30% when the task was not
// completed.
func QualityScore(t types.Task) float64 {
	base := t.Category.QualityWeight()
	if !t.Completed {
		base *= 0.3
	}
	return numeric.ClampScore(100 * base)
}

// GoalScore maps deadline urgency onto [0,100]. Tasks without a goal, or
// whose goal reference no longer resolves, get a fixed low floor rather than
// zero so unplanned work still counts for something.
func GoalScore(t types.Task, lookup GoalLookup, now time.Time) float64 {
	if t.GoalID == "" || lookup == nil {
		return goalFloor
	}
	goal, ok := lookup(t.GoalID)
	if !ok {
		return goalFloor
	}

	urgency := 0.5
	if goal.Deadline != nil {
		days := goal.Deadline.Sub(now).Hours() / 24
		urgency = math.Exp(-goalUrgencyRate * math.Max(days, 0))
	}
	return numeric.ClampScore(100 * urgency)
}

// QuickRhythmScore is the fast per-task approximation of the day-level rhythm
// analyzer: base 50, bonuses for on-time completion, small start-time
// deviation from plan, and completed recurring tasks.
func QuickRhythmScore(t types.Task) float64 {
	score := 50.0
	if t.CompletedOnTime {
		score += 20
	}

	if planned, ok := types.ParseClock(t.PlannedStart); ok {
		if actual, ok := types.ParseClock(t.ActualStart); ok {
			dev := math.Abs(float64(actual - planned))
			dev = math.Min(dev, 1440-dev)
			switch {
			case dev < 15:
				score += 20
			case dev < 30:
				score += 10
			}
		}
	}

	if t.Recurring && t.Completed {
		score += 10
	}
	return numeric.ClampScore(score)
}
