// Package rhythm scores the regularity of a person's habits from sleep,
// attendance, task-completion, and activity-timing data. Four sub-scores on
// [0,1] combine through a weighted harmonic mean, so one badly broken habit
// dimension drags the composite down harder than an arithmetic mean would: a
// rhythm is only as strong as its weakest link.
package rhythm

import (
	"github.com/prodpulse/prodmeter/internal/numeric"
	"github.com/prodpulse/prodmeter/internal/types"
)

// neutralScore is returned by every sub-score when there is too little data
// to say anything.
const neutralScore = 0.5

// Config carries the sub-score weights, the ideal clock times the alignment
// terms compare against, and the weekly-regularity sign toggle.
type Config struct {
	SleepWeight      float64
	AttendanceWeight float64
	TaskWeight       float64
	CircadianWeight  float64

	IdealSleepTime string // HH:MM
	IdealWakeTime  string // HH:MM

	// RewardWeeklyRegularity flips the sign of the 7-day-lag periodicity
	// term in the task-consistency sub-score. The default (false) keeps the
	// historical formula, under which week-over-week similarity raises the
	// score via 1-metric; see TaskConsistencyScore.
	RewardWeeklyRegularity bool
}

// DefaultConfig returns the production weighting.
func DefaultConfig() Config {
	return Config{
		SleepWeight:      0.30,
		AttendanceWeight: 0.20,
		TaskWeight:       0.30,
		CircadianWeight:  0.20,
		IdealSleepTime:   "23:00",
		IdealWakeTime:    "07:00",
	}
}

// Input bundles the raw records the analyzer consumes. All slices must be in
// chronological order; the analyzer never mutates them.
type Input struct {
	Sleep      []types.SleepRecord
	Attendance []bool
	Tasks      []types.Task
	// ActivityMinutes are minutes-since-midnight of task activity, used by
	// the circadian sub-score.
	ActivityMinutes []int
}

// HasData reports whether any rhythm signal is present at all. Callers use
// this to decide between the 4- and 5-component composite profiles.
func (in Input) HasData() bool {
	return len(in.Sleep) > 0 || len(in.Attendance) > 0 ||
		len(in.Tasks) > 0 || len(in.ActivityMinutes) > 0
}

// Result is the analyzer's full output: sub-scores on [0,1], the harmonic
// composite on [0,100], and advisory insights.
type Result struct {
	Sleep      float64   `json:"sleep"`
	Attendance float64   `json:"attendance"`
	Task       float64   `json:"task"`
	Circadian  float64   `json:"circadian"`
	Composite  float64   `json:"composite"`
	Insights   []Insight `json:"insights,omitempty"`
}

// Analyze runs the four sub-analyzers and combines them.
func Analyze(in Input, cfg Config) Result {
	res := Result{
		Sleep:      SleepScore(in.Sleep, cfg),
		Attendance: AttendanceScore(in.Attendance),
		Task:       TaskConsistencyScore(in.Tasks, cfg),
		Circadian:  CircadianScore(in.ActivityMinutes),
	}
	res.Composite = harmonicComposite(res, cfg)
	res.Insights = insights(res)
	return res
}

// harmonicComposite is the weighted harmonic mean of the sub-scores, scaled
// to [0,100]. A zero sub-score dominates: the composite is 0 outright.
func harmonicComposite(r Result, cfg Config) float64 {
	scores := []float64{r.Sleep, r.Attendance, r.Task, r.Circadian}
	weights := []float64{cfg.SleepWeight, cfg.AttendanceWeight, cfg.TaskWeight, cfg.CircadianWeight}

	var weightSum, invSum float64
	for i, s := range scores {
		w := weights[i]
		if w <= 0 {
			continue
		}
		if s <= 0 {
			return 0
		}
		weightSum += w
		invSum += w / s
	}
	if invSum == 0 {
		return 0
	}
	return numeric.ClampScore(100 * weightSum / invSum)
}
