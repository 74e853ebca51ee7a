package scoring

import (
	"time"

	"github.com/prodpulse/prodmeter/internal/numeric"
	"github.com/prodpulse/prodmeter/internal/types"
)

// Profile selects which scoring formula variant applies. The engine is one
// codepath dispatched on this tag, not three divergent copies.
type Profile string

const (
	// ProfileClassic4 is the four-component variant with equal weights.
	ProfileClassic4 Profile = "classic-4"
	// ProfileRhythm5 adds the rhythm component with rebalanced weights.
	ProfileRhythm5 Profile = "rhythm-5"
	// ProfileRobust applies median/IQR sigmoid smoothing across the day's
	// per-task component values before combining.
	ProfileRobust Profile = "robust"
	// ProfileAuto picks rhythm-5 when rhythm context is available for the
	// day and classic-4 otherwise.
	ProfileAuto Profile = "auto"
)

// ParseProfile validates a profile tag, defaulting empty input to auto.
func ParseProfile(s string) (Profile, bool) {
	switch Profile(s) {
	case ProfileClassic4, ProfileRhythm5, ProfileRobust, ProfileAuto:
		return Profile(s), true
	case "":
		return ProfileAuto, true
	default:
		return "", false
	}
}

// Components is one task's (or one day's averaged) component breakdown.
type Components struct {
	Effort   float64 `json:"effort"`
	Duration float64 `json:"duration"`
	Quality  float64 `json:"quality"`
	Goal     float64 `json:"goal"`
	Rhythm   float64 `json:"rhythm"`
}

// Composite combines components by the normalized weight vector. With all
// components equal to v and any valid weights, the result is v.
func Composite(c Components, w Weights) (float64, error) {
	if err := w.Validate(); err != nil {
		return 0, err
	}
	nw := w.Normalize()
	sum := nw[ComponentEffort]*c.Effort +
		nw[ComponentDuration]*c.Duration +
		nw[ComponentQuality]*c.Quality +
		nw[ComponentGoal]*c.Goal +
		nw[ComponentRhythm]*c.Rhythm
	return numeric.ClampScore(sum), nil
}

// TaskComponents computes the per-task component breakdown. The rhythm slot
// holds the quick per-task approximation; day-level scoring overrides it with
// the full analyzer's output when that context exists.
func TaskComponents(t types.Task, lookup GoalLookup, now time.Time) Components {
	return Components{
		Effort:   EffortScore(t),
		Duration: DurationScore(t),
		Quality:  QualityScore(t),
		Goal:     GoalScore(t, lookup, now),
		Rhythm:   QuickRhythmScore(t),
	}
}

// DayInput is everything needed to score one calendar day.
type DayInput struct {
	Date    string
	Tasks   []types.Task
	Lookup  GoalLookup
	Now     time.Time
	Profile Profile
	Weights Weights // nil selects the profile default

	// Rhythm is the day-level rhythm composite on [0,100] from the rhythm
	// analyzer, when the caller has sleep/attendance context. Nil means no
	// rhythm data, which steers ProfileAuto to classic-4.
	Rhythm *float64
}

// resolve picks the effective profile and weight vector.
func (in DayInput) resolve() (Profile, Weights) {
	profile := in.Profile
	if profile == "" || profile == ProfileAuto {
		if in.Rhythm != nil {
			profile = ProfileRhythm5
		} else {
			profile = ProfileClassic4
		}
	}

	w := in.Weights
	if w == nil {
		switch profile {
		case ProfileClassic4:
			w = DefaultClassic4Weights()
		default:
			w = DefaultRhythm5Weights()
		}
	}
	// classic-4 scores four components; a five-component vector would leave
	// the rhythm share in the denominator and deflate the composite, so the
	// rhythm key is dropped and the remaining mass renormalized in Composite
	if profile == ProfileClassic4 {
		if _, ok := w[ComponentRhythm]; ok {
			w = w.Clone()
			delete(w, ComponentRhythm)
		}
	}
	return profile, w
}

// ScoreDay aggregates a day's tasks into a ScoreRecord. Component means are
// taken across tasks first, then the weighted combination is applied
// (average-then-combine). A day with no tasks yields a zeroed record with
// TaskCount 0 rather than an error.
func ScoreDay(in DayInput) (types.ScoreRecord, error) {
	profile, weights := in.resolve()
	if err := weights.Validate(); err != nil {
		return types.ScoreRecord{}, err
	}

	rec := types.ScoreRecord{
		Date:      in.Date,
		Profile:   string(profile),
		TaskCount: len(in.Tasks),
		UpdatedAt: in.Now,
	}
	if len(in.Tasks) == 0 {
		return rec, nil
	}

	lookup := in.Lookup
	if lookup == nil {
		lookup = NoGoals
	}

	cols := make(map[string][]float64, 5)
	for _, t := range in.Tasks {
		c := TaskComponents(t, lookup, in.Now)
		cols[ComponentEffort] = append(cols[ComponentEffort], c.Effort)
		cols[ComponentDuration] = append(cols[ComponentDuration], c.Duration)
		cols[ComponentQuality] = append(cols[ComponentQuality], c.Quality)
		cols[ComponentGoal] = append(cols[ComponentGoal], c.Goal)
		cols[ComponentRhythm] = append(cols[ComponentRhythm], c.Rhythm)
	}

	if profile == ProfileRobust {
		for k, vals := range cols {
			cols[k] = RobustSmooth(vals)
		}
	}

	day := Components{
		Effort:   numeric.Mean(cols[ComponentEffort]),
		Duration: numeric.Mean(cols[ComponentDuration]),
		Quality:  numeric.Mean(cols[ComponentQuality]),
		Goal:     numeric.Mean(cols[ComponentGoal]),
		Rhythm:   numeric.Mean(cols[ComponentRhythm]),
	}
	if in.Rhythm != nil {
		day.Rhythm = numeric.ClampScore(*in.Rhythm)
	}
	if profile == ProfileClassic4 {
		// no rhythm weight under classic-4; the record's column reads 0
		day.Rhythm = 0
	}

	composite, err := Composite(day, weights)
	if err != nil {
		return types.ScoreRecord{}, err
	}

	rec.Effort = day.Effort
	rec.Duration = day.Duration
	rec.Quality = day.Quality
	rec.Goal = day.Goal
	rec.Rhythm = day.Rhythm
	rec.Composite = composite
	return rec, nil
}
