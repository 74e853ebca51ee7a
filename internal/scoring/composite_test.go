package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodpulse/prodmeter/internal/types"
)

func TestCompositeIsConvexCombination(t *testing.T) {
	// with every component equal to v the composite equals v for any valid
	// weight vector
	weightVectors := []Weights{
		DefaultRhythm5Weights(),
		DefaultClassic4Weights(),
		{ComponentEffort: 7, ComponentDuration: 1, ComponentQuality: 2, ComponentGoal: 3, ComponentRhythm: 5},
	}

	for _, w := range weightVectors {
		for _, v := range []float64{0, 33.3, 50, 100} {
			c := Components{Effort: v, Duration: v, Quality: v, Goal: v, Rhythm: v}
			got, err := Composite(c, w)
			require.NoError(t, err)
			assert.InDelta(t, v, got, 1e-9)
		}
	}
}

func TestCompositeRejectsInvalidWeights(t *testing.T) {
	_, err := Composite(Components{}, Weights{ComponentEffort: 0})
	assert.Error(t, err)
}

func TestScoreDayHandPickedFixture(t *testing.T) {
	// one high-priority, 90-minute, completed, work-category task linked to a
	// goal ten days from its deadline, scored under the classic-4 profile
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	deadline := now.AddDate(0, 0, 10)
	lookup := func(id string) (types.Goal, bool) {
		if id == "launch" {
			return types.Goal{ID: "launch", Deadline: &deadline}, true
		}
		return types.Goal{}, false
	}

	rec, err := ScoreDay(DayInput{
		Date: "2026-03-01",
		Tasks: []types.Task{{
			Priority:        types.PriorityHigh,
			Category:        types.CategoryWork,
			DurationMinutes: 90,
			Completed:       true,
			GoalID:          "launch",
		}},
		Lookup:  lookup,
		Now:     now,
		Profile: ProfileClassic4,
	})
	require.NoError(t, err)

	assert.InDelta(t, 75, rec.Effort, 1e-6)
	assert.InDelta(t, 74.0818, rec.Duration, 1e-3)
	assert.InDelta(t, 90, rec.Quality, 1e-6)
	assert.InDelta(t, 60.6531, rec.Goal, 1e-3)
	assert.InDelta(t, 74.93, rec.Composite, 1e-2)
	assert.Equal(t, 1, rec.TaskCount)
	assert.Equal(t, string(ProfileClassic4), rec.Profile)
}

func TestScoreDayAveragesBeforeCombining(t *testing.T) {
	// two tasks whose component means are easy to verify: the composite must
	// come from the averaged components, not from averaging two composites
	// computed under different weightings
	now := time.Now()
	tasks := []types.Task{
		{Priority: types.PriorityHigh, DurationMinutes: 120, Completed: true, Category: types.CategoryWork},
		{Priority: types.PriorityLow, DurationMinutes: 120, Completed: true, Category: types.CategoryWellness},
	}

	rec, err := ScoreDay(DayInput{
		Date:    "2026-03-02",
		Tasks:   tasks,
		Now:     now,
		Profile: ProfileClassic4,
	})
	require.NoError(t, err)

	assert.InDelta(t, 70, rec.Effort, 1e-9)   // (100+40)/2
	assert.InDelta(t, 100, rec.Duration, 1e-9)
	assert.InDelta(t, 70, rec.Quality, 1e-9)  // (90+50)/2
	assert.InDelta(t, 30, rec.Goal, 1e-9)     // both unlinked
	assert.InDelta(t, (70+100+70+30)/4.0, rec.Composite, 1e-9)
}

func TestScoreDayClassic4IgnoresRhythmWeight(t *testing.T) {
	// a caller holding a five-component vector (the service keeps one vector
	// for all profiles) must not see the composite deflated by the unused
	// rhythm share when scoring under classic-4
	now := time.Now()
	tasks := []types.Task{{
		Priority:        types.PriorityHigh,
		Category:        types.CategoryWork,
		DurationMinutes: 120,
		Completed:       true,
	}}

	rec, err := ScoreDay(DayInput{
		Date:    "2026-03-07",
		Tasks:   tasks,
		Now:     now,
		Profile: ProfileClassic4,
		Weights: DefaultRhythm5Weights(),
	})
	require.NoError(t, err)

	// E=100, D=100*exp(-0.6), Q=90, G=30; weighted by {.20,.20,.25,.20}/0.85
	d := 100 * math.Exp(-0.6)
	want := (0.20*100 + 0.20*d + 0.25*90 + 0.20*30) / 0.85
	assert.InDelta(t, want, rec.Composite, 1e-9)
	assert.Zero(t, rec.Rhythm)

	// the rhythm entry's magnitude is irrelevant once the profile excludes it
	heavy := DefaultRhythm5Weights()
	heavy[ComponentRhythm] = 10
	rec2, err := ScoreDay(DayInput{
		Date:    "2026-03-07",
		Tasks:   tasks,
		Now:     now,
		Profile: ProfileClassic4,
		Weights: heavy,
	})
	require.NoError(t, err)
	assert.InDelta(t, rec.Composite, rec2.Composite, 1e-9)
}

func TestScoreDayEmptyDay(t *testing.T) {
	rec, err := ScoreDay(DayInput{Date: "2026-03-03", Now: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, 0, rec.TaskCount)
	assert.Zero(t, rec.Composite)
}

func TestScoreDayAutoProfileSelection(t *testing.T) {
	now := time.Now()
	tasks := []types.Task{{Priority: types.PriorityHigh, DurationMinutes: 60, Completed: true}}

	noRhythm, err := ScoreDay(DayInput{Date: "2026-03-04", Tasks: tasks, Now: now})
	require.NoError(t, err)
	assert.Equal(t, string(ProfileClassic4), noRhythm.Profile)
	assert.Zero(t, noRhythm.Rhythm)

	rhythm := 82.0
	withRhythm, err := ScoreDay(DayInput{Date: "2026-03-04", Tasks: tasks, Now: now, Rhythm: &rhythm})
	require.NoError(t, err)
	assert.Equal(t, string(ProfileRhythm5), withRhythm.Profile)
	assert.InDelta(t, 82, withRhythm.Rhythm, 1e-9)
}

func TestScoreDayRobustProfileStaysBounded(t *testing.T) {
	now := time.Now()
	tasks := []types.Task{
		{Priority: types.PriorityHigh, DurationMinutes: 120, Completed: true, Category: types.CategoryWork},
		{Priority: types.PriorityLow, DurationMinutes: 10, Category: types.CategoryWellness},
		{Priority: types.PriorityMedium, DurationMinutes: 400, Completed: true, Category: types.CategoryLearning},
	}

	rec, err := ScoreDay(DayInput{Date: "2026-03-05", Tasks: tasks, Now: now, Profile: ProfileRobust})
	require.NoError(t, err)
	for _, v := range []float64{rec.Effort, rec.Duration, rec.Quality, rec.Goal, rec.Rhythm, rec.Composite} {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

func TestEvaluateAdvancesStateWithoutMutation(t *testing.T) {
	state := NewScoringState(nil)
	in := DayInput{
		Date:  "2026-03-06",
		Tasks: []types.Task{{Priority: types.PriorityHigh, DurationMinutes: 60, Completed: true}},
		Now:   time.Now(),
	}

	next, rec, err := Evaluate(state, in)
	require.NoError(t, err)
	assert.Empty(t, state.History, "original state must not be mutated")
	assert.Len(t, next.History, 1)
	assert.Equal(t, rec.Date, next.History[0].Date)

	// re-scoring the same day from the same state is deterministic
	_, rec2, err := Evaluate(state, in)
	require.NoError(t, err)
	assert.Equal(t, rec.Composite, rec2.Composite)
}

func TestMomentumWeightUpdate(t *testing.T) {
	w := DefaultClassic4Weights()
	grads := Weights{
		ComponentEffort:   0.05,
		ComponentDuration: -0.05,
		ComponentQuality:  0.0,
		ComponentGoal:     0.02,
	}

	updated, ms := MomentumWeightUpdate(w, grads, 1, MomentState{})
	for k, v := range updated {
		assert.GreaterOrEqual(t, v, 0.01, "entry %s below update floor", k)
		assert.False(t, math.IsNaN(v))
	}
	// positive gradient pushes the weight down, negative pushes it up
	assert.Less(t, updated[ComponentEffort], updated[ComponentDuration])

	// accumulators returned, inputs untouched
	assert.NotEmpty(t, ms.M)
	assert.InDelta(t, 0.25, w[ComponentEffort], 1e-12)
}

func TestParseProfile(t *testing.T) {
	for _, s := range []string{"classic-4", "rhythm-5", "robust", "auto", ""} {
		_, ok := ParseProfile(s)
		assert.True(t, ok, s)
	}
	_, ok := ParseProfile("bogus")
	assert.False(t, ok)
}
