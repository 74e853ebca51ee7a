package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/prodpulse/prodmeter/internal/types"
)

func TestEffortScore(t *testing.T) {
	tests := []struct {
		name     string
		task     types.Task
		expected float64
	}{
		{
			name:     "high priority at the two hour cap",
			task:     types.Task{Priority: types.PriorityHigh, DurationMinutes: 120},
			expected: 100,
		},
		{
			name:     "high priority ninety minutes",
			task:     types.Task{Priority: types.PriorityHigh, DurationMinutes: 90},
			expected: 75,
		},
		{
			name:     "duration past cap does not grow effort",
			task:     types.Task{Priority: types.PriorityHigh, DurationMinutes: 300},
			expected: 100,
		},
		{
			name:     "low priority halves and then some",
			task:     types.Task{Priority: types.PriorityLow, DurationMinutes: 120},
			expected: 40,
		},
		{
			name:     "unknown priority falls back to medium",
			task:     types.Task{Priority: "urgent", DurationMinutes: 120},
			expected: 70,
		},
		{
			name:     "negative duration clamps to zero effort",
			task:     types.Task{Priority: types.PriorityHigh, DurationMinutes: -30},
			expected: 0,
		},
		{
			name:     "NaN duration clamps to zero effort",
			task:     types.Task{Priority: types.PriorityHigh, DurationMinutes: math.NaN()},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, EffortScore(tt.task), 1e-9)
		})
	}
}

func TestDurationScore(t *testing.T) {
	tests := []struct {
		name     string
		task     types.Task
		expected float64
	}{
		{
			name:     "incomplete task scores neutral",
			task:     types.Task{DurationMinutes: 30},
			expected: 50,
		},
		{
			name:     "completed within the hour scores full",
			task:     types.Task{Completed: true, DurationMinutes: 45},
			expected: 100,
		},
		{
			name:     "completed at exactly sixty minutes scores full",
			task:     types.Task{Completed: true, DurationMinutes: 60},
			expected: 100,
		},
		{
			name:     "ninety minute overrun decays",
			task:     types.Task{Completed: true, DurationMinutes: 90},
			expected: 100 * math.Exp(-0.01*30),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, DurationScore(tt.task), 1e-9)
		})
	}
}

func TestQualityScore(t *testing.T) {
	completed := types.Task{Category: types.CategoryWork, Completed: true}
	assert.InDelta(t, 90, QualityScore(completed), 1e-9)

	incomplete := types.Task{Category: types.CategoryWork}
	assert.InDelta(t, 27, QualityScore(incomplete), 1e-9)

	unknown := types.Task{Category: "chores", Completed: true}
	assert.InDelta(t, 50, QualityScore(unknown), 1e-9)
}

func TestGoalScore(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	deadline := now.AddDate(0, 0, 10)
	past := now.AddDate(0, 0, -5)

	goals := map[string]types.Goal{
		"g1": {ID: "g1", Deadline: &deadline},
		"g2": {ID: "g2"}, // no deadline
		"g3": {ID: "g3", Deadline: &past},
	}
	lookup := func(id string) (types.Goal, bool) {
		g, ok := goals[id]
		return g, ok
	}

	tests := []struct {
		name     string
		goalID   string
		expected float64
	}{
		{name: "deadline ten days out", goalID: "g1", expected: 100 * math.Exp(-0.5)},
		{name: "goal without deadline is neutral urgency", goalID: "g2", expected: 50},
		{name: "past deadline is maximal urgency", goalID: "g3", expected: 100},
		{name: "no goal reference gets the floor", goalID: "", expected: 30},
		{name: "dangling reference treated as no goal", goalID: "deleted", expected: 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := types.Task{GoalID: tt.goalID}
			assert.InDelta(t, tt.expected, GoalScore(task, lookup, now), 1e-6)
		})
	}
}

func TestQuickRhythmScore(t *testing.T) {
	tests := []struct {
		name     string
		task     types.Task
		expected float64
	}{
		{
			name:     "bare task scores base",
			task:     types.Task{},
			expected: 50,
		},
		{
			name: "on time with tight start and completed recurring",
			task: types.Task{
				CompletedOnTime: true,
				PlannedStart:    "09:00",
				ActualStart:     "09:05",
				Recurring:       true,
				Completed:       true,
			},
			expected: 100,
		},
		{
			name: "moderate start deviation earns the smaller bonus",
			task: types.Task{
				PlannedStart: "09:00",
				ActualStart:  "09:20",
			},
			expected: 60,
		},
		{
			name: "start deviation wraps around midnight",
			task: types.Task{
				PlannedStart: "23:55",
				ActualStart:  "00:05",
			},
			expected: 70,
		},
		{
			name: "malformed start times earn no deviation bonus",
			task: types.Task{
				PlannedStart: "9am",
				ActualStart:  "09:00",
			},
			expected: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, QuickRhythmScore(tt.task), 1e-9)
		})
	}
}

func TestComponentScoresAlwaysBounded(t *testing.T) {
	// sweep a grid of adversarial inputs; every component must stay in [0,100]
	durations := []float64{-1e9, -1, 0, 1, 59, 60, 61, 1e6, math.NaN(), math.Inf(1)}
	priorities := []types.Priority{types.PriorityHigh, types.PriorityMedium, types.PriorityLow, "", "bogus"}
	categories := []types.Category{types.CategoryWork, types.CategoryWellness, "", "bogus"}

	now := time.Now()
	for _, d := range durations {
		for _, p := range priorities {
			for _, c := range categories {
				for _, completed := range []bool{true, false} {
					task := types.Task{
						Priority:        p,
						Category:        c,
						DurationMinutes: d,
						Completed:       completed,
						GoalID:          "missing",
					}
					for _, score := range []float64{
						EffortScore(task),
						DurationScore(task),
						QualityScore(task),
						GoalScore(task, NoGoals, now),
						QuickRhythmScore(task),
					} {
						assert.GreaterOrEqual(t, score, 0.0)
						assert.LessOrEqual(t, score, 100.0)
					}
				}
			}
		}
	}
}
