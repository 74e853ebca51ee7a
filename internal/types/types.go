package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Priority is a task's stated importance.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Weight maps a priority onto its effort multiplier. Unknown or missing
// priorities fall back to the medium weight.
func (p Priority) Weight() float64 {
	switch p {
	case PriorityHigh:
		return 1.0
	case PriorityMedium:
		return 0.7
	case PriorityLow:
		return 0.4
	default:
		return 0.7
	}
}

// Category classifies a task by life area.
type Category string

const (
	CategoryWork     Category = "work"
	CategoryLearning Category = "learning"
	CategoryFitness  Category = "fitness"
	CategoryPersonal Category = "personal"
	CategoryWellness Category = "wellness"
)

// QualityWeight maps a category onto its quality base. Unknown or missing
// categories fall back to 0.5.
func (c Category) QualityWeight() float64 {
	switch c {
	case CategoryWork:
		return 0.9
	case CategoryLearning:
		return 0.85
	case CategoryFitness:
		return 0.7
	case CategoryPersonal:
		return 0.6
	case CategoryWellness:
		return 0.5
	default:
		return 0.5
	}
}

// Task is a single planned unit of work. GoalID is a weak reference: the goal
// may have been deleted while tasks still point at it, and scorers treat an
// unresolved reference the same as no goal.
type Task struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Priority        Priority  `json:"priority"`
	Category        Category  `json:"category"`
	Date            string    `json:"date"` // calendar day, YYYY-MM-DD
	Time            string    `json:"time,omitempty"`
	DurationMinutes float64   `json:"duration_minutes"`
	GoalID          string    `json:"goal_id,omitempty"`
	Completed       bool      `json:"completed"`
	CompletedOnTime bool      `json:"completed_on_time"`
	PlannedStart    string    `json:"planned_start,omitempty"`
	ActualStart     string    `json:"actual_start,omitempty"`
	EnergyLevel     int       `json:"energy_level,omitempty"`
	FocusMode       bool      `json:"focus_mode"`
	Recurring       bool      `json:"recurring"`
	ContextTags     []string  `json:"context_tags,omitempty"`
	Confidence      float64   `json:"confidence"` // 0..1
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Goal has an independent lifecycle from tasks; deleting a goal does not
// cascade to the tasks referencing it.
type Goal struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Deadline       *time.Time `json:"deadline,omitempty"`
	Category       Category   `json:"category"`
	TotalTasks     int        `json:"total_tasks"`
	CompletedTasks int        `json:"completed_tasks"`
	CreatedAt      time.Time  `json:"created_at"`
}

// SleepRecord captures one night of sleep. SleepTime and WakeTime are clock
// times on a 24-hour circle; sleep before midnight with wake after midnight is
// the normal case, not an inverted interval.
type SleepRecord struct {
	Date      string `json:"date"` // calendar day, YYYY-MM-DD
	SleepTime string `json:"sleep_time"`
	WakeTime  string `json:"wake_time"`
	Quality   int    `json:"quality"` // 1..5
}

// AttendanceRecord is an ordered on-time flag. Consistency metrics operate on
// the order alone, so no timestamp is carried beyond the sequence number.
type AttendanceRecord struct {
	Seq    int64 `json:"seq"`
	OnTime bool  `json:"on_time"`
}

// ScoreRecord is the derived per-day score row. It is never hand-edited and is
// recomputed whenever the day's tasks change.
type ScoreRecord struct {
	Date      string    `json:"date"`
	Effort    float64   `json:"effort"`
	Duration  float64   `json:"duration"`
	Quality   float64   `json:"quality"`
	Goal      float64   `json:"goal"`
	Rhythm    float64   `json:"rhythm"`
	Composite float64   `json:"composite"`
	TaskCount int       `json:"task_count"`
	Profile   string    `json:"profile"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ParseClock parses an HH:MM clock string into minutes since midnight.
// The bool result is false for empty or malformed input.
func ParseClock(s string) (int, bool) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// FormatClock renders minutes since midnight as HH:MM, wrapping at 24h.
func FormatClock(minutes int) string {
	minutes %= 24 * 60
	if minutes < 0 {
		minutes += 24 * 60
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseDate validates a YYYY-MM-DD calendar day.
func ParseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
