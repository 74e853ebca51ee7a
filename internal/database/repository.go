package database

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/prodpulse/prodmeter/internal/errors"
	"github.com/prodpulse/prodmeter/internal/types"
)

// Repository exposes typed CRUD and range queries over the sqlite tables.
// All date-range queries return rows in chronological order; empty bounds
// mean unbounded.
type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// ISO dates compare correctly as strings, so unbounded ranges are just
// extreme sentinels.
func dateBounds(from, to string) (string, string) {
	if from == "" {
		from = "0000-01-01"
	}
	if to == "" {
		to = "9999-12-31"
	}
	return from, to
}

func encodeTags(tags []string) (sql.NullString, error) {
	if len(tags) == 0 {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func decodeTags(raw sql.NullString) []string {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw.String), &tags); err != nil {
		return nil
	}
	return tags
}

const taskColumns = `id, title, priority, category, date, time, duration_minutes, goal_id,
	completed, completed_on_time, planned_start, actual_start, energy_level,
	focus_mode, recurring, context_tags, confidence, created_at, updated_at`

// CreateTask inserts the task, assigning an id and timestamps when missing.
func (r *Repository) CreateTask(t *types.Task) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now

	tags, err := encodeTags(t.ContextTags)
	if err != nil {
		return apperrors.NewInternalError("failed to encode task tags", err)
	}

	_, err = r.db.Exec(`INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, string(t.Priority), string(t.Category), t.Date,
		nullable(t.Time), t.DurationMinutes, nullable(t.GoalID),
		t.Completed, t.CompletedOnTime, nullable(t.PlannedStart),
		nullable(t.ActualStart), t.EnergyLevel, t.FocusMode, t.Recurring,
		tags, t.Confidence, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return apperrors.NewInternalError("failed to insert task", err)
	}
	return nil
}

// GetTask returns a single task or a not-found error.
func (r *Repository) GetTask(id string) (types.Task, error) {
	row := r.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return types.Task{}, apperrors.NewNotFoundError("task", id)
	}
	if err != nil {
		return types.Task{}, apperrors.NewInternalError("failed to load task", err)
	}
	return t, nil
}

// UpdateTask overwrites all mutable columns of an existing task.
func (r *Repository) UpdateTask(t *types.Task) error {
	t.UpdatedAt = time.Now().UTC()

	tags, err := encodeTags(t.ContextTags)
	if err != nil {
		return apperrors.NewInternalError("failed to encode task tags", err)
	}

	res, err := r.db.Exec(`UPDATE tasks SET
		title = ?, priority = ?, category = ?, date = ?, time = ?,
		duration_minutes = ?, goal_id = ?, completed = ?, completed_on_time = ?,
		planned_start = ?, actual_start = ?, energy_level = ?, focus_mode = ?,
		recurring = ?, context_tags = ?, confidence = ?, updated_at = ?
		WHERE id = ?`,
		t.Title, string(t.Priority), string(t.Category), t.Date,
		nullable(t.Time), t.DurationMinutes, nullable(t.GoalID),
		t.Completed, t.CompletedOnTime, nullable(t.PlannedStart),
		nullable(t.ActualStart), t.EnergyLevel, t.FocusMode, t.Recurring,
		tags, t.Confidence, t.UpdatedAt, t.ID)
	if err != nil {
		return apperrors.NewInternalError("failed to update task", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NewNotFoundError("task", t.ID)
	}
	return nil
}

// DeleteTask removes the task. Deleting a goal's tasks is never cascaded the
// other way; goal references stay weak.
func (r *Repository) DeleteTask(id string) error {
	res, err := r.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return apperrors.NewInternalError("failed to delete task", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NewNotFoundError("task", id)
	}
	return nil
}

// ListTasks returns tasks in the inclusive date range, oldest day first.
func (r *Repository) ListTasks(from, to string) ([]types.Task, error) {
	from, to = dateBounds(from, to)
	rows, err := r.db.Query(`SELECT `+taskColumns+` FROM tasks
		WHERE date >= ? AND date <= ? ORDER BY date, created_at`, from, to)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list tasks", err)
	}
	defer rows.Close()

	var tasks []types.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan task", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (types.Task, error) {
	var t types.Task
	var timeCol, goalID, plannedStart, actualStart, tags sql.NullString
	err := row.Scan(&t.ID, &t.Title, &t.Priority, &t.Category, &t.Date,
		&timeCol, &t.DurationMinutes, &goalID, &t.Completed, &t.CompletedOnTime,
		&plannedStart, &actualStart, &t.EnergyLevel, &t.FocusMode, &t.Recurring,
		&tags, &t.Confidence, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return types.Task{}, err
	}
	t.Time = timeCol.String
	t.GoalID = goalID.String
	t.PlannedStart = plannedStart.String
	t.ActualStart = actualStart.String
	t.ContextTags = decodeTags(tags)
	return t, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// CreateGoal inserts the goal, assigning an id when missing.
func (r *Repository) CreateGoal(g *types.Goal) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}

	var deadline sql.NullTime
	if g.Deadline != nil {
		deadline = sql.NullTime{Time: *g.Deadline, Valid: true}
	}

	_, err := r.db.Exec(`INSERT INTO goals (id, name, deadline, category, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		g.ID, g.Name, deadline, string(g.Category), g.CreatedAt)
	if err != nil {
		return apperrors.NewInternalError("failed to insert goal", err)
	}
	return nil
}

const goalColumns = `g.id, g.name, g.deadline, g.category, g.created_at,
	COUNT(t.id), COALESCE(SUM(t.completed), 0)`

// GetGoal returns the goal with its task progress counts.
func (r *Repository) GetGoal(id string) (types.Goal, error) {
	row := r.db.QueryRow(`SELECT `+goalColumns+` FROM goals g
		LEFT JOIN tasks t ON t.goal_id = g.id
		WHERE g.id = ? GROUP BY g.id`, id)
	g, err := scanGoal(row)
	if err == sql.ErrNoRows {
		return types.Goal{}, apperrors.NewNotFoundError("goal", id)
	}
	if err != nil {
		return types.Goal{}, apperrors.NewInternalError("failed to load goal", err)
	}
	return g, nil
}

// DeleteGoal removes the goal but leaves referencing tasks alone; their
// goal_id becomes a dangling weak reference by design of the scoring rules.
func (r *Repository) DeleteGoal(id string) error {
	res, err := r.db.Exec(`DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return apperrors.NewInternalError("failed to delete goal", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NewNotFoundError("goal", id)
	}
	return nil
}

// ListGoals returns all goals with task progress, oldest first.
func (r *Repository) ListGoals() ([]types.Goal, error) {
	rows, err := r.db.Query(`SELECT ` + goalColumns + ` FROM goals g
		LEFT JOIN tasks t ON t.goal_id = g.id
		GROUP BY g.id ORDER BY g.created_at`)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list goals", err)
	}
	defer rows.Close()

	var goals []types.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan goal", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func scanGoal(row rowScanner) (types.Goal, error) {
	var g types.Goal
	var deadline sql.NullTime
	err := row.Scan(&g.ID, &g.Name, &deadline, &g.Category, &g.CreatedAt,
		&g.TotalTasks, &g.CompletedTasks)
	if err != nil {
		return types.Goal{}, err
	}
	if deadline.Valid {
		d := deadline.Time
		g.Deadline = &d
	}
	return g, nil
}

// Lookup resolves a goal reference for the scorers. A dangling or empty id
// reports false rather than an error.
func (r *Repository) Lookup(goalID string) (types.Goal, bool) {
	if goalID == "" {
		return types.Goal{}, false
	}
	g, err := r.GetGoal(goalID)
	if err != nil {
		return types.Goal{}, false
	}
	return g, true
}

// PutSleepRecord upserts the night keyed by its date.
func (r *Repository) PutSleepRecord(rec types.SleepRecord) error {
	_, err := r.db.Exec(`INSERT INTO sleep_records (date, sleep_time, wake_time, quality)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			sleep_time = excluded.sleep_time,
			wake_time = excluded.wake_time,
			quality = excluded.quality`,
		rec.Date, rec.SleepTime, rec.WakeTime, rec.Quality)
	if err != nil {
		return apperrors.NewInternalError("failed to upsert sleep record", err)
	}
	return nil
}

// GetSleepRecords returns nights in the inclusive date range, oldest first.
func (r *Repository) GetSleepRecords(from, to string) ([]types.SleepRecord, error) {
	from, to = dateBounds(from, to)
	rows, err := r.db.Query(`SELECT date, sleep_time, wake_time, quality
		FROM sleep_records WHERE date >= ? AND date <= ? ORDER BY date`, from, to)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list sleep records", err)
	}
	defer rows.Close()

	var recs []types.SleepRecord
	for rows.Next() {
		var rec types.SleepRecord
		if err := rows.Scan(&rec.Date, &rec.SleepTime, &rec.WakeTime, &rec.Quality); err != nil {
			return nil, apperrors.NewInternalError("failed to scan sleep record", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// AddAttendanceRecord appends an on-time flag for the date; the sequence
// number carries the ordering the consistency metrics depend on.
func (r *Repository) AddAttendanceRecord(date string, onTime bool) (types.AttendanceRecord, error) {
	res, err := r.db.Exec(`INSERT INTO attendance_records (date, on_time) VALUES (?, ?)`,
		date, onTime)
	if err != nil {
		return types.AttendanceRecord{}, apperrors.NewInternalError("failed to insert attendance record", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return types.AttendanceRecord{}, apperrors.NewInternalError("failed to read attendance sequence", err)
	}
	return types.AttendanceRecord{Seq: seq, OnTime: onTime}, nil
}

// GetAttendanceRecords returns flags in the inclusive date range in insertion
// order.
func (r *Repository) GetAttendanceRecords(from, to string) ([]types.AttendanceRecord, error) {
	from, to = dateBounds(from, to)
	rows, err := r.db.Query(`SELECT seq, on_time FROM attendance_records
		WHERE date >= ? AND date <= ? ORDER BY seq`, from, to)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list attendance records", err)
	}
	defer rows.Close()

	var recs []types.AttendanceRecord
	for rows.Next() {
		var rec types.AttendanceRecord
		if err := rows.Scan(&rec.Seq, &rec.OnTime); err != nil {
			return nil, apperrors.NewInternalError("failed to scan attendance record", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// PutScoreRecord upserts the derived row for its date. Re-scoring a day
// replaces the previous row, so the call is idempotent per date.
func (r *Repository) PutScoreRecord(rec types.ScoreRecord) error {
	_, err := r.db.Exec(`INSERT INTO score_records
		(date, effort, duration, quality, goal, rhythm, composite, task_count, profile, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			effort = excluded.effort,
			duration = excluded.duration,
			quality = excluded.quality,
			goal = excluded.goal,
			rhythm = excluded.rhythm,
			composite = excluded.composite,
			task_count = excluded.task_count,
			profile = excluded.profile,
			updated_at = excluded.updated_at`,
		rec.Date, rec.Effort, rec.Duration, rec.Quality, rec.Goal, rec.Rhythm,
		rec.Composite, rec.TaskCount, rec.Profile, rec.UpdatedAt)
	if err != nil {
		return apperrors.NewInternalError("failed to upsert score record", err)
	}
	return nil
}

// GetScoreRecord returns the stored score for one date.
func (r *Repository) GetScoreRecord(date string) (types.ScoreRecord, error) {
	row := r.db.QueryRow(`SELECT date, effort, duration, quality, goal, rhythm,
		composite, task_count, profile, updated_at
		FROM score_records WHERE date = ?`, date)
	var rec types.ScoreRecord
	err := row.Scan(&rec.Date, &rec.Effort, &rec.Duration, &rec.Quality,
		&rec.Goal, &rec.Rhythm, &rec.Composite, &rec.TaskCount, &rec.Profile,
		&rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return types.ScoreRecord{}, apperrors.NewNotFoundError("score record", date)
	}
	if err != nil {
		return types.ScoreRecord{}, apperrors.NewInternalError("failed to load score record", err)
	}
	return rec, nil
}

// ScoreHistory returns stored scores in the inclusive date range, oldest
// first.
func (r *Repository) ScoreHistory(from, to string) ([]types.ScoreRecord, error) {
	from, to = dateBounds(from, to)
	rows, err := r.db.Query(`SELECT date, effort, duration, quality, goal, rhythm,
		composite, task_count, profile, updated_at
		FROM score_records WHERE date >= ? AND date <= ? ORDER BY date`, from, to)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list score records", err)
	}
	defer rows.Close()

	var recs []types.ScoreRecord
	for rows.Next() {
		var rec types.ScoreRecord
		if err := rows.Scan(&rec.Date, &rec.Effort, &rec.Duration, &rec.Quality,
			&rec.Goal, &rec.Rhythm, &rec.Composite, &rec.TaskCount, &rec.Profile,
			&rec.UpdatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan score record", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
