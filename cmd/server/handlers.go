package main

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prodpulse/prodmeter/internal/analytics"
	"github.com/prodpulse/prodmeter/internal/cache"
	"github.com/prodpulse/prodmeter/internal/config"
	"github.com/prodpulse/prodmeter/internal/database"
	apperrors "github.com/prodpulse/prodmeter/internal/errors"
	"github.com/prodpulse/prodmeter/internal/rhythm"
	"github.com/prodpulse/prodmeter/internal/scoring"
	"github.com/prodpulse/prodmeter/internal/types"
)

// server bundles the request handlers with their collaborators. The weight
// vector is the only mutable piece of scoring configuration, so it sits
// behind its own mutex.
type server struct {
	cfg   config.Config
	repo  *database.Repository
	cache *cache.ScoreCache

	weightsMu sync.RWMutex
	weights   scoring.Weights
}

func newServer(cfg config.Config, repo *database.Repository, scores *cache.ScoreCache) *server {
	return &server{
		cfg:     cfg,
		repo:    repo,
		cache:   scores,
		weights: cfg.Weights.Clone(),
	}
}

func (s *server) currentWeights() scoring.Weights {
	s.weightsMu.RLock()
	defer s.weightsMu.RUnlock()
	return s.weights.Clone()
}

func (s *server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"cached_scores": s.cache.Size(),
	})
}

// --- tasks ---

func (s *server) createTask(c *gin.Context) {
	var task types.Task
	if err := c.ShouldBindJSON(&task); err != nil {
		c.Error(apperrors.NewValidationError("invalid task body", err))
		return
	}
	if err := validateTask(task); err != nil {
		c.Error(err)
		return
	}
	if err := s.repo.CreateTask(&task); err != nil {
		c.Error(err)
		return
	}
	s.cache.Invalidate(task.Date)
	c.JSON(http.StatusCreated, task)
}

func (s *server) getTask(c *gin.Context) {
	task, err := s.repo.GetTask(c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *server) updateTask(c *gin.Context) {
	id := c.Param("id")
	existing, err := s.repo.GetTask(id)
	if err != nil {
		c.Error(err)
		return
	}

	var task types.Task
	if err := c.ShouldBindJSON(&task); err != nil {
		c.Error(apperrors.NewValidationError("invalid task body", err))
		return
	}
	task.ID = id
	task.CreatedAt = existing.CreatedAt
	if err := validateTask(task); err != nil {
		c.Error(err)
		return
	}
	if err := s.repo.UpdateTask(&task); err != nil {
		c.Error(err)
		return
	}
	// a moved task dirties both days
	s.cache.Invalidate(existing.Date)
	s.cache.Invalidate(task.Date)
	c.JSON(http.StatusOK, task)
}

func (s *server) deleteTask(c *gin.Context) {
	id := c.Param("id")
	existing, err := s.repo.GetTask(id)
	if err != nil {
		c.Error(err)
		return
	}
	if err := s.repo.DeleteTask(id); err != nil {
		c.Error(err)
		return
	}
	s.cache.Invalidate(existing.Date)
	c.Status(http.StatusNoContent)
}

func (s *server) listTasks(c *gin.Context) {
	from, to, err := dateRange(c)
	if err != nil {
		c.Error(err)
		return
	}
	tasks, err := s.repo.ListTasks(from, to)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
}

func validateTask(t types.Task) error {
	if t.Title == "" {
		return apperrors.NewValidationError("task title is required", nil)
	}
	if _, err := types.ParseDate(t.Date); err != nil {
		return apperrors.NewValidationError("task date must be YYYY-MM-DD", err)
	}
	if t.DurationMinutes < 0 {
		return apperrors.NewValidationError("task duration cannot be negative", nil)
	}
	return nil
}

// --- goals ---

func (s *server) createGoal(c *gin.Context) {
	var goal types.Goal
	if err := c.ShouldBindJSON(&goal); err != nil {
		c.Error(apperrors.NewValidationError("invalid goal body", err))
		return
	}
	if goal.Name == "" {
		c.Error(apperrors.NewValidationError("goal name is required", nil))
		return
	}
	if err := s.repo.CreateGoal(&goal); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, goal)
}

func (s *server) getGoal(c *gin.Context) {
	goal, err := s.repo.GetGoal(c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

func (s *server) deleteGoal(c *gin.Context) {
	if err := s.repo.DeleteGoal(c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) listGoals(c *gin.Context) {
	goals, err := s.repo.ListGoals()
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goals": goals, "count": len(goals)})
}

// --- sleep & attendance ---

func (s *server) putSleepRecord(c *gin.Context) {
	var rec types.SleepRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.Error(apperrors.NewValidationError("invalid sleep record body", err))
		return
	}
	if _, err := types.ParseDate(rec.Date); err != nil {
		c.Error(apperrors.NewValidationError("sleep record date must be YYYY-MM-DD", err))
		return
	}
	if _, ok := types.ParseClock(rec.SleepTime); !ok {
		c.Error(apperrors.NewValidationError("sleep_time must be HH:MM", nil))
		return
	}
	if _, ok := types.ParseClock(rec.WakeTime); !ok {
		c.Error(apperrors.NewValidationError("wake_time must be HH:MM", nil))
		return
	}
	if err := s.repo.PutSleepRecord(rec); err != nil {
		c.Error(err)
		return
	}
	s.cache.Invalidate(rec.Date)
	c.JSON(http.StatusOK, rec)
}

func (s *server) listSleepRecords(c *gin.Context) {
	from, to, err := dateRange(c)
	if err != nil {
		c.Error(err)
		return
	}
	recs, err := s.repo.GetSleepRecords(from, to)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sleep_records": recs, "count": len(recs)})
}

func (s *server) addAttendanceRecord(c *gin.Context) {
	var body struct {
		Date   string `json:"date"`
		OnTime bool   `json:"on_time"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.Error(apperrors.NewValidationError("invalid attendance body", err))
		return
	}
	if _, err := types.ParseDate(body.Date); err != nil {
		c.Error(apperrors.NewValidationError("attendance date must be YYYY-MM-DD", err))
		return
	}
	rec, err := s.repo.AddAttendanceRecord(body.Date, body.OnTime)
	if err != nil {
		c.Error(err)
		return
	}
	s.cache.Invalidate(body.Date)
	c.JSON(http.StatusCreated, rec)
}

func (s *server) listAttendanceRecords(c *gin.Context) {
	from, to, err := dateRange(c)
	if err != nil {
		c.Error(err)
		return
	}
	recs, err := s.repo.GetAttendanceRecords(from, to)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendance_records": recs, "count": len(recs)})
}

// --- scoring ---

type scoreDayRequest struct {
	Date    string `json:"date"`
	Profile string `json:"profile,omitempty"`
}

func (s *server) scoreDay(c *gin.Context) {
	var req scoreDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewValidationError("invalid score request body", err))
		return
	}
	if _, err := types.ParseDate(req.Date); err != nil {
		c.Error(apperrors.NewValidationError("date must be YYYY-MM-DD", err))
		return
	}
	// an unset request profile means "score under the configured profile"
	profileTag := req.Profile
	if profileTag == "" {
		profileTag = string(s.cfg.Profile)
	}
	profile, ok := scoring.ParseProfile(profileTag)
	if !ok {
		c.Error(apperrors.NewValidationError("unknown scoring profile", nil))
		return
	}

	// cached records only serve requests that keep the configured profile
	if profile == s.cfg.Profile {
		if rec, hit := s.cache.Get(req.Date); hit {
			c.JSON(http.StatusOK, gin.H{"score": rec, "cached": true})
			return
		}
	}

	rec, rhythmRes, err := s.computeDay(req.Date, profile)
	if err != nil {
		c.Error(err)
		return
	}

	if err := s.repo.PutScoreRecord(rec); err != nil {
		c.Error(err)
		return
	}
	if profile == s.cfg.Profile {
		s.cache.Set(rec)
	}

	slog.Info("day scored",
		"date", rec.Date,
		"profile", rec.Profile,
		"composite", rec.Composite,
		"tasks", rec.TaskCount)

	resp := gin.H{"score": rec}
	if rhythmRes != nil {
		resp["rhythm"] = rhythmRes
	}
	c.JSON(http.StatusOK, resp)
}

// computeDay assembles the day's tasks plus a trailing window of rhythm
// context and runs the pure engine.
func (s *server) computeDay(date string, profile scoring.Profile) (types.ScoreRecord, *rhythm.Result, error) {
	tasks, err := s.repo.ListTasks(date, date)
	if err != nil {
		return types.ScoreRecord{}, nil, err
	}

	day, _ := types.ParseDate(date)
	windowStart := day.AddDate(0, 0, -s.cfg.RhythmWindowDays).Format("2006-01-02")

	sleep, err := s.repo.GetSleepRecords(windowStart, date)
	if err != nil {
		return types.ScoreRecord{}, nil, err
	}
	attendance, err := s.repo.GetAttendanceRecords(windowStart, date)
	if err != nil {
		return types.ScoreRecord{}, nil, err
	}
	windowTasks, err := s.repo.ListTasks(windowStart, date)
	if err != nil {
		return types.ScoreRecord{}, nil, err
	}

	in := rhythm.Input{
		Sleep:           sleep,
		Tasks:           windowTasks,
		ActivityMinutes: activityMinutes(windowTasks),
	}
	for _, rec := range attendance {
		in.Attendance = append(in.Attendance, rec.OnTime)
	}

	var rhythmRes *rhythm.Result
	var dayRhythm *float64
	if in.HasData() {
		res := rhythm.Analyze(in, s.cfg.Rhythm)
		rhythmRes = &res
		dayRhythm = &res.Composite
	}

	rec, err := scoring.ScoreDay(scoring.DayInput{
		Date:    date,
		Tasks:   tasks,
		Lookup:  s.repo.Lookup,
		Now:     time.Now().UTC(),
		Profile: profile,
		Weights: s.currentWeights(),
		Rhythm:  dayRhythm,
	})
	if err != nil {
		return types.ScoreRecord{}, nil, err
	}
	return rec, rhythmRes, nil
}

// activityMinutes collects the clock positions of task activity for the
// circadian sub-score, preferring the actual start over the planned slot.
func activityMinutes(tasks []types.Task) []int {
	var minutes []int
	for _, t := range tasks {
		for _, clock := range []string{t.ActualStart, t.Time} {
			if m, ok := types.ParseClock(clock); ok {
				minutes = append(minutes, m)
				break
			}
		}
	}
	return minutes
}

func (s *server) scoreHistory(c *gin.Context) {
	from, to, err := dateRange(c)
	if err != nil {
		c.Error(err)
		return
	}
	history, err := s.repo.ScoreHistory(from, to)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scores": history, "count": len(history)})
}

// --- analytics ---

func (s *server) compositeSeries(c *gin.Context) ([]types.ScoreRecord, []float64, error) {
	from, to, err := dateRange(c)
	if err != nil {
		return nil, nil, err
	}
	history, err := s.repo.ScoreHistory(from, to)
	if err != nil {
		return nil, nil, err
	}
	series := make([]float64, len(history))
	for i, rec := range history {
		series[i] = rec.Composite
	}
	return history, series, nil
}

func (s *server) analyticsTrend(c *gin.Context) {
	_, series, err := s.compositeSeries(c)
	if err != nil {
		c.Error(err)
		return
	}
	res := analytics.Trend(series)
	c.JSON(http.StatusOK, gin.H{"trend": res, "points": len(series)})
}

// weekEntries chunks the chronological composite series into week-sized
// entries, the unit the anomaly and blend estimators work on.
func weekEntries(series []float64) [][]float64 {
	var entries [][]float64
	for start := 0; start < len(series); start += 7 {
		end := start + 7
		if end > len(series) {
			end = len(series)
		}
		entries = append(entries, series[start:end])
	}
	return entries
}

func (s *server) analyticsAnomalies(c *gin.Context) {
	method, err := analytics.ParseAnomalyMethod(c.Query("method"))
	if err != nil {
		c.Error(apperrors.NewValidationError(err.Error(), err))
		return
	}
	history, series, err := s.compositeSeries(c)
	if err != nil {
		c.Error(err)
		return
	}

	entries := weekEntries(series)
	flagged, err := analytics.Anomalies(entries, method)
	if err != nil {
		c.Error(apperrors.NewValidationError(err.Error(), err))
		return
	}

	// report the first date of each flagged week for readability
	weeks := make([]gin.H, 0, len(flagged))
	for _, idx := range flagged {
		weeks = append(weeks, gin.H{
			"week_index": idx,
			"start_date": history[idx*7].Date,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"method":    string(method),
		"anomalies": weeks,
		"weeks":     len(entries),
	})
}

func (s *server) analyticsBlend(c *gin.Context) {
	method, err := analytics.ParseBlendMethod(c.Query("method"))
	if err != nil {
		c.Error(apperrors.NewValidationError(err.Error(), err))
		return
	}
	history, series, err := s.compositeSeries(c)
	if err != nil {
		c.Error(err)
		return
	}

	entries := weekEntries(series)
	estimates := make([]gin.H, 0, len(entries))
	for i, entry := range entries {
		est, err := analytics.Blend(entry, method)
		if err != nil {
			c.Error(err)
			return
		}
		estimates = append(estimates, gin.H{
			"week_index": i,
			"start_date": history[i*7].Date,
			"estimate":   est,
		})
	}
	c.JSON(http.StatusOK, gin.H{"method": string(method), "estimates": estimates})
}

func (s *server) analyticsReliability(c *gin.Context) {
	history, _, err := s.compositeSeries(c)
	if err != nil {
		c.Error(err)
		return
	}

	matrix := make([][]float64, len(history))
	for i, rec := range history {
		matrix[i] = []float64{rec.Effort, rec.Duration, rec.Quality, rec.Goal, rec.Rhythm}
	}
	c.JSON(http.StatusOK, gin.H{
		"cronbach_alpha": analytics.CronbachAlpha(matrix),
		"days":           len(history),
	})
}

// --- weights ---

func (s *server) getWeights(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"weights": s.currentWeights()})
}

func (s *server) putWeights(c *gin.Context) {
	var weights scoring.Weights
	if err := c.ShouldBindJSON(&weights); err != nil {
		c.Error(apperrors.NewValidationError("invalid weights body", err))
		return
	}
	if err := weights.Validate(); err != nil {
		c.Error(apperrors.NewValidationError("weights need at least one positive entry", err))
		return
	}
	normalized := weights.Normalize()

	s.weightsMu.Lock()
	s.weights = normalized
	s.weightsMu.Unlock()

	// stored day scores were computed under the old vector
	s.cache.Clear()

	slog.Info("scoring weights updated", "weights", normalized)
	c.JSON(http.StatusOK, gin.H{"weights": normalized})
}

func dateRange(c *gin.Context) (string, string, error) {
	from := c.Query("from")
	to := c.Query("to")
	if from != "" {
		if _, err := types.ParseDate(from); err != nil {
			return "", "", apperrors.NewValidationError("from must be YYYY-MM-DD", err)
		}
	}
	if to != "" {
		if _, err := types.ParseDate(to); err != nil {
			return "", "", apperrors.NewValidationError("to must be YYYY-MM-DD", err)
		}
	}
	return from, to, nil
}
