package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodpulse/prodmeter/internal/cache"
	"github.com/prodpulse/prodmeter/internal/config"
	"github.com/prodpulse/prodmeter/internal/database"
	"github.com/prodpulse/prodmeter/internal/rhythm"
	"github.com/prodpulse/prodmeter/internal/scoring"
)

func newTestRouter(t *testing.T) *gin.Engine {
	return newTestRouterWithProfile(t, scoring.ProfileAuto)
}

func newTestRouterWithProfile(t *testing.T, profile scoring.Profile) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	scores := cache.NewScoreCache(time.Minute)
	t.Cleanup(scores.Close)

	cfg := config.Config{
		Port:             "0",
		Profile:          profile,
		Weights:          scoring.DefaultRhythm5Weights(),
		Rhythm:           rhythm.DefaultConfig(),
		RhythmWindowDays: 30,
		CacheTTL:         time.Minute,
	}
	srv := newServer(cfg, database.NewRepository(db), scores)
	return newRouter(srv, nil)
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)
	w := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])
}

func TestTaskLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/tasks", map[string]interface{}{
		"title":            "deep work block",
		"priority":         "high",
		"category":         "work",
		"date":             "2026-03-10",
		"duration_minutes": 90,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decodeBody(t, w)["id"].(string)
	require.NotEmpty(t, id)

	w = doJSON(t, router, http.MethodGet, "/api/v1/tasks/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "deep work block", decodeBody(t, w)["title"])

	w = doJSON(t, router, http.MethodPut, "/api/v1/tasks/"+id, map[string]interface{}{
		"title":             "deep work block",
		"priority":          "high",
		"category":          "work",
		"date":              "2026-03-10",
		"duration_minutes":  90,
		"completed":         true,
		"completed_on_time": true,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["completed"])

	w = doJSON(t, router, http.MethodDelete, "/api/v1/tasks/"+id, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/tasks/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskValidationOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing title", map[string]interface{}{"date": "2026-03-10"}},
		{"bad date", map[string]interface{}{"title": "x", "date": "March 10"}},
		{"negative duration", map[string]interface{}{"title": "x", "date": "2026-03-10", "duration_minutes": -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/api/v1/tasks", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestScoreDayEndToEnd(t *testing.T) {
	router := newTestRouter(t)

	for i, task := range []map[string]interface{}{
		{"title": "review", "priority": "high", "category": "work", "duration_minutes": 60, "completed": true, "completed_on_time": true},
		{"title": "gym", "priority": "medium", "category": "fitness", "duration_minutes": 45, "completed": true},
		{"title": "reading", "priority": "low", "category": "learning", "duration_minutes": 30},
	} {
		task["date"] = "2026-03-10"
		task["time"] = fmt.Sprintf("%02d:00", 9+i)
		w := doJSON(t, router, http.MethodPost, "/api/v1/tasks", task)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(t, router, http.MethodPost, "/api/v1/sleep", map[string]interface{}{
		"date": "2026-03-09", "sleep_time": "23:00", "wake_time": "07:00", "quality": 4,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/scores/day", map[string]interface{}{
		"date": "2026-03-10",
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)

	score := body["score"].(map[string]interface{})
	assert.Equal(t, "2026-03-10", score["date"])
	assert.Equal(t, float64(3), score["task_count"])
	// sleep context present, so auto resolves to the five-component profile
	assert.Equal(t, "rhythm-5", score["profile"])
	composite := score["composite"].(float64)
	assert.Greater(t, composite, 0.0)
	assert.LessOrEqual(t, composite, 100.0)
	assert.Contains(t, body, "rhythm")

	// second call comes from the cache
	w = doJSON(t, router, http.MethodPost, "/api/v1/scores/day", map[string]interface{}{
		"date": "2026-03-10",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["cached"])

	// the record was persisted and shows up in history
	w = doJSON(t, router, http.MethodGet, "/api/v1/scores?from=2026-03-01&to=2026-03-31", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["count"])
}

func TestScoreDayWithoutRhythmDataUsesClassic4(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/scores/day", map[string]interface{}{
		"date": "2026-03-10",
	})
	require.Equal(t, http.StatusOK, w.Code)
	score := decodeBody(t, w)["score"].(map[string]interface{})
	assert.Equal(t, "classic-4", score["profile"])
	assert.Equal(t, float64(0), score["task_count"])
}

func TestScoreDayExplicitClassic4UsesFourComponents(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/tasks", map[string]interface{}{
		"title": "deep work", "priority": "high", "category": "work",
		"date": "2026-03-10", "duration_minutes": 120,
		"completed": true, "completed_on_time": true,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/scores/day", map[string]interface{}{
		"date": "2026-03-10", "profile": "classic-4",
	})
	require.Equal(t, http.StatusOK, w.Code)
	score := decodeBody(t, w)["score"].(map[string]interface{})
	require.Equal(t, "classic-4", score["profile"])

	// the composite is the weighted mean of the four scored components; the
	// configured five-component vector's rhythm share must not dilute it
	e := score["effort"].(float64)
	d := score["duration"].(float64)
	q := score["quality"].(float64)
	g := score["goal"].(float64)
	want := (0.20*e + 0.20*d + 0.25*q + 0.20*g) / 0.85
	assert.InDelta(t, want, score["composite"].(float64), 1e-6)
	assert.Equal(t, float64(0), score["rhythm"])
}

func TestConfiguredProfileAppliesWhenRequestOmitsIt(t *testing.T) {
	router := newTestRouterWithProfile(t, scoring.ProfileClassic4)

	w := doJSON(t, router, http.MethodPost, "/api/v1/tasks", map[string]interface{}{
		"title": "review", "priority": "high", "category": "work",
		"date": "2026-03-10", "duration_minutes": 60, "completed": true,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// sleep context would steer auto to rhythm-5; the configured classic-4
	// profile must win when the request leaves the profile unset
	w = doJSON(t, router, http.MethodPost, "/api/v1/sleep", map[string]interface{}{
		"date": "2026-03-09", "sleep_time": "23:00", "wake_time": "07:00", "quality": 4,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/scores/day", map[string]interface{}{
		"date": "2026-03-10",
	})
	require.Equal(t, http.StatusOK, w.Code)
	score := decodeBody(t, w)["score"].(map[string]interface{})
	assert.Equal(t, "classic-4", score["profile"])

	// and the cache serves the follow-up request under the same profile
	w = doJSON(t, router, http.MethodPost, "/api/v1/scores/day", map[string]interface{}{
		"date": "2026-03-10",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["cached"])
}

func TestTaskMutationInvalidatesCachedScore(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/tasks", map[string]interface{}{
		"title": "a", "date": "2026-03-10", "duration_minutes": 60, "completed": true,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/scores/day", map[string]interface{}{"date": "2026-03-10"})
	require.Equal(t, http.StatusOK, w.Code)
	first := decodeBody(t, w)["score"].(map[string]interface{})["composite"].(float64)

	w = doJSON(t, router, http.MethodPost, "/api/v1/tasks", map[string]interface{}{
		"title": "b", "priority": "high", "category": "work", "date": "2026-03-10",
		"duration_minutes": 120, "completed": true, "completed_on_time": true,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/scores/day", map[string]interface{}{"date": "2026-03-10"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.NotContains(t, body, "cached")
	second := body["score"].(map[string]interface{})
	assert.Equal(t, float64(2), second["task_count"])
	assert.NotEqual(t, first, second["composite"])
}

func TestWeightsEndpoints(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/v1/config/weights", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPut, "/api/v1/config/weights", map[string]float64{
		"effort": 2, "duration": 1, "quality": 1, "goal": 1, "rhythm": 1,
	})
	require.Equal(t, http.StatusOK, w.Code)
	weights := decodeBody(t, w)["weights"].(map[string]interface{})
	sum := 0.0
	for _, v := range weights {
		sum += v.(float64)
	}
	assert.InDelta(t, 1, sum, 1e-9)

	w = doJSON(t, router, http.MethodPut, "/api/v1/config/weights", map[string]float64{
		"effort": 0, "duration": 0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyticsEndpoints(t *testing.T) {
	router := newTestRouter(t)

	// two weeks of improving scores followed by one anomalous day
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 14; i++ {
		date := day.AddDate(0, 0, i).Format("2006-01-02")
		w := doJSON(t, router, http.MethodPost, "/api/v1/tasks", map[string]interface{}{
			"title": "t", "priority": "high", "category": "work", "date": date,
			"duration_minutes": 60 + float64(i)*5, "completed": true, "completed_on_time": true,
		})
		require.Equal(t, http.StatusCreated, w.Code)
		w = doJSON(t, router, http.MethodPost, "/api/v1/scores/day", map[string]interface{}{"date": date})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(t, router, http.MethodGet, "/api/v1/analytics/trend", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(14), body["points"])
	assert.Contains(t, body["trend"].(map[string]interface{}), "direction")

	for _, method := range []string{"cusum", "iqr", "ensemble", "isolation"} {
		w = doJSON(t, router, http.MethodGet, "/api/v1/analytics/anomalies?method="+method, nil)
		require.Equal(t, http.StatusOK, w.Code, method)
	}
	w = doJSON(t, router, http.MethodGet, "/api/v1/analytics/anomalies?method=dbscan", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, method := range []string{"mean", "variance", "shrinkage", "adam", "pso", "bayesian"} {
		w = doJSON(t, router, http.MethodGet, "/api/v1/analytics/blend?method="+method, nil)
		require.Equal(t, http.StatusOK, w.Code, method)
		estimates := decodeBody(t, w)["estimates"].([]interface{})
		assert.Len(t, estimates, 2, method)
	}

	w = doJSON(t, router, http.MethodGet, "/api/v1/analytics/reliability", nil)
	require.Equal(t, http.StatusOK, w.Code)
	alpha := decodeBody(t, w)["cronbach_alpha"].(float64)
	assert.GreaterOrEqual(t, alpha, 0.0)
	assert.LessOrEqual(t, alpha, 1.0)
}
