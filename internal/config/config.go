// Package config loads service configuration from the environment with
// defaults that work out of the box for local use.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	apperrors "github.com/prodpulse/prodmeter/internal/errors"
	"github.com/prodpulse/prodmeter/internal/rhythm"
	"github.com/prodpulse/prodmeter/internal/scoring"
	"github.com/prodpulse/prodmeter/internal/types"
)

// Config is the fully resolved service configuration.
type Config struct {
	Port    string
	DataDir string

	Profile scoring.Profile
	Weights scoring.Weights
	Rhythm  rhythm.Config

	// RhythmWindowDays is how far back the day scorer reaches for sleep,
	// attendance, and task history when building the rhythm input.
	RhythmWindowDays int

	RateLimitPerSecond float64
	RateLimitBurst     int
	CacheTTL           time.Duration
}

// Load reads the environment and validates everything that can be malformed:
// clock times, the profile name, numeric overrides, and the weight vector.
func Load() (Config, error) {
	cfg := Config{
		Port:             getEnvOrDefault("PORT", "8080"),
		DataDir:          getEnvOrDefault("DATA_DIR", "./data"),
		Rhythm:           rhythm.DefaultConfig(),
		RhythmWindowDays: 30,
	}

	profile, ok := scoring.ParseProfile(os.Getenv("SCORE_PROFILE"))
	if !ok {
		return Config{}, apperrors.NewConfigurationError(
			fmt.Sprintf("unknown SCORE_PROFILE %q", os.Getenv("SCORE_PROFILE")), nil)
	}
	cfg.Profile = profile

	weights, err := loadWeights()
	if err != nil {
		return Config{}, err
	}
	cfg.Weights = weights

	if v := os.Getenv("IDEAL_SLEEP_TIME"); v != "" {
		if _, ok := types.ParseClock(v); !ok {
			return Config{}, apperrors.NewConfigurationError(
				fmt.Sprintf("IDEAL_SLEEP_TIME %q is not an HH:MM clock time", v), nil)
		}
		cfg.Rhythm.IdealSleepTime = v
	}
	if v := os.Getenv("IDEAL_WAKE_TIME"); v != "" {
		if _, ok := types.ParseClock(v); !ok {
			return Config{}, apperrors.NewConfigurationError(
				fmt.Sprintf("IDEAL_WAKE_TIME %q is not an HH:MM clock time", v), nil)
		}
		cfg.Rhythm.IdealWakeTime = v
	}
	if v := os.Getenv("REWARD_WEEKLY_REGULARITY"); v != "" {
		reward, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, apperrors.NewConfigurationError("invalid REWARD_WEEKLY_REGULARITY", err)
		}
		cfg.Rhythm.RewardWeeklyRegularity = reward
	}

	if cfg.RhythmWindowDays, err = intEnv("RHYTHM_WINDOW_DAYS", cfg.RhythmWindowDays); err != nil {
		return Config{}, err
	}
	if cfg.RhythmWindowDays < 1 {
		return Config{}, apperrors.NewConfigurationError("RHYTHM_WINDOW_DAYS must be at least 1", nil)
	}

	if cfg.RateLimitPerSecond, err = floatEnv("RATE_LIMIT_PER_SECOND", 10); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitBurst, err = intEnv("RATE_LIMIT_BURST", 20); err != nil {
		return Config{}, err
	}
	if cfg.CacheTTL, err = durationEnv("CACHE_TTL", 5*time.Minute); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// loadWeights starts from the profile defaults and applies per-component
// WEIGHT_* overrides, then normalizes so overrides need not sum to one.
func loadWeights() (scoring.Weights, error) {
	weights := scoring.DefaultRhythm5Weights()

	overrides := map[string]string{
		scoring.ComponentEffort:   "WEIGHT_EFFORT",
		scoring.ComponentDuration: "WEIGHT_DURATION",
		scoring.ComponentQuality:  "WEIGHT_QUALITY",
		scoring.ComponentGoal:     "WEIGHT_GOAL",
		scoring.ComponentRhythm:   "WEIGHT_RHYTHM",
	}

	overridden := false
	for component, key := range overrides {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		w, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("invalid %s", key), err)
		}
		weights[component] = w
		overridden = true
	}

	if overridden {
		if err := weights.Validate(); err != nil {
			return nil, apperrors.NewConfigurationError("invalid weight overrides", err)
		}
		weights = weights.Normalize()
	}
	return weights, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func intEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperrors.NewConfigurationError(fmt.Sprintf("invalid %s", key), err)
	}
	return n, nil
}

func floatEnv(key string, defaultValue float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, apperrors.NewConfigurationError(fmt.Sprintf("invalid %s", key), err)
	}
	return f, nil
}

func durationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, apperrors.NewConfigurationError(fmt.Sprintf("invalid %s", key), err)
	}
	return d, nil
}
