package rhythm

import (
	"math"
	"sort"

	"github.com/prodpulse/prodmeter/internal/numeric"
	"github.com/prodpulse/prodmeter/internal/types"
)

// window thresholds for the optional task-consistency terms
const (
	trendMinPoints       = 8
	periodicityMinPoints = 15
	weeklyLag            = 7
)

// DailyCompletionRatios groups tasks by calendar date and returns each day's
// completion ratio in date order.
func DailyCompletionRatios(tasks []types.Task) []float64 {
	if len(tasks) == 0 {
		return nil
	}
	totals := map[string]int{}
	done := map[string]int{}
	for _, t := range tasks {
		totals[t.Date]++
		if t.Completed {
			done[t.Date]++
		}
	}

	dates := make([]string, 0, len(totals))
	for d := range totals {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	ratios := make([]float64, len(dates))
	for i, d := range dates {
		ratios[i] = float64(done[d]) / float64(totals[d])
	}
	return ratios
}

// TaskConsistencyScore rates how stable the daily completion ratio is.
// Lower day-to-day variability means a higher base score. With at least 8
// days a positive completion trend earns a bonus, and with at least 15 days a
// 7-day-lag periodicity term joins:
//
//	base        = 1/(1+exp(5*(cv-0.5)))
//	trend       = tanh(10*slope), counted only when positive
//	periodicity = 1 - meanAbsDiffAtLag7
//	score       = 0.5*base + 0.3*periodicity + 0.2*max(0,trend)
//
// Note the periodicity orientation: the 1-metric form means similar
// week-over-week ratios raise the score. Config.RewardWeeklyRegularity=false
// keeps this historical form; setting it inverts the term to metric, which
// penalizes 7-day sameness instead.
func TaskConsistencyScore(tasks []types.Task, cfg Config) float64 {
	ratios := DailyCompletionRatios(tasks)
	if len(ratios) < 2 {
		return neutralScore
	}

	cv := numeric.CoefVar(ratios)
	base := numeric.Sigmoid(5 * (0.5 - cv))

	trend := 0.0
	if len(ratios) >= trendMinPoints {
		trend = math.Tanh(10 * numeric.TrendSlope(ratios))
	}

	periodicity := 0.0
	if len(ratios) >= periodicityMinPoints {
		metric := weeklyLagDifference(ratios)
		if cfg.RewardWeeklyRegularity {
			periodicity = numeric.Clamp01(metric)
		} else {
			periodicity = numeric.Clamp01(1 - metric)
		}
	}

	return numeric.Clamp01(0.5*base + 0.3*periodicity + 0.2*math.Max(0, trend))
}

// weeklyLagDifference is the mean absolute difference between each value and
// the value seven positions later. Small values mean strong weekly
// regularity.
func weeklyLagDifference(ratios []float64) float64 {
	n := len(ratios) - weeklyLag
	if n <= 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += math.Abs(ratios[i] - ratios[i+weeklyLag])
	}
	return sum / float64(n)
}
