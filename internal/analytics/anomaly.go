package analytics

import (
	"fmt"
	"sort"

	"github.com/prodpulse/prodmeter/internal/numeric"
)

// AnomalyMethod selects the detector.
type AnomalyMethod string

const (
	// MethodCUSUM flattens every entry's day values into one series, runs
	// the CUSUM-EWMA detector, and maps flagged flat indices back to entry
	// indices.
	MethodCUSUM AnomalyMethod = "cusum"
	// MethodIQR flags entries whose first-week mean falls outside the Tukey
	// fences. The surrounding application historically labeled this
	// "isolation"; it is an IQR rule, and the honest name is primary.
	MethodIQR AnomalyMethod = "iqr"
	// MethodEnsemble intersects the CUSUM and IQR flag sets.
	MethodEnsemble AnomalyMethod = "ensemble"
)

// entryWeek is the number of day values per entry used when mapping flat
// CUSUM indices back to entries and when summarizing an entry.
const entryWeek = 7

// ParseAnomalyMethod accepts the canonical names plus the legacy "isolation"
// label for the IQR rule.
func ParseAnomalyMethod(s string) (AnomalyMethod, error) {
	switch s {
	case string(MethodCUSUM), "":
		return MethodCUSUM, nil
	case string(MethodIQR), "isolation":
		return MethodIQR, nil
	case string(MethodEnsemble):
		return MethodEnsemble, nil
	default:
		return "", fmt.Errorf("unknown anomaly method %q", s)
	}
}

// Anomalies returns the sorted, de-duplicated indices of anomalous entries.
// Each entry is one unit of the series (typically a week of day values).
// Empty input yields an empty result, never an error.
func Anomalies(entries [][]float64, method AnomalyMethod) ([]int, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	switch method {
	case MethodCUSUM, "":
		return cusumEntries(entries), nil
	case MethodIQR:
		return iqrEntries(entries), nil
	case MethodEnsemble:
		return intersect(cusumEntries(entries), iqrEntries(entries)), nil
	default:
		return nil, fmt.Errorf("unknown anomaly method %q", method)
	}
}

func cusumEntries(entries [][]float64) []int {
	var flat []float64
	for _, e := range entries {
		flat = append(flat, e...)
	}

	seen := map[int]bool{}
	var out []int
	for _, idx := range numeric.CUSUMAnomalies(flat) {
		entryIdx := idx / entryWeek
		if entryIdx >= len(entries) {
			entryIdx = len(entries) - 1
		}
		if !seen[entryIdx] {
			seen[entryIdx] = true
			out = append(out, entryIdx)
		}
	}
	sort.Ints(out)
	return out
}

func iqrEntries(entries [][]float64) []int {
	means := make([]float64, len(entries))
	for i, e := range entries {
		means[i] = firstWeekMean(e)
	}
	return numeric.IQROutliers(means)
}

// firstWeekMean summarizes an entry by the mean of its first seven values.
func firstWeekMean(values []float64) float64 {
	n := len(values)
	if n > entryWeek {
		n = entryWeek
	}
	return numeric.Mean(values[:n])
}

func intersect(a, b []int) []int {
	inA := map[int]bool{}
	for _, v := range a {
		inA[v] = true
	}
	var out []int
	for _, v := range b {
		if inA[v] {
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}
