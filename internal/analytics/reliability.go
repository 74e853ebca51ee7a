package analytics

import "github.com/prodpulse/prodmeter/internal/numeric"

// CronbachAlpha measures internal consistency across the component columns
// of a score matrix: rows are days, columns are components. The raw alpha
// can be negative when items anti-correlate; the result is clamped to [0, 1].
// Fewer than two columns, or a degenerate total variance, yields 0.
func CronbachAlpha(matrix [][]float64) float64 {
	if len(matrix) == 0 {
		return 0
	}
	k := len(matrix[0])
	if k < 2 {
		return 0
	}

	itemVarSum := 0.0
	for j := 0; j < k; j++ {
		col := make([]float64, 0, len(matrix))
		for _, row := range matrix {
			if j < len(row) {
				col = append(col, row[j])
			}
		}
		itemVarSum += numeric.Variance(col)
	}

	totals := make([]float64, len(matrix))
	for i, row := range matrix {
		for _, v := range row {
			totals[i] += v
		}
	}
	totalVar := numeric.Variance(totals)
	if totalVar <= numeric.Epsilon {
		return 0
	}

	alpha := (float64(k) / float64(k-1)) * (1 - itemVarSum/totalVar)
	return numeric.Clamp01(alpha)
}
