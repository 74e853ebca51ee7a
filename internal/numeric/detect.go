package numeric

import "math"

// CUSUM-EWMA detector parameters. The threshold falls back to a constant when
// the series has zero MAD (e.g. a constant series with a single level shift).
const (
	cusumLambda    = 0.2 // EWMA smoothing factor
	cusumSlack     = 0.5 // slack parameter k
	cusumFallbackH = 5.0
	cusumMADScale  = 5.0
)

// CUSUMAnomalies runs a combined CUSUM-EWMA change-point detector over the
// series and returns the indices where either cumulative accumulator crossed
// the threshold. Both accumulators reset to zero at each flagged index.
func CUSUMAnomalies(series []float64) []int {
	n := len(series)
	if n < 2 {
		return nil
	}

	mu0 := Median(series)
	h := cusumMADScale * MAD(series)
	if h <= 0 {
		h = cusumFallbackH
	}

	ewma := series[0]
	var cusumPos, cusumNeg float64
	var anomalies []int

	for t := 1; t < n; t++ {
		ewma = cusumLambda*series[t] + (1-cusumLambda)*ewma

		cusumPos = math.Max(0, cusumPos+(ewma-mu0-cusumSlack))
		cusumNeg = math.Max(0, cusumNeg-(ewma-mu0+cusumSlack))

		if cusumPos > h || cusumNeg > h {
			anomalies = append(anomalies, t)
			cusumPos = 0
			cusumNeg = 0
		}
	}

	return anomalies
}

// IQROutliers returns the indices of values outside the Tukey fences
// [Q1-1.5*IQR, Q3+1.5*IQR].
func IQROutliers(xs []float64) []int {
	if len(xs) < 4 {
		return nil
	}
	q1 := Quantile(xs, 0.25)
	q3 := Quantile(xs, 0.75)
	iqr := q3 - q1
	lo := q1 - 1.5*iqr
	hi := q3 + 1.5*iqr

	var out []int
	for i, v := range xs {
		if v < lo || v > hi {
			out = append(out, i)
		}
	}
	return out
}
