package numeric

import "math"

const minutesPerDay = 24 * 60

// MinutesToAngle maps minutes since midnight onto the 24-hour circle.
func MinutesToAngle(minutes float64) float64 {
	return 2 * math.Pi * minutes / minutesPerDay
}

// AngleToMinutes maps an angle back to minutes since midnight in [0, 1440).
func AngleToMinutes(angle float64) float64 {
	m := math.Mod(angle/(2*math.Pi)*minutesPerDay, minutesPerDay)
	if m < 0 {
		m += minutesPerDay
	}
	return m
}

// CircularStats summarizes angular data via the mean resultant vector.
type CircularStats struct {
	Mean     float64 // circular mean angle, atan2 of the resultant vector
	R        float64 // resultant length in [0,1]; 1 means perfectly concentrated
	Variance float64 // 1 - R
}

// Circular computes circular mean and variance over angles in radians.
// Clock times must be converted with MinutesToAngle first so that values
// straddling midnight average correctly instead of collapsing toward noon.
func Circular(angles []float64) CircularStats {
	if len(angles) == 0 {
		return CircularStats{Variance: 1}
	}
	var sumSin, sumCos float64
	for _, a := range angles {
		sumSin += math.Sin(a)
		sumCos += math.Cos(a)
	}
	n := float64(len(angles))
	meanSin := sumSin / n
	meanCos := sumCos / n
	r := math.Sqrt(meanSin*meanSin + meanCos*meanCos)
	return CircularStats{
		Mean:     math.Atan2(meanSin, meanCos),
		R:        r,
		Variance: 1 - r,
	}
}

// CircularDistance is the shorter arc between two angles, in [0, pi].
func CircularDistance(a, b float64) float64 {
	d := math.Abs(a - b)
	d = math.Mod(d, 2*math.Pi)
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}
