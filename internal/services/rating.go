package services

import "math"

// safeAverage returns total/count, or 0 when count is 0 or the quotient is
// not a finite number.
func safeAverage(total float64, count uint64) float64 {
	if count == 0 {
		return 0
	}
	avg := total / float64(count)
	if math.IsNaN(avg) || math.IsInf(avg, 0) {
		return 0
	}
	return avg
}

// nextAverage folds one submitted rating into the running mean.
//
// For a first rating by this rater the sample grows by one; a re-rating
// replaces the rater's previous value and keeps the sample size. The
// arithmetic is carried out on the stored mean, so long histories accumulate
// floating point error.
func nextAverage(avg float64, n uint64, value uint8, previous *uint8) (float64, uint64) {
	var total float64
	if previous == nil {
		n++
		total = avg*float64(n-1) + float64(value)
	} else {
		total = avg*float64(n) - float64(*previous) + float64(value)
	}
	return safeAverage(total, n), n
}
