// Package stats provides statistical helpers shared by the rule engines.
package stats

import "gonum.org/v1/gonum/stat"

// Percentile calculates the p-th percentile of a sorted slice.
// The slice must already be sorted in ascending order.
// Returns 0 if the slice is empty.
func Percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// PercentileUint32 calculates the p-th percentile of a sorted uint32 slice.
func PercentileUint32(sorted []uint32, p int) uint32 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// MeanStdDev returns the mean and sample standard deviation of xs.
// Returns zeros for empty input and a zero deviation for a single value.
func MeanStdDev(xs []float64) (mean, stddev float64) {
	switch len(xs) {
	case 0:
		return 0, 0
	case 1:
		return xs[0], 0
	}
	mean, stddev = stat.MeanStdDev(xs, nil)
	return mean, stddev
}
