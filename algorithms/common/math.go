package common

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Statistical helpers shared across packages, backed by gonum.

// Mean calculates the arithmetic mean of a slice.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// Variance calculates the sample variance of a slice.
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	return stat.Variance(data, nil)
}

// StandardDeviation calculates the sample standard deviation.
func StandardDeviation(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	return math.Sqrt(Variance(data))
}

// Percentile calculates the p-th percentile (p between 0 and 1).
func Percentile(data []float64, p float64) float64 {
	if len(data) == 0 || p < 0 || p > 1 {
		return 0.0
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// Median calculates the middle value of a slice.
func Median(data []float64) float64 {
	return Percentile(data, 0.5)
}

// Max returns the largest value in a slice, or 0 for an empty slice.
func Max(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return floats.Max(data)
}

// Min returns the smallest value in a slice, or 0 for an empty slice.
func Min(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return floats.Min(data)
}

// Norm computes the p-norm of a slice (p=1 for L1, p=2 for L2).
func Norm(data []float64, p float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return floats.Norm(data, p)
}

// RMS calculates the root mean square of a slice.
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}

	sumSquares := 0.0
	for _, val := range data {
		sumSquares += val * val
	}

	return math.Sqrt(sumSquares / float64(len(data)))
}

// AllFinite reports whether every value in the slice is finite.
func AllFinite(data []float64) bool {
	for _, val := range data {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return false
		}
	}
	return true
}
