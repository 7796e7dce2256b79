package vector

import (
	"fmt"
	"math"
)

// ErrDimensionMismatch is returned when point dimensions don't match
var ErrDimensionMismatch = fmt.Errorf("point dimensions mismatch")

// DistanceMetric represents the type of distance calculation
type DistanceMetric string

const (
	MetricEuclidean DistanceMetric = "euclidean"
	MetricManhattan DistanceMetric = "manhattan"
	MetricChebyshev DistanceMetric = "chebyshev"
)

// EuclideanDistance calculates the Euclidean (L2) distance between two points
// Formula: sqrt(sum((a[i] - b[i])^2))
// Returns error if point dimensions don't match
func EuclideanDistance(a, b []float64) (float64, error) {
	sq, err := SquaredEuclidean(a, b)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(sq), nil
}

// SquaredEuclidean calculates sum((a[i] - b[i])^2) without the square root
func SquaredEuclidean(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}

	sum := 0.0
	for i := 0; i < len(a); i++ {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum, nil
}

// ManhattanDistance calculates the L1 distance between two points
func ManhattanDistance(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}

	sum := 0.0
	for i := 0; i < len(a); i++ {
		sum += math.Abs(a[i] - b[i])
	}
	return sum, nil
}

// ChebyshevDistance calculates the L-infinity distance between two points
func ChebyshevDistance(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}

	max := 0.0
	for i := 0; i < len(a); i++ {
		if d := math.Abs(a[i] - b[i]); d > max {
			max = d
		}
	}
	return max, nil
}

// Distance calculates the distance between two points using the specified metric
// Unknown metrics fall back to Euclidean
func Distance(a, b []float64, metric DistanceMetric) (float64, error) {
	switch metric {
	case MetricManhattan:
		return ManhattanDistance(a, b)
	case MetricChebyshev:
		return ChebyshevDistance(a, b)
	default:
		return EuclideanDistance(a, b)
	}
}

// Magnitude calculates the magnitude (L2 norm) of a point's position vector
func Magnitude(v []float64) float64 {
	sum := 0.0
	for _, val := range v {
		sum += val * val
	}
	return math.Sqrt(sum)
}
