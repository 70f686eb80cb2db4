package geom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

var ErrDimNotEqual = fmt.Errorf("vectors dimension is not equal")

const (
	MetricEuclidean = "euclidean"
	MetricManhattan = "manhattan"
	MetricChebyshev = "chebyshev"
)

// DistanceFn measures the distance between two vectors of equal dimension.
type DistanceFn func(vec, vec1 []float64) (float64, error)

func EuclideanDistance(vec, vec1 []float64) (float64, error) {
	if len(vec) != len(vec1) {
		return 0.0, ErrDimNotEqual
	}
	return floats.Distance(vec, vec1, 2), nil
}

func ChebyshevDistance(vec, vec1 []float64) (float64, error) {
	if len(vec) != len(vec1) {
		return 0.0, ErrDimNotEqual
	}
	return floats.Distance(vec, vec1, math.Inf(1)), nil
}

func ManhattanDistance(vec, vec1 []float64) (float64, error) {
	if len(vec) != len(vec1) {
		return 0.0, ErrDimNotEqual
	}
	return floats.Distance(vec, vec1, 1), nil
}

// Distance returns the distance function of a metric name. Every metric is
// bounded below by the difference along any single axis.
func Distance(metric string) (DistanceFn, bool) {
	switch metric {
	case MetricEuclidean:
		return EuclideanDistance, true
	case MetricManhattan:
		return ManhattanDistance, true
	case MetricChebyshev:
		return ChebyshevDistance, true
	default:
		return nil, false
	}
}
