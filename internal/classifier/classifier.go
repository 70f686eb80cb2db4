// Package classifier defines the contract shared by every learning algorithm
// used in a pipeline: fit on a dense feature matrix with class indices,
// predict class indices and per-class probabilities.
package classifier

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrNotFitted     = errors.New("classifier is not fitted")
	ErrWidthMismatch = errors.New("feature width mismatch")
	ErrEmptyInput    = errors.New("empty input")
)

type Classifier interface {
	// Fit trains on x (rows are samples) and y (class indices in [0, classes)).
	Fit(x mat.Matrix, y []int, classes int) error
	// Predict returns the most likely class index of every row.
	Predict(x mat.Matrix) ([]int, error)
	// PredictProba returns one row of class probabilities per sample.
	PredictProba(x mat.Matrix) (*mat.Dense, error)
}

// CheckFit validates training input shared by every classifier.
func CheckFit(x mat.Matrix, y []int, classes int) error {
	r, c := x.Dims()
	if r == 0 || c == 0 {
		return ErrEmptyInput
	}
	if r != len(y) {
		return fmt.Errorf("%d samples and %d labels", r, len(y))
	}
	if classes < 1 {
		return fmt.Errorf("invalid number of classes %d", classes)
	}
	for _, v := range y {
		if v < 0 || v >= classes {
			return fmt.Errorf("class index %d out of range [0, %d)", v, classes)
		}
	}
	return nil
}

// CheckWidth validates that x has the width the classifier was fitted on.
func CheckWidth(x mat.Matrix, width int) error {
	if width == 0 {
		return ErrNotFitted
	}
	r, c := x.Dims()
	if r == 0 {
		return ErrEmptyInput
	}
	if c != width {
		return fmt.Errorf("%w: got %d features, expected %d", ErrWidthMismatch, c, width)
	}
	return nil
}

// ArgMax returns the column index of the maximum of every row; ties resolve
// to the lowest index.
func ArgMax(proba mat.Matrix) []int {
	r, _ := proba.Dims()
	out := make([]int, r)
	for i := 0; i < r; i++ {
		out[i] = floats.MaxIdx(mat.Row(nil, i, proba))
	}
	return out
}

// Rows copies a matrix into row slices.
func Rows(x mat.Matrix) [][]float64 {
	r, _ := x.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = mat.Row(nil, i, x)
	}
	return rows
}

// Dense builds a matrix from row slices, all rows must share one length.
func Dense(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyInput
	}
	c := len(rows[0])
	data := make([]float64, 0, len(rows)*c)
	for i, row := range rows {
		if len(row) != c {
			return nil, fmt.Errorf("%w: row %d has %d features, row 0 has %d", ErrWidthMismatch, i, len(row), c)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), c, data), nil
}
