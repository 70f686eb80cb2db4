// Package scale holds feature scaling steps applied ahead of a classifier.
package scale

import (
	"github.com/go-sod/perfml/internal/classifier"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Standard rescales every feature to zero mean and unit variance using the
// population standard deviation of the training data. Constant features keep
// a unit scale.
type Standard struct {
	Mean []float64
	Std  []float64
}

func NewStandard() *Standard {
	return &Standard{}
}

func (s *Standard) Fit(x mat.Matrix) error {
	r, c := x.Dims()
	if r == 0 || c == 0 {
		return classifier.ErrEmptyInput
	}
	s.Mean = make([]float64, c)
	s.Std = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, x)
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		s.Mean[j], s.Std[j] = mean, std
	}
	return nil
}

func (s *Standard) Transform(x mat.Matrix) (*mat.Dense, error) {
	if err := classifier.CheckWidth(x, len(s.Mean)); err != nil {
		return nil, err
	}
	r, c := x.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Std[j]
	}, x)
	return out, nil
}

func (s *Standard) FitTransform(x mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(x); err != nil {
		return nil, err
	}
	return s.Transform(x)
}
