// Package naivebayes is a Gaussian naive Bayes classifier.
package naivebayes

import (
	"fmt"
	"math"

	"github.com/go-sod/perfml/internal/classifier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var _ classifier.Classifier = (*Classifier)(nil)

// DefaultVarSmoothing is the share of the largest feature variance added to
// every variance for numerical stability.
const DefaultVarSmoothing = 1e-9

func New() *Classifier {
	return &Classifier{VarSmoothing: DefaultVarSmoothing}
}

type Classifier struct {
	VarSmoothing float64
	// LogPriors is -Inf for classes absent from the training data.
	LogPriors []float64
	// Means and Vars are indexed by class, then feature.
	Means [][]float64
	Vars  [][]float64
}

func (c *Classifier) Fit(x mat.Matrix, y []int, classes int) error {
	if err := classifier.CheckFit(x, y, classes); err != nil {
		return fmt.Errorf("naive bayes fit: %w", err)
	}
	r, cols := x.Dims()

	epsilon := 0.0
	col := make([]float64, r)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, x)
		_, v := stat.PopMeanVariance(col, nil)
		epsilon = math.Max(epsilon, v)
	}
	epsilon *= c.VarSmoothing

	byClass := make([][]int, classes)
	for i, v := range y {
		byClass[v] = append(byClass[v], i)
	}

	c.LogPriors = make([]float64, classes)
	c.Means = make([][]float64, classes)
	c.Vars = make([][]float64, classes)
	for k, rows := range byClass {
		c.Means[k] = make([]float64, cols)
		c.Vars[k] = make([]float64, cols)
		if len(rows) == 0 {
			c.LogPriors[k] = math.Inf(-1)
			continue
		}
		c.LogPriors[k] = math.Log(float64(len(rows)) / float64(r))
		values := make([]float64, len(rows))
		for j := 0; j < cols; j++ {
			for n, i := range rows {
				values[n] = x.At(i, j)
			}
			mean, variance := stat.PopMeanVariance(values, nil)
			c.Means[k][j] = mean
			c.Vars[k][j] = variance + epsilon
		}
	}
	return nil
}

func (c *Classifier) Predict(x mat.Matrix) ([]int, error) {
	proba, err := c.PredictProba(x)
	if err != nil {
		return nil, err
	}
	return classifier.ArgMax(proba), nil
}

func (c *Classifier) PredictProba(x mat.Matrix) (*mat.Dense, error) {
	if len(c.Means) == 0 {
		return nil, classifier.ErrNotFitted
	}
	if err := classifier.CheckWidth(x, len(c.Means[0])); err != nil {
		return nil, err
	}
	r, _ := x.Dims()
	classes := len(c.LogPriors)
	proba := mat.NewDense(r, classes, nil)
	jll := make([]float64, classes)
	for i := 0; i < r; i++ {
		row := mat.Row(nil, i, x)
		for k := range jll {
			jll[k] = c.jointLogLikelihood(k, row)
		}
		norm := floats.LogSumExp(jll)
		for k := range jll {
			proba.Set(i, k, math.Exp(jll[k]-norm))
		}
	}
	return proba, nil
}

func (c *Classifier) jointLogLikelihood(k int, row []float64) float64 {
	if math.IsInf(c.LogPriors[k], -1) {
		return math.Inf(-1)
	}
	ll := c.LogPriors[k]
	for j, v := range row {
		variance := c.Vars[k][j]
		d := v - c.Means[k][j]
		ll -= 0.5*math.Log(2*math.Pi*variance) + d*d/(2*variance)
	}
	return ll
}
