package knn

import (
	"errors"
	"testing"

	"github.com/go-sod/perfml/internal/classifier"
	"github.com/go-sod/perfml/internal/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func clusters() (*mat.Dense, []int) {
	x := mat.NewDense(9, 2, []float64{
		0, 0, 0.1, 0.2, 0.2, 0.1,
		5, 5, 5.1, 5.2, 5.2, 5.1,
		10, 0, 10.1, 0.2, 10.2, 0.1,
	})
	return x, []int{0, 0, 0, 1, 1, 1, 2, 2, 2}
}

func TestClassifier_Predict(t *testing.T) {
	x, y := clusters()
	c := New(WithK(3))
	require.NoError(t, c.Fit(x, y, 3))

	got, err := c.Predict(mat.NewDense(3, 2, []float64{0.05, 0.05, 4.9, 5, 9.9, 0}))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, got)

	proba, err := c.PredictProba(mat.NewDense(1, 2, []float64{5, 5}))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 1, 0}, mat.Row(nil, 0, proba), 1e-12)
}

func TestClassifier_KLargerThanTrainingSet(t *testing.T) {
	x, y := clusters()
	c := New(WithK(50))
	require.NoError(t, c.Fit(x, y, 3))

	proba, err := c.PredictProba(mat.NewDense(1, 2, []float64{0, 0}))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}, mat.Row(nil, 0, proba), 1e-12)
}

func TestClassifier_Errors(t *testing.T) {
	c := New()
	_, err := c.Predict(mat.NewDense(1, 2, []float64{1, 1}))
	assert.True(t, errors.Is(err, classifier.ErrNotFitted))

	x, y := clusters()
	require.NoError(t, c.Fit(x, y, 3))
	_, err = c.Predict(mat.NewDense(1, 3, []float64{1, 1, 1}))
	assert.True(t, errors.Is(err, classifier.ErrWidthMismatch))

	assert.Error(t, c.Fit(x, y[:3], 3))
}

func TestClassifier_Metric(t *testing.T) {
	x := mat.NewDense(2, 2, []float64{3, 3, 4, 0})
	y := []int{0, 1}
	query := mat.NewDense(1, 2, []float64{0, 0})

	tests := []struct {
		metric   string
		expected int
	}{
		{metric: geom.MetricEuclidean, expected: 1},
		{metric: geom.MetricManhattan, expected: 1},
		{metric: geom.MetricChebyshev, expected: 0},
	}
	for _, test := range tests {
		t.Run(test.metric, func(t *testing.T) {
			c := New(WithK(1), WithMetric(test.metric))
			require.NoError(t, c.Fit(x, y, 2))
			got, err := c.Predict(query)
			require.NoError(t, err)
			if got[0] != test.expected {
				t.Errorf("nearest class, got: %v, expected: %v", got[0], test.expected)
			}
		})
	}

	assert.Error(t, New(WithMetric("cosine")).Fit(x, y, 2))
}

func TestClassifier_FarQuery(t *testing.T) {
	x, y := clusters()
	c := New(WithK(3))
	require.NoError(t, c.Fit(x, y, 3))

	proba, err := c.PredictProba(mat.NewDense(1, 2, []float64{1e308, -1e308}))
	require.NoError(t, err)
	var sum float64
	for _, v := range mat.Row(nil, 0, proba) {
		sum += v
	}
	assert.InDelta(t, 1, sum, 1e-12)
}
