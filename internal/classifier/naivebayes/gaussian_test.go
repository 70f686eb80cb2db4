package naivebayes

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestClassifier_Fit(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{1, 3, 10, 12})
	c := New()
	require.NoError(t, c.Fit(x, []int{0, 0, 1, 1}, 2))

	assert.InDeltaSlice(t, []float64{math.Log(0.5), math.Log(0.5)}, c.LogPriors, 1e-12)
	assert.InDelta(t, 2, c.Means[0][0], 1e-12)
	assert.InDelta(t, 11, c.Means[1][0], 1e-12)
	assert.InDelta(t, 1, c.Vars[0][0], 1e-6)
}

func TestClassifier_PredictProba(t *testing.T) {
	x := mat.NewDense(6, 2, []float64{
		1, 1, 1.5, 0.5, 0.5, 1.5,
		8, 8, 8.5, 7.5, 7.5, 8.5,
	})
	c := New()
	require.NoError(t, c.Fit(x, []int{0, 0, 0, 1, 1, 1}, 2))

	proba, err := c.PredictProba(mat.NewDense(2, 2, []float64{1, 1, 8, 8}))
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		assert.InDelta(t, 1, floats.Sum(mat.Row(nil, i, proba)), 1e-9)
	}
	got, err := c.Predict(mat.NewDense(2, 2, []float64{1, 1, 8, 8}))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, got)
}

func TestClassifier_AbsentClass(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{1, 2, 10, 11})
	c := New()
	require.NoError(t, c.Fit(x, []int{0, 0, 2, 2}, 3))

	proba, err := c.PredictProba(mat.NewDense(1, 1, []float64{1.5}))
	require.NoError(t, err)
	assert.Equal(t, 0.0, proba.At(0, 1))
	assert.InDelta(t, 1, floats.Sum(mat.Row(nil, 0, proba)), 1e-9)
}
