package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-sod/perfml/internal/classifier"
	"github.com/go-sod/perfml/internal/classifier/mlp"
	"github.com/go-sod/perfml/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallParams() Params {
	p := DefaultParams()
	p.NeuralNetwork.Hidden = []int{8}
	p.NeuralNetwork.MaxIter = 50
	return p
}

func TestSpecs(t *testing.T) {
	require.Len(t, Names, 5)
	for _, name := range Names {
		s, ok := Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, name, s.Name)
		assert.True(t, s.Probability, name)
		assert.Equal(t, name != DecisionTree, s.Scale, name)
	}
	_, ok := Lookup("random_forest")
	assert.False(t, ok)
}

func TestPipeline_FitPredict(t *testing.T) {
	ds := dataset.Generate(120, 3)
	classes := dataset.Classes(ds.Labels)

	for _, name := range Names {
		t.Run(name, func(t *testing.T) {
			s, _ := Lookup(name)
			p := s.New(smallParams(), 42)
			require.NoError(t, p.Fit(ds.Features, ds.Labels, classes))
			assert.Equal(t, 5, p.Metadata.Width)
			assert.Equal(t, classes, p.Metadata.Classes)
			assert.NotEmpty(t, p.Metadata.RunID)

			pred, proba, err := p.Predict(ds.Features[:4])
			require.NoError(t, err)
			require.Len(t, pred, 4)
			require.Len(t, proba, 4)
			for _, row := range proba {
				require.Len(t, row, len(classes))
				var sum float64
				for _, v := range row {
					sum += v
				}
				assert.InDelta(t, 1, sum, 1e-9)
			}

			labels, err := p.Labels(pred)
			require.NoError(t, err)
			assert.Len(t, labels, 4)

			_, _, err = p.Predict([][]float64{{1, 2, 3}})
			assert.True(t, errors.Is(err, classifier.ErrWidthMismatch))
		})
	}
}

func TestPipeline_PredictNonFinite(t *testing.T) {
	ds := dataset.Generate(120, 3)
	classes := dataset.Classes(ds.Labels)
	s, _ := Lookup(NaiveBayes)
	p := s.New(smallParams(), 42)
	require.NoError(t, p.Fit(ds.Features, ds.Labels, classes))

	_, _, err := p.Predict([][]float64{{1e308, -1e308, 1e308, 1, 1}})
	if !errors.Is(err, ErrNonFinite) {
		t.Errorf("predict far outside the training range, got: %v, expected: %v", err, ErrNonFinite)
	}

	_, proba, err := p.Predict([][]float64{ds.Features[0]})
	require.NoError(t, err)
	assert.Len(t, proba, 1)
}

func TestMarshal(t *testing.T) {
	ds := dataset.Generate(60, 5)
	classes := dataset.Classes(ds.Labels)

	for _, name := range Names {
		t.Run(name, func(t *testing.T) {
			s, _ := Lookup(name)
			p := s.New(smallParams(), 42)
			require.NoError(t, p.Fit(ds.Features, ds.Labels, classes))

			raw, err := Marshal(p)
			require.NoError(t, err)
			decoded, err := Unmarshal(raw)
			require.NoError(t, err)

			assert.Equal(t, p.Name, decoded.Name)
			assert.Equal(t, p.Metadata.RunID, decoded.Metadata.RunID)
			assert.Equal(t, s.Scale, decoded.Scaler != nil)

			want, wantProba, err := p.Predict(ds.Features)
			require.NoError(t, err)
			got, gotProba, err := decoded.Predict(ds.Features)
			require.NoError(t, err)
			assert.Equal(t, want, got)
			assert.Equal(t, wantProba, gotProba)
		})
	}

	_, err := Unmarshal([]byte("garbage"))
	assert.Error(t, err)
}

func TestLoadParams(t *testing.T) {
	p, err := LoadParams("")
	require.NoError(t, err)
	assert.Equal(t, DefaultParams(), p)

	dir := t.TempDir()
	path := filepath.Join(dir, "params.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[knn]
k = 7
metric = "manhattan"

[neural_network]
hidden = [16, 8]
max_iter = 100
`), 0o600))

	p, err = LoadParams(path)
	require.NoError(t, err)
	assert.Equal(t, 7, p.KNN.K)
	assert.Equal(t, "manhattan", p.KNN.Metric)
	assert.Equal(t, []int{16, 8}, p.NeuralNetwork.Hidden)
	assert.Equal(t, 100, p.NeuralNetwork.MaxIter)
	assert.Equal(t, mlp.DefaultLearningRate, p.NeuralNetwork.LearningRate)
	assert.Equal(t, 10, p.DecisionTree.MaxDepth)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[knn]\nneighbours = 3\n"), 0o600))
	_, err = LoadParams(bad)
	assert.Error(t, err)

	metric := filepath.Join(dir, "metric.toml")
	require.NoError(t, os.WriteFile(metric, []byte("[knn]\nmetric = \"cosine\"\n"), 0o600))
	_, err = LoadParams(metric)
	assert.Error(t, err)

	_, err = LoadParams(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}
