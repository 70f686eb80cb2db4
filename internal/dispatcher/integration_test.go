package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-sod/perfml/internal/artifact"
	"github.com/go-sod/perfml/internal/dataset"
	"github.com/go-sod/perfml/internal/pipeline"
	"github.com/go-sod/perfml/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	dispatcher *Dispatcher
	store      artifact.Store
	dir        string
}

func newEnv(t *testing.T) env {
	t.Helper()
	dir := t.TempDir()
	params := pipeline.DefaultParams()
	params.NeuralNetwork.Hidden = []int{16}
	params.NeuralNetwork.MaxIter = 40

	store := artifact.NewFileStore(filepath.Join(dir, "models"))
	reg, err := registry.New(store, registry.WithParams(params))
	require.NoError(t, err)
	d, err := New(reg, WithReportFile(filepath.Join(dir, "models", "model_results.json")))
	require.NoError(t, err)
	return env{dispatcher: d, store: store, dir: dir}
}

func (e env) do(t *testing.T, request string) map[string]any {
	t.Helper()
	raw, err := json.Marshal(e.dispatcher.Handle(context.Background(), []byte(request)))
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func (e env) dataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(e.dir, "students.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, dataset.WriteCSV(f, dataset.Generate(120, 11)))
	return path
}

func TestIntegration_StatusOnEmptyDirectory(t *testing.T) {
	e := newEnv(t)
	out := e.do(t, `{"action":"status"}`)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, []any{}, out["models"])
}

func TestIntegration_TrainThenStatus(t *testing.T) {
	e := newEnv(t)
	out := e.do(t, fmt.Sprintf(`{"action":"train","dataset_path":%q}`, e.dataset(t)))
	require.Equal(t, true, out["success"], out["error"])
	assert.Equal(t, true, out["trained"])

	results, ok := out["results"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, results, 5)
	for _, name := range pipeline.Names {
		res := results[name].(map[string]any)
		assert.Contains(t, res, "accuracy")
		assert.Contains(t, res, "classification_report")
		assert.Contains(t, res, "confusion_matrix")
	}
	assert.FileExists(t, filepath.Join(e.dir, "models", "model_results.json"))

	out = e.do(t, `{"action":"status"}`)
	assert.Equal(t, []any{"knn", "naive_bayes", "decision_tree", "svm", "neural_network"}, out["models"])
}

func TestIntegration_PredictTrainsOnDemand(t *testing.T) {
	e := newEnv(t)
	out := e.do(t, `{"action":"predict","model":"knn","features":[90,92,88,1500,5]}`)
	require.Equal(t, true, out["success"], out["error"])
	assert.Equal(t, "knn", out["model"])

	result := out["result"].(map[string]any)
	assert.Len(t, result["predictions"], 1)
	proba := result["probabilities"].([]any)
	require.Len(t, proba, 1)
	assert.Len(t, proba[0], 3)

	names, err := registry.New(e.store)
	require.NoError(t, err)
	status, err := names.Status(context.Background())
	require.NoError(t, err)
	assert.Len(t, status, 5)
}

func TestIntegration_PredictAllWithMissingArtifact(t *testing.T) {
	e := newEnv(t)
	out := e.do(t, `{"action":"train"}`)
	require.Equal(t, true, out["success"], out["error"])
	require.NoError(t, e.store.Delete(context.Background(), pipeline.SVM))

	out = e.do(t, `{"action":"predict_all","features":[[55,50,58,900,2],[85,90,95,1300,4]]}`)
	require.Equal(t, true, out["success"], out["error"])
	results := out["results"].(map[string]any)
	require.Len(t, results, 5)

	svm := results["svm"].(map[string]any)
	assert.NotEmpty(t, svm["error"])
	for _, name := range []string{"knn", "naive_bayes", "decision_tree", "neural_network"} {
		res := results[name].(map[string]any)
		assert.NotContains(t, res, "error", name)
		assert.Len(t, res["predictions"], 2, name)
	}
}

func TestIntegration_PredictAllKeepsNonFiniteModelInItsSlot(t *testing.T) {
	e := newEnv(t)
	resp := e.dispatcher.Handle(context.Background(), []byte(`{"action":"predict_all","features":[1e308,-1e308,1e308,1,1]}`))
	require.True(t, resp.Success, resp.Error)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))

	results := out["results"].(map[string]any)
	require.Len(t, results, 5)
	nb := results["naive_bayes"].(map[string]any)
	assert.Contains(t, nb["error"], pipeline.ErrNonFinite.Error())
	for name, slot := range results {
		res := slot.(map[string]any)
		if _, failed := res["error"]; !failed {
			assert.Len(t, res["predictions"], 1, name)
		}
	}
}

func TestIntegration_TrainRejectsNonFiniteDataset(t *testing.T) {
	e := newEnv(t)
	path := filepath.Join(e.dir, "nan.csv")
	require.NoError(t, os.WriteFile(path, []byte("quiz1,quiz2,performance\n50,NaN,weak\n90,95,strong\n"), 0o600))

	out := e.do(t, fmt.Sprintf(`{"action":"train","dataset_path":%q}`, path))
	assert.Equal(t, false, out["success"])
	assert.Contains(t, out["error"], dataset.ErrInvalidDataset.Error())

	status := e.do(t, `{"action":"status"}`)
	assert.Empty(t, status["models"])
}

func TestIntegration_DecisionTreeAccuracyIsReproducible(t *testing.T) {
	e := newEnv(t)
	path := e.dataset(t)
	request := fmt.Sprintf(`{"action":"train","dataset_path":%q}`, path)

	accuracy := func() float64 {
		out := e.do(t, request)
		require.Equal(t, true, out["success"], out["error"])
		tree := out["results"].(map[string]any)["decision_tree"].(map[string]any)
		return tree["accuracy"].(float64)
	}
	assert.Equal(t, accuracy(), accuracy())
}

func TestIntegration_MalformedRequests(t *testing.T) {
	e := newEnv(t)
	for _, request := range []string{
		`{"action":"predict","features":[1,2,3]}`,
		`{"action":"predict","model":"random_forest","features":[1,2,3,4,5]}`,
		`{"action":"predict","model":"knn","features":[1,2,3]}`,
		`{"action":"train","dataset_path":"/does/not/exist.csv"}`,
		`{"action":"fly"}`,
	} {
		out := e.do(t, request)
		assert.Equal(t, false, out["success"], request)
		assert.NotEmpty(t, out["error"], request)
	}
}
