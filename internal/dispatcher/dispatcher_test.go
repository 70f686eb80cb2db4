package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/go-sod/perfml/internal/dataset"
	"github.com/go-sod/perfml/internal/dispatcher/mocks"
	"github.com/go-sod/perfml/internal/metrics"
	"github.com/go-sod/perfml/internal/registry"
	"github.com/go-sod/perfml/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func encode(t *testing.T, resp Response) string {
	t.Helper()
	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	return string(raw)
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestDispatcher_Status(t *testing.T) {
	tests := []struct {
		name     string
		request  string
		models   []string
		expected string
	}{
		{name: "empty_request", request: "", models: nil, expected: `{"success":true,"models":[]}`},
		{name: "empty_object", request: `{}`, models: []string{"knn"}, expected: `{"success":true,"models":["knn"]}`},
		{name: "null_action", request: `{"action":null}`, models: nil, expected: `{"success":true,"models":[]}`},
		{name: "upper_case", request: `{"action":"STATUS"}`, models: []string{"knn", "svm"}, expected: `{"success":true,"models":["knn","svm"]}`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			reg := &mocks.Registry{}
			reg.On("Status", mock.Anything).Return(test.models, nil)
			d, err := New(reg)
			require.NoError(t, err)

			got := encode(t, d.Handle(context.Background(), []byte(test.request)))
			if got != test.expected {
				t.Errorf("handle status, got: %v, expected: %v", got, test.expected)
			}
			reg.AssertNotCalled(t, "EnsureExists", mock.Anything)
		})
	}
}

func TestDispatcher_Errors(t *testing.T) {
	tests := []struct {
		name    string
		request string
		wantErr error
	}{
		{name: "unknown_action", request: `{"action":"explode"}`, wantErr: ErrUnknownAction},
		{name: "predict_without_model", request: `{"action":"predict","features":[1,2,3]}`, wantErr: ErrMissingField},
		{name: "predict_without_features", request: `{"action":"predict","model":"knn"}`, wantErr: ErrMissingField},
		{name: "predict_null_features", request: `{"action":"predict","model":"knn","features":null}`, wantErr: ErrMissingField},
		{name: "predict_all_without_features", request: `{"action":"predict_all"}`, wantErr: ErrMissingField},
		{name: "malformed_json", request: `{"action":`, wantErr: ErrInvalidRequest},
		{name: "not_an_object", request: `[1,2]`, wantErr: ErrInvalidRequest},
		{name: "string_features", request: `{"action":"predict","model":"knn","features":"1,2"}`, wantErr: ErrInvalidRequest},
		{name: "ragged_types", request: `{"action":"predict","model":"knn","features":[1,[2]]}`, wantErr: ErrInvalidRequest},
		{name: "numeric_action", request: `{"action":5}`, wantErr: ErrInvalidRequest},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			reg := &mocks.Registry{}
			d, err := New(reg)
			require.NoError(t, err)

			_, err = d.handle(context.Background(), []byte(test.request))
			if !errors.Is(err, test.wantErr) {
				t.Errorf("handle request, got: %v, expected: %v", err, test.wantErr)
			}

			resp := d.Handle(context.Background(), []byte(test.request))
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
			reg.AssertNotCalled(t, "EnsureExists", mock.Anything)
			reg.AssertNotCalled(t, "TrainAll", mock.Anything, mock.Anything)
		})
	}
}

func TestDispatcher_Predict(t *testing.T) {
	result := &registry.Result{
		Predictions:   []dataset.Label{"strong"},
		Probabilities: [][]float64{{0.1, 0.8, 0.1}},
	}
	reg := &mocks.Registry{}
	reg.On("EnsureExists", mock.Anything).Return(false, nil)
	reg.On("Predict", mock.Anything, "knn", [][]float64{{90, 91, 92, 1200, 4}}).Return(result, nil)
	d, err := New(reg)
	require.NoError(t, err)

	resp := d.Handle(context.Background(), []byte(`{"action":"Predict","model":"knn","features":[90,91,92,1200,4]}`))
	assert.Equal(t,
		`{"success":true,"model":"knn","result":{"predictions":["strong"],"probabilities":[[0.1,0.8,0.1]]}}`,
		encode(t, resp))
	reg.AssertExpectations(t)
}

func TestDispatcher_Predict_Batch(t *testing.T) {
	batch := [][]float64{{1, 2}, {3, 4}}
	reg := &mocks.Registry{}
	reg.On("EnsureExists", mock.Anything).Return(false, nil)
	reg.On("Predict", mock.Anything, "svm", batch).Return(&registry.Result{Predictions: []dataset.Label{"1", "0"}}, nil)
	d, err := New(reg)
	require.NoError(t, err)

	resp := d.Handle(context.Background(), []byte(`{"action":"predict","model":"svm","features":[[1,2],[3,4]]}`))
	assert.Equal(t, `{"success":true,"model":"svm","result":{"predictions":[1,0],"probabilities":null}}`, encode(t, resp))
}

func TestDispatcher_Predict_Failure(t *testing.T) {
	reg := &mocks.Registry{}
	reg.On("EnsureExists", mock.Anything).Return(false, nil)
	reg.On("Predict", mock.Anything, "knn", mock.Anything).
		Return(nil, registry.ErrPredictionFailure)
	d, err := New(reg)
	require.NoError(t, err)

	resp := d.Handle(context.Background(), []byte(`{"action":"predict","model":"knn","features":[1]}`))
	assert.Equal(t, `{"success":false,"error":"prediction failed"}`, encode(t, resp))
}

func TestDispatcher_PredictAll_Isolation(t *testing.T) {
	result := &registry.Result{Predictions: []dataset.Label{"weak"}, Probabilities: [][]float64{{0, 0, 1}}}
	reg := &mocks.Registry{}
	reg.On("EnsureExists", mock.Anything).Return(false, nil)
	reg.On("Predict", mock.Anything, "svm", mock.Anything).Return(nil, errors.New("svm is broken"))
	reg.On("Predict", mock.Anything, mock.Anything, mock.Anything).Return(result, nil)
	d, err := New(reg)
	require.NoError(t, err)

	resp := d.Handle(context.Background(), []byte(`{"action":"predict_all","features":[10,20,30,400,1]}`))
	require.True(t, resp.Success)

	var decoded struct {
		Results map[string]struct {
			Predictions []string `json:"predictions"`
			Error       string   `json:"error"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(encode(t, resp)), &decoded))
	require.Len(t, decoded.Results, 5)
	assert.Equal(t, "svm is broken", decoded.Results["svm"].Error)
	assert.Empty(t, decoded.Results["svm"].Predictions)
	for _, name := range []string{"knn", "naive_bayes", "decision_tree", "neural_network"} {
		assert.Equal(t, []string{"weak"}, decoded.Results[name].Predictions, name)
		assert.Empty(t, decoded.Results[name].Error, name)
	}
}

func TestDispatcher_Train(t *testing.T) {
	eval := registry.Evaluation{
		Accuracy: 0.9,
		Report: metrics.Report{
			Labels:      []string{"weak"},
			Classes:     []metrics.Scores{{Precision: 0.9, Recall: 0.9, F1: 0.9, Support: 10}},
			Accuracy:    0.9,
			WeightedAvg: metrics.Scores{Precision: 0.91, Recall: 0.9, F1: 0.905, Support: 10},
		},
		ConfusionMatrix: [][]int{{9}},
	}
	reg := &mocks.Registry{}
	reg.On("TrainAll", mock.Anything, "/data/students.csv").
		Return(map[string]registry.Evaluation{"knn": eval, "svm": eval}, nil)

	reportFile := filepath.Join(t.TempDir(), "model_results.json")
	d, err := New(reg, WithReportFile(reportFile))
	require.NoError(t, err)

	resp := d.Handle(context.Background(), []byte(`{"action":"train","dataset_path":"/data/students.csv"}`))
	require.True(t, resp.Success)
	assert.True(t, resp.Trained)
	assert.Contains(t, encode(t, resp), `"confusion_matrix":[[9]]`)

	rows, err := report.Read(reportFile)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, report.Row{Model: "knn", Accuracy: 90, Precision: 91, Recall: 90, F1: 90.5}, rows[0])
	assert.Equal(t, "svm", rows[1].Model)
}

func TestDispatcher_Train_Failure(t *testing.T) {
	reg := &mocks.Registry{}
	reg.On("TrainAll", mock.Anything, "missing.csv").
		Return(nil, dataset.ErrDatasetNotFound)
	d, err := New(reg)
	require.NoError(t, err)

	resp := d.Handle(context.Background(), []byte(`{"action":"train","dataset_path":"missing.csv"}`))
	assert.False(t, resp.Success)
	assert.Equal(t, dataset.ErrDatasetNotFound.Error(), resp.Error)
}

func TestFeatures(t *testing.T) {
	got, err := features(json.RawMessage(`[1, 2.5]`))
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2.5}}, got)

	got, err = features(json.RawMessage(`[[1],[2]]`))
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1}, {2}}, got)

	_, err = features(nil)
	assert.True(t, errors.Is(err, ErrMissingField))
}
