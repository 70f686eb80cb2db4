// Package dispatcher validates a JSON request, routes it to the model
// registry and renders exactly one JSON response.
package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sod/perfml/internal/logging"
	"github.com/go-sod/perfml/internal/pipeline"
	"github.com/go-sod/perfml/internal/registry"
	"github.com/go-sod/perfml/internal/report"
)

const (
	ActionTrain      = "train"
	ActionPredict    = "predict"
	ActionPredictAll = "predict_all"
	ActionStatus     = "status"
)

var (
	ErrMissingField   = errors.New("missing required field")
	ErrUnknownAction  = errors.New("unknown action")
	ErrInvalidRequest = errors.New("invalid request")
)

// Registry is the part of the model registry the dispatcher drives.
type Registry interface {
	TrainAll(ctx context.Context, path string) (map[string]registry.Evaluation, error)
	Predict(ctx context.Context, name string, batch [][]float64) (*registry.Result, error)
	EnsureExists(ctx context.Context) (bool, error)
	Status(ctx context.Context) ([]string, error)
}

// ProvideFn builds a Dispatcher over a registry.
type ProvideFn func(Registry) (*Dispatcher, error)

type Request struct {
	Action      string          `json:"action"`
	DatasetPath string          `json:"dataset_path,omitempty"`
	Model       string          `json:"model,omitempty"`
	Features    json.RawMessage `json:"features,omitempty"`
}

// ModelResult is one slot of a predict_all response: a result or an error.
type ModelResult struct {
	*registry.Result
	Error string `json:"error,omitempty"`
}

type Response struct {
	Success bool             `json:"success"`
	Error   string           `json:"error,omitempty"`
	Trained bool             `json:"trained,omitempty"`
	Model   string           `json:"model,omitempty"`
	Result  *registry.Result `json:"result,omitempty"`
	Results any              `json:"results,omitempty"`
	Models  *[]string        `json:"models,omitempty"`
}

type Option func(*Dispatcher)

func WithReportFile(path string) Option {
	return func(d *Dispatcher) {
		d.reportFile = path
	}
}

func New(reg Registry, opts ...Option) (*Dispatcher, error) {
	if reg == nil {
		return nil, fmt.Errorf("registry instance is not created")
	}
	d := &Dispatcher{registry: reg}
	for _, f := range opts {
		f(d)
	}
	return d, nil
}

type Dispatcher struct {
	registry   Registry
	reportFile string
}

// Handle answers one raw JSON request. Every failure is reported in the
// response; Handle never returns an error.
func (d *Dispatcher) Handle(ctx context.Context, raw []byte) Response {
	logger := logging.FromContext(ctx)

	resp, err := d.handle(ctx, raw)
	if err != nil {
		logger.Warnw("request failed", "error", err)
		return Response{Success: false, Error: err.Error()}
	}
	return resp
}

func (d *Dispatcher) handle(ctx context.Context, raw []byte) (Response, error) {
	var req Request
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := validate(raw); err != nil {
			return Response{}, err
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			return Response{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}

	action := strings.ToLower(strings.TrimSpace(req.Action))
	if action == "" {
		action = ActionStatus
	}
	logging.FromContext(ctx).Debugw("handling request", "action", action, "model", req.Model)

	switch action {
	case ActionTrain:
		return d.train(ctx, req)
	case ActionPredict:
		return d.predict(ctx, req)
	case ActionPredictAll:
		return d.predictAll(ctx, req)
	case ActionStatus:
		return d.status(ctx)
	default:
		return Response{}, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
}

func (d *Dispatcher) train(ctx context.Context, req Request) (Response, error) {
	results, err := d.registry.TrainAll(ctx, req.DatasetPath)
	if err != nil {
		return Response{}, err
	}
	if d.reportFile != "" {
		rows := report.Summarize(pipeline.Names, reports(results))
		if err := report.Write(d.reportFile, rows); err != nil {
			logging.FromContext(ctx).Errorw("unable to write model report", "path", d.reportFile, "error", err)
		}
	}
	return Response{Success: true, Trained: true, Results: results}, nil
}

func (d *Dispatcher) predict(ctx context.Context, req Request) (Response, error) {
	if req.Model == "" {
		return Response{}, fmt.Errorf("%w: provide 'model' (%s)", ErrMissingField, strings.Join(pipeline.Names, "|"))
	}
	batch, err := features(req.Features)
	if err != nil {
		return Response{}, err
	}
	if _, err := d.registry.EnsureExists(ctx); err != nil {
		return Response{}, err
	}
	res, err := d.registry.Predict(ctx, req.Model, batch)
	if err != nil {
		return Response{}, err
	}
	return Response{Success: true, Model: req.Model, Result: res}, nil
}

func (d *Dispatcher) predictAll(ctx context.Context, req Request) (Response, error) {
	batch, err := features(req.Features)
	if err != nil {
		return Response{}, err
	}
	if _, err := d.registry.EnsureExists(ctx); err != nil {
		return Response{}, err
	}

	results := make(map[string]ModelResult, len(pipeline.Names))
	for _, name := range pipeline.Names {
		res, err := d.registry.Predict(ctx, name, batch)
		if err != nil {
			logging.FromContext(ctx).Warnw("model prediction failed", "model", name, "error", err)
			results[name] = ModelResult{Error: err.Error()}
			continue
		}
		results[name] = ModelResult{Result: res}
	}
	return Response{Success: true, Results: results}, nil
}

func (d *Dispatcher) status(ctx context.Context) (Response, error) {
	names, err := d.registry.Status(ctx)
	if err != nil {
		return Response{}, err
	}
	if names == nil {
		names = []string{}
	}
	return Response{Success: true, Models: &names}, nil
}

// features decodes a single vector or a batch of vectors into a batch.
func features(raw json.RawMessage) ([][]float64, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("%w: provide 'features' as a list of numbers or a list of lists", ErrMissingField)
	}
	var vec []float64
	if err := json.Unmarshal(trimmed, &vec); err == nil {
		return [][]float64{vec}, nil
	}
	var batch [][]float64
	if err := json.Unmarshal(trimmed, &batch); err != nil {
		return nil, fmt.Errorf("%w: features: %v", ErrInvalidRequest, err)
	}
	return batch, nil
}

func reports(results map[string]registry.Evaluation) map[string]report.Scores {
	out := make(map[string]report.Scores, len(results))
	for name, eval := range results {
		out[name] = report.Scores{
			Accuracy:  eval.Accuracy,
			Precision: eval.Report.WeightedAvg.Precision,
			Recall:    eval.Report.WeightedAvg.Recall,
			F1:        eval.Report.WeightedAvg.F1,
		}
	}
	return out
}
