// Package registry trains, persists and serves the five named pipelines.
package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sod/perfml/internal/artifact"
	"github.com/go-sod/perfml/internal/dataset"
	"github.com/go-sod/perfml/internal/logging"
	"github.com/go-sod/perfml/internal/metrics"
	"github.com/go-sod/perfml/internal/pipeline"
	"golang.org/x/sync/errgroup"
)

var (
	ErrModelNotFound     = errors.New("model not found")
	ErrPredictionFailure = errors.New("prediction failed")
)

const (
	DefaultTestFraction   = 0.2
	DefaultSeed           = 42
	DefaultFitConcurrency = 5
)

// ProvideFn builds a Registry over the given store.
type ProvideFn func(artifact.Store) (*Registry, error)

// Evaluation scores a trained pipeline on the held-out test rows. The
// confusion matrix covers the classes the report lists.
type Evaluation struct {
	Accuracy        float64        `json:"accuracy"`
	Report          metrics.Report `json:"classification_report"`
	ConfusionMatrix [][]int        `json:"confusion_matrix"`
}

// Result holds the predictions of one pipeline. Probabilities is null for
// pipelines without probability support.
type Result struct {
	Predictions   []dataset.Label `json:"predictions"`
	Probabilities [][]float64     `json:"probabilities"`
}

type Option func(*Registry)

func WithTestFraction(f float64) Option {
	return func(r *Registry) {
		if f > 0 && f < 1 {
			r.testFraction = f
		}
	}
}

func WithSeed(seed int64) Option {
	return func(r *Registry) {
		r.seed = seed
	}
}

func WithFitConcurrency(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

func WithParams(p pipeline.Params) Option {
	return func(r *Registry) {
		r.params = p
	}
}

func New(store artifact.Store, opts ...Option) (*Registry, error) {
	if store == nil {
		return nil, fmt.Errorf("artifact store is not created")
	}
	r := &Registry{
		store:        store,
		testFraction: DefaultTestFraction,
		seed:         DefaultSeed,
		concurrency:  DefaultFitConcurrency,
		params:       pipeline.DefaultParams(),
	}
	for _, f := range opts {
		f(r)
	}
	return r, nil
}

type Registry struct {
	store        artifact.Store
	testFraction float64
	seed         int64
	concurrency  int
	params       pipeline.Params
}

type fitted struct {
	pipeline   *pipeline.Pipeline
	evaluation Evaluation
}

// TrainAll fits every pipeline on the train split of the dataset at path (the
// reference dataset when path is empty), scores it on the test split and
// replaces the stored artifacts.
func (r *Registry) TrainAll(ctx context.Context, path string) (map[string]Evaluation, error) {
	logger := logging.FromContext(ctx)

	ds, err := dataset.Load(path)
	if err != nil {
		return nil, err
	}
	train, test, err := dataset.Split(ds, r.testFraction, r.seed)
	if err != nil {
		return nil, fmt.Errorf("split dataset: %w", err)
	}
	classes := dataset.Classes(ds.Labels)
	logger.Infow("training pipelines",
		"rows", ds.Len(), "train", train.Len(), "test", test.Len(), "classes", classes)

	out := make([]fitted, len(pipeline.Names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, name := range pipeline.Names {
		i, name := i, name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			started := time.Now()
			res, err := r.fit(name, ds.Header, train, test, classes)
			if err != nil {
				return err
			}
			logger.Debugw("pipeline fitted",
				"model", name, "accuracy", res.evaluation.Accuracy, "took", time.Since(started))
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}

	results := make(map[string]Evaluation, len(out))
	for i, name := range pipeline.Names {
		data, err := pipeline.Marshal(out[i].pipeline)
		if err != nil {
			return nil, err
		}
		if err := r.store.Put(ctx, name, data); err != nil {
			return nil, fmt.Errorf("persist %s: %w", name, err)
		}
		results[name] = out[i].evaluation
	}
	return results, nil
}

func (r *Registry) fit(name string, header []string, train, test *dataset.Dataset, classes []string) (fitted, error) {
	spec, _ := pipeline.Lookup(name)
	p := spec.New(r.params, r.seed)
	if err := p.Fit(train.Features, train.Labels, classes); err != nil {
		return fitted{}, err
	}

	yTrue, err := dataset.Encode(test.Labels, classes)
	if err != nil {
		return fitted{}, fmt.Errorf("%s: %w", name, err)
	}
	yPred, _, err := p.Predict(test.Features)
	if err != nil {
		return fitted{}, fmt.Errorf("%s: evaluate: %w", name, err)
	}

	eval := Evaluation{
		Accuracy:        metrics.Accuracy(yTrue, yPred),
		Report:          metrics.ClassificationReport(yTrue, yPred, classes),
		ConfusionMatrix: metrics.ConfusionMatrix(yTrue, yPred, metrics.Present(yTrue, yPred)),
	}
	p.Metadata.Accuracy = eval.Accuracy
	p.Metadata.Features = append([]string(nil), header[:len(header)-1]...)
	return fitted{pipeline: p, evaluation: eval}, nil
}

// Load returns the stored pipeline of a known name.
func (r *Registry) Load(ctx context.Context, name string) (*pipeline.Pipeline, error) {
	if _, ok := pipeline.Lookup(name); !ok {
		return nil, fmt.Errorf("%w: unknown model %q", ErrModelNotFound, name)
	}
	data, err := r.store.Get(ctx, name)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s has not been trained", ErrModelNotFound, name)
		}
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	p, err := pipeline.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	return p, nil
}

// Predict runs a batch of feature vectors through the named pipeline.
func (r *Registry) Predict(ctx context.Context, name string, batch [][]float64) (*Result, error) {
	p, err := r.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	pred, proba, err := p.Predict(batch)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrPredictionFailure, name, err)
	}
	labels, err := p.Labels(pred)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPredictionFailure, err)
	}
	return &Result{Predictions: labels, Probabilities: proba}, nil
}

// EnsureExists trains on the reference dataset when no artifact is stored.
// It reports whether training ran.
func (r *Registry) EnsureExists(ctx context.Context) (bool, error) {
	names, err := r.Status(ctx)
	if err != nil {
		return false, err
	}
	if len(names) > 0 {
		return false, nil
	}
	logging.FromContext(ctx).Info("no stored models, training on the reference dataset")
	if _, err := r.TrainAll(ctx, ""); err != nil {
		return false, fmt.Errorf("bootstrap models: %w", err)
	}
	return true, nil
}

// Status lists the names that have a stored artifact, in pipeline order.
func (r *Registry) Status(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(pipeline.Names))
	for _, name := range pipeline.Names {
		ok, err := r.store.Has(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("status %s: %w", name, err)
		}
		if ok {
			names = append(names, name)
		}
	}
	return names, nil
}
