// Package pipeline binds the five named model configurations to an optional
// standard scaler and a classifier, and encodes fitted pipelines as artifacts.
package pipeline

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-sod/perfml/internal/classifier"
	"github.com/go-sod/perfml/internal/classifier/knn"
	"github.com/go-sod/perfml/internal/classifier/mlp"
	"github.com/go-sod/perfml/internal/classifier/naivebayes"
	"github.com/go-sod/perfml/internal/classifier/scale"
	"github.com/go-sod/perfml/internal/classifier/svm"
	"github.com/go-sod/perfml/internal/classifier/tree"
	"github.com/go-sod/perfml/internal/dataset"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

const (
	KNN           = "knn"
	NaiveBayes    = "naive_bayes"
	DecisionTree  = "decision_tree"
	SVM           = "svm"
	NeuralNetwork = "neural_network"
)

// ErrNonFinite reports class probabilities that cannot be represented, as
// happens for inputs far outside the training range.
var ErrNonFinite = errors.New("non-finite class probability")

// Names lists the pipelines in their fixed order.
var Names = []string{KNN, NaiveBayes, DecisionTree, SVM, NeuralNetwork}

// Spec describes how a named pipeline is assembled. Probability reports
// whether the classifier is configured to return class probabilities.
type Spec struct {
	Name        string
	Scale       bool
	Probability bool
	build       func(p Params, seed int64) classifier.Classifier
}

var specs = map[string]Spec{
	KNN: {
		Name: KNN, Scale: true, Probability: true,
		build: func(p Params, _ int64) classifier.Classifier {
			return knn.New(knn.WithK(p.KNN.K), knn.WithMetric(p.KNN.Metric))
		},
	},
	NaiveBayes: {
		Name: NaiveBayes, Scale: true, Probability: true,
		build: func(Params, int64) classifier.Classifier {
			return naivebayes.New()
		},
	},
	DecisionTree: {
		Name: DecisionTree, Scale: false, Probability: true,
		build: func(p Params, _ int64) classifier.Classifier {
			return tree.New(tree.WithMaxDepth(p.DecisionTree.MaxDepth))
		},
	},
	SVM: {
		Name: SVM, Scale: true, Probability: true,
		build: func(p Params, seed int64) classifier.Classifier {
			return svm.New(
				svm.WithC(p.SVM.C),
				svm.WithTolerance(p.SVM.Tolerance),
				svm.WithMaxPasses(p.SVM.MaxPasses),
				svm.WithSeed(seed),
			)
		},
	},
	NeuralNetwork: {
		Name: NeuralNetwork, Scale: true, Probability: true,
		build: func(p Params, seed int64) classifier.Classifier {
			return mlp.New(
				mlp.WithHidden(p.NeuralNetwork.Hidden...),
				mlp.WithMaxIter(p.NeuralNetwork.MaxIter),
				mlp.WithLearningRate(p.NeuralNetwork.LearningRate),
				mlp.WithAlpha(p.NeuralNetwork.Alpha),
				mlp.WithSeed(seed),
			)
		},
	},
}

// Lookup returns how a named pipeline is assembled.
func Lookup(name string) (Spec, bool) {
	s, ok := specs[name]
	return s, ok
}

// New assembles an unfitted pipeline.
func (s Spec) New(p Params, seed int64) *Pipeline {
	pl := &Pipeline{
		Name:        s.Name,
		Probability: s.Probability,
		Model:       s.build(p, seed),
	}
	if s.Scale {
		pl.Scaler = scale.NewStandard()
	}
	return pl
}

type Metadata struct {
	RunID     string
	CreatedAt time.Time
	Features  []string
	Classes   []string
	Width     int
	Accuracy  float64
}

// Pipeline is a scaler, when configured, followed by a classifier.
type Pipeline struct {
	Name        string
	Probability bool
	Scaler      *scale.Standard
	Model       classifier.Classifier
	Metadata    Metadata
}

// Fit trains the pipeline. classes fixes the class order of predictions and
// probabilities.
func (p *Pipeline) Fit(x [][]float64, labels, classes []string) error {
	y, err := dataset.Encode(labels, classes)
	if err != nil {
		return fmt.Errorf("%s: encode labels: %w", p.Name, err)
	}
	m, err := classifier.Dense(x)
	if err != nil {
		return fmt.Errorf("%s: %w", p.Name, err)
	}
	in, err := p.scale(m, true)
	if err != nil {
		return err
	}
	if err := p.Model.Fit(in, y, len(classes)); err != nil {
		return fmt.Errorf("%s: %w", p.Name, err)
	}

	_, width := m.Dims()
	p.Metadata.RunID = uuid.NewString()
	p.Metadata.CreatedAt = time.Now().UTC()
	p.Metadata.Classes = append([]string(nil), classes...)
	p.Metadata.Width = width
	return nil
}

// Predict returns the class index of every row and, when the pipeline
// supports it, the per-class probabilities in training class order.
func (p *Pipeline) Predict(x [][]float64) ([]int, [][]float64, error) {
	m, err := classifier.Dense(x)
	if err != nil {
		return nil, nil, err
	}
	in, err := p.scale(m, false)
	if err != nil {
		return nil, nil, err
	}
	pred, err := p.Model.Predict(in)
	if err != nil {
		return nil, nil, err
	}
	if !p.Probability {
		return pred, nil, nil
	}
	proba, err := p.Model.PredictProba(in)
	if err != nil {
		return nil, nil, err
	}
	rows := classifier.Rows(proba)
	for i, row := range rows {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, nil, fmt.Errorf("%w: row %d", ErrNonFinite, i)
			}
		}
	}
	return pred, rows, nil
}

// Labels maps class indices back to the training labels.
func (p *Pipeline) Labels(idx []int) ([]dataset.Label, error) {
	out := make([]dataset.Label, len(idx))
	for i, k := range idx {
		if k < 0 || k >= len(p.Metadata.Classes) {
			return nil, fmt.Errorf("%s: class index %d out of range", p.Name, k)
		}
		out[i] = dataset.Label(p.Metadata.Classes[k])
	}
	return out, nil
}

func (p *Pipeline) scale(m *mat.Dense, fit bool) (mat.Matrix, error) {
	if p.Scaler == nil {
		return m, nil
	}
	var (
		out *mat.Dense
		err error
	)
	if fit {
		out, err = p.Scaler.FitTransform(m)
	} else {
		out, err = p.Scaler.Transform(m)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: scale: %w", p.Name, err)
	}
	return out, nil
}
