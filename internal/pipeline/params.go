package pipeline

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-sod/perfml/internal/classifier/knn"
	"github.com/go-sod/perfml/internal/classifier/mlp"
	"github.com/go-sod/perfml/internal/classifier/svm"
	"github.com/go-sod/perfml/internal/classifier/tree"
	"github.com/go-sod/perfml/internal/geom"
)

// Params holds the hyperparameters of the five pipelines. It is read from a
// TOML file with one table per pipeline name.
type Params struct {
	KNN           KNNParams           `toml:"knn"`
	DecisionTree  DecisionTreeParams  `toml:"decision_tree"`
	SVM           SVMParams           `toml:"svm"`
	NeuralNetwork NeuralNetworkParams `toml:"neural_network"`
}

type KNNParams struct {
	K      int    `toml:"k"`
	Metric string `toml:"metric"`
}

type DecisionTreeParams struct {
	MaxDepth int `toml:"max_depth"`
}

type SVMParams struct {
	C         float64 `toml:"c"`
	Tolerance float64 `toml:"tolerance"`
	MaxPasses int     `toml:"max_passes"`
}

type NeuralNetworkParams struct {
	Hidden       []int   `toml:"hidden"`
	MaxIter      int     `toml:"max_iter"`
	LearningRate float64 `toml:"learning_rate"`
	Alpha        float64 `toml:"alpha"`
}

func DefaultParams() Params {
	return Params{
		KNN:          KNNParams{K: knn.DefaultK, Metric: geom.MetricEuclidean},
		DecisionTree: DecisionTreeParams{MaxDepth: tree.DefaultMaxDepth},
		SVM: SVMParams{
			C:         svm.DefaultC,
			Tolerance: svm.DefaultTolerance,
			MaxPasses: svm.DefaultMaxPasses,
		},
		NeuralNetwork: NeuralNetworkParams{
			Hidden:       append([]int(nil), mlp.DefaultHidden...),
			MaxIter:      mlp.DefaultMaxIter,
			LearningRate: mlp.DefaultLearningRate,
			Alpha:        mlp.DefaultAlpha,
		},
	}
}

// LoadParams overlays the TOML file at path on DefaultParams. An empty path
// returns the defaults. Unknown keys are rejected.
func LoadParams(path string) (Params, error) {
	p := DefaultParams()
	if path == "" {
		return p, nil
	}
	md, err := toml.DecodeFile(path, &p)
	if err != nil {
		return Params{}, fmt.Errorf("decode params %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Params{}, fmt.Errorf("params %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if _, ok := geom.Distance(p.KNN.Metric); !ok {
		return Params{}, fmt.Errorf("params %s: unknown knn metric %q", path, p.KNN.Metric)
	}
	return p, nil
}
