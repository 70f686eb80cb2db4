// Package knn is a k-nearest-neighbours classifier with uniform votes. Nearest
// neighbours are searched with a kd-tree built over the training points.
package knn

import (
	"fmt"
	"sync"

	"github.com/go-sod/perfml/internal/classifier"
	"github.com/go-sod/perfml/internal/geom"
	"github.com/go-sod/perfml/pkg/container/kdtree"
	"gonum.org/v1/gonum/mat"
)

var _ classifier.Classifier = (*Classifier)(nil)

const DefaultK = 5

type Option func(*Classifier)

func WithK(k int) Option {
	return func(c *Classifier) {
		if k > 0 {
			c.K = k
		}
	}
}

// WithMetric selects the distance by name, see geom.Distance.
func WithMetric(metric string) Option {
	return func(c *Classifier) {
		if metric != "" {
			c.Metric = metric
		}
	}
}

func New(opts ...Option) *Classifier {
	c := &Classifier{K: DefaultK, Metric: geom.MetricEuclidean}
	for _, f := range opts {
		f(c)
	}
	return c
}

// Classifier keeps the training points; the tree is rebuilt on first use after
// decoding.
type Classifier struct {
	K          int
	Metric     string
	Points     [][]float64
	Classes    []int
	NumClasses int

	once sync.Once
	tree *kdtree.Tree
}

func (c *Classifier) Fit(x mat.Matrix, y []int, classes int) error {
	if err := classifier.CheckFit(x, y, classes); err != nil {
		return fmt.Errorf("knn fit: %w", err)
	}
	if _, ok := geom.Distance(c.Metric); !ok {
		return fmt.Errorf("knn fit: unknown metric %q", c.Metric)
	}
	c.Points = classifier.Rows(x)
	c.Classes = append([]int(nil), y...)
	c.NumClasses = classes
	c.once = sync.Once{}
	c.tree = nil
	return nil
}

func (c *Classifier) Predict(x mat.Matrix) ([]int, error) {
	proba, err := c.PredictProba(x)
	if err != nil {
		return nil, err
	}
	return classifier.ArgMax(proba), nil
}

// PredictProba returns the share of each class among the k nearest points.
func (c *Classifier) PredictProba(x mat.Matrix) (*mat.Dense, error) {
	if len(c.Points) == 0 {
		return nil, classifier.ErrNotFitted
	}
	if err := classifier.CheckWidth(x, len(c.Points[0])); err != nil {
		return nil, err
	}
	tree := c.index()
	k := c.K
	if k > len(c.Points) {
		k = len(c.Points)
	}

	r, _ := x.Dims()
	proba := mat.NewDense(r, c.NumClasses, nil)
	for i := 0; i < r; i++ {
		nn, err := tree.KNN(geom.NewPoint(mat.Row(nil, i, x)), k)
		if err != nil {
			return nil, fmt.Errorf("knn search: %w", err)
		}
		votes := make([]float64, c.NumClasses)
		for _, n := range nn {
			votes[n.Point.(geom.Labeled).Class]++
		}
		for j := range votes {
			proba.Set(i, j, votes[j]/float64(len(nn)))
		}
	}
	return proba, nil
}

func (c *Classifier) index() *kdtree.Tree {
	c.once.Do(func() {
		points := make([]kdtree.Point, len(c.Points))
		for i := range c.Points {
			points[i] = geom.NewLabeled(c.Points[i], c.Classes[i])
		}
		dist, ok := geom.Distance(c.Metric)
		if !ok {
			dist = geom.EuclideanDistance
		}
		c.tree = kdtree.New(dist)
		c.tree.Build(points...)
	})
	return c.tree
}
