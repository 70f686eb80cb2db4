// Package tree is a CART decision tree classifier splitting on Gini impurity.
package tree

import (
	"fmt"
	"sort"

	"github.com/go-sod/perfml/internal/classifier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var _ classifier.Classifier = (*Classifier)(nil)

const (
	DefaultMaxDepth        = 10
	DefaultMinSamplesSplit = 2
)

type Option func(*Classifier)

func WithMaxDepth(depth int) Option {
	return func(c *Classifier) {
		if depth > 0 {
			c.MaxDepth = depth
		}
	}
}

func WithMinSamplesSplit(n int) Option {
	return func(c *Classifier) {
		if n >= 2 {
			c.MinSamplesSplit = n
		}
	}
}

func New(opts ...Option) *Classifier {
	c := &Classifier{MaxDepth: DefaultMaxDepth, MinSamplesSplit: DefaultMinSamplesSplit}
	for _, f := range opts {
		f(c)
	}
	return c
}

// Node is a tree node stored in a flat slice; children are slice indices.
// Samples with Feature <= Threshold go Left.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Leaf      bool
	// Counts holds the number of training samples per class that reached the node.
	Counts []float64
}

type Classifier struct {
	MaxDepth        int
	MinSamplesSplit int
	Width           int
	NumClasses      int
	Nodes           []Node
}

type builder struct {
	x       [][]float64
	y       []int
	classes int
	c       *Classifier
}

func (c *Classifier) Fit(x mat.Matrix, y []int, classes int) error {
	if err := classifier.CheckFit(x, y, classes); err != nil {
		return fmt.Errorf("decision tree fit: %w", err)
	}
	_, c.Width = x.Dims()
	c.NumClasses = classes
	c.Nodes = c.Nodes[:0]

	rows := make([]int, len(y))
	for i := range rows {
		rows[i] = i
	}
	b := &builder{x: classifier.Rows(x), y: y, classes: classes, c: c}
	b.grow(rows, 0)
	return nil
}

func (c *Classifier) Predict(x mat.Matrix) ([]int, error) {
	proba, err := c.PredictProba(x)
	if err != nil {
		return nil, err
	}
	return classifier.ArgMax(proba), nil
}

// PredictProba returns the class distribution of the leaf every row falls into.
func (c *Classifier) PredictProba(x mat.Matrix) (*mat.Dense, error) {
	if len(c.Nodes) == 0 {
		return nil, classifier.ErrNotFitted
	}
	if err := classifier.CheckWidth(x, c.Width); err != nil {
		return nil, err
	}
	r, _ := x.Dims()
	proba := mat.NewDense(r, c.NumClasses, nil)
	for i := 0; i < r; i++ {
		leaf, err := c.leaf(mat.Row(nil, i, x))
		if err != nil {
			return nil, err
		}
		dist := make([]float64, c.NumClasses)
		copy(dist, leaf.Counts)
		floats.Scale(1/floats.Sum(dist), dist)
		proba.SetRow(i, dist)
	}
	return proba, nil
}

// Depth returns the length of the longest root-to-leaf path.
func (c *Classifier) Depth() int {
	if len(c.Nodes) == 0 {
		return 0
	}
	var depth func(idx int) int
	depth = func(idx int) int {
		n := c.Nodes[idx]
		if n.Leaf {
			return 0
		}
		l, r := depth(n.Left), depth(n.Right)
		if l > r {
			return l + 1
		}
		return r + 1
	}
	return depth(0)
}

func (c *Classifier) leaf(row []float64) (Node, error) {
	idx := 0
	for {
		if idx < 0 || idx >= len(c.Nodes) {
			return Node{}, fmt.Errorf("invalid tree state at node %d", idx)
		}
		n := c.Nodes[idx]
		if n.Leaf {
			return n, nil
		}
		if row[n.Feature] <= n.Threshold {
			idx = n.Left
		} else {
			idx = n.Right
		}
	}
}

// grow appends the subtree for rows and returns the index of its root.
func (b *builder) grow(rows []int, depth int) int {
	counts := make([]float64, b.classes)
	for _, i := range rows {
		counts[b.y[i]]++
	}
	idx := len(b.c.Nodes)
	b.c.Nodes = append(b.c.Nodes, Node{Leaf: true, Left: -1, Right: -1, Counts: counts})

	if depth >= b.c.MaxDepth || len(rows) < b.c.MinSamplesSplit || gini(counts) == 0 {
		return idx
	}
	feature, threshold, ok := b.bestSplit(rows, counts)
	if !ok {
		return idx
	}

	var left, right []int
	for _, i := range rows {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.c.Nodes[idx] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r, Counts: counts}
	return idx
}

// bestSplit scans every feature for the threshold with the lowest weighted
// Gini impurity. It reports false when no split lowers the impurity.
func (b *builder) bestSplit(rows []int, counts []float64) (int, float64, bool) {
	n := float64(len(rows))
	best := gini(counts)
	bestFeature, bestThreshold, found := -1, 0.0, false

	sorted := make([]int, len(rows))
	left := make([]float64, b.classes)
	right := make([]float64, b.classes)
	width := len(b.x[rows[0]])
	for j := 0; j < width; j++ {
		copy(sorted, rows)
		sort.SliceStable(sorted, func(p, q int) bool {
			return b.x[sorted[p]][j] < b.x[sorted[q]][j]
		})
		for k := range left {
			left[k] = 0
		}
		copy(right, counts)

		for p := 0; p < len(sorted)-1; p++ {
			class := b.y[sorted[p]]
			left[class]++
			right[class]--

			v, next := b.x[sorted[p]][j], b.x[sorted[p+1]][j]
			if v == next {
				continue
			}
			nl := float64(p + 1)
			impurity := (nl*gini(left) + (n-nl)*gini(right)) / n
			if impurity < best-1e-12 {
				best = impurity
				bestFeature = j
				bestThreshold = midpoint(v, next)
				found = true
			}
		}
	}
	return bestFeature, bestThreshold, found
}

func gini(counts []float64) float64 {
	total := floats.Sum(counts)
	if total == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := c / total
		g -= p * p
	}
	return g
}

func midpoint(a, b float64) float64 {
	m := a + (b-a)/2
	if m >= b {
		return a
	}
	return m
}
