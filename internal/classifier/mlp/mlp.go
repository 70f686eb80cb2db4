// Package mlp is a multilayer perceptron classifier: ReLU hidden layers, a
// softmax output layer and cross-entropy loss with L2 regularisation, trained
// by mini-batch Adam.
package mlp

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/go-sod/perfml/internal/classifier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var _ classifier.Classifier = (*Classifier)(nil)

const (
	DefaultMaxIter       = 500
	DefaultLearningRate  = 1e-3
	DefaultAlpha         = 1e-4
	DefaultBatchSize     = 200
	DefaultTol           = 1e-4
	DefaultNIterNoChange = 10

	beta1   = 0.9
	beta2   = 0.999
	epsilon = 1e-8
)

var DefaultHidden = []int{64, 32}

type Option func(*Classifier)

func WithHidden(sizes ...int) Option {
	return func(c *Classifier) {
		for _, s := range sizes {
			if s <= 0 {
				return
			}
		}
		if len(sizes) > 0 {
			c.Hidden = append([]int(nil), sizes...)
		}
	}
}

func WithMaxIter(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.MaxIter = n
		}
	}
}

func WithLearningRate(rate float64) Option {
	return func(c *Classifier) {
		if rate > 0 {
			c.LearningRate = rate
		}
	}
}

func WithAlpha(alpha float64) Option {
	return func(c *Classifier) {
		if alpha >= 0 {
			c.Alpha = alpha
		}
	}
}

func WithSeed(seed int64) Option {
	return func(c *Classifier) {
		c.Seed = seed
	}
}

func New(opts ...Option) *Classifier {
	c := &Classifier{
		Hidden:        append([]int(nil), DefaultHidden...),
		MaxIter:       DefaultMaxIter,
		LearningRate:  DefaultLearningRate,
		Alpha:         DefaultAlpha,
		BatchSize:     DefaultBatchSize,
		Tol:           DefaultTol,
		NIterNoChange: DefaultNIterNoChange,
	}
	for _, f := range opts {
		f(c)
	}
	return c
}

// Layer is a dense layer; Weights is an In x Out row-major matrix.
type Layer struct {
	In      int
	Out     int
	Weights []float64
	Bias    []float64
}

func (l *Layer) weights() *mat.Dense {
	return mat.NewDense(l.In, l.Out, l.Weights)
}

type Classifier struct {
	Hidden        []int
	MaxIter       int
	LearningRate  float64
	Alpha         float64
	BatchSize     int
	Tol           float64
	NIterNoChange int
	Seed          int64

	Width      int
	NumClasses int
	Layers     []Layer
	// Epochs is the number of passes over the data run by the last Fit.
	Epochs int
	// LossCurve holds the mean training loss of every epoch.
	LossCurve []float64
}

// adam keeps the first and second moment estimates of one parameter slice.
type adam struct {
	m, v []float64
}

func (c *Classifier) Fit(x mat.Matrix, y []int, classes int) error {
	if err := classifier.CheckFit(x, y, classes); err != nil {
		return fmt.Errorf("mlp fit: %w", err)
	}
	n, width := x.Dims()
	c.Width = width
	c.NumClasses = classes

	rng := rand.New(rand.NewSource(c.Seed))
	c.init(rng)

	moments := make([]adam, 2*len(c.Layers))
	for i, l := range c.Layers {
		moments[2*i] = adam{m: make([]float64, len(l.Weights)), v: make([]float64, len(l.Weights))}
		moments[2*i+1] = adam{m: make([]float64, len(l.Bias)), v: make([]float64, len(l.Bias))}
	}

	batch := c.BatchSize
	if batch <= 0 || batch > n {
		batch = n
	}

	src := mat.DenseCopyOf(x)
	best := math.Inf(1)
	noChange := 0
	step := 0
	c.LossCurve = c.LossCurve[:0]
	for c.Epochs = 0; c.Epochs < c.MaxIter; {
		perm := rng.Perm(n)
		var total float64
		for start := 0; start < n; start += batch {
			end := start + batch
			if end > n {
				end = n
			}
			xb := mat.NewDense(end-start, width, nil)
			yb := make([]int, end-start)
			for i, idx := range perm[start:end] {
				xb.SetRow(i, src.RawRowView(idx))
				yb[i] = y[idx]
			}

			acts := c.forward(xb)
			total += c.loss(acts[len(acts)-1], yb) * float64(end-start)

			step++
			c.update(moments, c.gradients(acts, yb), step)
		}
		c.Epochs++
		epochLoss := total / float64(n)
		c.LossCurve = append(c.LossCurve, epochLoss)

		if epochLoss > best-c.Tol {
			noChange++
		} else {
			noChange = 0
		}
		if epochLoss < best {
			best = epochLoss
		}
		if noChange > c.NIterNoChange {
			break
		}
	}
	return nil
}

func (c *Classifier) Predict(x mat.Matrix) ([]int, error) {
	proba, err := c.PredictProba(x)
	if err != nil {
		return nil, err
	}
	return classifier.ArgMax(proba), nil
}

func (c *Classifier) PredictProba(x mat.Matrix) (*mat.Dense, error) {
	if len(c.Layers) == 0 {
		return nil, classifier.ErrNotFitted
	}
	if err := classifier.CheckWidth(x, c.Width); err != nil {
		return nil, err
	}
	acts := c.forward(x)
	return acts[len(acts)-1], nil
}

// init draws Glorot-uniform weights and biases for every layer.
func (c *Classifier) init(rng *rand.Rand) {
	sizes := append(append([]int{c.Width}, c.Hidden...), c.NumClasses)
	c.Layers = make([]Layer, len(sizes)-1)
	for i := range c.Layers {
		in, out := sizes[i], sizes[i+1]
		bound := math.Sqrt(6 / float64(in+out))
		l := Layer{In: in, Out: out, Weights: make([]float64, in*out), Bias: make([]float64, out)}
		for k := range l.Weights {
			l.Weights[k] = (2*rng.Float64() - 1) * bound
		}
		for k := range l.Bias {
			l.Bias[k] = (2*rng.Float64() - 1) * bound
		}
		c.Layers[i] = l
	}
}

// forward returns the activations of every layer, input first.
func (c *Classifier) forward(x mat.Matrix) []*mat.Dense {
	acts := make([]*mat.Dense, len(c.Layers)+1)
	acts[0] = mat.DenseCopyOf(x)
	for i := range c.Layers {
		l := &c.Layers[i]
		last := i == len(c.Layers)-1

		z := &mat.Dense{}
		z.Mul(acts[i], l.weights())
		z.Apply(func(_, j int, v float64) float64 {
			v += l.Bias[j]
			if !last && v < 0 {
				return 0
			}
			return v
		}, z)
		if last {
			softmax(z)
		}
		acts[i+1] = z
	}
	return acts
}

// loss is the mean cross-entropy of proba against y plus the L2 penalty.
func (c *Classifier) loss(proba *mat.Dense, y []int) float64 {
	var ce float64
	for i, k := range y {
		ce -= math.Log(math.Max(proba.At(i, k), 1e-10))
	}
	n := float64(len(y))
	var penalty float64
	for _, l := range c.Layers {
		penalty += floats.Dot(l.Weights, l.Weights)
	}
	return ce/n + 0.5*c.Alpha*penalty/n
}

// gradients backpropagates the loss and returns weight and bias gradients
// interleaved per layer.
func (c *Classifier) gradients(acts []*mat.Dense, y []int) [][]float64 {
	n := float64(len(y))
	grads := make([][]float64, 2*len(c.Layers))

	delta := mat.DenseCopyOf(acts[len(acts)-1])
	for i, k := range y {
		delta.Set(i, k, delta.At(i, k)-1)
	}
	delta.Scale(1/n, delta)

	for li := len(c.Layers) - 1; li >= 0; li-- {
		l := &c.Layers[li]

		gw := mat.NewDense(l.In, l.Out, nil)
		gw.Mul(acts[li].T(), delta)
		w := gw.RawMatrix().Data
		for k := range w {
			w[k] += c.Alpha * l.Weights[k] / n
		}
		r, _ := delta.Dims()
		gb := make([]float64, l.Out)
		for i := 0; i < r; i++ {
			floats.Add(gb, delta.RawRowView(i))
		}
		grads[2*li], grads[2*li+1] = w, gb

		if li == 0 {
			break
		}
		prev := &mat.Dense{}
		prev.Mul(delta, l.weights().T())
		act := acts[li]
		prev.Apply(func(i, j int, v float64) float64 {
			if act.At(i, j) <= 0 {
				return 0
			}
			return v
		}, prev)
		delta = prev
	}
	return grads
}

func (c *Classifier) update(moments []adam, grads [][]float64, step int) {
	t := float64(step)
	rate := c.LearningRate * math.Sqrt(1-math.Pow(beta2, t)) / (1 - math.Pow(beta1, t))
	for i := range c.Layers {
		params := [][]float64{c.Layers[i].Weights, c.Layers[i].Bias}
		for p, values := range params {
			m := moments[2*i+p]
			g := grads[2*i+p]
			for k := range values {
				m.m[k] = beta1*m.m[k] + (1-beta1)*g[k]
				m.v[k] = beta2*m.v[k] + (1-beta2)*g[k]*g[k]
				values[k] -= rate * m.m[k] / (math.Sqrt(m.v[k]) + epsilon)
			}
		}
	}
}

func softmax(z *mat.Dense) {
	r, _ := z.Dims()
	for i := 0; i < r; i++ {
		row := z.RawRowView(i)
		top := floats.Max(row)
		for k := range row {
			row[k] = math.Exp(row[k] - top)
		}
		floats.Scale(1/floats.Sum(row), row)
	}
}
