// Package svm is a one-vs-rest support vector classifier with an RBF kernel.
// Every binary machine is trained with sequential minimal optimisation and
// calibrated into probabilities with Platt scaling.
package svm

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/go-sod/perfml/internal/classifier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var _ classifier.Classifier = (*Classifier)(nil)

const (
	DefaultC         = 1.0
	DefaultTolerance = 1e-3
	DefaultMaxPasses = 5
	DefaultMaxIter   = 1000

	// alphas below this are not kept as support vectors
	alphaEpsilon = 1e-8
)

type Option func(*Classifier)

func WithC(c float64) Option {
	return func(s *Classifier) {
		if c > 0 {
			s.C = c
		}
	}
}

func WithTolerance(tol float64) Option {
	return func(s *Classifier) {
		if tol > 0 {
			s.Tolerance = tol
		}
	}
}

func WithMaxPasses(n int) Option {
	return func(s *Classifier) {
		if n > 0 {
			s.MaxPasses = n
		}
	}
}

func WithMaxIter(n int) Option {
	return func(s *Classifier) {
		if n > 0 {
			s.MaxIter = n
		}
	}
}

func WithSeed(seed int64) Option {
	return func(s *Classifier) {
		s.Seed = seed
	}
}

func New(opts ...Option) *Classifier {
	s := &Classifier{
		C:         DefaultC,
		Tolerance: DefaultTolerance,
		MaxPasses: DefaultMaxPasses,
		MaxIter:   DefaultMaxIter,
	}
	for _, f := range opts {
		f(s)
	}
	return s
}

// Machine separates one class from the rest. A machine whose class had no
// training samples is Constant and always scores -Inf.
type Machine struct {
	Vectors  [][]float64
	Coef     []float64
	Bias     float64
	PlattA   float64
	PlattB   float64
	Constant bool
}

type Classifier struct {
	C         float64
	Tolerance float64
	MaxPasses int
	MaxIter   int
	Seed      int64

	// Gamma is derived from the training data as 1 / (features * variance).
	Gamma      float64
	Width      int
	NumClasses int
	Machines   []Machine
}

func (s *Classifier) Fit(x mat.Matrix, y []int, classes int) error {
	if err := classifier.CheckFit(x, y, classes); err != nil {
		return fmt.Errorf("svm fit: %w", err)
	}
	rows := classifier.Rows(x)
	n, width := x.Dims()
	s.Width = width
	s.NumClasses = classes
	s.Gamma = scaleGamma(rows, width)

	kernel := make([][]float64, n)
	for i := range kernel {
		kernel[i] = make([]float64, n)
		for j := 0; j <= i; j++ {
			kernel[i][j] = rbf(rows[i], rows[j], s.Gamma)
			kernel[j][i] = kernel[i][j]
		}
	}

	rng := rand.New(rand.NewSource(s.Seed))
	s.Machines = make([]Machine, classes)
	for k := 0; k < classes; k++ {
		target := make([]float64, n)
		positives := 0
		for i, v := range y {
			if v == k {
				target[i] = 1
				positives++
			} else {
				target[i] = -1
			}
		}
		switch positives {
		case 0:
			s.Machines[k] = Machine{Constant: true}
			continue
		case n:
			// every sample belongs to k: a constant positive scorer
			s.Machines[k] = Machine{Bias: 1, PlattA: -1}
			continue
		}

		alphas, bias := s.smo(kernel, target, rng)
		m := Machine{Bias: bias}
		for i, a := range alphas {
			if a > alphaEpsilon {
				m.Vectors = append(m.Vectors, rows[i])
				m.Coef = append(m.Coef, a*target[i])
			}
		}
		decisions := make([]float64, n)
		for i := range rows {
			decisions[i] = m.decision(rows[i], s.Gamma)
		}
		m.PlattA, m.PlattB = platt(decisions, target)
		s.Machines[k] = m
	}
	return nil
}

// Predict picks the class whose machine has the largest decision value.
func (s *Classifier) Predict(x mat.Matrix) ([]int, error) {
	dec, err := s.DecisionFunction(x)
	if err != nil {
		return nil, err
	}
	return classifier.ArgMax(dec), nil
}

// DecisionFunction returns the signed distance of every row to every machine's
// hyperplane.
func (s *Classifier) DecisionFunction(x mat.Matrix) (*mat.Dense, error) {
	if len(s.Machines) == 0 {
		return nil, classifier.ErrNotFitted
	}
	if err := classifier.CheckWidth(x, s.Width); err != nil {
		return nil, err
	}
	r, _ := x.Dims()
	out := mat.NewDense(r, s.NumClasses, nil)
	row := make([]float64, s.Width)
	for i := 0; i < r; i++ {
		mat.Row(row, i, x)
		for k := range s.Machines {
			if s.Machines[k].Constant {
				out.Set(i, k, math.Inf(-1))
				continue
			}
			out.Set(i, k, s.Machines[k].decision(row, s.Gamma))
		}
	}
	return out, nil
}

// PredictProba maps every machine's decision value through its sigmoid and
// normalises the one-vs-rest scores to sum to one.
func (s *Classifier) PredictProba(x mat.Matrix) (*mat.Dense, error) {
	dec, err := s.DecisionFunction(x)
	if err != nil {
		return nil, err
	}
	r, _ := dec.Dims()
	proba := mat.NewDense(r, s.NumClasses, nil)
	p := make([]float64, s.NumClasses)
	for i := 0; i < r; i++ {
		for k, m := range s.Machines {
			if m.Constant {
				p[k] = 0
				continue
			}
			p[k] = sigmoid(dec.At(i, k)*m.PlattA + m.PlattB)
		}
		if sum := floats.Sum(p); sum > 0 {
			floats.Scale(1/sum, p)
		} else {
			for k := range p {
				p[k] = 1 / float64(len(p))
			}
		}
		proba.SetRow(i, p)
	}
	return proba, nil
}

func (m *Machine) decision(row []float64, gamma float64) float64 {
	f := m.Bias
	for i, v := range m.Vectors {
		f += m.Coef[i] * rbf(v, row, gamma)
	}
	return f
}

// smo solves the dual problem for one binary target in {-1, 1} and returns
// the multipliers and the bias.
func (s *Classifier) smo(kernel [][]float64, target []float64, rng *rand.Rand) ([]float64, float64) {
	n := len(target)
	alphas := make([]float64, n)
	bias := 0.0
	f := func(i int) float64 {
		v := bias
		for j, a := range alphas {
			if a != 0 {
				v += a * target[j] * kernel[j][i]
			}
		}
		return v
	}

	passes := 0
	for iter := 0; passes < s.MaxPasses && iter < s.MaxIter; iter++ {
		changed := 0
		for i := 0; i < n; i++ {
			ei := f(i) - target[i]
			if !(target[i]*ei < -s.Tolerance && alphas[i] < s.C) && !(target[i]*ei > s.Tolerance && alphas[i] > 0) {
				continue
			}
			j := rng.Intn(n - 1)
			if j >= i {
				j++
			}
			ej := f(j) - target[j]
			ai, aj := alphas[i], alphas[j]

			var lo, hi float64
			if target[i] != target[j] {
				lo, hi = math.Max(0, aj-ai), math.Min(s.C, s.C+aj-ai)
			} else {
				lo, hi = math.Max(0, ai+aj-s.C), math.Min(s.C, ai+aj)
			}
			if lo == hi {
				continue
			}
			eta := 2*kernel[i][j] - kernel[i][i] - kernel[j][j]
			if eta >= 0 {
				continue
			}

			alphas[j] = math.Min(hi, math.Max(lo, aj-target[j]*(ei-ej)/eta))
			if math.Abs(alphas[j]-aj) < 1e-5 {
				alphas[j] = aj
				continue
			}
			alphas[i] = ai + target[i]*target[j]*(aj-alphas[j])

			di, dj := target[i]*(alphas[i]-ai), target[j]*(alphas[j]-aj)
			b1 := bias - ei - di*kernel[i][i] - dj*kernel[i][j]
			b2 := bias - ej - di*kernel[i][j] - dj*kernel[j][j]
			switch {
			case alphas[i] > 0 && alphas[i] < s.C:
				bias = b1
			case alphas[j] > 0 && alphas[j] < s.C:
				bias = b2
			default:
				bias = (b1 + b2) / 2
			}
			changed++
		}
		if changed == 0 {
			passes++
		} else {
			passes = 0
		}
	}
	return alphas, bias
}

// platt fits P(y=1|f) = 1/(1+exp(A*f+B)) by Newton's method with backtracking
// on regularised targets.
func platt(dec, target []float64) (float64, float64) {
	var prior1, prior0 float64
	for _, t := range target {
		if t > 0 {
			prior1++
		} else {
			prior0++
		}
	}
	hi, lo := (prior1+1)/(prior1+2), 1/(prior0+2)
	t := make([]float64, len(target))
	for i, v := range target {
		if v > 0 {
			t[i] = hi
		} else {
			t[i] = lo
		}
	}

	const (
		maxIter = 100
		minStep = 1e-10
		sigma   = 1e-12
		eps     = 1e-5
	)
	a, b := 0.0, math.Log((prior0+1)/(prior1+1))
	fval := plattLoss(dec, t, a, b)
	for it := 0; it < maxIter; it++ {
		h11, h22, h21, g1, g2 := sigma, sigma, 0.0, 0.0, 0.0
		for i, d := range dec {
			fApB := d*a + b
			var p, q float64
			if fApB >= 0 {
				e := math.Exp(-fApB)
				p, q = e/(1+e), 1/(1+e)
			} else {
				e := math.Exp(fApB)
				p, q = 1/(1+e), e/(1+e)
			}
			d2 := p * q
			h11 += d * d * d2
			h22 += d2
			h21 += d * d2
			d1 := t[i] - p
			g1 += d * d1
			g2 += d1
		}
		if math.Abs(g1) < eps && math.Abs(g2) < eps {
			break
		}

		det := h11*h22 - h21*h21
		da := -(h22*g1 - h21*g2) / det
		db := -(-h21*g1 + h11*g2) / det
		gd := g1*da + g2*db

		step := 1.0
		for ; step >= minStep; step /= 2 {
			na, nb := a+step*da, b+step*db
			if nf := plattLoss(dec, t, na, nb); nf < fval+1e-4*step*gd {
				a, b, fval = na, nb, nf
				break
			}
		}
		if step < minStep {
			break
		}
	}
	return a, b
}

func plattLoss(dec, t []float64, a, b float64) float64 {
	var loss float64
	for i, d := range dec {
		fApB := d*a + b
		if fApB >= 0 {
			loss += t[i]*fApB + math.Log1p(math.Exp(-fApB))
		} else {
			loss += (t[i]-1)*fApB + math.Log1p(math.Exp(fApB))
		}
	}
	return loss
}

// sigmoid returns 1/(1+exp(v)) without overflowing.
func sigmoid(v float64) float64 {
	if v >= 0 {
		e := math.Exp(-v)
		return e / (1 + e)
	}
	return 1 / (1 + math.Exp(v))
}

func rbf(a, b []float64, gamma float64) float64 {
	var d float64
	for i := range a {
		diff := a[i] - b[i]
		d += diff * diff
	}
	return math.Exp(-gamma * d)
}

func scaleGamma(rows [][]float64, width int) float64 {
	all := make([]float64, 0, len(rows)*width)
	for _, r := range rows {
		all = append(all, r...)
	}
	_, v := stat.PopMeanVariance(all, nil)
	if v == 0 {
		return 1
	}
	return 1 / (float64(width) * v)
}
