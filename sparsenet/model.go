// Package sparsenet implements a two-layer sparse classifier: a linear hidden
// layer under a fixed random sparsity mask, a k-winners activation with
// duty-cycle driven boosting, and a linear log-softmax output. Gradients are
// computed by the package's own backward pass; winners pass their gradient
// straight through, losers block it.
package sparsenet

import "math"

import "gonum.org/v1/gonum/mat"

import "github.com/jacobeverist/htmresearch/optimize"

// Net is the trainable sparse classifier.
type Net struct {
	inputs  int
	units   int
	outputs int

	active              int
	kInferenceFactor    float64
	weightSparsity      float64
	boostStrength       float64
	boostStrengthFactor float64
	dutyCyclePeriod     int

	w1 *mat.Dense // units x inputs
	b1 []float64
	w2 *mat.Dense // outputs x units
	b2 []float64

	// mask flags which hidden weights may be non-zero (1 keeps, 0 forces zero)
	mask []float64

	g *grads

	dutyCycle          []float64
	learningIterations int
}

// grads accumulates parameter gradients between ZeroGrad and an optimizer step.
type grads struct {
	w1 *mat.Dense
	b1 []float64
	w2 *mat.Dense
	b2 []float64
}

func newGrads(m *Net) *grads {
	return &grads{
		w1: mat.NewDense(m.units, m.inputs, nil),
		b1: make([]float64, m.units),
		w2: mat.NewDense(m.outputs, m.units, nil),
		b2: make([]float64, m.outputs),
	}
}

func (g *grads) add(o *grads) {
	g.w1.Add(g.w1, o.w1)
	g.w2.Add(g.w2, o.w2)
	for i, v := range o.b1 {
		g.b1[i] += v
	}
	for i, v := range o.b2 {
		g.b2[i] += v
	}
}

func (g *grads) zero() {
	zeroSlice(g.w1.RawMatrix().Data)
	zeroSlice(g.w2.RawMatrix().Data)
	zeroSlice(g.b1)
	zeroSlice(g.b2)
}

func zeroSlice(s []float64) {
	for i := range s {
		s[i] = 0
	}
}

// ZeroGrad clears the accumulated gradients.
func (m *Net) ZeroGrad() {
	m.g.zero()
}

// Parameters returns flat views over weights and gradients in a stable order.
func (m *Net) Parameters() []optimize.Parameter {
	return []optimize.Parameter{
		{Data: m.w1.RawMatrix().Data, Grad: m.g.w1.RawMatrix().Data},
		{Data: m.b1, Grad: m.g.b1},
		{Data: m.w2.RawMatrix().Data, Grad: m.g.w2.RawMatrix().Data},
		{Data: m.b2, Grad: m.g.b2},
	}
}

// RezeroWeights re-applies the sparsity mask to the hidden weights. Called
// after every optimizer step so weights outside the mask stay exactly zero.
func (m *Net) RezeroWeights() {
	if m.weightSparsity >= 1 {
		return
	}
	data := m.w1.RawMatrix().Data
	for i, keep := range m.mask {
		data[i] *= keep
	}
}

// PostEpoch applies epoch-boundary bookkeeping: the boost strength decays by
// the configured factor.
func (m *Net) PostEpoch() {
	m.boostStrength *= m.boostStrengthFactor
}

// DutyCycle returns the per-unit winner frequency EMA. The slice aliases the
// model's state and must not be mutated.
func (m *Net) DutyCycle() []float64 {
	return m.dutyCycle
}

// LearningIterations returns the number of training samples seen.
func (m *Net) LearningIterations() int {
	return m.learningIterations
}

// BoostStrength returns the current boosting strength.
func (m *Net) BoostStrength() float64 {
	return m.boostStrength
}

// noteTraining folds one training batch's winner counts into the duty cycle
// and advances the sample counter. A no-op for the dense (k >= n) case.
func (m *Net) noteTraining(counts []float64, batch int) {
	m.learningIterations += batch
	if m.active >= m.units {
		return
	}
	period := m.dutyCyclePeriod
	if m.learningIterations < period {
		period = m.learningIterations
	}
	for j := range m.dutyCycle {
		m.dutyCycle[j] = (m.dutyCycle[j]*float64(period-batch) + counts[j]) / float64(period)
	}
}

// kInference is the widened winner count used outside training.
func (m *Net) kInference() int {
	k := int(math.Round(float64(m.active) * m.kInferenceFactor))
	if k < m.active {
		k = m.active
	}
	if k > m.units {
		k = m.units
	}
	return k
}
