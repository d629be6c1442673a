package sparsenet

import "math"
import "sort"

import "gonum.org/v1/gonum/mat"

// forwardState carries the activations one batch needs for the backward pass.
type forwardState struct {
	x        *mat.Dense
	hidden   *mat.Dense // post k-winners, rows x units
	logProbs *mat.Dense // rows x outputs
	counts   []float64  // per-unit winner counts over the batch
}

// TrainStep runs forward and backward over one batch in training mode,
// accumulating gradients and updating the duty cycle. Returns the mean
// negative log-likelihood. The caller steps the optimizer and re-applies the
// sparsity mask afterwards.
func (m *Net) TrainStep(x *mat.Dense, labels []int) float64 {
	rows, _ := x.Dims()
	st := m.runForward(x, m.active)
	m.noteTraining(st.counts, rows)
	nll := m.backwardInto(st, labels, 1/float64(rows), m.g)
	return nll / float64(rows)
}

// Predict runs inference over one batch and returns per-class log
// probabilities. Model state is untouched; the winner count is widened by the
// inference factor.
func (m *Net) Predict(x *mat.Dense) *mat.Dense {
	return m.runForward(x, m.kInference()).logProbs
}

// runForward computes the full forward pass with k winners per sample. It
// reads model state but never writes it, so concurrent calls are safe.
func (m *Net) runForward(x *mat.Dense, k int) *forwardState {
	rows, _ := x.Dims()

	z1 := mat.NewDense(rows, m.units, nil)
	z1.Mul(x, m.w1.T())
	for r := 0; r < rows; r++ {
		row := z1.RawRowView(r)
		for j := range row {
			row[j] += m.b1[j]
		}
	}

	hidden := mat.NewDense(rows, m.units, nil)
	counts := make([]float64, m.units)
	if k >= m.units {
		// dense fallback: plain ReLU
		for r := 0; r < rows; r++ {
			src := z1.RawRowView(r)
			dst := hidden.RawRowView(r)
			for j, v := range src {
				if v > 0 {
					dst[j] = v
					counts[j]++
				}
			}
		}
	} else {
		boost := make([]float64, m.units)
		target := float64(m.active) / float64(m.units)
		for j := range boost {
			boost[j] = math.Exp(m.boostStrength * (target - m.dutyCycle[j]))
		}
		idx := make([]int, m.units)
		for r := 0; r < rows; r++ {
			src := z1.RawRowView(r)
			for j := range idx {
				idx[j] = j
			}
			// winners are chosen on boosted values, ties broken by index
			sort.Slice(idx, func(a, b int) bool {
				ba, bb := src[idx[a]]*boost[idx[a]], src[idx[b]]*boost[idx[b]]
				if ba != bb {
					return ba > bb
				}
				return idx[a] < idx[b]
			})
			dst := hidden.RawRowView(r)
			for _, j := range idx[:k] {
				dst[j] = src[j] // winners keep their unboosted value
				counts[j]++
			}
		}
	}

	z2 := mat.NewDense(rows, m.outputs, nil)
	z2.Mul(hidden, m.w2.T())
	for r := 0; r < rows; r++ {
		row := z2.RawRowView(r)
		for j := range row {
			row[j] += m.b2[j]
		}
		max := row[0]
		for _, v := range row[1:] {
			if v > max {
				max = v
			}
		}
		var sum float64
		for _, v := range row {
			sum += math.Exp(v - max)
		}
		lse := max + math.Log(sum)
		for j := range row {
			row[j] -= lse
		}
	}

	return &forwardState{x: x, hidden: hidden, logProbs: z2, counts: counts}
}
