package sparsenet

import "math"

import "gonum.org/v1/gonum/mat"

// backwardInto backpropagates one forward state and adds the gradients,
// pre-scaled by scale, into g. Returns the summed (unscaled) negative
// log-likelihood of the batch. Reads model weights only, so concurrent calls
// with distinct grad buffers are safe.
func (m *Net) backwardInto(st *forwardState, labels []int, scale float64, g *grads) float64 {
	rows, _ := st.x.Dims()

	// gradient at the log-softmax input: softmax minus one-hot
	dz2 := mat.NewDense(rows, m.outputs, nil)
	var nll float64
	for r := 0; r < rows; r++ {
		lp := st.logProbs.RawRowView(r)
		dst := dz2.RawRowView(r)
		for c, v := range lp {
			dst[c] = scale * math.Exp(v)
		}
		dst[labels[r]] -= scale
		nll -= lp[labels[r]]
	}

	var gw2 mat.Dense
	gw2.Mul(dz2.T(), st.hidden)
	g.w2.Add(g.w2, &gw2)
	for r := 0; r < rows; r++ {
		row := dz2.RawRowView(r)
		for c, v := range row {
			g.b2[c] += v
		}
	}

	// straight-through to the winners; losers were exactly zeroed
	dh := mat.NewDense(rows, m.units, nil)
	dh.Mul(dz2, m.w2)
	for r := 0; r < rows; r++ {
		hrow := st.hidden.RawRowView(r)
		drow := dh.RawRowView(r)
		for j, h := range hrow {
			if h == 0 {
				drow[j] = 0
			}
			g.b1[j] += drow[j]
		}
	}

	var gw1 mat.Dense
	gw1.Mul(dh.T(), st.x)
	g.w1.Add(g.w1, &gw1)

	return nll
}
