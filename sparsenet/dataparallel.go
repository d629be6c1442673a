package sparsenet

import "gonum.org/v1/gonum/mat"

import "github.com/jacobeverist/htmresearch/optimize"
import "github.com/jacobeverist/htmresearch/parallel"

// DataParallel shards every batch row-wise across workers that share one
// underlying Net. The forward and backward kernels only read the weights, so
// shards run concurrently; duty-cycle updates and gradient reduction happen
// once per batch on the primary. Mathematically equivalent to the wrapped
// Net up to floating-point summation order.
type DataParallel struct {
	net     *Net
	workers int
}

// NewDataParallel wraps net for batch sharding across workers.
func NewDataParallel(net *Net, workers int) *DataParallel {
	if workers < 1 {
		workers = 1
	}
	return &DataParallel{net: net, workers: workers}
}

// Net returns the wrapped model.
func (p *DataParallel) Net() *Net {
	return p.net
}

type shard struct {
	x      *mat.Dense
	labels []int
}

func (p *DataParallel) split(x *mat.Dense, labels []int) []shard {
	rows, cols := x.Dims()
	n := p.workers
	if n > rows {
		n = rows
	}
	per := (rows + n - 1) / n
	var shards []shard
	for start := 0; start < rows; start += per {
		end := start + per
		if end > rows {
			end = rows
		}
		s := shard{x: x.Slice(start, end, 0, cols).(*mat.Dense)}
		if labels != nil {
			s.labels = labels[start:end]
		}
		shards = append(shards, s)
	}
	return shards
}

// TrainStep shards the batch, runs forward and backward per shard in
// parallel, merges winner counts and gradients, and returns the mean
// negative log-likelihood over the whole batch.
func (p *DataParallel) TrainStep(x *mat.Dense, labels []int) float64 {
	rows, _ := x.Dims()
	shards := p.split(x, labels)

	states := make([]*forwardState, len(shards))
	parallel.ForEach(len(shards), len(shards), func(i int) {
		states[i] = p.net.runForward(shards[i].x, p.net.active)
	})

	counts := make([]float64, p.net.units)
	for _, st := range states {
		for j, c := range st.counts {
			counts[j] += c
		}
	}
	p.net.noteTraining(counts, rows)

	gs := make([]*grads, len(shards))
	losses := make([]float64, len(shards))
	scale := 1 / float64(rows)
	parallel.ForEach(len(shards), len(shards), func(i int) {
		gs[i] = newGrads(p.net)
		losses[i] = p.net.backwardInto(states[i], shards[i].labels, scale, gs[i])
	})

	var nll float64
	for i := range shards {
		p.net.g.add(gs[i])
		nll += losses[i]
	}
	return nll / float64(rows)
}

// Predict shards the batch across workers and reassembles the per-class log
// probabilities in input order.
func (p *DataParallel) Predict(x *mat.Dense) *mat.Dense {
	rows, _ := x.Dims()
	shards := p.split(x, nil)
	outs := make([]*mat.Dense, len(shards))
	k := p.net.kInference()
	parallel.ForEach(len(shards), len(shards), func(i int) {
		outs[i] = p.net.runForward(shards[i].x, k).logProbs
	})
	out := mat.NewDense(rows, p.net.outputs, nil)
	r := 0
	for _, o := range outs {
		or, _ := o.Dims()
		for i := 0; i < or; i++ {
			out.SetRow(r, o.RawRowView(i))
			r++
		}
	}
	return out
}

// The remaining model surface delegates to the wrapped Net.

func (p *DataParallel) ZeroGrad()                        { p.net.ZeroGrad() }
func (p *DataParallel) Parameters() []optimize.Parameter { return p.net.Parameters() }
func (p *DataParallel) RezeroWeights()                   { p.net.RezeroWeights() }
func (p *DataParallel) PostEpoch()                       { p.net.PostEpoch() }
func (p *DataParallel) DutyCycle() []float64             { return p.net.DutyCycle() }
func (p *DataParallel) LearningIterations() int          { return p.net.LearningIterations() }
func (p *DataParallel) WriteFile(name string) error      { return p.net.WriteFile(name) }
