package sparsenet

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jacobeverist/htmresearch/optimize"
)

// Sharded training must match whole-batch training up to floating-point
// summation order.
func TestDataParallelMatchesSingleNet(t *testing.T) {
	single := testNet(t, 20)
	wrapped := NewDataParallel(testNet(t, 20), 4)

	rng := rand.New(rand.NewSource(21))
	x := randomBatch(13, single.inputs, rng)
	labels := randomLabels(13, single.outputs, rng)

	optA := optimize.NewSGD(0.1, 0.5)
	optB := optimize.NewSGD(0.1, 0.5)

	for step := 0; step < 5; step++ {
		single.ZeroGrad()
		wrapped.ZeroGrad()
		lossA := single.TrainStep(x, labels)
		lossB := wrapped.TrainStep(x, labels)
		require.InDeltaf(t, lossA, lossB, 1e-9, "step %d loss", step)

		optA.Step(single.Parameters())
		optB.Step(wrapped.Parameters())
		single.RezeroWeights()
		wrapped.RezeroWeights()
	}

	require.Equal(t, single.LearningIterations(), wrapped.LearningIterations())
	for j := range single.dutyCycle {
		require.InDeltaf(t, single.dutyCycle[j], wrapped.Net().dutyCycle[j], 1e-9, "duty cycle %d", j)
	}

	wantW := single.w1.RawMatrix().Data
	gotW := wrapped.Net().w1.RawMatrix().Data
	for i := range wantW {
		require.InDeltaf(t, wantW[i], gotW[i], 1e-9, "w1[%d]", i)
	}
}

func TestDataParallelPredictPreservesOrder(t *testing.T) {
	m := testNet(t, 22)
	p := NewDataParallel(m, 3)

	rng := rand.New(rand.NewSource(23))
	x := randomBatch(10, m.inputs, rng)

	want := m.Predict(x)
	got := p.Predict(x)
	require.Equal(t, want.RawMatrix().Data, got.RawMatrix().Data)
}

func TestDataParallelMoreWorkersThanRows(t *testing.T) {
	m := testNet(t, 24)
	p := NewDataParallel(m, 16)
	rng := rand.New(rand.NewSource(25))
	x := randomBatch(3, m.inputs, rng)
	labels := randomLabels(3, m.outputs, rng)

	p.ZeroGrad()
	loss := p.TrainStep(x, labels)
	require.Greater(t, loss, 0.0)
	require.Equal(t, 3, p.LearningIterations())
}
