// Package datasets provides batched, shuffled iteration over in-memory image
// datasets with a per-sample transform chain and background prefetching.
package datasets

import "context"
import "math/rand"

import "gonum.org/v1/gonum/mat"

import "github.com/jacobeverist/htmresearch/datasets/mnist"
import "github.com/jacobeverist/htmresearch/transforms"

// Batch is one loader step: a batchSize x ImgPixels matrix of transformed
// pixels and the matching labels.
type Batch struct {
	X      *mat.Dense
	Labels []int
}

// Loader yields shuffled batches over a dataset. Shuffle order is drawn from
// the rng handed to NewLoader, so two loaders built with identically seeded
// generators iterate in the same order. Transform randomness is keyed on a
// fixed per-loader seed and the sample's dataset index, never on its position
// in the pass: each sample receives the same corruption on every pass no
// matter how the shuffle lands, so repeated evaluation over one loader is
// reproducible even with random transforms in the chain.
type Loader struct {
	ds        *mnist.Dataset
	batchSize int
	shuffle   bool
	rng       *rand.Rand
	tf        transforms.Transform
	tfSeed    int64
	prefetch  int
}

// NewLoader builds a loader over ds. tf may be nil. prefetch is the number of
// batches buffered ahead by the background worker (minimum 1).
func NewLoader(ds *mnist.Dataset, batchSize int, shuffle bool, rng *rand.Rand, tf transforms.Transform, prefetch int) *Loader {
	if batchSize <= 0 {
		batchSize = 1
	}
	if prefetch < 1 {
		prefetch = 1
	}
	return &Loader{
		ds:        ds,
		batchSize: batchSize,
		shuffle:   shuffle,
		rng:       rng,
		tf:        tf,
		tfSeed:    rng.Int63(),
		prefetch:  prefetch,
	}
}

// Len returns the number of samples in the underlying dataset.
func (l *Loader) Len() int {
	return l.ds.Len()
}

// Batches returns the number of batches per pass.
func (l *Loader) Batches() int {
	return (l.ds.Len() + l.batchSize - 1) / l.batchSize
}

// Iter starts one pass over the dataset. The permutation is drawn before Iter
// returns; batch assembly runs on a background worker feeding the channel.
// The channel must be drained; use IterContext when a pass may be abandoned.
func (l *Loader) Iter() <-chan Batch {
	return l.IterContext(context.Background())
}

// IterContext is Iter with cancellation: once ctx is done the worker stops
// assembling batches and closes the channel without finishing the pass.
func (l *Loader) IterContext(ctx context.Context) <-chan Batch {
	order := make([]int, l.ds.Len())
	for i := range order {
		order[i] = i
	}
	if l.shuffle {
		l.rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}
	tfRng := rand.New(rand.NewSource(l.tfSeed))

	ch := make(chan Batch, l.prefetch)
	go func() {
		defer close(ch)
		for start := 0; start < len(order); start += l.batchSize {
			select {
			case <-ctx.Done():
				return
			default:
			}
			end := start + l.batchSize
			if end > len(order) {
				end = len(order)
			}
			rows := end - start
			x := mat.NewDense(rows, mnist.ImgPixels, nil)
			labels := make([]int, rows)
			img := make([]float64, mnist.ImgPixels)
			for r, idx := range order[start:end] {
				raw := l.ds.Images[idx]
				for p := range img {
					img[p] = float64(raw[p]) / 255.0
				}
				if l.tf != nil {
					// corruption is a function of (loader, sample), not of
					// the sample's position in the shuffled pass
					tfRng.Seed(l.tfSeed + int64(idx))
					l.tf.Apply(img, tfRng)
				}
				x.SetRow(r, img)
				labels[r] = int(l.ds.Labels[idx])
			}
			select {
			case ch <- Batch{X: x, Labels: labels}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
