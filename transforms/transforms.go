// Package transforms implements per-sample image transforms applied by the data
// loader: noise injection and mean/std normalization, composable into a chain.
package transforms

import "math/rand"

// MNIST pixel statistics used for normalization.
const (
	MNISTMean = 0.1307
	MNISTStd  = 0.3081
)

// Transform mutates a flattened image in place. The rng is owned by the caller
// and is only used by transforms that inject randomness.
type Transform interface {
	Apply(img []float64, rng *rand.Rand)
}

// Compose applies transforms in order.
type Compose []Transform

func (c Compose) Apply(img []float64, rng *rand.Rand) {
	for _, t := range c {
		t.Apply(img, rng)
	}
}

// Normalize shifts and scales every pixel to (x - Mean) / Std.
type Normalize struct {
	Mean float64
	Std  float64
}

func (n Normalize) Apply(img []float64, rng *rand.Rand) {
	for i := range img {
		img[i] = (img[i] - n.Mean) / n.Std
	}
}

// RandomNoise sets a fraction Level of randomly chosen pixels to HighValue.
// It operates on raw [0,1] pixels, so it must run before Normalize in a chain.
type RandomNoise struct {
	Level     float64
	HighValue float64
}

// NewRandomNoise returns a RandomNoise at the given level with the default
// high value of two standard deviations above the MNIST mean.
func NewRandomNoise(level float64) RandomNoise {
	return RandomNoise{Level: level, HighValue: MNISTMean + 2*MNISTStd}
}

func (r RandomNoise) Apply(img []float64, rng *rand.Rand) {
	n := int(float64(len(img)) * r.Level)
	if n <= 0 {
		return
	}
	for _, i := range rng.Perm(len(img))[:n] {
		img[i] = r.HighValue
	}
}
