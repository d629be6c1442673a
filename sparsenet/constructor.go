package sparsenet

import "math"
import "math/rand"

import "github.com/pkg/errors"
import "gonum.org/v1/gonum/mat"

// Config holds the sparse network hyperparameters.
type Config struct {
	Inputs  int // flattened input size
	Units   int // hidden units (n)
	Outputs int // number of classes

	ActiveUnits         int     // winners kept per sample during training (k)
	KInferenceFactor    float64 // widens the winner count at inference time
	WeightSparsity      float64 // fraction of each unit's incoming weights kept non-zero
	BoostStrength       float64 // initial boosting strength
	BoostStrengthFactor float64 // per-epoch multiplier applied to the boost strength
	DutyCyclePeriod     int     // duty-cycle EMA horizon in samples (default 1000)
}

// New builds a sparse network with weights and sparsity masks drawn from rng.
// Identically seeded generators produce bit-identical networks.
func New(cfg Config, rng *rand.Rand) (*Net, error) {
	if cfg.Inputs <= 0 || cfg.Units <= 0 || cfg.Outputs <= 0 {
		return nil, errors.New("sparsenet: Inputs, Units and Outputs must be positive")
	}
	if cfg.ActiveUnits <= 0 {
		return nil, errors.New("sparsenet: ActiveUnits must be positive")
	}
	if cfg.WeightSparsity <= 0 || cfg.WeightSparsity > 1 {
		return nil, errors.New("sparsenet: WeightSparsity must be in (0, 1]")
	}
	if cfg.KInferenceFactor < 1 {
		cfg.KInferenceFactor = 1
	}
	if cfg.DutyCyclePeriod <= 0 {
		cfg.DutyCyclePeriod = 1000
	}

	m := &Net{
		inputs:              cfg.Inputs,
		units:               cfg.Units,
		outputs:             cfg.Outputs,
		active:              cfg.ActiveUnits,
		kInferenceFactor:    cfg.KInferenceFactor,
		weightSparsity:      cfg.WeightSparsity,
		boostStrength:       cfg.BoostStrength,
		boostStrengthFactor: cfg.BoostStrengthFactor,
		dutyCyclePeriod:     cfg.DutyCyclePeriod,

		w1:        initLinear(cfg.Units, cfg.Inputs, rng),
		b1:        initBias(cfg.Units, cfg.Inputs, rng),
		w2:        initLinear(cfg.Outputs, cfg.Units, rng),
		b2:        initBias(cfg.Outputs, cfg.Units, rng),
		dutyCycle: make([]float64, cfg.Units),
	}
	m.g = newGrads(m)

	m.mask = make([]float64, cfg.Units*cfg.Inputs)
	if cfg.WeightSparsity < 1 {
		keep := int(math.Round(cfg.WeightSparsity * float64(cfg.Inputs)))
		if keep < 1 {
			keep = 1
		}
		for u := 0; u < cfg.Units; u++ {
			for _, in := range rng.Perm(cfg.Inputs)[:keep] {
				m.mask[u*cfg.Inputs+in] = 1
			}
		}
	} else {
		for i := range m.mask {
			m.mask[i] = 1
		}
	}
	m.RezeroWeights()
	return m, nil
}

// initLinear draws a rows x cols weight matrix uniformly from
// [-1/sqrt(cols), 1/sqrt(cols)].
func initLinear(rows, cols int, rng *rand.Rand) *mat.Dense {
	bound := 1 / math.Sqrt(float64(cols))
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = (2*rng.Float64() - 1) * bound
	}
	return mat.NewDense(rows, cols, data)
}

func initBias(n, fanIn int, rng *rand.Rand) []float64 {
	bound := 1 / math.Sqrt(float64(fanIn))
	b := make([]float64, n)
	for i := range b {
		b[i] = (2*rng.Float64() - 1) * bound
	}
	return b
}
