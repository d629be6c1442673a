package suite

// Params is the immutable configuration of one experiment. It enumerates
// every recognized option with an explicit type; DefaultParams supplies the
// baseline sparse MNIST settings.
type Params struct {
	Seed int64 // seeds every per-repetition generator

	DataDir string // where the dataset lives (or is downloaded to)
	Path    string // root of all experiment outputs
	Name    string // experiment name, becomes the output subdirectory

	NoCUDA bool // disable accelerator use even when devices are present

	BatchSize     int // training batch size
	TestBatchSize int // evaluation batch size

	N int // hidden layer width
	K int // active units per sample

	BoostStrength       float64 // initial boosting strength
	BoostStrengthFactor float64 // per-epoch boost strength multiplier
	WeightSparsity      float64 // fraction of hidden weights kept non-zero
	KInferenceFactor    float64 // winner count widening at inference

	LearningRate float64
	Momentum     float64

	Iterations  int // training epochs per repetition
	LogInterval int // batches between duty-cycle diagnostics

	LoaderWorkers int // prefetch depth of the data loaders
}

// DefaultParams returns the baseline sparse MNIST configuration.
func DefaultParams() Params {
	return Params{
		Seed:                42,
		DataDir:             "data",
		Path:                "results",
		Name:                "mnist_sparse",
		BatchSize:           64,
		TestBatchSize:       1000,
		N:                   500,
		K:                   50,
		BoostStrength:       1.0,
		BoostStrengthFactor: 0.9,
		WeightSparsity:      0.3,
		KInferenceFactor:    1.5,
		LearningRate:        0.01,
		Momentum:            0.5,
		Iterations:          10,
		LogInterval:         400,
		LoaderWorkers:       1,
	}
}
