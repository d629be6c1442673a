// Package experiment implements the sparse MNIST noise-robustness experiment:
// per-epoch training with sparsity re-enforcement after every optimizer step,
// periodic duty-cycle diagnostics, and a final evaluation sweep over eleven
// input noise levels.
package experiment

import "fmt"
import "log"
import "math/rand"
import "os"
import "path/filepath"
import "strconv"
import "time"

import "github.com/pkg/errors"
import "gonum.org/v1/gonum/mat"

import "github.com/jacobeverist/htmresearch/compute"
import "github.com/jacobeverist/htmresearch/datasets"
import "github.com/jacobeverist/htmresearch/datasets/mnist"
import "github.com/jacobeverist/htmresearch/optimize"
import "github.com/jacobeverist/htmresearch/plots"
import "github.com/jacobeverist/htmresearch/sparsenet"
import "github.com/jacobeverist/htmresearch/suite"
import "github.com/jacobeverist/htmresearch/transforms"

// NoiseLevels is the fixed ordered sweep of input corruption intensities.
// The entry at 0.0 defines the headline test error.
var NoiseLevels = []float64{0.0, 0.05, 0.1, 0.15, 0.2, 0.25, 0.3, 0.35, 0.4, 0.45, 0.5}

// TestResult is the outcome of one evaluation pass.
type TestResult struct {
	NumCorrect int     `json:"num_correct"`
	TestLoss   float64 `json:"test_loss"` // mean per-sample NLL
	TestError  float64 `json:"testerror"` // 100 * correct / total
}

// Trainable is the model contract the experiment drives. Both sparsenet.Net
// and sparsenet.DataParallel satisfy it.
type Trainable interface {
	TrainStep(x *mat.Dense, labels []int) float64
	Predict(x *mat.Dense) *mat.Dense
	ZeroGrad()
	Parameters() []optimize.Parameter
	RezeroWeights()
	PostEpoch()
	DutyCycle() []float64
	LearningIterations() int
	WriteFile(name string) error
}

// MNISTSparseExperiment is the lifecycle controller plugged into the suite
// runner. All state is per repetition: created in Setup, used by Iterate,
// discarded after Finalize persists the model.
type MNISTSparseExperiment struct {
	// LoadDataset provides the train (true) or test (false) split. Defaults
	// to downloading MNIST into the configured data directory.
	LoadDataset func(dir string, train bool) (*mnist.Dataset, error)

	startTime   time.Time
	device      compute.Device
	rng         *rand.Rand
	trainLoader *datasets.Loader
	testSet     *mnist.Dataset
	model       Trainable
	optimizer   *optimize.SGD
	resultsDir  string
	dataDir     string
}

// New returns an experiment with the default dataset provider.
func New() *MNISTSparseExperiment {
	return &MNISTSparseExperiment{
		LoadDataset: func(dir string, train bool) (*mnist.Dataset, error) {
			return mnist.Load(dir, train, true)
		},
	}
}

// Setup seeds the per-repetition generators, resolves the compute device,
// builds the data loaders, model and optimizer, and creates the results
// directory.
func (e *MNISTSparseExperiment) Setup(p suite.Params, repetition int) error {
	e.startTime = time.Now()
	e.rng = rand.New(rand.NewSource(p.Seed))
	modelRng := rand.New(rand.NewSource(e.rng.Int63()))
	loaderRng := rand.New(rand.NewSource(e.rng.Int63()))

	e.dataDir = p.DataDir
	e.resultsDir = filepath.Join(p.Path, p.Name, "plots")
	if err := os.MkdirAll(e.resultsDir, 0755); err != nil {
		return errors.Wrap(err, "experiment: create results dir")
	}

	e.device = compute.Resolve(p.NoCUDA)
	log.Printf("experiment: device %s, host %s", e.device, compute.CPUFeatures())

	trainSet, err := e.LoadDataset(e.dataDir, true)
	if err != nil {
		return err
	}
	e.testSet, err = e.LoadDataset(e.dataDir, false)
	if err != nil {
		return err
	}

	normalize := transforms.Normalize{Mean: transforms.MNISTMean, Std: transforms.MNISTStd}
	e.trainLoader = datasets.NewLoader(trainSet, p.BatchSize, true, loaderRng, normalize, p.LoaderWorkers)

	net, err := sparsenet.New(sparsenet.Config{
		Inputs:              mnist.ImgPixels,
		Units:               p.N,
		Outputs:             mnist.NumClasses,
		ActiveUnits:         p.K,
		KInferenceFactor:    p.KInferenceFactor,
		WeightSparsity:      p.WeightSparsity,
		BoostStrength:       p.BoostStrength,
		BoostStrengthFactor: p.BoostStrengthFactor,
	}, modelRng)
	if err != nil {
		return err
	}
	if n := compute.DeviceCount(); n > 1 && !p.NoCUDA {
		log.Printf("experiment: data parallel over %d devices", n)
		e.model = sparsenet.NewDataParallel(net, n)
	} else {
		e.model = net
	}

	e.optimizer = optimize.NewSGD(p.LearningRate, p.Momentum)
	return nil
}

// Iterate runs one training epoch. The final iteration additionally runs the
// noise robustness sweep and folds its metrics into the result. Every result
// carries the cumulative wall-clock time since Setup.
func (e *MNISTSparseExperiment) Iterate(p suite.Params, repetition, iteration int) (suite.Result, error) {
	res := suite.Result{}
	if err := e.train(p, iteration); err != nil {
		return nil, err
	}
	if iteration == p.Iterations-1 {
		sweep := e.runNoiseTests(p)
		for k, v := range sweep {
			res[k] = v
		}
		log.Printf("experiment: totalCorrect=%v testerror=%v", res["totalCorrect"], res["testerror"])
	}
	res["elapsedTime"] = time.Since(e.startTime).Seconds()
	return res, nil
}

// Finalize persists the trained model under the experiment's output
// directory.
func (e *MNISTSparseExperiment) Finalize(p suite.Params, repetition int) error {
	return e.model.WriteFile(filepath.Join(p.Path, p.Name, "model.pt"))
}

// train runs one epoch over the training loader, re-applying the sparsity
// mask after every optimizer step and emitting a duty-cycle histogram every
// LogInterval batches.
func (e *MNISTSparseExperiment) train(p suite.Params, epoch int) error {
	var lossSum float64
	batchIdx := 0
	for b := range e.trainLoader.Iter() {
		e.model.ZeroGrad()
		lossSum += e.model.TrainStep(b.X, b.Labels)
		e.optimizer.Step(e.model.Parameters())
		e.model.RezeroWeights()

		if p.LogInterval > 0 && batchIdx > 0 && batchIdx%p.LogInterval == 0 {
			name := fmt.Sprintf("figure_%d_%d.png", epoch, e.model.LearningIterations())
			if err := plots.DutyCycleHistogram(e.model.DutyCycle(), filepath.Join(e.resultsDir, name)); err != nil {
				return err
			}
		}
		batchIdx++
	}
	e.model.PostEpoch()
	log.Printf("experiment: epoch %d done, mean train loss %.4f", epoch, lossSum/float64(batchIdx))
	return nil
}

// test evaluates the model over every batch of the loader without touching
// model state.
func (e *MNISTSparseExperiment) test(loader *datasets.Loader) TestResult {
	var lossSum float64
	correct := 0
	for b := range loader.Iter() {
		logProbs := e.model.Predict(b.X)
		lossSum += sparsenet.NLLSum(logProbs, b.Labels)
		correct += sparsenet.CountCorrect(logProbs, b.Labels)
	}
	n := loader.Len()
	return TestResult{
		NumCorrect: correct,
		TestLoss:   lossSum / float64(n),
		TestError:  100 * float64(correct) / float64(n),
	}
}

// runNoiseTests evaluates the model at every noise level over a fresh test
// loader with noise injection before normalization. Aggregates the summed
// correct count across levels and the clean-data test error.
func (e *MNISTSparseExperiment) runNoiseTests(p suite.Params) suite.Result {
	res := suite.Result{}
	total := 0
	var clean TestResult
	for _, noise := range NoiseLevels {
		tf := transforms.Compose{
			transforms.NewRandomNoise(noise),
			transforms.Normalize{Mean: transforms.MNISTMean, Std: transforms.MNISTStd},
		}
		loader := datasets.NewLoader(e.testSet, p.TestBatchSize, true, e.rng, tf, p.LoaderWorkers)
		r := e.test(loader)
		total += r.NumCorrect
		if noise == 0 {
			clean = r
		}
		res[noiseKey(noise)] = r
	}
	res["totalCorrect"] = total
	res["testerror"] = clean.TestError
	return res
}

// noiseKey formats a noise level as a result key ("0.0", "0.05", ... "0.5").
func noiseKey(noise float64) string {
	if noise == 0 {
		return "0.0"
	}
	return strconv.FormatFloat(noise, 'f', -1, 64)
}
