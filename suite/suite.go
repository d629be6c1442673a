// Package suite runs parameterized experiments through a three-callback
// lifecycle: Setup once per repetition, Iterate once per epoch, Finalize at
// the end. Iteration metrics are appended as JSON lines under the
// experiment's output directory.
package suite

import "encoding/json"
import "log"
import "os"
import "path/filepath"

import "github.com/google/uuid"
import "github.com/pkg/errors"

// Result maps metric names to values for one iteration.
type Result map[string]any

// Experiment is the contract a pluggable experiment implements.
type Experiment interface {
	Setup(p Params, repetition int) error
	Iterate(p Params, repetition, iteration int) (Result, error)
	Finalize(p Params, repetition int) error
}

// record is one persisted iteration result.
type record struct {
	RunID      string `json:"run_id"`
	Repetition int    `json:"repetition"`
	Iteration  int    `json:"iteration"`
	Metrics    Result `json:"metrics"`
}

// Runner drives an Experiment through its lifecycle for a number of
// independent repetitions. Repetitions share nothing; a failure aborts the
// run and propagates.
type Runner struct {
	Params      Params
	Repetitions int
	Experiment  Experiment
}

// Run executes all repetitions to completion.
func (r *Runner) Run() error {
	reps := r.Repetitions
	if reps < 1 {
		reps = 1
	}
	outDir := filepath.Join(r.Params.Path, r.Params.Name)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return errors.Wrap(err, "suite: create output dir")
	}
	for rep := 0; rep < reps; rep++ {
		runID := uuid.NewString()
		log.Printf("suite: repetition %d starting (run %s)", rep, runID)
		if err := r.Experiment.Setup(r.Params, rep); err != nil {
			return errors.Wrapf(err, "suite: setup repetition %d", rep)
		}
		for it := 0; it < r.Params.Iterations; it++ {
			res, err := r.Experiment.Iterate(r.Params, rep, it)
			if err != nil {
				return errors.Wrapf(err, "suite: iteration %d of repetition %d", it, rep)
			}
			rec := record{RunID: runID, Repetition: rep, Iteration: it, Metrics: res}
			if err := appendRecord(filepath.Join(outDir, "results.json"), rec); err != nil {
				return err
			}
		}
		if err := r.Experiment.Finalize(r.Params, rep); err != nil {
			return errors.Wrapf(err, "suite: finalize repetition %d", rep)
		}
		log.Printf("suite: repetition %d done", rep)
	}
	return nil
}

func appendRecord(path string, rec record) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return errors.Wrap(err, "suite: open results file")
	}
	err = json.NewEncoder(f).Encode(rec)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return errors.Wrap(err, "suite: write result")
}
