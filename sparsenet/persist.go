package sparsenet

import "encoding/gob"
import "os"

import "github.com/pkg/errors"
import "gonum.org/v1/gonum/mat"

// netState is the gob wire form of a Net.
type netState struct {
	Inputs, Units, Outputs int

	ActiveUnits         int
	KInferenceFactor    float64
	WeightSparsity      float64
	BoostStrength       float64
	BoostStrengthFactor float64
	DutyCyclePeriod     int

	W1, B1, W2, B2 []float64
	Mask           []float64
	DutyCycle      []float64

	LearningIterations int
}

// WriteFile persists the full model to name with gob encoding.
func (m *Net) WriteFile(name string) error {
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrap(err, "sparsenet: save model")
	}
	err = gob.NewEncoder(f).Encode(m.state())
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return errors.Wrap(err, "sparsenet: save model")
}

// ReadFile restores a model previously written by WriteFile.
func ReadFile(name string) (*Net, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "sparsenet: load model")
	}
	defer f.Close()
	var s netState
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return nil, errors.Wrap(err, "sparsenet: load model")
	}
	return s.restore(), nil
}

func (m *Net) state() netState {
	return netState{
		Inputs:              m.inputs,
		Units:               m.units,
		Outputs:             m.outputs,
		ActiveUnits:         m.active,
		KInferenceFactor:    m.kInferenceFactor,
		WeightSparsity:      m.weightSparsity,
		BoostStrength:       m.boostStrength,
		BoostStrengthFactor: m.boostStrengthFactor,
		DutyCyclePeriod:     m.dutyCyclePeriod,
		W1:                  append([]float64(nil), m.w1.RawMatrix().Data...),
		B1:                  append([]float64(nil), m.b1...),
		W2:                  append([]float64(nil), m.w2.RawMatrix().Data...),
		B2:                  append([]float64(nil), m.b2...),
		Mask:                append([]float64(nil), m.mask...),
		DutyCycle:           append([]float64(nil), m.dutyCycle...),
		LearningIterations:  m.learningIterations,
	}
}

func (s netState) restore() *Net {
	m := &Net{
		inputs:              s.Inputs,
		units:               s.Units,
		outputs:             s.Outputs,
		active:              s.ActiveUnits,
		kInferenceFactor:    s.KInferenceFactor,
		weightSparsity:      s.WeightSparsity,
		boostStrength:       s.BoostStrength,
		boostStrengthFactor: s.BoostStrengthFactor,
		dutyCyclePeriod:     s.DutyCyclePeriod,
		w1:                  mat.NewDense(s.Units, s.Inputs, s.W1),
		b1:                  s.B1,
		w2:                  mat.NewDense(s.Outputs, s.Units, s.W2),
		b2:                  s.B2,
		mask:                s.Mask,
		dutyCycle:           s.DutyCycle,
		learningIterations:  s.LearningIterations,
	}
	m.g = newGrads(m)
	return m
}
