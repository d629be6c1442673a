// Package optimize implements gradient-descent optimizers over flat parameter
// views exposed by a model.
package optimize

// Parameter is a flat view of one tensor's values and its gradient buffer.
// Data and Grad alias the model's storage and must have equal length.
type Parameter struct {
	Data []float64
	Grad []float64
}

// SGD is stochastic gradient descent with classical momentum:
// v = momentum*v + g; w = w - lr*v.
type SGD struct {
	LR       float64
	Momentum float64

	velocity [][]float64
}

// NewSGD returns an SGD optimizer with the given learning rate and momentum.
func NewSGD(lr, momentum float64) *SGD {
	return &SGD{LR: lr, Momentum: momentum}
}

// Step applies one update to every parameter. Velocity buffers are allocated
// on first use and keyed by position, so the caller must pass parameters in a
// stable order across steps.
func (s *SGD) Step(params []Parameter) {
	if s.velocity == nil {
		s.velocity = make([][]float64, len(params))
	}
	for pi, p := range params {
		if s.velocity[pi] == nil {
			s.velocity[pi] = make([]float64, len(p.Data))
		}
		v := s.velocity[pi]
		for i, g := range p.Grad {
			v[i] = s.Momentum*v[i] + g
			p.Data[i] -= s.LR * v[i]
		}
	}
}
