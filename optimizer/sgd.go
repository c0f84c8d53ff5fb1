package optimizer

import (
	"fmt"

	"github.com/tsawler/go-transfer/nn"
)

// SGD implements stochastic gradient descent with momentum and L2 weight
// decay, the optimizer the published training recipes use.
type SGD struct {
	params      []*nn.Parameter
	lr          float64
	momentum    float64
	weightDecay float64

	velocity  [][]float32
	stepCount uint64
}

// SGDConfig holds SGD hyperparameters.
type SGDConfig struct {
	LearningRate float64
	Momentum     float64
	WeightDecay  float64
}

// NewSGD creates an SGD optimizer over the given parameters.
func NewSGD(params []*nn.Parameter, config SGDConfig) *SGD {
	velocity := make([][]float32, len(params))
	for i, p := range params {
		velocity[i] = make([]float32, len(p.Value.Data))
	}
	return &SGD{
		params:      params,
		lr:          config.LearningRate,
		momentum:    config.Momentum,
		weightDecay: config.WeightDecay,
		velocity:    velocity,
	}
}

// Step applies v = momentum*v + (grad + wd*w); w -= lr*v.
func (s *SGD) Step() error {
	for i, p := range s.params {
		if !p.Trainable {
			continue
		}
		if len(p.Grad.Data) != len(p.Value.Data) {
			return fmt.Errorf("gradient size mismatch for %s: %d vs %d",
				p.Name, len(p.Grad.Data), len(p.Value.Data))
		}
		v := s.velocity[i]
		for j := range p.Value.Data {
			grad := float64(p.Grad.Data[j]) + s.weightDecay*float64(p.Value.Data[j])
			v[j] = float32(s.momentum*float64(v[j]) + grad)
			p.Value.Data[j] -= float32(s.lr * float64(v[j]))
		}
	}
	s.stepCount++
	return nil
}

// ZeroGrad clears accumulated gradients.
func (s *SGD) ZeroGrad() {
	for _, p := range s.params {
		p.ZeroGrad()
	}
}

// SetLearningRate updates the learning rate.
func (s *SGD) SetLearningRate(lr float64) {
	s.lr = lr
}

// LearningRate returns the current learning rate.
func (s *SGD) LearningRate() float64 {
	return s.lr
}

// StepCount returns the number of optimization steps taken.
func (s *SGD) StepCount() uint64 {
	return s.stepCount
}
