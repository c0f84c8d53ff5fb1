package optimizer

import (
	"fmt"
	"math"

	"github.com/tsawler/go-transfer/nn"
)

// Adam implements the Adam optimizer with bias-corrected first and second
// moment estimates.
type Adam struct {
	params      []*nn.Parameter
	lr          float64
	beta1       float64
	beta2       float64
	epsilon     float64
	weightDecay float64

	m         [][]float32
	v         [][]float32
	stepCount uint64
}

// AdamConfig holds Adam hyperparameters. Zero values for Beta1, Beta2 and
// Epsilon select the usual defaults (0.9, 0.999, 1e-8).
type AdamConfig struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64
	WeightDecay  float64
}

// NewAdam creates an Adam optimizer over the given parameters.
func NewAdam(params []*nn.Parameter, config AdamConfig) *Adam {
	if config.Beta1 == 0 {
		config.Beta1 = 0.9
	}
	if config.Beta2 == 0 {
		config.Beta2 = 0.999
	}
	if config.Epsilon == 0 {
		config.Epsilon = 1e-8
	}

	m := make([][]float32, len(params))
	v := make([][]float32, len(params))
	for i, p := range params {
		m[i] = make([]float32, len(p.Value.Data))
		v[i] = make([]float32, len(p.Value.Data))
	}

	return &Adam{
		params:      params,
		lr:          config.LearningRate,
		beta1:       config.Beta1,
		beta2:       config.Beta2,
		epsilon:     config.Epsilon,
		weightDecay: config.WeightDecay,
		m:           m,
		v:           v,
	}
}

// Step applies one Adam update.
func (a *Adam) Step() error {
	a.stepCount++
	correction1 := 1 - math.Pow(a.beta1, float64(a.stepCount))
	correction2 := 1 - math.Pow(a.beta2, float64(a.stepCount))

	for i, p := range a.params {
		if !p.Trainable {
			continue
		}
		if len(p.Grad.Data) != len(p.Value.Data) {
			return fmt.Errorf("gradient size mismatch for %s: %d vs %d",
				p.Name, len(p.Grad.Data), len(p.Value.Data))
		}
		for j := range p.Value.Data {
			grad := float64(p.Grad.Data[j]) + a.weightDecay*float64(p.Value.Data[j])

			mj := a.beta1*float64(a.m[i][j]) + (1-a.beta1)*grad
			vj := a.beta2*float64(a.v[i][j]) + (1-a.beta2)*grad*grad
			a.m[i][j] = float32(mj)
			a.v[i][j] = float32(vj)

			mHat := mj / correction1
			vHat := vj / correction2
			p.Value.Data[j] -= float32(a.lr * mHat / (math.Sqrt(vHat) + a.epsilon))
		}
	}
	return nil
}

// ZeroGrad clears accumulated gradients.
func (a *Adam) ZeroGrad() {
	for _, p := range a.params {
		p.ZeroGrad()
	}
}

// SetLearningRate updates the learning rate.
func (a *Adam) SetLearningRate(lr float64) {
	a.lr = lr
}

// LearningRate returns the current learning rate.
func (a *Adam) LearningRate() float64 {
	return a.lr
}

// StepCount returns the number of optimization steps taken.
func (a *Adam) StepCount() uint64 {
	return a.stepCount
}
