// Package optimizer implements gradient-descent parameter updates for the
// training loop.
package optimizer

import "github.com/tsawler/go-transfer/nn"

// Optimizer updates trainable parameters from their accumulated gradients.
type Optimizer interface {
	// Step applies one optimization step to every managed parameter.
	Step() error

	// ZeroGrad clears accumulated gradients on every managed parameter.
	ZeroGrad()

	// SetLearningRate updates the learning rate; schedulers call this once
	// per epoch.
	SetLearningRate(lr float64)

	// LearningRate returns the current learning rate.
	LearningRate() float64
}

// Factory constructs an optimizer over a parameter set. Profiles carry one
// per architecture.
type Factory func(params []*nn.Parameter, lr, weightDecay float64) Optimizer
