// Package training drives transfer-learning classification runs: it binds a
// dataset, adapts a pretrained backbone to the class set, and runs the
// epoch/phase loop with checkpoint tracking.
package training

import (
	"errors"
	"fmt"

	"github.com/tsawler/go-transfer/model"
	"github.com/tsawler/go-transfer/nn"
	"github.com/tsawler/go-transfer/optimizer"
)

// ErrUnsupportedArchitecture indicates an architecture name outside the
// supported set.
var ErrUnsupportedArchitecture = errors.New("unsupported architecture")

// Profile is the immutable training recipe for one architecture: the
// numeric hyperparameters published with the architecture plus its input
// requirements. Profiles are the single source of these numbers; nothing
// else constructs them.
type Profile struct {
	Architecture model.Architecture

	LearningRate float64
	Momentum     float64
	WeightDecay  float64

	// Step-decay schedule; both zero when the recipe keeps a constant rate.
	LRDecayRate float64
	LRStepSize  int

	// Input contract of the backbone.
	InputSize int
	Mean      [3]float32
	Std       [3]float32

	NewOptimizer optimizer.Factory
}

// imagenetMean and imagenetStd are the standard ImageNet normalization
// statistics every supported backbone was pretrained with.
var (
	imagenetMean = [3]float32{0.485, 0.456, 0.406}
	imagenetStd  = [3]float32{0.229, 0.224, 0.225}
)

func sgdFactory(momentum float64) optimizer.Factory {
	return func(params []*nn.Parameter, lr, weightDecay float64) optimizer.Optimizer {
		return optimizer.NewSGD(params, optimizer.SGDConfig{
			LearningRate: lr,
			Momentum:     momentum,
			WeightDecay:  weightDecay,
		})
	}
}

var profiles = map[model.Architecture]Profile{
	model.ResNet50: {
		Architecture: model.ResNet50,
		LearningRate: 0.1,
		Momentum:     0.9,
		WeightDecay:  1e-4,
		LRDecayRate:  0.1,
		LRStepSize:   30,
		InputSize:    224,
		Mean:         imagenetMean,
		Std:          imagenetStd,
		NewOptimizer: sgdFactory(0.9),
	},
	model.DenseNet121: {
		Architecture: model.DenseNet121,
		LearningRate: 0.1,
		Momentum:     0.9,
		WeightDecay:  1e-4,
		LRDecayRate:  0.1,
		LRStepSize:   30,
		InputSize:    224,
		Mean:         imagenetMean,
		Std:          imagenetStd,
		NewOptimizer: sgdFactory(0.9),
	},
	model.InceptionV3: {
		Architecture: model.InceptionV3,
		LearningRate: 0.045,
		Momentum:     0.9,
		WeightDecay:  4e-5,
		LRDecayRate:  0.94,
		LRStepSize:   2,
		InputSize:    299,
		Mean:         imagenetMean,
		Std:          imagenetStd,
		NewOptimizer: sgdFactory(0.9),
	},
	model.MobileNetV2: {
		Architecture: model.MobileNetV2,
		LearningRate: 0.045,
		Momentum:     0.9,
		WeightDecay:  4e-5,
		LRDecayRate:  0.98,
		LRStepSize:   1,
		InputSize:    224,
		Mean:         imagenetMean,
		Std:          imagenetStd,
		NewOptimizer: sgdFactory(0.9),
	},
}

// SelectArchitecture returns the training profile for a supported
// architecture name.
func SelectArchitecture(name string) (*Profile, error) {
	profile, ok := profiles[model.Architecture(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedArchitecture, name)
	}
	return &profile, nil
}

// SupportedArchitectures lists the supported architecture names.
func SupportedArchitectures() []string {
	return []string{
		string(model.DenseNet121),
		string(model.InceptionV3),
		string(model.MobileNetV2),
		string(model.ResNet50),
	}
}
