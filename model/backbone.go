package model

import (
	"fmt"
	"sync"

	"github.com/tsawler/go-transfer/nn"
)

// Backbone is the contract a pretrained feature-extraction network must
// satisfy so the adapter can resize and retrain its classification head.
// Implementations are provided by a model-zoo collaborator via
// RegisterBackbone.
type Backbone interface {
	// Forward runs the network on a batch of inputs.
	Forward(x *nn.Tensor, training bool) (*nn.Output, error)

	// Backward propagates the logits gradient, accumulating parameter
	// gradients.
	Backward(grad *nn.Tensor) error

	// NamedParameters returns every parameter keyed by its dotted name.
	NamedParameters() map[string]*nn.Parameter

	// InFeatures reports the input width of the module at a dotted path.
	InFeatures(path string) (int, error)

	// Replace swaps the module at a dotted path.
	Replace(path string, m nn.Module) error
}

// BackboneFactory instantiates a backbone with pretrained weights.
type BackboneFactory func() (Backbone, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[Architecture]BackboneFactory)
)

// RegisterBackbone installs the factory for an architecture. The last
// registration wins.
func RegisterBackbone(arch Architecture, factory BackboneFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[arch] = factory
}

// NewBackbone instantiates the registered backbone for an architecture.
func NewBackbone(arch Architecture) (Backbone, error) {
	registryMu.RLock()
	factory, ok := registry[arch]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no backbone registered for architecture %q", arch)
	}
	backbone, err := factory()
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate %s backbone: %w", arch, err)
	}
	return backbone, nil
}
