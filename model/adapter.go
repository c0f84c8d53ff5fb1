package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tsawler/go-transfer/checkpoints"
	"github.com/tsawler/go-transfer/nn"
)

// BuildModel instantiates the registered backbone for an architecture and
// replaces its classification head with a fresh linear module sized for
// classCount, keeping the backbone's penultimate feature width. The new head
// is trainable regardless of any later freezing.
func BuildModel(arch Architecture, classCount int) (Backbone, error) {
	if classCount <= 0 {
		return nil, fmt.Errorf("class count must be positive, got %d", classCount)
	}

	rule, ok := headRules[arch]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHeadRule, arch)
	}

	backbone, err := NewBackbone(arch)
	if err != nil {
		return nil, err
	}

	inFeatures, err := backbone.InFeatures(rule.path)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect head at %q: %w", rule.path, err)
	}

	head, err := nn.NewLinear(inFeatures, classCount)
	if err != nil {
		return nil, fmt.Errorf("failed to create classification head: %w", err)
	}
	if err := backbone.Replace(rule.path, head); err != nil {
		return nil, fmt.Errorf("failed to replace head at %q: %w", rule.path, err)
	}

	if placer, ok := backbone.(Placer); ok {
		if err := placer.To(ResolveDevice()); err != nil {
			return nil, fmt.Errorf("failed to place model on %s: %w", ResolveDevice(), err)
		}
	}

	return backbone, nil
}

// LoadTransferWeights initializes a freshly built model from a prior
// checkpoint. For densenet121 the legacy dotted key names are rewritten
// first. Checkpoint entries for the classification head are ignored: the
// head was just replaced and predates the checkpoint's class count. Every
// other model parameter must find a matching key with a matching shape.
func LoadTransferWeights(backbone Backbone, arch Architecture, checkpointPath string, mode FreezeMode) error {
	sd, err := checkpoints.LoadStateDict(checkpointPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCheckpointLoad, err)
	}

	if arch == DenseNet121 {
		sd = RemapLegacyDenseNetKeys(sd)
	}

	rule, ok := headRules[arch]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoHeadRule, arch)
	}
	headPrefix := rule.path + "."

	for name, param := range backbone.NamedParameters() {
		if strings.HasPrefix(name, headPrefix) {
			continue
		}
		tensor, ok := sd[name]
		if !ok {
			return fmt.Errorf("%w: parameter %q missing from checkpoint", ErrCheckpointLoad, name)
		}
		if !param.Value.ShapeEquals(tensor) {
			return fmt.Errorf("%w: shape mismatch for %q: model %v, checkpoint %v",
				ErrCheckpointLoad, name, param.Value.Shape, tensor.Shape)
		}
		copy(param.Value.Data, tensor.Data)
	}

	if mode == FreezeAll {
		for name, param := range backbone.NamedParameters() {
			param.Trainable = strings.HasPrefix(name, headPrefix)
		}
	}

	return nil
}

// StateDictOf snapshots the model's named parameter values.
func StateDictOf(backbone Backbone) nn.StateDict {
	params := backbone.NamedParameters()
	sd := make(nn.StateDict, len(params))
	for name, param := range params {
		sd[name] = param.Value.Clone()
	}
	return sd
}

// TrainableParameters returns the model's trainable parameters in
// deterministic name order, for handing to an optimizer.
func TrainableParameters(backbone Backbone) []*nn.Parameter {
	named := backbone.NamedParameters()
	names := make([]string, 0, len(named))
	for name := range named {
		names = append(names, name)
	}
	sort.Strings(names)

	params := make([]*nn.Parameter, 0, len(names))
	for _, name := range names {
		if named[name].Trainable {
			params = append(params, named[name])
		}
	}
	return params
}

// ZeroGradients clears accumulated gradients on every parameter.
func ZeroGradients(backbone Backbone) {
	for _, param := range backbone.NamedParameters() {
		param.ZeroGrad()
	}
}
