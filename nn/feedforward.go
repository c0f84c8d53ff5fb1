package nn

import (
	"fmt"
	"sort"
)

// FeedForward is a small reference classification network: flatten, one
// hidden linear layer with ReLU, and a linear classification head. It stands
// in for a pretrained backbone when validating the training pipeline, and
// hosts its head under a configurable dotted path so head-replacement rules
// can be exercised against it.
type FeedForward struct {
	flatten *Flatten
	hidden  *Linear
	act     *ReLU

	headPath string
	head     Module

	// EmitAux mirrors architectures with an auxiliary classifier: when set,
	// training-mode forward passes populate Output.AuxLogits.
	EmitAux bool
}

// NewFeedForward builds a reference network. inFeatures is the flattened
// input width, headPath is the dotted location of the classification head
// (e.g. "fc", "classifier", "classifier.1").
func NewFeedForward(inFeatures, hiddenSize, numClasses int, headPath string) (*FeedForward, error) {
	if headPath == "" {
		return nil, fmt.Errorf("head path cannot be empty")
	}

	hidden, err := NewLinear(inFeatures, hiddenSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create hidden layer: %w", err)
	}
	head, err := NewLinear(hiddenSize, numClasses)
	if err != nil {
		return nil, fmt.Errorf("failed to create head layer: %w", err)
	}

	ff := &FeedForward{
		flatten:  NewFlatten(),
		hidden:   hidden,
		act:      NewReLU(),
		headPath: headPath,
		head:     head,
	}
	ff.nameParameters()
	return ff, nil
}

func (ff *FeedForward) nameParameters() {
	ff.hidden.Weight.Name = "features.0.weight"
	ff.hidden.Bias.Name = "features.0.bias"
	if lin, ok := ff.head.(*Linear); ok {
		lin.Weight.Name = ff.headPath + ".weight"
		lin.Bias.Name = ff.headPath + ".bias"
	}
}

// Forward runs the network on a batch and returns class scores.
func (ff *FeedForward) Forward(x *Tensor, training bool) (*Output, error) {
	flat, err := ff.flatten.Forward(x, training)
	if err != nil {
		return nil, err
	}
	h, err := ff.hidden.Forward(flat, training)
	if err != nil {
		return nil, err
	}
	a, err := ff.act.Forward(h, training)
	if err != nil {
		return nil, err
	}
	logits, err := ff.head.Forward(a, training)
	if err != nil {
		return nil, err
	}

	out := &Output{Logits: logits}
	if ff.EmitAux && training {
		out.AuxLogits = logits.Clone()
	}
	return out, nil
}

// Backward propagates the logits gradient through the network.
func (ff *FeedForward) Backward(grad *Tensor) error {
	g, err := ff.head.Backward(grad)
	if err != nil {
		return err
	}
	if g, err = ff.act.Backward(g); err != nil {
		return err
	}
	if g, err = ff.hidden.Backward(g); err != nil {
		return err
	}
	_, err = ff.flatten.Backward(g)
	return err
}

// NamedParameters returns every parameter keyed by its dotted name.
func (ff *FeedForward) NamedParameters() map[string]*Parameter {
	params := make(map[string]*Parameter)
	params[ff.hidden.Weight.Name] = ff.hidden.Weight
	params[ff.hidden.Bias.Name] = ff.hidden.Bias
	for _, p := range ff.head.Parameters() {
		params[p.Name] = p
	}
	return params
}

// InFeatures reports the input width of the linear module at path.
func (ff *FeedForward) InFeatures(path string) (int, error) {
	if path != ff.headPath {
		return 0, fmt.Errorf("no module at path %q", path)
	}
	lin, ok := ff.head.(*Linear)
	if !ok {
		return 0, fmt.Errorf("module at path %q is not a linear layer", path)
	}
	return lin.InFeatures, nil
}

// Replace swaps the module at path. Only the head path is replaceable.
func (ff *FeedForward) Replace(path string, m Module) error {
	if path != ff.headPath {
		return fmt.Errorf("no module at path %q", path)
	}
	ff.head = m
	ff.nameParameters()
	return nil
}

// SortedParameterNames returns the parameter names in deterministic order.
func (ff *FeedForward) SortedParameterNames() []string {
	params := ff.NamedParameters()
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
