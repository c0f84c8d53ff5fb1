package nn

import (
	"fmt"
)

// Tensor is a dense float32 tensor in row-major layout.
type Tensor struct {
	Shape []int     `json:"shape"`
	Data  []float32 `json:"data"`
}

// NewTensor creates a zero-filled tensor with the given shape.
func NewTensor(shape ...int) (*Tensor, error) {
	if len(shape) == 0 {
		return nil, fmt.Errorf("shape cannot be empty")
	}

	size := 1
	for _, dim := range shape {
		if dim <= 0 {
			return nil, fmt.Errorf("invalid shape dimension: %d", dim)
		}
		size *= dim
	}

	shapeCopy := make([]int, len(shape))
	copy(shapeCopy, shape)

	return &Tensor{
		Shape: shapeCopy,
		Data:  make([]float32, size),
	}, nil
}

// NewTensorFromData wraps existing data, validating it against the shape.
func NewTensorFromData(data []float32, shape ...int) (*Tensor, error) {
	t, err := NewTensor(shape...)
	if err != nil {
		return nil, err
	}
	if len(data) != len(t.Data) {
		return nil, fmt.Errorf("data size %d doesn't match shape %v (expected %d)",
			len(data), shape, len(t.Data))
	}
	t.Data = data
	return t, nil
}

// NumElems returns the total number of elements.
func (t *Tensor) NumElems() int {
	size := 1
	for _, dim := range t.Shape {
		size *= dim
	}
	return size
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	shapeCopy := make([]int, len(t.Shape))
	copy(shapeCopy, t.Shape)
	dataCopy := make([]float32, len(t.Data))
	copy(dataCopy, t.Data)
	return &Tensor{Shape: shapeCopy, Data: dataCopy}
}

// ShapeEquals reports whether two tensors have identical shapes.
func (t *Tensor) ShapeEquals(other *Tensor) bool {
	if len(t.Shape) != len(other.Shape) {
		return false
	}
	for i, dim := range t.Shape {
		if dim != other.Shape[i] {
			return false
		}
	}
	return true
}

// StateDict maps dotted parameter names to their tensor values.
type StateDict map[string]*Tensor

// Clone returns a deep copy of the state dict.
func (sd StateDict) Clone() StateDict {
	out := make(StateDict, len(sd))
	for name, tensor := range sd {
		out[name] = tensor.Clone()
	}
	return out
}

// Parameter is a named, optionally trainable tensor with an accumulated gradient.
type Parameter struct {
	Name      string
	Value     *Tensor
	Grad      *Tensor
	Trainable bool
}

// NewParameter wraps a value tensor as a trainable parameter.
func NewParameter(name string, value *Tensor) *Parameter {
	grad, _ := NewTensor(value.Shape...)
	return &Parameter{
		Name:      name,
		Value:     value,
		Grad:      grad,
		Trainable: true,
	}
}

// ZeroGrad clears the accumulated gradient.
func (p *Parameter) ZeroGrad() {
	for i := range p.Grad.Data {
		p.Grad.Data[i] = 0
	}
}

// Module is a differentiable transformation.
type Module interface {
	// Forward computes the module output for a batch.
	Forward(x *Tensor, training bool) (*Tensor, error)

	// Backward propagates the output gradient, accumulating parameter
	// gradients, and returns the gradient with respect to the input.
	Backward(grad *Tensor) (*Tensor, error)

	// Parameters returns the module's parameters.
	Parameters() []*Parameter
}

// Output is the result of a backbone forward pass. AuxLogits is populated
// only by architectures with an auxiliary classifier head.
type Output struct {
	Logits    *Tensor
	AuxLogits *Tensor
}
