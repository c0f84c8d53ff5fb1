package nn

import "fmt"

// ReLU applies max(0, x) element-wise.
type ReLU struct {
	lastMask []bool
}

// NewReLU creates a ReLU activation.
func NewReLU() *ReLU {
	return &ReLU{}
}

// Forward applies the activation.
func (r *ReLU) Forward(x *Tensor, training bool) (*Tensor, error) {
	out := x.Clone()
	if training {
		if len(r.lastMask) < len(out.Data) {
			r.lastMask = make([]bool, len(out.Data))
		}
	}
	for i, v := range out.Data {
		active := v > 0
		if !active {
			out.Data[i] = 0
		}
		if training {
			r.lastMask[i] = active
		}
	}
	return out, nil
}

// Backward zeroes the gradient where the forward input was non-positive.
func (r *ReLU) Backward(grad *Tensor) (*Tensor, error) {
	if len(r.lastMask) < len(grad.Data) {
		return nil, fmt.Errorf("relu backward called before a training forward pass")
	}
	out := grad.Clone()
	for i := range out.Data {
		if !r.lastMask[i] {
			out.Data[i] = 0
		}
	}
	return out, nil
}

// Parameters returns nil; ReLU has no parameters.
func (r *ReLU) Parameters() []*Parameter {
	return nil
}

// Flatten collapses every trailing dimension into one, preserving the batch
// dimension.
type Flatten struct {
	lastShape []int
}

// NewFlatten creates a flatten layer.
func NewFlatten() *Flatten {
	return &Flatten{}
}

// Forward reshapes [n, d1, d2, ...] into [n, d1*d2*...].
func (f *Flatten) Forward(x *Tensor, training bool) (*Tensor, error) {
	if len(x.Shape) < 2 {
		return nil, fmt.Errorf("flatten input must have a batch dimension, got shape %v", x.Shape)
	}
	n := x.Shape[0]
	features := 1
	for _, dim := range x.Shape[1:] {
		features *= dim
	}
	f.lastShape = x.Shape
	return NewTensorFromData(x.Data, n, features)
}

// Backward restores the gradient to the forward input shape.
func (f *Flatten) Backward(grad *Tensor) (*Tensor, error) {
	if f.lastShape == nil {
		return nil, fmt.Errorf("flatten backward called before forward")
	}
	return NewTensorFromData(grad.Data, f.lastShape...)
}

// Parameters returns nil; Flatten has no parameters.
func (f *Flatten) Parameters() []*Parameter {
	return nil
}
