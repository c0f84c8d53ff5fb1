package nn

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Linear is a fully connected layer: y = x*W^T + b.
// Weight shape is [out, in], matching the usual state-dict convention.
type Linear struct {
	InFeatures  int
	OutFeatures int
	Weight      *Parameter
	Bias        *Parameter

	lastInput *Tensor
}

// NewLinear creates a linear layer with Kaiming-uniform initialized weights.
func NewLinear(inFeatures, outFeatures int) (*Linear, error) {
	if inFeatures <= 0 || outFeatures <= 0 {
		return nil, fmt.Errorf("invalid linear dimensions: in=%d out=%d", inFeatures, outFeatures)
	}

	weight, err := NewTensor(outFeatures, inFeatures)
	if err != nil {
		return nil, err
	}
	bound := float32(1.0 / math.Sqrt(float64(inFeatures)))
	for i := range weight.Data {
		weight.Data[i] = (rand.Float32()*2 - 1) * bound
	}

	bias, err := NewTensor(outFeatures)
	if err != nil {
		return nil, err
	}

	return &Linear{
		InFeatures:  inFeatures,
		OutFeatures: outFeatures,
		Weight:      NewParameter("weight", weight),
		Bias:        NewParameter("bias", bias),
	}, nil
}

// Forward computes y = x*W^T + b for a batch x of shape [n, in].
func (l *Linear) Forward(x *Tensor, training bool) (*Tensor, error) {
	if len(x.Shape) != 2 || x.Shape[1] != l.InFeatures {
		return nil, fmt.Errorf("linear input shape %v incompatible with in_features %d", x.Shape, l.InFeatures)
	}

	n := x.Shape[0]
	xm := mat.NewDense(n, l.InFeatures, toFloat64(x.Data))
	wm := mat.NewDense(l.OutFeatures, l.InFeatures, toFloat64(l.Weight.Value.Data))

	var ym mat.Dense
	ym.Mul(xm, wm.T())

	out, err := NewTensor(n, l.OutFeatures)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		for j := 0; j < l.OutFeatures; j++ {
			out.Data[i*l.OutFeatures+j] = float32(ym.At(i, j)) + l.Bias.Value.Data[j]
		}
	}

	if training {
		l.lastInput = x
	}
	return out, nil
}

// Backward accumulates weight and bias gradients from the output gradient
// and returns the gradient with respect to the input.
func (l *Linear) Backward(grad *Tensor) (*Tensor, error) {
	if l.lastInput == nil {
		return nil, fmt.Errorf("linear backward called before a training forward pass")
	}
	if len(grad.Shape) != 2 || grad.Shape[1] != l.OutFeatures {
		return nil, fmt.Errorf("linear gradient shape %v incompatible with out_features %d", grad.Shape, l.OutFeatures)
	}

	n := grad.Shape[0]
	gm := mat.NewDense(n, l.OutFeatures, toFloat64(grad.Data))
	xm := mat.NewDense(n, l.InFeatures, toFloat64(l.lastInput.Data))
	wm := mat.NewDense(l.OutFeatures, l.InFeatures, toFloat64(l.Weight.Value.Data))

	// dW = grad^T * x
	var dw mat.Dense
	dw.Mul(gm.T(), xm)
	for i := 0; i < l.OutFeatures; i++ {
		for j := 0; j < l.InFeatures; j++ {
			l.Weight.Grad.Data[i*l.InFeatures+j] += float32(dw.At(i, j))
		}
	}

	// db = column sums of grad
	for j := 0; j < l.OutFeatures; j++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += gm.At(i, j)
		}
		l.Bias.Grad.Data[j] += float32(sum)
	}

	// dX = grad * W
	var dx mat.Dense
	dx.Mul(gm, wm)

	out, err := NewTensor(n, l.InFeatures)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		for j := 0; j < l.InFeatures; j++ {
			out.Data[i*l.InFeatures+j] = float32(dx.At(i, j))
		}
	}
	return out, nil
}

// Parameters returns the weight and bias parameters.
func (l *Linear) Parameters() []*Parameter {
	return []*Parameter{l.Weight, l.Bias}
}

func toFloat64(data []float32) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = float64(v)
	}
	return out
}
