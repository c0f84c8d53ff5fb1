package optimizer

import (
	"math"
	"testing"

	"github.com/tsawler/go-transfer/nn"
)

func newParam(t *testing.T, name string, values, grads []float32) *nn.Parameter {
	t.Helper()
	value, err := nn.NewTensorFromData(values, len(values))
	if err != nil {
		t.Fatalf("Failed to create tensor: %v", err)
	}
	p := nn.NewParameter(name, value)
	copy(p.Grad.Data, grads)
	return p
}

func TestSGDStep(t *testing.T) {
	t.Run("PlainGradientDescent", func(t *testing.T) {
		p := newParam(t, "w", []float32{1, 2}, []float32{0.5, -0.5})
		sgd := NewSGD([]*nn.Parameter{p}, SGDConfig{LearningRate: 0.1})

		if err := sgd.Step(); err != nil {
			t.Fatalf("Step failed: %v", err)
		}

		want := []float32{0.95, 2.05}
		for i, w := range want {
			if math.Abs(float64(p.Value.Data[i]-w)) > 1e-6 {
				t.Errorf("Value[%d]: expected %f, got %f", i, w, p.Value.Data[i])
			}
		}
	})

	t.Run("MomentumAccumulates", func(t *testing.T) {
		p := newParam(t, "w", []float32{0}, []float32{1})
		sgd := NewSGD([]*nn.Parameter{p}, SGDConfig{LearningRate: 1, Momentum: 0.9})

		if err := sgd.Step(); err != nil {
			t.Fatalf("Step failed: %v", err)
		}
		// v=1, w=-1
		copy(p.Grad.Data, []float32{1})
		if err := sgd.Step(); err != nil {
			t.Fatalf("Step failed: %v", err)
		}
		// v=0.9+1=1.9, w=-1-1.9=-2.9
		if math.Abs(float64(p.Value.Data[0]+2.9)) > 1e-5 {
			t.Errorf("Expected -2.9 after two momentum steps, got %f", p.Value.Data[0])
		}
	})

	t.Run("WeightDecay", func(t *testing.T) {
		p := newParam(t, "w", []float32{10}, []float32{0})
		sgd := NewSGD([]*nn.Parameter{p}, SGDConfig{LearningRate: 0.1, WeightDecay: 0.5})

		if err := sgd.Step(); err != nil {
			t.Fatalf("Step failed: %v", err)
		}
		// grad = 0 + 0.5*10 = 5; w = 10 - 0.1*5 = 9.5
		if math.Abs(float64(p.Value.Data[0]-9.5)) > 1e-5 {
			t.Errorf("Expected 9.5 with weight decay, got %f", p.Value.Data[0])
		}
	})

	t.Run("FrozenParameterUntouched", func(t *testing.T) {
		p := newParam(t, "w", []float32{1}, []float32{1})
		p.Trainable = false
		sgd := NewSGD([]*nn.Parameter{p}, SGDConfig{LearningRate: 0.1})

		if err := sgd.Step(); err != nil {
			t.Fatalf("Step failed: %v", err)
		}
		if p.Value.Data[0] != 1 {
			t.Errorf("Frozen parameter changed: %f", p.Value.Data[0])
		}
	})

	t.Run("ZeroGrad", func(t *testing.T) {
		p := newParam(t, "w", []float32{1}, []float32{3})
		sgd := NewSGD([]*nn.Parameter{p}, SGDConfig{LearningRate: 0.1})
		sgd.ZeroGrad()
		if p.Grad.Data[0] != 0 {
			t.Errorf("Expected zeroed gradient, got %f", p.Grad.Data[0])
		}
	})

	t.Run("LearningRateUpdate", func(t *testing.T) {
		sgd := NewSGD(nil, SGDConfig{LearningRate: 0.1})
		sgd.SetLearningRate(0.01)
		if sgd.LearningRate() != 0.01 {
			t.Errorf("Expected lr 0.01, got %f", sgd.LearningRate())
		}
	})
}

func TestAdamStep(t *testing.T) {
	t.Run("FirstStepMovesByLearningRate", func(t *testing.T) {
		p := newParam(t, "w", []float32{1}, []float32{0.5})
		adam := NewAdam([]*nn.Parameter{p}, AdamConfig{LearningRate: 0.001})

		if err := adam.Step(); err != nil {
			t.Fatalf("Step failed: %v", err)
		}
		// With bias correction the first step is ~lr in the gradient direction.
		got := float64(1 - p.Value.Data[0])
		if math.Abs(got-0.001) > 1e-4 {
			t.Errorf("Expected first step of ~0.001, got %f", got)
		}
	})

	t.Run("FrozenParameterUntouched", func(t *testing.T) {
		p := newParam(t, "w", []float32{1}, []float32{1})
		p.Trainable = false
		adam := NewAdam([]*nn.Parameter{p}, AdamConfig{LearningRate: 0.1})
		if err := adam.Step(); err != nil {
			t.Fatalf("Step failed: %v", err)
		}
		if p.Value.Data[0] != 1 {
			t.Errorf("Frozen parameter changed: %f", p.Value.Data[0])
		}
	})

	t.Run("DefaultsApplied", func(t *testing.T) {
		adam := NewAdam(nil, AdamConfig{LearningRate: 0.1})
		if adam.beta1 != 0.9 || adam.beta2 != 0.999 || adam.epsilon != 1e-8 {
			t.Errorf("Defaults not applied: beta1=%f beta2=%f eps=%g", adam.beta1, adam.beta2, adam.epsilon)
		}
	})
}
