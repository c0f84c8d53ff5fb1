package training

import (
	"math"
	"testing"
)

func TestStepLRScheduler(t *testing.T) {
	t.Run("HoldsRateWithinStep", func(t *testing.T) {
		s := NewStepLRScheduler(30, 0.1)
		for _, epoch := range []int{0, 1, 15, 29} {
			if lr := s.GetLR(epoch, 0.1); lr != 0.1 {
				t.Errorf("Epoch %d: expected 0.1, got %f", epoch, lr)
			}
		}
	})

	t.Run("DecaysAtStepBoundaries", func(t *testing.T) {
		s := NewStepLRScheduler(30, 0.1)
		cases := []struct {
			epoch int
			want  float64
		}{
			{30, 0.01},
			{59, 0.01},
			{60, 0.001},
			{90, 0.0001},
		}
		for _, c := range cases {
			got := s.GetLR(c.epoch, 0.1)
			if math.Abs(got-c.want) > 1e-12 {
				t.Errorf("Epoch %d: expected %g, got %g", c.epoch, c.want, got)
			}
		}
	})

	t.Run("InvalidConfigUsesDefaults", func(t *testing.T) {
		s := NewStepLRScheduler(0, 1.5)
		if s.StepSize != 30 || s.Gamma != 0.1 {
			t.Errorf("Expected defaults 30/0.1, got %d/%f", s.StepSize, s.Gamma)
		}
	})
}

func TestExponentialLRScheduler(t *testing.T) {
	s := NewExponentialLRScheduler(0.94)

	if lr := s.GetLR(0, 0.045); lr != 0.045 {
		t.Errorf("Epoch 0: expected base rate, got %f", lr)
	}
	want := 0.045 * math.Pow(0.94, 5)
	if got := s.GetLR(5, 0.045); math.Abs(got-want) > 1e-12 {
		t.Errorf("Epoch 5: expected %g, got %g", want, got)
	}
}

func TestNoOpScheduler(t *testing.T) {
	s := &NoOpScheduler{}
	for _, epoch := range []int{0, 10, 1000} {
		if lr := s.GetLR(epoch, 0.05); lr != 0.05 {
			t.Errorf("Epoch %d: expected 0.05, got %f", epoch, lr)
		}
	}
}
