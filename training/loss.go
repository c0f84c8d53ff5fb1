package training

import (
	"fmt"
	"math"

	"github.com/tsawler/go-transfer/nn"
)

// CrossEntropy computes the mean softmax cross-entropy loss over a batch of
// logits [n, classes] against integer labels, and the loss gradient with
// respect to the logits.
func CrossEntropy(logits *nn.Tensor, labels []int32) (float64, *nn.Tensor, error) {
	if len(logits.Shape) != 2 {
		return 0, nil, fmt.Errorf("logits must be 2-dimensional, got shape %v", logits.Shape)
	}
	n := logits.Shape[0]
	classes := logits.Shape[1]
	if len(labels) != n {
		return 0, nil, fmt.Errorf("label count %d doesn't match batch size %d", len(labels), n)
	}

	grad, err := nn.NewTensor(n, classes)
	if err != nil {
		return 0, nil, err
	}

	var totalLoss float64
	for i := 0; i < n; i++ {
		label := int(labels[i])
		if label < 0 || label >= classes {
			return 0, nil, fmt.Errorf("label %d out of range [0, %d)", label, classes)
		}

		row := logits.Data[i*classes : (i+1)*classes]

		// Max-shifted softmax for numerical stability.
		maxLogit := float64(row[0])
		for _, v := range row[1:] {
			if float64(v) > maxLogit {
				maxLogit = float64(v)
			}
		}
		var sumExp float64
		for _, v := range row {
			sumExp += math.Exp(float64(v) - maxLogit)
		}

		logProb := float64(row[label]) - maxLogit - math.Log(sumExp)
		totalLoss -= logProb

		for j := 0; j < classes; j++ {
			softmax := math.Exp(float64(row[j])-maxLogit) / sumExp
			target := 0.0
			if j == label {
				target = 1.0
			}
			grad.Data[i*classes+j] = float32((softmax - target) / float64(n))
		}
	}

	return totalLoss / float64(n), grad, nil
}

// Argmax returns the predicted class index per row of a [n, classes] tensor.
func Argmax(logits *nn.Tensor) ([]int32, error) {
	if len(logits.Shape) != 2 {
		return nil, fmt.Errorf("logits must be 2-dimensional, got shape %v", logits.Shape)
	}
	n := logits.Shape[0]
	classes := logits.Shape[1]

	preds := make([]int32, n)
	for i := 0; i < n; i++ {
		best := 0
		row := logits.Data[i*classes : (i+1)*classes]
		for j, v := range row {
			if v > row[best] {
				best = j
			}
		}
		preds[i] = int32(best)
	}
	return preds, nil
}
