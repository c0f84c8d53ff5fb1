package checkpoints

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/tsawler/go-transfer/nn"
)

// Checkpoint is a serialized snapshot of model parameters plus metadata.
type Checkpoint struct {
	Metadata CheckpointMetadata `json:"metadata"`
	Weights  []WeightTensor     `json:"weights"`
}

// WeightTensor represents one named model parameter.
type WeightTensor struct {
	Name  string    `json:"name"`
	Shape []int     `json:"shape"`
	Data  []float32 `json:"data"`
}

// CheckpointMetadata describes the run that produced a checkpoint.
type CheckpointMetadata struct {
	Version      string    `json:"version"`
	Framework    string    `json:"framework"`
	CreatedAt    time.Time `json:"created_at"`
	RunID        string    `json:"run_id,omitempty"`
	Architecture string    `json:"architecture,omitempty"`
	Dataset      string    `json:"dataset,omitempty"`
	Epoch        int       `json:"epoch"`
	Accuracy     float64   `json:"accuracy"`
}

// SaveStateDict writes a state dict to path as a JSON checkpoint. The file
// handle is closed on every exit path.
func SaveStateDict(path string, sd nn.StateDict, meta CheckpointMetadata) error {
	if meta.Framework == "" {
		meta.Framework = "go-transfer"
		meta.Version = "1.0.0"
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now()
	}

	names := make([]string, 0, len(sd))
	for name := range sd {
		names = append(names, name)
	}
	sort.Strings(names)

	checkpoint := Checkpoint{Metadata: meta, Weights: make([]WeightTensor, 0, len(sd))}
	for _, name := range names {
		tensor := sd[name]
		checkpoint.Weights = append(checkpoint.Weights, WeightTensor{
			Name:  name,
			Shape: tensor.Shape,
			Data:  tensor.Data,
		})
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	if err := encoder.Encode(&checkpoint); err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	return nil
}

// Load reads a JSON checkpoint file.
func Load(path string) (*Checkpoint, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	var checkpoint Checkpoint
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&checkpoint); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	return &checkpoint, nil
}

// LoadStateDict reads a JSON checkpoint and returns its parameters as a
// state dict.
func LoadStateDict(path string) (nn.StateDict, error) {
	checkpoint, err := Load(path)
	if err != nil {
		return nil, err
	}

	sd := make(nn.StateDict, len(checkpoint.Weights))
	for _, w := range checkpoint.Weights {
		tensor, err := nn.NewTensorFromData(w.Data, w.Shape...)
		if err != nil {
			return nil, fmt.Errorf("invalid weight tensor %q: %w", w.Name, err)
		}
		sd[w.Name] = tensor
	}
	return sd, nil
}
