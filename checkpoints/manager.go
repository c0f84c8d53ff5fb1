package checkpoints

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/tsawler/go-transfer/logging"
	"github.com/tsawler/go-transfer/nn"
)

// Manager owns the best-model-so-far invariant for a single training run:
// it tracks the highest test accuracy seen, persists the corresponding
// weight snapshot, and removes the superseded file once the replacement has
// been written. At most one checkpoint is current at any time.
type Manager struct {
	dir          string
	architecture string
	dataset      string
	runID        string
	log          *logrus.Logger

	bestAccuracy float64
	currentPath  string
}

// NewManager creates a checkpoint manager writing into dir.
func NewManager(dir, architecture, dataset, runID string, log *logrus.Logger) *Manager {
	if log == nil {
		log = logging.Default()
	}
	return &Manager{
		dir:          dir,
		architecture: architecture,
		dataset:      dataset,
		runID:        runID,
		log:          log,
	}
}

// BestAccuracy returns the highest accuracy recorded so far.
func (m *Manager) BestAccuracy() float64 {
	return m.bestAccuracy
}

// CurrentPath returns the path of the current best checkpoint, or "" when
// none has been written.
func (m *Manager) CurrentPath() string {
	return m.currentPath
}

// Consider records a test-phase result. When accuracy improves on the best
// seen so far the model state is written to a new checkpoint file and the
// previous one is deleted; the delete only happens after a successful write,
// and a delete failure is logged rather than propagated. Returns true when a
// checkpoint was written.
func (m *Manager) Consider(accuracy float64, epoch int, sd nn.StateDict) (bool, error) {
	if accuracy <= m.bestAccuracy {
		return false, nil
	}

	name := fmt.Sprintf("%s-%s-test_acc_%.5f_epoch-%d.json", m.architecture, m.dataset, accuracy, epoch)
	path := filepath.Join(m.dir, name)

	meta := CheckpointMetadata{
		RunID:        m.runID,
		Architecture: m.architecture,
		Dataset:      m.dataset,
		Epoch:        epoch,
		Accuracy:     accuracy,
	}
	if err := SaveStateDict(path, sd, meta); err != nil {
		return false, fmt.Errorf("failed to save checkpoint: %w", err)
	}

	if m.currentPath != "" && m.currentPath != path {
		if err := os.Remove(m.currentPath); err != nil {
			m.log.WithFields(logrus.Fields{
				"path":  m.currentPath,
				"error": err.Error(),
			}).Warn("failed to remove superseded checkpoint")
		}
	}

	m.bestAccuracy = accuracy
	m.currentPath = path
	return true, nil
}
