package training

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tsawler/go-transfer/checkpoints"
	"github.com/tsawler/go-transfer/logging"
	"github.com/tsawler/go-transfer/model"
	"github.com/tsawler/go-transfer/optimizer"
	"github.com/tsawler/go-transfer/vision/dataloader"
	"github.com/tsawler/go-transfer/vision/dataset"
)

// TrainOptions configures a single training run.
type TrainOptions struct {
	// Epochs is the number of epochs to run. Zero writes the class mapping
	// and returns without training.
	Epochs int

	// BatchSize is the number of examples per batch.
	BatchSize int

	// ModelDir receives the class mapping and checkpoint files. Defaults to
	// "models" under the data directory.
	ModelDir string

	// TransferFrom, when set, is a checkpoint whose non-head weights seed
	// the model before training.
	TransferFrom string

	// Verbose enables per-epoch progress logging.
	Verbose bool

	// NumWorkers bounds parallel image decoding per loader.
	NumWorkers int
}

// DefaultTrainOptions returns the options used when the caller leaves a
// field unset.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Epochs:    100,
		BatchSize: 8,
		Verbose:   true,
	}
}

// Report summarizes a finished run.
type Report struct {
	RunID          string
	Architecture   string
	Dataset        string
	ClassNames     []string
	MappingPath    string
	BestAccuracy   float64
	CheckpointPath string
	Epochs         int
	Elapsed        time.Duration
}

// Builder is the entry stage of trainer construction. Each stage exposes
// only the calls that are valid next, so a trainer cannot reach Train
// without an architecture and a data directory.
type Builder struct {
	log *logrus.Logger
}

// NewBuilder starts trainer construction. A nil logger selects the shared
// default.
func NewBuilder(log *logrus.Logger) *Builder {
	if log == nil {
		log = logging.Default()
	}
	return &Builder{log: log}
}

// Architecture selects the model architecture and its training profile.
func (b *Builder) Architecture(name string) (*DataStage, error) {
	profile, err := SelectArchitecture(name)
	if err != nil {
		return nil, err
	}
	return &DataStage{log: b.log, profile: profile}, nil
}

// DataStage holds a selected architecture and awaits the data directory.
type DataStage struct {
	log     *logrus.Logger
	profile *Profile
}

// DataDirectory binds and validates the dataset root, producing a runnable
// trainer.
func (s *DataStage) DataDirectory(root string) (*RunStage, error) {
	ds, err := dataset.NewSplitDataset(root)
	if err != nil {
		return nil, err
	}
	return &RunStage{
		log:     s.log,
		profile: s.profile,
		dataset: ds,
		freeze:  model.FineTuneAll,
	}, nil
}

// RunStage is a fully configured trainer.
type RunStage struct {
	log     *logrus.Logger
	profile *Profile
	dataset *dataset.SplitDataset
	freeze  model.FreezeMode
}

// FreezeAllLayers trains only the replacement head when transfer weights
// are loaded. Without TransferFrom the mode has no effect.
func (s *RunStage) FreezeAllLayers() *RunStage {
	s.freeze = model.FreezeAll
	return s
}

// FineTuneAllLayers trains every layer. This is the default.
func (s *RunStage) FineTuneAllLayers() *RunStage {
	s.freeze = model.FineTuneAll
	return s
}

// Dataset returns the bound dataset.
func (s *RunStage) Dataset() *dataset.SplitDataset {
	return s.dataset
}

// Train runs the full training loop and returns a run report. The class
// mapping is written before the first epoch so a crashed run still leaves
// an interpretable model directory.
func (s *RunStage) Train(opts TrainOptions) (*Report, error) {
	if opts.Epochs < 0 {
		return nil, fmt.Errorf("epochs must be non-negative, got %d", opts.Epochs)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 8
	}
	if opts.ModelDir == "" {
		opts.ModelDir = filepath.Join(s.dataset.Root, "models")
	}

	start := time.Now()
	runID := uuid.New().String()
	arch := s.profile.Architecture

	mappingPath, err := checkpoints.WriteClassMapping(s.dataset.ClassNames, opts.ModelDir, s.dataset.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to write class mapping: %w", err)
	}

	report := &Report{
		RunID:        runID,
		Architecture: string(arch),
		Dataset:      s.dataset.Name,
		ClassNames:   s.dataset.ClassNames,
		MappingPath:  mappingPath,
		Epochs:       opts.Epochs,
	}
	if opts.Epochs == 0 {
		report.Elapsed = time.Since(start)
		return report, nil
	}

	backbone, err := model.BuildModel(arch, s.dataset.NumClasses())
	if err != nil {
		return nil, fmt.Errorf("failed to build model: %w", err)
	}

	if opts.TransferFrom != "" {
		if err := model.LoadTransferWeights(backbone, arch, opts.TransferFrom, s.freeze); err != nil {
			return nil, err
		}
		s.log.WithFields(logrus.Fields{
			"run_id":     runID,
			"checkpoint": opts.TransferFrom,
			"freeze":     string(s.freeze),
		}).Info("loaded transfer weights")
	}

	opt := s.profile.NewOptimizer(
		model.TrainableParameters(backbone),
		s.profile.LearningRate,
		s.profile.WeightDecay,
	)

	var scheduler LRScheduler = &NoOpScheduler{}
	if s.profile.LRStepSize > 0 {
		scheduler = NewStepLRScheduler(s.profile.LRStepSize, s.profile.LRDecayRate)
	}

	loaders := map[string]*dataloader.Loader{}
	for _, split := range dataset.Splits {
		loaders[split] = dataloader.New(s.dataset.Split(split), dataloader.Config{
			BatchSize:  opts.BatchSize,
			Shuffle:    true,
			ImageSize:  s.profile.InputSize,
			Mean:       s.profile.Mean,
			Std:        s.profile.Std,
			NumWorkers: opts.NumWorkers,
		})
	}

	manager := checkpoints.NewManager(opts.ModelDir, string(arch), s.dataset.Name, runID, s.log)

	s.log.WithFields(logrus.Fields{
		"run_id":       runID,
		"architecture": string(arch),
		"dataset":      s.dataset.Name,
		"classes":      s.dataset.NumClasses(),
		"train_size":   s.dataset.Size(dataset.TrainSplit),
		"test_size":    s.dataset.Size(dataset.TestSplit),
		"epochs":       opts.Epochs,
		"batch_size":   opts.BatchSize,
		"scheduler":    scheduler.GetName(),
	}).Info("starting training run")

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		for _, split := range dataset.Splits {
			training := split == dataset.TrainSplit
			loader := loaders[split]
			loader.Reset()

			avgLoss, accuracy, err := s.runPhase(backbone, opt, loader, training)
			if err != nil {
				return nil, fmt.Errorf("epoch %d %s phase: %w", epoch+1, split, err)
			}

			if opts.Verbose {
				s.log.WithFields(logrus.Fields{
					"run_id":   runID,
					"epoch":    epoch + 1,
					"phase":    split,
					"loss":     avgLoss,
					"accuracy": accuracy,
					"lr":       opt.LearningRate(),
				}).Info("phase complete")
			}

			if training {
				// Decay is applied once per epoch, after the train phase,
				// so the test phase and the next epoch see the new rate.
				opt.SetLearningRate(scheduler.GetLR(epoch+1, s.profile.LearningRate))
				continue
			}

			// Checkpoint records carry the zero-based epoch index; only the
			// progress logs count from one.
			improved, err := manager.Consider(accuracy, epoch, model.StateDictOf(backbone))
			if err != nil {
				return nil, err
			}
			if improved && opts.Verbose {
				s.log.WithFields(logrus.Fields{
					"run_id":   runID,
					"epoch":    epoch + 1,
					"accuracy": accuracy,
					"path":     manager.CurrentPath(),
				}).Info("saved new best checkpoint")
			}
		}
	}

	report.BestAccuracy = manager.BestAccuracy()
	report.CheckpointPath = manager.CurrentPath()
	report.Elapsed = time.Since(start)

	s.log.WithFields(logrus.Fields{
		"run_id":        runID,
		"best_accuracy": report.BestAccuracy,
		"checkpoint":    report.CheckpointPath,
		"elapsed":       report.Elapsed.String(),
	}).Info("training run complete")

	return report, nil
}

// runPhase drains one loader pass, returning the example-weighted mean loss
// and the accuracy over the whole split.
func (s *RunStage) runPhase(backbone model.Backbone, opt optimizer.Optimizer, loader *dataloader.Loader, training bool) (float64, float64, error) {
	var totalLoss float64
	var corrects int

	for {
		batch, err := loader.NextBatch()
		if err != nil {
			return 0, 0, err
		}
		if batch == nil {
			break
		}

		if training {
			model.ZeroGradients(backbone)
		}

		out, err := backbone.Forward(batch.Images, training)
		if err != nil {
			return 0, 0, err
		}

		loss, grad, err := CrossEntropy(out.Logits, batch.Labels)
		if err != nil {
			return 0, 0, err
		}

		preds, err := Argmax(out.Logits)
		if err != nil {
			return 0, 0, err
		}
		for i, pred := range preds {
			if pred == batch.Labels[i] {
				corrects++
			}
		}

		if training {
			if err := backbone.Backward(grad); err != nil {
				return 0, 0, err
			}
			if err := opt.Step(); err != nil {
				return 0, 0, err
			}
		}

		totalLoss += loss * float64(batch.Size)
	}

	n := loader.Len()
	if n == 0 {
		return 0, 0, nil
	}
	return totalLoss / float64(n), float64(corrects) / float64(n), nil
}
