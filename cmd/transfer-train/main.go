// Command transfer-train runs a transfer-learning classification training
// run over a train/test split image directory.
package main

import (
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/tsawler/go-transfer/config"
	"github.com/tsawler/go-transfer/logging"
	"github.com/tsawler/go-transfer/model"
	"github.com/tsawler/go-transfer/nn"
	"github.com/tsawler/go-transfer/training"
)

func main() {
	var (
		configPath   = flag.String("config", "", "path to YAML run configuration")
		architecture = flag.String("arch", "", "model architecture")
		dataDir      = flag.String("data", "", "data directory with train/ and test/ splits")
		modelDir     = flag.String("model-dir", "", "output directory for checkpoints and class mapping")
		epochs       = flag.Int("epochs", -1, "number of training epochs")
		batchSize    = flag.Int("batch-size", 0, "examples per batch")
		transferFrom = flag.String("transfer-from", "", "checkpoint to initialize non-head weights from")
		freeze       = flag.Bool("freeze", false, "train only the classification head")
		workers      = flag.Int("workers", 0, "parallel image decoders per loader")
	)
	flag.Parse()

	log := logging.Default()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	// Flags take precedence over file and environment.
	if *architecture != "" {
		cfg.Architecture = *architecture
	}
	if *dataDir != "" {
		cfg.DataDirectory = *dataDir
	}
	if *modelDir != "" {
		cfg.ModelDirectory = *modelDir
	}
	if *epochs >= 0 {
		cfg.Epochs = *epochs
	}
	if *batchSize > 0 {
		cfg.BatchSize = *batchSize
	}
	if *transferFrom != "" {
		cfg.TransferFrom = *transferFrom
	}
	if *freeze {
		cfg.FreezeLayers = true
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Error("invalid configuration")
		flag.Usage()
		os.Exit(2)
	}

	registerReferenceBackbones()

	stage, err := training.NewBuilder(log).Architecture(cfg.Architecture)
	if err != nil {
		log.WithError(err).WithField("supported", training.SupportedArchitectures()).
			Fatal("unsupported architecture")
	}

	run, err := stage.DataDirectory(cfg.DataDirectory)
	if err != nil {
		log.WithError(err).WithField("data_dir", cfg.DataDirectory).
			Fatal("failed to bind data directory")
	}
	if cfg.FreezeLayers {
		run.FreezeAllLayers()
	}

	report, err := run.Train(training.TrainOptions{
		Epochs:       cfg.Epochs,
		BatchSize:    cfg.BatchSize,
		ModelDir:     cfg.ModelDirectory,
		TransferFrom: cfg.TransferFrom,
		Verbose:      cfg.Verbose,
		NumWorkers:   cfg.Workers,
	})
	if err != nil {
		log.WithError(err).Fatal("training run failed")
	}

	log.WithFields(logrus.Fields{
		"run_id":        report.RunID,
		"architecture":  report.Architecture,
		"dataset":       report.Dataset,
		"classes":       len(report.ClassNames),
		"best_accuracy": report.BestAccuracy,
		"checkpoint":    report.CheckpointPath,
		"mapping":       report.MappingPath,
		"elapsed":       report.Elapsed.String(),
	}).Info("run finished")
}

// registerReferenceBackbones installs a small feed-forward network for each
// architecture so the pipeline runs end to end without a model zoo. Each
// network hosts its head under the path the adapter expects for that
// architecture. A real deployment registers pretrained backbones instead.
func registerReferenceBackbones() {
	for _, arch := range []model.Architecture{
		model.ResNet50,
		model.DenseNet121,
		model.InceptionV3,
		model.MobileNetV2,
	} {
		headPath, err := model.HeadPath(arch)
		if err != nil {
			continue
		}
		inputSize := 224
		if arch == model.InceptionV3 {
			inputSize = 299
		}
		inFeatures := 3 * inputSize * inputSize
		model.RegisterBackbone(arch, func() (model.Backbone, error) {
			ff, err := nn.NewFeedForward(inFeatures, 64, 64, headPath)
			if err != nil {
				return nil, err
			}
			ff.EmitAux = arch == model.InceptionV3
			return ff, nil
		})
	}
}
