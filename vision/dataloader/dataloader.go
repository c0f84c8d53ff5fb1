// Package dataloader produces shuffled, preprocessed image batches from a
// dataset. Decoding is parallelized internally; the consumer contract is
// synchronous and strictly sequential.
package dataloader

import (
	"fmt"
	"math/rand"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tsawler/go-transfer/nn"
	"github.com/tsawler/go-transfer/vision/preprocessing"
)

// Dataset is the contract a dataset must satisfy to be batch-loaded.
type Dataset interface {
	Len() int
	GetItem(index int) (imagePath string, label int, err error)
}

// Config holds loader configuration.
type Config struct {
	BatchSize  int
	Shuffle    bool
	ImageSize  int
	Mean       [3]float32
	Std        [3]float32
	NumWorkers int
}

// Batch is one preprocessed image batch with its labels.
type Batch struct {
	Images *nn.Tensor // [size, 3, imageSize, imageSize]
	Labels []int32
	Size   int
}

// Loader iterates a dataset in shuffled batches. Each full pass visits
// every example exactly once; Reset reshuffles for the next pass.
type Loader struct {
	dataset  Dataset
	config   Config
	indices  []int
	position int
	mu       sync.Mutex

	processors []*preprocessing.ImageProcessor
}

// New creates a loader over dataset.
func New(dataset Dataset, config Config) *Loader {
	if config.BatchSize <= 0 {
		config.BatchSize = 8
	}
	if config.NumWorkers <= 0 {
		config.NumWorkers = 4
	}

	indices := make([]int, dataset.Len())
	for i := range indices {
		indices[i] = i
	}
	if config.Shuffle {
		rand.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	// One processor per worker so decodes don't serialize on a shared
	// buffer lock.
	processors := make([]*preprocessing.ImageProcessor, config.NumWorkers)
	for i := range processors {
		processors[i] = preprocessing.NewImageProcessor(preprocessing.Options{
			TargetSize: config.ImageSize,
			Mean:       config.Mean,
			Std:        config.Std,
		})
	}

	return &Loader{
		dataset:    dataset,
		config:     config,
		indices:    indices,
		processors: processors,
	}
}

// Len returns the number of examples in the underlying dataset.
func (l *Loader) Len() int {
	return l.dataset.Len()
}

// Reset rewinds the loader and reshuffles when shuffling is enabled.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.position = 0
	if l.config.Shuffle {
		rand.Shuffle(len(l.indices), func(i, j int) {
			l.indices[i], l.indices[j] = l.indices[j], l.indices[i]
		})
	}
}

// NextBatch returns the next batch, or (nil, nil) when the pass is
// exhausted. The final batch of a pass may be smaller than the configured
// batch size.
func (l *Loader) NextBatch() (*Batch, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	remaining := len(l.indices) - l.position
	if remaining <= 0 {
		return nil, nil
	}

	batchSize := l.config.BatchSize
	if remaining < batchSize {
		batchSize = remaining
	}
	batchIndices := l.indices[l.position : l.position+batchSize]
	l.position += batchSize

	size := l.config.ImageSize
	images, err := nn.NewTensor(batchSize, 3, size, size)
	if err != nil {
		return nil, err
	}
	labels := make([]int32, batchSize)

	itemSize := 3 * size * size
	var g errgroup.Group
	g.SetLimit(l.config.NumWorkers)

	for slot, datasetIdx := range batchIndices {
		slot, datasetIdx := slot, datasetIdx
		g.Go(func() error {
			path, label, err := l.dataset.GetItem(datasetIdx)
			if err != nil {
				return err
			}

			processor := l.processors[slot%len(l.processors)]
			img, err := processor.ProcessFile(path)
			if err != nil {
				return fmt.Errorf("failed to process %s: %w", path, err)
			}

			copy(images.Data[slot*itemSize:(slot+1)*itemSize], img.Data)
			labels[slot] = int32(label)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Batch{Images: images, Labels: labels, Size: batchSize}, nil
}
