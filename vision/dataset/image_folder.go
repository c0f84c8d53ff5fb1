// Package dataset resolves directory-per-class image datasets into labeled
// example lists without decoding any image.
package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrInvalidDataDir indicates a missing data directory or a path that
	// is not a directory.
	ErrInvalidDataDir = errors.New("data directory does not exist or is not a directory")

	// ErrMissingSplit indicates a required split subdirectory is absent.
	ErrMissingSplit = errors.New("required split directory is missing")

	// ErrClassMismatch indicates the splits disagree on the class folder set.
	ErrClassMismatch = errors.New("splits disagree on class folders")

	// ErrEmptySplit indicates a split with no images.
	ErrEmptySplit = errors.New("split contains no images")
)

var defaultExtensions = []string{".jpg", ".jpeg", ".png", ".bmp"}

// ImageFolderDataset is a dataset loaded from a directory structure where
// each subdirectory is a class. Labels are assigned from the class names in
// ascending lexicographic order, the same order the persisted class-index
// mapping uses.
type ImageFolderDataset struct {
	imagePaths []string
	labels     []int
	classNames []string
	classToIdx map[string]int
}

// NewImageFolderDataset scans root for class subdirectories and their images.
func NewImageFolderDataset(root string, extensions []string) (*ImageFolderDataset, error) {
	if len(extensions) == 0 {
		extensions = defaultExtensions
	}
	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(ext)] = true
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to list classes in %s: %w", root, err)
	}

	d := &ImageFolderDataset{classToIdx: make(map[string]int)}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		d.classNames = append(d.classNames, entry.Name())
	}
	// ReadDir returns sorted entries; sort anyway so label order is an
	// explicit invariant rather than a platform detail.
	sort.Strings(d.classNames)
	for idx, name := range d.classNames {
		d.classToIdx[name] = idx
	}

	for _, className := range d.classNames {
		classDir := filepath.Join(root, className)
		files, err := os.ReadDir(classDir)
		if err != nil {
			return nil, fmt.Errorf("failed to list class %s: %w", className, err)
		}
		for _, file := range files {
			if file.IsDir() {
				continue
			}
			if !allowed[strings.ToLower(filepath.Ext(file.Name()))] {
				continue
			}
			d.imagePaths = append(d.imagePaths, filepath.Join(classDir, file.Name()))
			d.labels = append(d.labels, d.classToIdx[className])
		}
	}

	return d, nil
}

// Len returns the number of examples.
func (d *ImageFolderDataset) Len() int {
	return len(d.imagePaths)
}

// GetItem returns the image path and label at index.
func (d *ImageFolderDataset) GetItem(index int) (string, int, error) {
	if index < 0 || index >= len(d.imagePaths) {
		return "", 0, fmt.Errorf("index %d out of range [0, %d)", index, len(d.imagePaths))
	}
	return d.imagePaths[index], d.labels[index], nil
}

// NumClasses returns the number of classes.
func (d *ImageFolderDataset) NumClasses() int {
	return len(d.classNames)
}

// ClassNames returns the sorted class names.
func (d *ImageFolderDataset) ClassNames() []string {
	return d.classNames
}

// ClassDistribution returns the number of examples per class.
func (d *ImageFolderDataset) ClassDistribution() map[string]int {
	dist := make(map[string]int)
	for _, label := range d.labels {
		dist[d.classNames[label]]++
	}
	return dist
}
