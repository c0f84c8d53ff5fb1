package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Split names within a data directory.
const (
	TrainSplit = "train"
	TestSplit  = "test"
)

// Splits lists the required splits in their fixed processing order.
var Splits = []string{TrainSplit, TestSplit}

// SplitDataset binds a data directory holding train/ and test/ splits, each
// with one subdirectory per class. Both splits must agree on the class set.
type SplitDataset struct {
	Root       string
	Name       string
	ClassNames []string

	splits map[string]*ImageFolderDataset
}

// NewSplitDataset validates root and scans both splits. No image is decoded.
func NewSplitDataset(root string) (*SplitDataset, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDataDir, root)
	}

	s := &SplitDataset{
		Root:   root,
		Name:   filepath.Base(strings.TrimRight(root, string(os.PathSeparator))),
		splits: make(map[string]*ImageFolderDataset, len(Splits)),
	}

	for _, split := range Splits {
		splitDir := filepath.Join(root, split)
		info, err := os.Stat(splitDir)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("%w: %s", ErrMissingSplit, splitDir)
		}

		ds, err := NewImageFolderDataset(splitDir, nil)
		if err != nil {
			return nil, err
		}
		if ds.Len() == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptySplit, splitDir)
		}
		s.splits[split] = ds
	}

	trainClasses := s.splits[TrainSplit].ClassNames()
	testClasses := s.splits[TestSplit].ClassNames()
	if len(trainClasses) != len(testClasses) {
		return nil, fmt.Errorf("%w: train has %d classes, test has %d",
			ErrClassMismatch, len(trainClasses), len(testClasses))
	}
	for i, name := range trainClasses {
		if testClasses[i] != name {
			return nil, fmt.Errorf("%w: %q vs %q", ErrClassMismatch, name, testClasses[i])
		}
	}

	s.ClassNames = trainClasses
	return s, nil
}

// Split returns the dataset for a split name.
func (s *SplitDataset) Split(name string) *ImageFolderDataset {
	return s.splits[name]
}

// Size returns the number of examples in a split.
func (s *SplitDataset) Size(name string) int {
	if ds, ok := s.splits[name]; ok {
		return ds.Len()
	}
	return 0
}

// NumClasses returns the number of classes.
func (s *SplitDataset) NumClasses() int {
	return len(s.ClassNames)
}
