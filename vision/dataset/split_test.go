package dataset

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// writeTestImage writes a small solid-color PNG.
func writeTestImage(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create image file: %v", err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		t.Fatalf("Failed to encode image: %v", err)
	}
}

// createSplitDataset builds <root>/{train,test}/<class>/ with images.
func createSplitDataset(t *testing.T, classes []string, imagesPerClass int) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "flowers")
	for _, split := range Splits {
		for _, className := range classes {
			classDir := filepath.Join(root, split, className)
			if err := os.MkdirAll(classDir, 0755); err != nil {
				t.Fatalf("Failed to create class directory: %v", err)
			}
			for i := 0; i < imagesPerClass; i++ {
				writeTestImage(t, filepath.Join(classDir, fmt.Sprintf("img_%d.png", i)))
			}
		}
	}
	return root
}

func TestNewSplitDataset(t *testing.T) {
	t.Run("ValidDataset", func(t *testing.T) {
		root := createSplitDataset(t, []string{"rose", "daisy", "tulip"}, 3)

		ds, err := NewSplitDataset(root)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		if ds.Name != "flowers" {
			t.Errorf("Expected dataset name flowers, got %s", ds.Name)
		}

		want := []string{"daisy", "rose", "tulip"}
		if len(ds.ClassNames) != len(want) {
			t.Fatalf("Expected %d classes, got %d", len(want), len(ds.ClassNames))
		}
		for i, name := range want {
			if ds.ClassNames[i] != name {
				t.Errorf("Class %d: expected %s (sorted order), got %s", i, name, ds.ClassNames[i])
			}
		}

		for _, split := range Splits {
			if ds.Size(split) != 9 {
				t.Errorf("Expected 9 examples in %s, got %d", split, ds.Size(split))
			}
		}
	})

	t.Run("MissingRoot", func(t *testing.T) {
		_, err := NewSplitDataset(filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, ErrInvalidDataDir) {
			t.Errorf("Expected ErrInvalidDataDir, got %v", err)
		}
	})

	t.Run("RootIsFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatalf("Failed to write file: %v", err)
		}
		_, err := NewSplitDataset(path)
		if !errors.Is(err, ErrInvalidDataDir) {
			t.Errorf("Expected ErrInvalidDataDir, got %v", err)
		}
	})

	t.Run("MissingTestSplit", func(t *testing.T) {
		root := createSplitDataset(t, []string{"a"}, 1)
		if err := os.RemoveAll(filepath.Join(root, TestSplit)); err != nil {
			t.Fatalf("Failed to remove split: %v", err)
		}
		_, err := NewSplitDataset(root)
		if !errors.Is(err, ErrMissingSplit) {
			t.Errorf("Expected ErrMissingSplit, got %v", err)
		}
	})

	t.Run("ClassMismatch", func(t *testing.T) {
		root := createSplitDataset(t, []string{"a", "b"}, 1)
		extra := filepath.Join(root, TestSplit, "c")
		if err := os.MkdirAll(extra, 0755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
		writeTestImage(t, filepath.Join(extra, "img.png"))

		_, err := NewSplitDataset(root)
		if !errors.Is(err, ErrClassMismatch) {
			t.Errorf("Expected ErrClassMismatch, got %v", err)
		}
	})

	t.Run("EmptySplit", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "empty")
		for _, split := range Splits {
			if err := os.MkdirAll(filepath.Join(root, split, "a"), 0755); err != nil {
				t.Fatalf("Failed to create dirs: %v", err)
			}
		}
		_, err := NewSplitDataset(root)
		if !errors.Is(err, ErrEmptySplit) {
			t.Errorf("Expected ErrEmptySplit, got %v", err)
		}
	})
}

func TestImageFolderLabelOrder(t *testing.T) {
	root := createSplitDataset(t, []string{"zebra", "ant", "mole"}, 2)

	ds, err := NewSplitDataset(root)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Labels must follow sorted class-name order: ant=0, mole=1, zebra=2.
	train := ds.Split(TrainSplit)
	for i := 0; i < train.Len(); i++ {
		path, label, err := train.GetItem(i)
		if err != nil {
			t.Fatalf("GetItem failed: %v", err)
		}
		className := filepath.Base(filepath.Dir(path))
		want := map[string]int{"ant": 0, "mole": 1, "zebra": 2}[className]
		if label != want {
			t.Errorf("Label for %s: expected %d, got %d", className, want, label)
		}
	}

	dist := train.ClassDistribution()
	for _, class := range []string{"ant", "mole", "zebra"} {
		if dist[class] != 2 {
			t.Errorf("Expected 2 examples for %s, got %d", class, dist[class])
		}
	}
}

func TestImageFolderIgnoresNonImages(t *testing.T) {
	root := createSplitDataset(t, []string{"a"}, 2)
	junk := filepath.Join(root, TrainSplit, "a", "notes.txt")
	if err := os.WriteFile(junk, []byte("not an image"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	ds, err := NewSplitDataset(root)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if ds.Size(TrainSplit) != 2 {
		t.Errorf("Expected 2 examples (txt ignored), got %d", ds.Size(TrainSplit))
	}
}
