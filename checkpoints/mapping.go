package checkpoints

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// WriteClassMapping persists the class-index mapping for a dataset: keys
// "0".."N-1" assigned to the class names in ascending lexicographic order.
// The mapping is written once per run, before training starts. Returns the
// path of the written file.
func WriteClassMapping(classNames []string, dir, datasetName string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create model directory: %w", err)
	}

	sorted := make([]string, len(classNames))
	copy(sorted, classNames)
	sort.Strings(sorted)

	mapping := make(map[string]string, len(sorted))
	for i, name := range sorted {
		mapping[strconv.Itoa(i)] = name
	}

	path := filepath.Join(dir, datasetName+"_model_classes.json")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create class mapping file: %w", err)
	}
	defer file.Close()

	if err := json.NewEncoder(file).Encode(mapping); err != nil {
		return "", fmt.Errorf("failed to encode class mapping: %w", err)
	}

	return path, nil
}

// ReadClassMapping loads a class mapping file back into an index-ordered
// class-name slice.
func ReadClassMapping(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open class mapping file: %w", err)
	}
	defer file.Close()

	var mapping map[string]string
	if err := json.NewDecoder(file).Decode(&mapping); err != nil {
		return nil, fmt.Errorf("failed to decode class mapping: %w", err)
	}

	classes := make([]string, len(mapping))
	for key, name := range mapping {
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= len(mapping) {
			return nil, fmt.Errorf("invalid class index %q in mapping", key)
		}
		classes[idx] = name
	}
	return classes, nil
}
