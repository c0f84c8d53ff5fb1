// Package config loads training run configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// RunConfig holds everything needed to launch a training run.
type RunConfig struct {
	Architecture   string `yaml:"architecture"`
	DataDirectory  string `yaml:"data_directory"`
	ModelDirectory string `yaml:"model_directory"`
	Epochs         int    `yaml:"epochs"`
	BatchSize      int    `yaml:"batch_size"`
	TransferFrom   string `yaml:"transfer_from"`
	FreezeLayers   bool   `yaml:"freeze_layers"`
	Workers        int    `yaml:"workers"`
	Verbose        bool   `yaml:"verbose"`
}

// Default returns the configuration used when a field is left unset.
func Default() RunConfig {
	return RunConfig{
		Architecture: "resnet50",
		Epochs:       100,
		BatchSize:    8,
		Workers:      4,
		Verbose:      true,
	}
}

// Load reads a YAML configuration file over the defaults, then applies
// environment overrides.
func Load(path string) (RunConfig, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides fields from TRANSFER_* environment variables.
func (c *RunConfig) applyEnv() {
	c.Architecture = getEnv("TRANSFER_ARCHITECTURE", c.Architecture)
	c.DataDirectory = getEnv("TRANSFER_DATA_DIR", c.DataDirectory)
	c.ModelDirectory = getEnv("TRANSFER_MODEL_DIR", c.ModelDirectory)
	c.TransferFrom = getEnv("TRANSFER_CHECKPOINT", c.TransferFrom)
	c.Epochs = getEnvInt("TRANSFER_EPOCHS", c.Epochs)
	c.BatchSize = getEnvInt("TRANSFER_BATCH_SIZE", c.BatchSize)
	c.Workers = getEnvInt("TRANSFER_WORKERS", c.Workers)
	c.FreezeLayers = getEnvBool("TRANSFER_FREEZE_LAYERS", c.FreezeLayers)
	c.Verbose = getEnvBool("TRANSFER_VERBOSE", c.Verbose)
}

// Validate checks the fields no run can proceed without.
func (c *RunConfig) Validate() error {
	if c.DataDirectory == "" {
		return fmt.Errorf("data directory is required")
	}
	if c.Epochs < 0 {
		return fmt.Errorf("epochs must be non-negative, got %d", c.Epochs)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.BatchSize)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
