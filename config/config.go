// Package config handles experiment configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the root experiment configuration.
type Config struct {
	// Patient is the patient ID whose MAT-file to load (e.g. "S14").
	Patient string `yaml:"patient"`
	// DataPath is the directory holding per-patient data folders.
	DataPath string `yaml:"data_path"`
	// OutDir receives accuracy logs and plots.
	OutDir string `yaml:"out_dir"`
	// SigChannels selects the significant-channel MAT-file variant instead
	// of the all-channels one.
	SigChannels bool `yaml:"sig_channels"`

	// NumIter is how many full model-build + k-fold runs to perform.
	NumIter int `yaml:"num_iter"`

	Training TrainingConfig `yaml:"training"`
	Model    ModelConfig    `yaml:"model"`
	Augment  AugmentConfig  `yaml:"augment"`

	// Seed controls all randomness; 0 means time-based.
	Seed    int64 `yaml:"seed"`
	Verbose int   `yaml:"verbose"`
}

// TrainingConfig holds the cross-validation and fit hyperparameters.
type TrainingConfig struct {
	NumFolds  int     `yaml:"num_folds"`
	NumReps   int     `yaml:"num_reps"`
	BatchSize int     `yaml:"batch_size"`
	Epochs    int     `yaml:"epochs"`
	TestSize  float64 `yaml:"test_size"`
	EarlyStop bool    `yaml:"early_stop"`
	Patience  int     `yaml:"patience"`
}

// ModelConfig holds the network hyperparameters.
type ModelConfig struct {
	NClasses     int     `yaml:"n_classes"`
	HiddenSize   int     `yaml:"hidden_size"`
	LearningRate float64 `yaml:"learning_rate"`
	ClipNorm     float64 `yaml:"clip_norm"`
}

// AugmentConfig holds the data augmentation knobs.
type AugmentConfig struct {
	MixupCount int     `yaml:"mixup_count"`
	MixupAlpha float64 `yaml:"mixup_alpha"`
	Jitter     int     `yaml:"jitter"`
}

// Default returns the default configuration, mirroring the standard
// experiment settings.
func Default() *Config {
	return &Config{
		Patient:     "S14",
		DataPath:    "data",
		OutDir:      "outputs",
		SigChannels: true,
		NumIter:     5,
		Training: TrainingConfig{
			NumFolds:  10,
			NumReps:   3,
			BatchSize: 200,
			Epochs:    800,
			TestSize:  0.2,
			Patience:  50,
		},
		Model: ModelConfig{
			NClasses:     10,
			HiddenSize:   100,
			LearningRate: 1e-3,
		},
		Augment: AugmentConfig{
			MixupAlpha: 0.2,
		},
	}
}

// Load loads configuration from a file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads config from path, or returns the defaults if the path
// is empty or does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Save writes the configuration to a file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks the fields a run cannot proceed without.
func (c *Config) Validate() error {
	if c.Patient == "" {
		return fmt.Errorf("patient must be set")
	}
	if c.Training.NumFolds < 2 {
		return fmt.Errorf("num_folds must be at least 2, got %d", c.Training.NumFolds)
	}
	if c.Training.TestSize <= 0 || c.Training.TestSize >= 1 {
		return fmt.Errorf("test_size must be in (0, 1), got %v", c.Training.TestSize)
	}
	if c.Model.NClasses < 2 {
		return fmt.Errorf("n_classes must be at least 2, got %d", c.Model.NClasses)
	}
	return nil
}

// MatFileName returns the patient MAT-file name for the configured channel
// selection.
func (c *Config) MatFileName() string {
	ext := "all"
	if c.SigChannels {
		ext = "sigChannel"
	}
	return fmt.Sprintf("%s_HG_%s.mat", c.Patient, ext)
}

// MatFilePath returns the full path of the patient MAT-file.
func (c *Config) MatFilePath() string {
	return filepath.Join(c.DataPath, c.Patient, c.MatFileName())
}
