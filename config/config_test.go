package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.Training.NumFolds != 10 || cfg.Training.NumReps != 3 {
		t.Fatalf("unexpected CV defaults: folds=%d reps=%d", cfg.Training.NumFolds, cfg.Training.NumReps)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
patient: S26
training:
  num_folds: 5
  epochs: 100
model:
  hidden_size: 900
augment:
  jitter: 4
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Patient != "S26" {
		t.Fatalf("patient not overridden: %q", cfg.Patient)
	}
	if cfg.Training.NumFolds != 5 || cfg.Training.Epochs != 100 {
		t.Fatalf("training overrides missing: %+v", cfg.Training)
	}
	if cfg.Model.HiddenSize != 900 {
		t.Fatalf("model override missing: %+v", cfg.Model)
	}
	if cfg.Augment.Jitter != 4 {
		t.Fatalf("augment override missing: %+v", cfg.Augment)
	}
	// untouched fields keep their defaults
	if cfg.Training.TestSize != 0.2 || cfg.Model.NClasses != 10 {
		t.Fatalf("defaults lost on partial load: %+v", cfg)
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault("")
	if err != nil {
		t.Fatalf("LoadOrDefault(\"\") error: %v", err)
	}
	if cfg.Patient != "S14" {
		t.Fatalf("expected defaults, got patient %q", cfg.Patient)
	}

	cfg, err = LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault(missing) error: %v", err)
	}
	if cfg.Patient != "S14" {
		t.Fatalf("expected defaults for missing file, got patient %q", cfg.Patient)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("training:\n  num_folds: 1\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for num_folds: 1")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Patient = "S33"
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got.Patient != "S33" {
		t.Fatalf("round trip lost patient: %q", got.Patient)
	}
}

func TestMatFilePath(t *testing.T) {
	cfg := Default()
	cfg.Patient = "S14"
	cfg.DataPath = "data"
	cfg.SigChannels = true
	if got := cfg.MatFilePath(); got != filepath.Join("data", "S14", "S14_HG_sigChannel.mat") {
		t.Fatalf("unexpected sig-channel path: %q", got)
	}
	cfg.SigChannels = false
	if got := cfg.MatFileName(); got != "S14_HG_all.mat" {
		t.Fatalf("unexpected all-channel name: %q", got)
	}
}
