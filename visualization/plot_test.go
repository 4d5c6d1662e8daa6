package visualization

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/coganlab/RNN-phoneme-decoding-micro/train"
)

func historyFixture() *train.History {
	h := train.NewHistory()
	for fold := 0; fold < 3; fold++ {
		h.Track(map[string][]float64{
			"accuracy":     {0.2, 0.4, 0.6},
			"val_accuracy": {0.1, 0.3, 0.5},
			"loss":         {2.0, 1.5, 1.0},
			"val_loss":     {2.2, 1.8, 1.4},
		})
	}
	return h
}

func TestPlotAccuracyLossWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plots", "S14_train_all_1.png")
	if err := PlotAccuracyLoss(historyFixture(), path); err != nil {
		t.Fatalf("PlotAccuracyLoss error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat plot: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("plot file is empty")
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open plot: %v", err)
	}
	defer f.Close()
	sig := make([]byte, 4)
	if _, err := f.Read(sig); err != nil {
		t.Fatalf("read plot header: %v", err)
	}
	if sig[1] != 'P' || sig[2] != 'N' || sig[3] != 'G' {
		t.Fatalf("not a PNG file: % x", sig)
	}
}

func TestPlotAccuracyLossEmptyHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.png")
	if err := PlotAccuracyLoss(train.NewHistory(), path); err == nil {
		t.Fatal("expected error for empty history")
	}
}
