package train

import (
	"math"
	"testing"
)

func TestHistoryTrack(t *testing.T) {
	h := NewHistory()
	h.Track(map[string][]float64{"loss": {3, 2, 1}, "accuracy": {0.1, 0.2, 0.3}})
	h.Track(map[string][]float64{"loss": {5, 4}, "accuracy": {0.2, 0.4}})

	if h.Folds("loss") != 2 {
		t.Fatalf("expected 2 tracked folds, got %d", h.Folds("loss"))
	}
	series := h.Get("loss")
	if len(series[0]) != 3 || len(series[1]) != 2 {
		t.Fatalf("unexpected series lengths: %d, %d", len(series[0]), len(series[1]))
	}

	names := h.Names()
	if len(names) != 2 || names[0] != "accuracy" || names[1] != "loss" {
		t.Fatalf("unexpected metric names: %v", names)
	}
}

func TestHistoryTrackCopiesSeries(t *testing.T) {
	h := NewHistory()
	src := []float64{1, 2, 3}
	h.Track(map[string][]float64{"loss": src})
	src[0] = 99
	if h.Get("loss")[0][0] != 1 {
		t.Fatal("Track must copy the series, not alias it")
	}
}

func TestHistoryEpochMean(t *testing.T) {
	h := NewHistory()
	h.Track(map[string][]float64{"loss": {4, 2, 6}})
	h.Track(map[string][]float64{"loss": {2, 4}})

	mean := h.EpochMean("loss")
	want := []float64{3, 3, 6}
	if len(mean) != len(want) {
		t.Fatalf("unexpected mean length: %d", len(mean))
	}
	for i := range want {
		if math.Abs(mean[i]-want[i]) > 1e-12 {
			t.Fatalf("mean[%d] = %v, want %v", i, mean[i], want[i])
		}
	}

	if got := h.EpochMean("missing"); got != nil {
		t.Fatalf("expected nil mean for unknown metric, got %v", got)
	}
}
