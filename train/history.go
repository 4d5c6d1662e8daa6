package train

import "sort"

// History accumulates per-fold training histories across a whole
// cross-validation run. Each metric name maps to an ordered list of per-epoch
// value series, one series per fold-repetition, in the order the folds were
// trained.
type History struct {
	metrics map[string][][]float64
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{metrics: make(map[string][][]float64)}
}

// Track merges one fit's per-epoch metric series into the running history.
func (h *History) Track(fit map[string][]float64) {
	for name, series := range fit {
		cp := append([]float64(nil), series...)
		h.metrics[name] = append(h.metrics[name], cp)
	}
}

// Get returns all tracked series for a metric, one per fold-repetition.
func (h *History) Get(name string) [][]float64 {
	return h.metrics[name]
}

// Names returns the tracked metric names in sorted order.
func (h *History) Names() []string {
	names := make([]string, 0, len(h.metrics))
	for name := range h.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Folds returns how many series have been tracked for a metric.
func (h *History) Folds(name string) int {
	return len(h.metrics[name])
}

// EpochMean averages a metric across folds at each epoch. Folds shorter than
// a given epoch (early-stopped) simply drop out of that epoch's mean. The
// returned slice is as long as the longest tracked series.
func (h *History) EpochMean(name string) []float64 {
	series := h.metrics[name]
	maxLen := 0
	for _, s := range series {
		if len(s) > maxLen {
			maxLen = len(s)
		}
	}
	if maxLen == 0 {
		return nil
	}
	out := make([]float64, maxLen)
	for e := 0; e < maxLen; e++ {
		var sum float64
		var n int
		for _, s := range series {
			if e < len(s) {
				sum += s[e]
				n++
			}
		}
		out[e] = sum / float64(n)
	}
	return out
}
