package train

import (
	"fmt"
	"math/rand"
)

// ShuffleWeights randomly permutes the values within each of the model's
// trainable weight tensors, or within the given saved weights, and installs
// the result. Permuting the flattened buffer preserves each tensor's shape
// and per-tensor value distribution, which makes this a fast stand-in for
// re-initializing the model between folds.
func ShuffleWeights(rng *rand.Rand, m Model, weights []Weight) error {
	if weights == nil {
		weights = m.Weights()
	}
	shuffled := make([]Weight, len(weights))
	for i, w := range weights {
		data := make([]float64, len(w.Data))
		for j, p := range rng.Perm(len(w.Data)) {
			data[j] = w.Data[p]
		}
		shuffled[i] = Weight{Shape: append([]int(nil), w.Shape...), Data: data}
	}
	if err := m.SetWeights(shuffled); err != nil {
		return fmt.Errorf("install shuffled weights: %w", err)
	}
	return nil
}
