// Package train orchestrates repeated k-fold cross-validation training of a
// seq2seq phoneme decoder. The encoder-decoder network itself is a black box
// behind the Model interface: the trainer only slices data, resets weights,
// drives the fit loop and aggregates histories and decoded predictions.
package train

import (
	"fmt"

	"github.com/coganlab/RNN-phoneme-decoding-micro/datasets"
)

// Weight is one trainable tensor of a model, exposed as a flat value buffer
// plus its shape.
type Weight struct {
	Shape []int
	Data  []float64
}

// Clone returns a deep copy of the weight.
func (w Weight) Clone() Weight {
	out := Weight{
		Shape: append([]int(nil), w.Shape...),
		Data:  make([]float64, len(w.Data)),
	}
	copy(out.Data, w.Data)
	return out
}

// CloneWeights deep-copies a weight list.
func CloneWeights(ws []Weight) []Weight {
	out := make([]Weight, len(ws))
	for i, w := range ws {
		out[i] = w.Clone()
	}
	return out
}

// SameShapes reports whether two weight lists carry exactly the same ordered
// set of tensor shapes. Weight resets must preserve this.
func SameShapes(a, b []Weight) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i].Shape) != len(b[i].Shape) {
			return false
		}
		for d := range a[i].Shape {
			if a[i].Shape[d] != b[i].Shape[d] {
				return false
			}
		}
	}
	return true
}

// Validation holds held-out data evaluated after each training epoch.
type Validation struct {
	X      datasets.Array
	XPrior datasets.Array
	Y      datasets.Array
}

// Callback observes the end of each training epoch. Returning stop=true ends
// the fit early.
type Callback interface {
	OnEpochEnd(epoch int, logs map[string]float64) (stop bool)
}

// FitConfig configures one call into the model's batch training loop.
type FitConfig struct {
	BatchSize  int
	Epochs     int
	Validation *Validation
	Callbacks  []Callback
	Verbose    int
}

// Model is the minimal contract the trainer requires from an encoder-decoder
// network. Fit runs the model's own batch training loop with teacher-forcing
// inputs and returns per-epoch metric series keyed by metric name (loss,
// accuracy, val_loss, val_accuracy). Predict runs iterative greedy decoding
// and returns per-step class distributions, observations x seqLen x classes.
type Model interface {
	Weights() []Weight
	SetWeights(ws []Weight) error
	Fit(x, xPrior, y datasets.Array, cfg FitConfig) (map[string][]float64, error)
	Predict(x datasets.Array) (datasets.Array, error)
}

func validateLeadingDims(x, xPrior, y datasets.Array) error {
	if !datasets.SameLen(x, xPrior, y) {
		return fmt.Errorf("X, X_prior and y disagree on observation count: %d, %d, %d",
			x.Len(), xPrior.Len(), y.Len())
	}
	if x.Len() == 0 {
		return fmt.Errorf("no observations")
	}
	return nil
}
