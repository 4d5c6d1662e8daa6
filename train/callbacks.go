package train

import (
	"math"
	"strings"

	"github.com/coganlab/RNN-phoneme-decoding-micro/datasets"
)

// EarlyStopping stops training once a monitored metric has not improved for
// Patience epochs. Mode "min" treats smaller values as better (losses),
// "max" larger (accuracies); the default monitors val_loss in min mode.
type EarlyStopping struct {
	Monitor  string
	Patience int
	Mode     string

	best float64
	wait int
	init bool
}

// OnEpochEnd implements Callback.
func (es *EarlyStopping) OnEpochEnd(_ int, logs map[string]float64) bool {
	monitor := es.Monitor
	if monitor == "" {
		monitor = "val_loss"
	}
	v, ok := logs[monitor]
	if !ok {
		return false
	}
	if !es.init || es.improved(v) {
		es.best = v
		es.wait = 0
		es.init = true
		return false
	}
	es.wait++
	return es.wait >= es.Patience
}

func (es *EarlyStopping) improved(v float64) bool {
	if strings.EqualFold(es.Mode, "max") {
		return v > es.best
	}
	return v < es.best
}

// Checkpoint keeps a copy of the model weights from the epoch where the
// monitored metric was best. Early stopping returns the model after the
// patience window, where performance may already have declined; restoring
// the checkpointed weights recovers the best epoch.
type Checkpoint struct {
	Model   Model
	Monitor string
	Mode    string

	best    float64
	weights []Weight
}

// OnEpochEnd implements Callback. It never stops training.
func (c *Checkpoint) OnEpochEnd(_ int, logs map[string]float64) bool {
	monitor := c.Monitor
	if monitor == "" {
		monitor = "val_accuracy"
	}
	v, ok := logs[monitor]
	if !ok {
		return false
	}
	if c.weights == nil || c.betterThan(v) {
		c.best = v
		c.weights = CloneWeights(c.Model.Weights())
	}
	return false
}

func (c *Checkpoint) betterThan(v float64) bool {
	if strings.EqualFold(c.Mode, "min") {
		return v < c.best
	}
	return v > c.best
}

// Best returns the best monitored value seen, or NaN before any epoch.
func (c *Checkpoint) Best() float64 {
	if c.weights == nil {
		return math.NaN()
	}
	return c.best
}

// Restore installs the checkpointed weights back into the model. It is a
// no-op when no epoch has completed yet.
func (c *Checkpoint) Restore() error {
	if c.weights == nil {
		return nil
	}
	return c.Model.SetWeights(CloneWeights(c.weights))
}

// PredictionTracker decodes the fold's test data every Every epochs and
// records the predicted label sequences, giving a view of how decoding
// quality evolves during training.
type PredictionTracker struct {
	Model Model
	X     datasets.Array
	Every int

	// Epochs[i] is the epoch at which Records[i] was captured.
	Epochs  []int
	Records [][][]int
}

// OnEpochEnd implements Callback. Decode failures are skipped rather than
// aborting training; the tracker is purely observational.
func (p *PredictionTracker) OnEpochEnd(epoch int, _ map[string]float64) bool {
	every := p.Every
	if every <= 0 {
		every = 1
	}
	if (epoch+1)%every != 0 {
		return false
	}
	probs, err := p.Model.Predict(p.X)
	if err != nil {
		return false
	}
	seqs, err := datasets.OneHotDecode(probs)
	if err != nil {
		return false
	}
	p.Epochs = append(p.Epochs, epoch)
	p.Records = append(p.Records, seqs)
	return false
}
