package train

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/coganlab/RNN-phoneme-decoding-micro/datasets"
)

// KFoldConfig configures a repeated k-fold cross-validation run.
type KFoldConfig struct {
	// NumFolds is the number of CV folds per repetition (default 10).
	NumFolds int
	// NumReps is how many times the whole k-fold loop runs, each with a
	// freshly randomized partition (default 1).
	NumReps int

	BatchSize int
	Epochs    int

	// EarlyStop enables early stopping on validation loss together with a
	// best-weights checkpoint on validation accuracy.
	EarlyStop bool
	// Patience is the early-stopping patience in epochs (default 50).
	Patience int

	// MixupCount appends that many mixup examples to each fold's training
	// data; 0 disables mixup.
	MixupCount int
	// MixupAlpha is the Beta distribution parameter for mixing coefficients
	// (default 0.2 when mixup is enabled).
	MixupAlpha float64
	// Jitter crops the time axis by up to Jitter points on each side,
	// randomly for training trials and symmetrically for test trials;
	// 0 disables time-jitter.
	Jitter int

	// TrackEvery records decoded test-fold predictions every that many
	// epochs; 0 disables tracking.
	TrackEvery int

	// Seed controls fold partitioning, weight resets and augmentation. If
	// zero, a time-based seed is used.
	Seed    int64
	Verbose int
}

func (cfg *KFoldConfig) fillDefaults() {
	if cfg.NumFolds == 0 {
		cfg.NumFolds = 10
	}
	if cfg.NumReps == 0 {
		cfg.NumReps = 1
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 32
	}
	if cfg.Epochs == 0 {
		cfg.Epochs = 800
	}
	if cfg.Patience == 0 {
		cfg.Patience = 50
	}
	if cfg.MixupAlpha == 0 {
		cfg.MixupAlpha = 0.2
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
}

// KFoldResult aggregates everything a repeated k-fold run produces.
type KFoldResult struct {
	// History holds per-epoch metric series for every fold-repetition.
	History *History
	// Pred and True hold the decoded predicted and true label sequences of
	// every fold's test data, concatenated across folds and repetitions.
	Pred [][]int
	True [][]int
	// Tracked holds the per-fold prediction trackers when TrackEvery > 0,
	// in fold order.
	Tracked []*PredictionTracker
}

// KFold trains the model with repeated k-fold cross-validation. Each
// repetition regenerates a randomized partition; each fold starts from a
// random permutation of the model's initial weights so folds do not leak
// state into each other. The fitted model handle is the model passed in; the
// returned result carries the aggregated histories and decoded predictions.
func KFold(m Model, x, xPrior, y datasets.Array, cfg KFoldConfig) (*KFoldResult, error) {
	cfg.fillDefaults()
	if err := validateLeadingDims(x, xPrior, y); err != nil {
		return nil, err
	}

	// Initial weights are the reset baseline for every fold.
	initW := CloneWeights(m.Weights())
	rng := rand.New(rand.NewSource(cfg.Seed))

	res := &KFoldResult{History: NewHistory()}
	for rep := 0; rep < cfg.NumReps; rep++ {
		folds, err := KFoldSplits(x.Len(), cfg.NumFolds, rng)
		if err != nil {
			return nil, err
		}
		for fi, fold := range folds {
			if err := ShuffleWeights(rng, m, initW); err != nil {
				return nil, fmt.Errorf("reset weights for rep %d fold %d: %w", rep+1, fi+1, err)
			}

			fitHist, pred, truth, tracker, err := SingleFold(m, x, xPrior, y, fold, cfg, rng)
			if err != nil {
				return nil, fmt.Errorf("rep %d fold %d: %w", rep+1, fi+1, err)
			}

			res.History.Track(fitHist)
			res.Pred = append(res.Pred, pred...)
			res.True = append(res.True, truth...)
			if tracker != nil {
				res.Tracked = append(res.Tracked, tracker)
			}

			if cfg.Verbose > 0 {
				log.Printf("rep %d/%d fold %d/%d: %s", rep+1, cfg.NumReps, fi+1, cfg.NumFolds,
					summarizeFit(fitHist))
			}
		}
	}
	return res, nil
}

// SingleFold trains one CV fold: it slices the train/test data by index,
// optionally augments the training slices (time-jitter with a symmetric trim
// of the test slices, then mixup), fits with the test fold as validation
// data, and decodes the test-fold predictions back to label sequences.
func SingleFold(m Model, x, xPrior, y datasets.Array, fold Fold, cfg KFoldConfig,
	rng *rand.Rand) (fitHist map[string][]float64, pred, truth [][]int, tracker *PredictionTracker, err error) {

	xTrain, err := x.Take(fold.Train)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("slice train features: %w", err)
	}
	priorTrain, err := xPrior.Take(fold.Train)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("slice train priors: %w", err)
	}
	yTrain, err := y.Take(fold.Train)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("slice train labels: %w", err)
	}
	xTest, err := x.Take(fold.Test)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("slice test features: %w", err)
	}
	priorTest, err := xPrior.Take(fold.Test)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("slice test priors: %w", err)
	}
	yTest, err := y.Take(fold.Test)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("slice test labels: %w", err)
	}

	if cfg.Jitter > 0 {
		xTrain, err = datasets.TimeJitter(xTrain, cfg.Jitter, rng)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("jitter train features: %w", err)
		}
		// Test trials get the matching center crop so time axes agree.
		xTest, err = datasets.CenterCrop(xTest, cfg.Jitter)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("trim test features: %w", err)
		}
	}
	if cfg.MixupCount > 0 {
		xTrain, priorTrain, yTrain, err = datasets.Mixup(xTrain, priorTrain, yTrain,
			cfg.MixupCount, cfg.MixupAlpha, rng)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("mixup train data: %w", err)
		}
	}

	var callbacks []Callback
	if cfg.TrackEvery > 0 {
		tracker = &PredictionTracker{Model: m, X: xTest, Every: cfg.TrackEvery}
		callbacks = append(callbacks, tracker)
	}
	var ckpt *Checkpoint
	if cfg.EarlyStop {
		callbacks = append(callbacks,
			&EarlyStopping{Monitor: "val_loss", Patience: cfg.Patience})
		ckpt = &Checkpoint{Model: m, Monitor: "val_accuracy", Mode: "max"}
		callbacks = append(callbacks, ckpt)
	}

	fitHist, err = Seq2Seq(m, xTrain, priorTrain, yTrain, FitConfig{
		BatchSize:  cfg.BatchSize,
		Epochs:     cfg.Epochs,
		Validation: &Validation{X: xTest, XPrior: priorTest, Y: yTest},
		Callbacks:  callbacks,
		Verbose:    cfg.Verbose,
	})
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if ckpt != nil {
		if err := ckpt.Restore(); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("restore best weights: %w", err)
		}
	}

	probs, err := m.Predict(xTest)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("decode test fold: %w", err)
	}
	pred, err = datasets.OneHotDecode(probs)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	truth, err = datasets.OneHotDecode(yTest)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return fitHist, pred, truth, tracker, nil
}

func summarizeFit(hist map[string][]float64) string {
	last := func(name string) float64 {
		s := hist[name]
		if len(s) == 0 {
			return 0
		}
		return s[len(s)-1]
	}
	return fmt.Sprintf("loss=%.4f acc=%.4f val_loss=%.4f val_acc=%.4f",
		last("loss"), last("accuracy"), last("val_loss"), last("val_accuracy"))
}
