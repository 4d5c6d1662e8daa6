// Command train runs repeated k-fold cross-validation of the phoneme
// seq2seq decoder on one patient's high-gamma recordings, then scores a
// held-out test split and writes accuracy logs and training-curve plots.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/coganlab/RNN-phoneme-decoding-micro/config"
	"github.com/coganlab/RNN-phoneme-decoding-micro/datasets"
	"github.com/coganlab/RNN-phoneme-decoding-micro/seq2seq"
	"github.com/coganlab/RNN-phoneme-decoding-micro/train"
	"github.com/coganlab/RNN-phoneme-decoding-micro/visualization"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML experiment config (optional)")
		patient    = flag.String("pt", "", "patient ID (overrides config)")
		sig        = flag.Bool("sig", true, "use significant channels instead of all channels")
		numIter    = flag.Int("n", 0, "number of times to run the model (overrides config)")
		verbose    = flag.Int("v", 1, "verbosity of model training")
		dataPath   = flag.String("data", "", "data directory (overrides config)")
		outDir     = flag.String("out", "", "output directory (overrides config)")
		seed       = flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	)
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *patient != "" {
		cfg.Patient = *patient
	}
	if *numIter > 0 {
		cfg.NumIter = *numIter
	}
	if *dataPath != "" {
		cfg.DataPath = *dataPath
	}
	if *outDir != "" {
		cfg.OutDir = *outDir
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	cfg.SigChannels = *sig
	cfg.Verbose = *verbose
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	runID := uuid.NewString()

	log.Printf("==================================================")
	log.Printf("Run %s: training models for patient %s", runID, cfg.Patient)
	log.Printf("Reading data from %s", cfg.MatFilePath())
	log.Printf("Saving outputs to %s", cfg.OutDir)
	log.Printf("==================================================")

	if err := run(cfg, runID); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(cfg *config.Config, runID string) error {
	data, err := datasets.LoadHighGamma(cfg.MatFilePath())
	if err != nil {
		return fmt.Errorf("load high-gamma data: %w", err)
	}
	if len(data.Trace.Shape) != 3 {
		return fmt.Errorf("expected 3-D trace array, got shape %v", data.Trace.Shape)
	}

	xPrior, y, err := datasets.PadSequenceTeacherForcing(data.Labels, cfg.Model.NClasses)
	if err != nil {
		return fmt.Errorf("pad teacher-forcing sequences: %w", err)
	}
	x := data.Trace
	seqLen := y.Shape[1]

	// Hold out a final test split before cross-validation.
	rng := rand.New(rand.NewSource(cfg.Seed))
	trainIdx, testIdx, err := train.ShuffleSplit(x.Len(), cfg.Training.TestSize, rng)
	if err != nil {
		return err
	}
	xTrain, _ := x.Take(trainIdx)
	priorTrain, _ := xPrior.Take(trainIdx)
	yTrain, _ := y.Take(trainIdx)
	xTest, _ := x.Take(testIdx)
	yTest, _ := y.Take(testIdx)

	for i := 0; i < cfg.NumIter; i++ {
		log.Printf("========== iteration %d/%d ==========", i+1, cfg.NumIter)

		model, err := seq2seq.New(seq2seq.Config{
			NChannels:    x.Shape[1],
			NClasses:     cfg.Model.NClasses,
			SeqLen:       seqLen,
			HiddenSize:   cfg.Model.HiddenSize,
			LearningRate: cfg.Model.LearningRate,
			ClipNorm:     cfg.Model.ClipNorm,
			Seed:         cfg.Seed + int64(i),
		})
		if err != nil {
			return fmt.Errorf("build model: %w", err)
		}

		res, err := train.KFold(model, xTrain, priorTrain, yTrain, train.KFoldConfig{
			NumFolds:   cfg.Training.NumFolds,
			NumReps:    cfg.Training.NumReps,
			BatchSize:  cfg.Training.BatchSize,
			Epochs:     cfg.Training.Epochs,
			EarlyStop:  cfg.Training.EarlyStop,
			Patience:   cfg.Training.Patience,
			MixupCount: cfg.Augment.MixupCount,
			MixupAlpha: cfg.Augment.MixupAlpha,
			Jitter:     cfg.Augment.Jitter,
			Seed:       cfg.Seed + int64(i),
			Verbose:    cfg.Verbose,
		})
		if err != nil {
			return fmt.Errorf("k-fold training: %w", err)
		}

		// Validation accuracy from the decoded CV test folds.
		valAcc := train.BalancedAccuracy(res.True, res.Pred)

		// Test accuracy on the holdout split.
		xEval := xTest
		if cfg.Augment.Jitter > 0 {
			if xEval, err = datasets.CenterCrop(xTest, cfg.Augment.Jitter); err != nil {
				return fmt.Errorf("trim test features: %w", err)
			}
		}
		probs, err := model.Predict(xEval)
		if err != nil {
			return fmt.Errorf("decode test split: %w", err)
		}
		predSeqs, err := datasets.OneHotDecode(probs)
		if err != nil {
			return err
		}
		trueSeqs, err := datasets.OneHotDecode(yTest)
		if err != nil {
			return err
		}
		testAcc := train.BalancedAccuracy(trueSeqs, predSeqs)

		log.Printf("iteration %d: validation accuracy %.4f, test accuracy %.4f", i+1, valAcc, testAcc)

		if err := appendAccuracy(cfg, runID, valAcc, testAcc); err != nil {
			return err
		}
		plotPath := filepath.Join(cfg.OutDir, "plots",
			fmt.Sprintf("%s_train_all_%d.png", cfg.Patient, i+1))
		if err := visualization.PlotAccuracyLoss(res.History, plotPath); err != nil {
			return fmt.Errorf("write training plot: %w", err)
		}
	}
	return nil
}

// appendAccuracy adds one result line to the patient's accuracy log.
func appendAccuracy(cfg *config.Config, runID string, valAcc, testAcc float64) error {
	if err := os.MkdirAll(cfg.OutDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(cfg.OutDir, cfg.Patient+"_acc.txt")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open accuracy log: %w", err)
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "[%s] Final validation accuracy: %v, Final test accuracy: %v\n",
		runID, valAcc, testAcc)
	if err != nil {
		return fmt.Errorf("append accuracy line: %w", err)
	}
	return nil
}
