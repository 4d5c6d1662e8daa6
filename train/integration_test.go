package train_test

import (
	"testing"

	"github.com/coganlab/RNN-phoneme-decoding-micro/datasets"
	"github.com/coganlab/RNN-phoneme-decoding-micro/seq2seq"
	"github.com/coganlab/RNN-phoneme-decoding-micro/train"
)

// twoPatternData synthesizes trials of two clearly separable channel
// patterns, each mapped to its own phoneme sequence.
func twoPatternData(n int) (x, prior, y datasets.Array) {
	labels := make([][]int, n)
	x = datasets.NewArray(n, 2, 5)
	for i := 0; i < n; i++ {
		obs := x.Obs(i)
		if i%2 == 0 {
			for t := 0; t < 5; t++ {
				obs[t] = 1
				obs[5+t] = -1
			}
			labels[i] = []int{1, 2}
		} else {
			for t := 0; t < 5; t++ {
				obs[t] = -1
				obs[5+t] = 1
			}
			labels[i] = []int{2, 1}
		}
	}
	prior, y, err := datasets.PadSequenceTeacherForcing(labels, 3)
	if err != nil {
		panic(err)
	}
	return x, prior, y
}

// TestKFoldWithSeq2SeqModel drives the full orchestration against the real
// encoder-decoder network on a small separable problem.
func TestKFoldWithSeq2SeqModel(t *testing.T) {
	x, prior, y := twoPatternData(24)

	model, err := seq2seq.New(seq2seq.Config{
		NChannels:    2,
		NClasses:     3,
		SeqLen:       2,
		HiddenSize:   8,
		LearningRate: 0.1,
		Seed:         42,
	})
	if err != nil {
		t.Fatalf("seq2seq.New error: %v", err)
	}

	res, err := train.KFold(model, x, prior, y, train.KFoldConfig{
		NumFolds:  3,
		NumReps:   1,
		BatchSize: 6,
		Epochs:    60,
		Seed:      42,
	})
	if err != nil {
		t.Fatalf("KFold error: %v", err)
	}

	if res.History.Folds("loss") != 3 {
		t.Fatalf("expected 3 fold histories, got %d", res.History.Folds("loss"))
	}
	if len(res.Pred) != 24 || len(res.True) != 24 {
		t.Fatalf("expected 24 decoded sequences, got %d/%d", len(res.Pred), len(res.True))
	}

	mean := res.History.EpochMean("loss")
	if mean[len(mean)-1] >= mean[0] {
		t.Fatalf("training loss did not decrease: first=%v last=%v", mean[0], mean[len(mean)-1])
	}

	acc := train.BalancedAccuracy(res.True, res.Pred)
	t.Logf("cross-validated balanced accuracy: %.3f", acc)
	if acc < 0.45 {
		t.Fatalf("balanced accuracy suspiciously low on separable data: %v", acc)
	}
}

// TestKFoldWithAugmentation runs the real model with mixup and time-jitter
// enabled to confirm augmented shapes flow through training end to end.
func TestKFoldWithAugmentation(t *testing.T) {
	x, prior, y := twoPatternData(18)

	model, err := seq2seq.New(seq2seq.Config{
		NChannels:    2,
		NClasses:     3,
		SeqLen:       2,
		HiddenSize:   6,
		LearningRate: 0.1,
		Seed:         7,
	})
	if err != nil {
		t.Fatalf("seq2seq.New error: %v", err)
	}

	res, err := train.KFold(model, x, prior, y, train.KFoldConfig{
		NumFolds:   3,
		NumReps:    1,
		BatchSize:  6,
		Epochs:     20,
		MixupCount: 4,
		MixupAlpha: 0.2,
		Jitter:     1,
		Seed:       7,
	})
	if err != nil {
		t.Fatalf("KFold error: %v", err)
	}
	if len(res.Pred) != 18 {
		t.Fatalf("expected 18 decoded sequences, got %d", len(res.Pred))
	}
}
