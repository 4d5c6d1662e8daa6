// Package seq2seq provides a compact encoder-decoder network implementing
// the train.Model contract: a pooled linear encoder over the channel axis
// produces the decoder's initial hidden state, and an Elman RNN decoder with
// a softmax readout emits one phoneme distribution per sequence step. The
// decoder trains with teacher forcing and decodes greedily at inference.
package seq2seq

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/coganlab/RNN-phoneme-decoding-micro/datasets"
	"github.com/coganlab/RNN-phoneme-decoding-micro/train"
)

// Config holds the model hyperparameters.
type Config struct {
	// NChannels is the number of input signal channels.
	NChannels int

	// NClasses is the number of output classes, including the start symbol.
	NClasses int

	// SeqLen is the output sequence length.
	SeqLen int

	// HiddenSize is the decoder hidden state size (default 100).
	HiddenSize int

	// LearningRate used by the mini-batch SGD updates (default 0.01).
	LearningRate float64

	// ClipNorm caps each weight tensor's gradient norm per batch. If zero,
	// gradients are not clipped.
	ClipNorm float64

	// Seed controls RNG for weight init and batch shuffling. If zero, a
	// time-based seed is used.
	Seed int64
}

// Model is a pure-Go seq2seq network with manual backpropagation. It keeps
// no external framework dependency so cross-validation runs are fast and
// deterministic under a fixed seed.
type Model struct {
	Config Config

	// encoder
	we [][]float64 // hidden x channels
	be []float64

	// decoder
	wx [][]float64 // hidden x classes
	wh [][]float64 // hidden x hidden
	bh []float64

	// readout
	wo [][]float64 // classes x hidden
	bo []float64

	rng *rand.Rand
}

// New creates a model with small random weights.
func New(cfg Config) (*Model, error) {
	if cfg.NChannels <= 0 || cfg.NClasses <= 0 || cfg.SeqLen <= 0 {
		return nil, errors.New("NChannels, NClasses and SeqLen must be positive")
	}
	if cfg.HiddenSize == 0 {
		cfg.HiddenSize = 100
	}
	if cfg.LearningRate == 0 {
		cfg.LearningRate = 0.01
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	m := &Model{
		Config: cfg,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}
	h, c, k := cfg.HiddenSize, cfg.NChannels, cfg.NClasses
	m.we = m.initMatrix(h, c)
	m.be = make([]float64, h)
	m.wx = m.initMatrix(h, k)
	m.wh = m.initMatrix(h, h)
	m.bh = make([]float64, h)
	m.wo = m.initMatrix(k, h)
	m.bo = make([]float64, k)
	return m, nil
}

// initMatrix fills a rows x cols matrix with Glorot-style uniform values.
func (m *Model) initMatrix(rows, cols int) [][]float64 {
	limit := math.Sqrt(6.0 / float64(rows+cols))
	w := make([][]float64, rows)
	for j := range w {
		row := make([]float64, cols)
		for i := range row {
			row[i] = (m.rng.Float64()*2 - 1) * limit
		}
		w[j] = row
	}
	return w
}

// Weights returns copies of the trainable tensors in a fixed order:
// encoder weight/bias, decoder input weight, recurrent weight, bias,
// readout weight/bias.
func (m *Model) Weights() []train.Weight {
	return []train.Weight{
		matWeight(m.we), vecWeight(m.be),
		matWeight(m.wx), matWeight(m.wh), vecWeight(m.bh),
		matWeight(m.wo), vecWeight(m.bo),
	}
}

// SetWeights installs the given tensors, validating that they carry exactly
// the same ordered set of shapes as the current weights.
func (m *Model) SetWeights(ws []train.Weight) error {
	if !train.SameShapes(ws, m.Weights()) {
		return errors.New("weight shapes do not match model")
	}
	setMat(m.we, ws[0])
	copy(m.be, ws[1].Data)
	setMat(m.wx, ws[2])
	setMat(m.wh, ws[3])
	copy(m.bh, ws[4].Data)
	setMat(m.wo, ws[5])
	copy(m.bo, ws[6].Data)
	return nil
}

func matWeight(w [][]float64) train.Weight {
	rows, cols := len(w), len(w[0])
	out := train.Weight{Shape: []int{rows, cols}, Data: make([]float64, rows*cols)}
	for j, row := range w {
		copy(out.Data[j*cols:], row)
	}
	return out
}

func vecWeight(v []float64) train.Weight {
	out := train.Weight{Shape: []int{len(v)}, Data: make([]float64, len(v))}
	copy(out.Data, v)
	return out
}

func setMat(w [][]float64, src train.Weight) {
	cols := len(w[0])
	for j := range w {
		copy(w[j], src.Data[j*cols:(j+1)*cols])
	}
}

// encode mean-pools a trial's trace over time and maps it to the decoder's
// initial hidden state.
func (m *Model) encode(obs []float64, nTime int) (v, h0 []float64) {
	c := m.Config.NChannels
	v = make([]float64, c)
	for ch := 0; ch < c; ch++ {
		var sum float64
		for t := 0; t < nTime; t++ {
			sum += obs[ch*nTime+t]
		}
		v[ch] = sum / float64(nTime)
	}
	h0 = make([]float64, m.Config.HiddenSize)
	for j := range h0 {
		h0[j] = math.Tanh(dot(m.we[j], v) + m.be[j])
	}
	return v, h0
}

// step advances the decoder one timestep, returning the new hidden state and
// the softmax class distribution.
func (m *Model) step(x, hPrev []float64) (h, p []float64) {
	h = make([]float64, m.Config.HiddenSize)
	for j := range h {
		h[j] = math.Tanh(dot(m.wx[j], x) + dot(m.wh[j], hPrev) + m.bh[j])
	}
	logits := make([]float64, m.Config.NClasses)
	for c := range logits {
		logits[c] = dot(m.wo[c], h) + m.bo[c]
	}
	return h, softmax(logits)
}

// Fit runs mini-batch SGD with teacher forcing and returns per-epoch metric
// series. Validation metrics are computed teacher-forced on the held-out
// fold after each epoch. Callbacks run at epoch end and may stop training.
func (m *Model) Fit(x, xPrior, y datasets.Array, cfg train.FitConfig) (map[string][]float64, error) {
	nTime, err := m.checkInputs(x, xPrior, y)
	if err != nil {
		return nil, err
	}
	valTime := 0
	if cfg.Validation != nil {
		valTime, err = m.checkInputs(cfg.Validation.X, cfg.Validation.XPrior, cfg.Validation.Y)
		if err != nil {
			return nil, fmt.Errorf("validation data: %w", err)
		}
	}

	epochs := cfg.Epochs
	if epochs <= 0 {
		epochs = 10
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}

	n := x.Len()
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	hist := map[string][]float64{"loss": nil, "accuracy": nil}
	if cfg.Validation != nil {
		hist["val_loss"] = nil
		hist["val_accuracy"] = nil
	}

	grads := m.newGradients()
	for ep := 0; ep < epochs; ep++ {
		m.rng.Shuffle(n, func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		var epLoss, epAcc float64
		var batches int
		for start := 0; start < n; start += batchSize {
			end := start + batchSize
			if end > n {
				end = n
			}
			loss, acc := m.trainBatch(x, xPrior, y, indices[start:end], nTime, grads)
			epLoss += loss
			epAcc += acc
			batches++
		}
		hist["loss"] = append(hist["loss"], epLoss/float64(batches))
		hist["accuracy"] = append(hist["accuracy"], epAcc/float64(batches))

		logs := map[string]float64{
			"loss":     hist["loss"][ep],
			"accuracy": hist["accuracy"][ep],
		}
		if cfg.Validation != nil {
			vl, va := m.evaluate(cfg.Validation.X, cfg.Validation.XPrior, cfg.Validation.Y, valTime)
			hist["val_loss"] = append(hist["val_loss"], vl)
			hist["val_accuracy"] = append(hist["val_accuracy"], va)
			logs["val_loss"] = vl
			logs["val_accuracy"] = va
		}

		stop := false
		for _, cb := range cfg.Callbacks {
			if cb.OnEpochEnd(ep, logs) {
				stop = true
			}
		}
		if stop {
			break
		}
	}
	return hist, nil
}

// trainBatch accumulates gradients over one mini-batch and applies an
// averaged SGD update. It returns the batch's pre-update loss and accuracy.
func (m *Model) trainBatch(x, xPrior, y datasets.Array, batch []int, nTime int, g *gradients) (loss, acc float64) {
	g.zero()
	seqLen, k := m.Config.SeqLen, m.Config.NClasses
	h := m.Config.HiddenSize

	var steps int
	var correct int
	for _, idx := range batch {
		v, h0 := m.encode(x.Obs(idx), nTime)
		prior := xPrior.Obs(idx)
		target := y.Obs(idx)

		// forward, keeping per-step states for backprop through time
		hs := make([][]float64, seqLen)
		ps := make([][]float64, seqLen)
		hPrev := h0
		for t := 0; t < seqLen; t++ {
			hs[t], ps[t] = m.step(prior[t*k:(t+1)*k], hPrev)
			hPrev = hs[t]

			yt := target[t*k : (t+1)*k]
			loss += crossEntropy(ps[t], yt)
			if argmax(ps[t]) == argmax(yt) {
				correct++
			}
			steps++
		}

		// backward
		dhNext := make([]float64, h)
		for t := seqLen - 1; t >= 0; t-- {
			yt := target[t*k : (t+1)*k]
			xt := prior[t*k : (t+1)*k]

			// softmax + cross-entropy
			dlogits := make([]float64, k)
			for c := 0; c < k; c++ {
				dlogits[c] = ps[t][c] - yt[c]
			}
			dh := make([]float64, h)
			for c := 0; c < k; c++ {
				g.bo[c] += dlogits[c]
				for j := 0; j < h; j++ {
					g.wo[c][j] += dlogits[c] * hs[t][j]
					dh[j] += m.wo[c][j] * dlogits[c]
				}
			}
			for j := 0; j < h; j++ {
				dh[j] += dhNext[j]
			}

			// through tanh
			dpre := make([]float64, h)
			for j := 0; j < h; j++ {
				dpre[j] = dh[j] * (1 - hs[t][j]*hs[t][j])
			}
			hPrevT := h0
			if t > 0 {
				hPrevT = hs[t-1]
			}
			dhNext = make([]float64, h)
			for j := 0; j < h; j++ {
				g.bh[j] += dpre[j]
				for c := 0; c < k; c++ {
					g.wx[j][c] += dpre[j] * xt[c]
				}
				for i := 0; i < h; i++ {
					g.wh[j][i] += dpre[j] * hPrevT[i]
					dhNext[i] += m.wh[j][i] * dpre[j]
				}
			}
		}

		// into the encoder via h0
		for j := 0; j < h; j++ {
			dpre0 := dhNext[j] * (1 - h0[j]*h0[j])
			g.be[j] += dpre0
			for c := range v {
				g.we[j][c] += dpre0 * v[c]
			}
		}
	}

	m.applyGradients(g, float64(len(batch)*seqLen))
	return loss / float64(steps), float64(correct) / float64(steps)
}

// applyGradients performs the averaged SGD step with optional per-tensor
// gradient norm clipping.
func (m *Model) applyGradients(g *gradients, scale float64) {
	lr := m.Config.LearningRate
	update := func(w [][]float64, grad [][]float64) {
		factor := lr / scale * clipFactor(matNorm(grad)/scale, m.Config.ClipNorm)
		for j := range w {
			for i := range w[j] {
				w[j][i] -= factor * grad[j][i]
			}
		}
	}
	updateVec := func(v []float64, grad []float64) {
		factor := lr / scale * clipFactor(vecNorm(grad)/scale, m.Config.ClipNorm)
		for j := range v {
			v[j] -= factor * grad[j]
		}
	}
	update(m.we, g.we)
	updateVec(m.be, g.be)
	update(m.wx, g.wx)
	update(m.wh, g.wh)
	updateVec(m.bh, g.bh)
	update(m.wo, g.wo)
	updateVec(m.bo, g.bo)
}

// evaluate computes teacher-forced loss and accuracy without updating
// weights.
func (m *Model) evaluate(x, xPrior, y datasets.Array, nTime int) (loss, acc float64) {
	seqLen, k := m.Config.SeqLen, m.Config.NClasses
	var steps, correct int
	for i := 0; i < x.Len(); i++ {
		_, hPrev := m.encode(x.Obs(i), nTime)
		prior := xPrior.Obs(i)
		target := y.Obs(i)
		for t := 0; t < seqLen; t++ {
			var p []float64
			hPrev, p = m.step(prior[t*k:(t+1)*k], hPrev)
			yt := target[t*k : (t+1)*k]
			loss += crossEntropy(p, yt)
			if argmax(p) == argmax(yt) {
				correct++
			}
			steps++
		}
	}
	return loss / float64(steps), float64(correct) / float64(steps)
}

// Predict decodes each trial greedily: the decoder starts from the start
// symbol and feeds its own argmax back as the next step's input. The result
// holds the per-step class distributions, trials x seqLen x classes.
func (m *Model) Predict(x datasets.Array) (datasets.Array, error) {
	nTime, err := m.checkFeatures(x)
	if err != nil {
		return datasets.Array{}, err
	}
	seqLen, k := m.Config.SeqLen, m.Config.NClasses
	out := datasets.NewArray(x.Len(), seqLen, k)
	for i := 0; i < x.Len(); i++ {
		_, hPrev := m.encode(x.Obs(i), nTime)
		xt := make([]float64, k)
		xt[datasets.StartSymbol] = 1
		dst := out.Obs(i)
		for t := 0; t < seqLen; t++ {
			var p []float64
			hPrev, p = m.step(xt, hPrev)
			copy(dst[t*k:(t+1)*k], p)
			xt = make([]float64, k)
			xt[argmax(p)] = 1
		}
	}
	return out, nil
}

func (m *Model) checkFeatures(x datasets.Array) (nTime int, err error) {
	if len(x.Shape) != 3 {
		return 0, fmt.Errorf("features must be 3-D trials x channels x timepoints, got shape %v", x.Shape)
	}
	if x.Shape[1] != m.Config.NChannels {
		return 0, fmt.Errorf("features have %d channels, model expects %d", x.Shape[1], m.Config.NChannels)
	}
	return x.Shape[2], nil
}

func (m *Model) checkInputs(x, xPrior, y datasets.Array) (nTime int, err error) {
	nTime, err = m.checkFeatures(x)
	if err != nil {
		return 0, err
	}
	for _, a := range []datasets.Array{xPrior, y} {
		if len(a.Shape) != 3 || a.Shape[1] != m.Config.SeqLen || a.Shape[2] != m.Config.NClasses {
			return 0, fmt.Errorf("sequence tensor must be obs x %d x %d, got shape %v",
				m.Config.SeqLen, m.Config.NClasses, a.Shape)
		}
	}
	return nTime, nil
}

// gradients mirrors the weight tensors for accumulation over a batch.
type gradients struct {
	we, wx, wh, wo [][]float64
	be, bh, bo     []float64
}

func (m *Model) newGradients() *gradients {
	h, c, k := m.Config.HiddenSize, m.Config.NChannels, m.Config.NClasses
	zeros := func(rows, cols int) [][]float64 {
		w := make([][]float64, rows)
		for j := range w {
			w[j] = make([]float64, cols)
		}
		return w
	}
	return &gradients{
		we: zeros(h, c), wx: zeros(h, k), wh: zeros(h, h), wo: zeros(k, h),
		be: make([]float64, h), bh: make([]float64, h), bo: make([]float64, k),
	}
}

func (g *gradients) zero() {
	for _, w := range [][][]float64{g.we, g.wx, g.wh, g.wo} {
		for j := range w {
			for i := range w[j] {
				w[j][i] = 0
			}
		}
	}
	for _, v := range [][]float64{g.be, g.bh, g.bo} {
		for j := range v {
			v[j] = 0
		}
	}
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func softmax(logits []float64) []float64 {
	max := logits[0]
	for _, v := range logits[1:] {
		if v > max {
			max = v
		}
	}
	out := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(v - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func crossEntropy(p, y []float64) float64 {
	var loss float64
	for c := range y {
		if y[c] > 0 {
			loss -= y[c] * math.Log(math.Max(p[c], 1e-12))
		}
	}
	return loss
}

func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

func matNorm(w [][]float64) float64 {
	var sum float64
	for _, row := range w {
		for _, v := range row {
			sum += v * v
		}
	}
	return math.Sqrt(sum)
}

func vecNorm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func clipFactor(norm, clip float64) float64 {
	if clip <= 0 || norm <= clip {
		return 1
	}
	return clip / norm
}
