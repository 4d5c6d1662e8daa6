package datasets

import (
	"fmt"
	"io"

	"github.com/gomlx/gomlx/pkg/core/tensors"
)

// This file bridges the in-memory trial arrays to gomlx so a gomlx-based
// training backend can consume the same fold slices the pure-Go trainer uses.
// TrialDataset follows gomlx's train.Dataset contract (Name/Yield/Restart).

// BatchFlat stores one teacher-forcing batch in flat contiguous float32
// buffers along with the per-example dimensions.
type BatchFlat struct {
	X     []float32
	Prior []float32
	Y     []float32

	BatchSize int
	XDim      int
	PriorDim  int
	YDim      int
}

// MakeBatchFlat gathers the given observations from teacher-forcing arrays
// into flat batch buffers.
func MakeBatchFlat(x, prior, y Array, indices []int) (*BatchFlat, error) {
	if !SameLen(x, prior, y) {
		return nil, fmt.Errorf("batch arrays disagree on observation count: %d, %d, %d",
			x.Len(), prior.Len(), y.Len())
	}
	b := &BatchFlat{
		BatchSize: len(indices),
		XDim:      x.ObsSize(),
		PriorDim:  prior.ObsSize(),
		YDim:      y.ObsSize(),
	}
	b.X = make([]float32, b.BatchSize*b.XDim)
	b.Prior = make([]float32, b.BatchSize*b.PriorDim)
	b.Y = make([]float32, b.BatchSize*b.YDim)
	for pos, idx := range indices {
		if idx < 0 || idx >= x.Len() {
			return nil, fmt.Errorf("index %d out of range [0, %d)", idx, x.Len())
		}
		copyF32(b.X[pos*b.XDim:], x.Obs(idx))
		copyF32(b.Prior[pos*b.PriorDim:], prior.Obs(idx))
		copyF32(b.Y[pos*b.YDim:], y.Obs(idx))
	}
	return b, nil
}

// ToGomlxTensors converts the flat buffers into gomlx tensors shaped
// batch x perExampleDim.
func (b *BatchFlat) ToGomlxTensors() (x, prior, y *tensors.Tensor, err error) {
	if b.BatchSize == 0 {
		return nil, nil, nil, fmt.Errorf("empty batch")
	}
	x = tensors.FromAnyValue(unflatten(b.X, b.BatchSize, b.XDim))
	prior = tensors.FromAnyValue(unflatten(b.Prior, b.BatchSize, b.PriorDim))
	y = tensors.FromAnyValue(unflatten(b.Y, b.BatchSize, b.YDim))
	return x, prior, y, nil
}

func unflatten(flat []float32, n, dim int) [][]float32 {
	out := make([][]float32, n)
	for i := range out {
		out[i] = flat[i*dim : (i+1)*dim]
	}
	return out
}

func copyF32(dst []float32, src []float64) {
	for i, v := range src {
		dst[i] = float32(v)
	}
}

// TrialDataset exposes teacher-forcing trial arrays through the gomlx
// train.Dataset interface, yielding sequential batches until exhausted.
type TrialDataset struct {
	X, Prior, Y Array
	BatchSize   int

	pos int
}

// NewTrialDataset validates the arrays and wraps them for gomlx consumption.
func NewTrialDataset(x, prior, y Array, batchSize int) (*TrialDataset, error) {
	if !SameLen(x, prior, y) {
		return nil, fmt.Errorf("trial arrays disagree on observation count: %d, %d, %d",
			x.Len(), prior.Len(), y.Len())
	}
	if batchSize <= 0 {
		batchSize = 32
	}
	return &TrialDataset{X: x, Prior: prior, Y: y, BatchSize: batchSize}, nil
}

// Name returns the dataset name.
func (d *TrialDataset) Name() string { return "TrialDataset" }

// Yield returns the next batch as gomlx tensors: the model inputs are the
// feature batch and the teacher-forcing prior, the label is the one-hot
// target. It returns io.EOF once all observations have been served.
func (d *TrialDataset) Yield() (spec any, inputs []*tensors.Tensor, labels []*tensors.Tensor, err error) {
	n := d.X.Len()
	if d.pos >= n {
		return nil, nil, nil, io.EOF
	}
	end := d.pos + d.BatchSize
	if end > n {
		end = n
	}
	indices := make([]int, end-d.pos)
	for i := range indices {
		indices[i] = d.pos + i
	}
	d.pos = end

	batch, err := MakeBatchFlat(d.X, d.Prior, d.Y, indices)
	if err != nil {
		return nil, nil, nil, err
	}
	x, prior, y, err := batch.ToGomlxTensors()
	if err != nil {
		return nil, nil, nil, err
	}
	return nil, []*tensors.Tensor{x, prior}, []*tensors.Tensor{y}, nil
}

// Restart resets the dataset for a new epoch.
func (d *TrialDataset) Restart() error {
	d.pos = 0
	return nil
}
