package datasets

import "fmt"

// StartSymbol is the class index reserved for the sequence start / padding
// symbol fed to the decoder before the first real phoneme.
const StartSymbol = 0

// PadSequenceTeacherForcing builds the one-hot target tensor and the
// right-shifted teacher-forcing prior from integer label sequences. The prior
// for step 0 is the start symbol; the prior for step t is the target at t-1.
// Both returned arrays have shape observations x seqLen x nClasses.
func PadSequenceTeacherForcing(labels [][]int, nClasses int) (prior, y Array, err error) {
	if len(labels) == 0 {
		return Array{}, Array{}, fmt.Errorf("no label sequences")
	}
	seqLen := len(labels[0])

	prior = NewArray(len(labels), seqLen, nClasses)
	y = NewArray(len(labels), seqLen, nClasses)
	for i, seq := range labels {
		if len(seq) != seqLen {
			return Array{}, Array{}, fmt.Errorf("sequence %d has length %d, want %d", i, len(seq), seqLen)
		}
		for t, lab := range seq {
			if lab < 0 || lab >= nClasses {
				return Array{}, Array{}, fmt.Errorf("label %d at sequence %d step %d out of range [0, %d)",
					lab, i, t, nClasses)
			}
			y.Data[(i*seqLen+t)*nClasses+lab] = 1
			if t == 0 {
				prior.Data[(i*seqLen)*nClasses+StartSymbol] = 1
			} else {
				prior.Data[(i*seqLen+t)*nClasses+seq[t-1]] = 1
			}
		}
	}
	return prior, y, nil
}

// OneHotEncode converts integer label sequences to an
// observations x seqLen x nClasses one-hot tensor.
func OneHotEncode(labels [][]int, nClasses int) (Array, error) {
	if len(labels) == 0 {
		return Array{}, fmt.Errorf("no label sequences")
	}
	seqLen := len(labels[0])
	out := NewArray(len(labels), seqLen, nClasses)
	for i, seq := range labels {
		if len(seq) != seqLen {
			return Array{}, fmt.Errorf("sequence %d has length %d, want %d", i, len(seq), seqLen)
		}
		for t, lab := range seq {
			if lab < 0 || lab >= nClasses {
				return Array{}, fmt.Errorf("label %d at sequence %d step %d out of range [0, %d)",
					lab, i, t, nClasses)
			}
			out.Data[(i*seqLen+t)*nClasses+lab] = 1
		}
	}
	return out, nil
}

// OneHotDecode converts an observations x seqLen x nClasses tensor back to
// integer label sequences by taking the argmax over the class axis. It also
// accepts soft (non-binary) rows, e.g. model output distributions.
func OneHotDecode(a Array) ([][]int, error) {
	if len(a.Shape) != 3 {
		return nil, fmt.Errorf("one-hot tensor must be 3-D, got shape %v", a.Shape)
	}
	seqLen, nClasses := a.Shape[1], a.Shape[2]
	out := make([][]int, a.Len())
	for i := range out {
		obs := a.Obs(i)
		seq := make([]int, seqLen)
		for t := 0; t < seqLen; t++ {
			row := obs[t*nClasses : (t+1)*nClasses]
			best := 0
			for c := 1; c < nClasses; c++ {
				if row[c] > row[best] {
					best = c
				}
			}
			seq[t] = best
		}
		out[i] = seq
	}
	return out, nil
}
