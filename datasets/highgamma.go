package datasets

import (
	"fmt"
	"math"
)

// Named arrays the preprocessing pipeline stores in each patient's MAT-file.
const (
	hgTraceName    = "hgTraceSig"
	hgMapName      = "hgMap"
	phonLabelsName = "phonSeqLabels"
)

// HighGammaData bundles the feature arrays for one patient recording session.
type HighGammaData struct {
	// Trace holds high-gamma traces, trials x channels x timepoints.
	Trace Array
	// Map holds the spatial high-gamma maps, trials x timepoints x channels.
	Map Array
	// Labels holds one phoneme label sequence per trial.
	Labels [][]int
}

// LoadHighGamma reads the high-gamma feature arrays and phoneme sequence
// labels from a MAT-file. Singleton dimensions are squeezed away and the
// label matrix is converted to integer sequences.
func LoadHighGamma(path string) (*HighGammaData, error) {
	arrays, err := ReadMatFile(path)
	if err != nil {
		return nil, err
	}

	trace, err := namedArray(arrays, hgTraceName)
	if err != nil {
		return nil, err
	}
	hgMap, err := namedArray(arrays, hgMapName)
	if err != nil {
		return nil, err
	}
	labArr, err := namedArray(arrays, phonLabelsName)
	if err != nil {
		return nil, err
	}

	labels, err := labelSequences(labArr)
	if err != nil {
		return nil, err
	}
	if trace.Len() != len(labels) {
		return nil, fmt.Errorf("%s has %d trials but %s has %d",
			hgTraceName, trace.Len(), phonLabelsName, len(labels))
	}

	return &HighGammaData{Trace: trace, Map: hgMap, Labels: labels}, nil
}

func namedArray(arrays map[string]Array, name string) (Array, error) {
	a, ok := arrays[name]
	if !ok {
		return Array{}, fmt.Errorf("array %q not found in MAT-file", name)
	}
	return Squeeze(a), nil
}

// Squeeze drops singleton dimensions, keeping at least one axis.
func Squeeze(a Array) Array {
	shape := make([]int, 0, len(a.Shape))
	for _, d := range a.Shape {
		if d != 1 {
			shape = append(shape, d)
		}
	}
	if len(shape) == 0 {
		shape = []int{1}
	}
	return Array{Data: a.Data, Shape: shape}
}

// labelSequences converts a trials x seqLen numeric matrix into integer label
// sequences, rejecting non-integral values.
func labelSequences(a Array) ([][]int, error) {
	if len(a.Shape) != 2 {
		return nil, fmt.Errorf("label array must be 2-D, got shape %v", a.Shape)
	}
	labels := make([][]int, a.Len())
	for i := range labels {
		row := a.Obs(i)
		seq := make([]int, len(row))
		for t, v := range row {
			r := math.Round(v)
			if math.Abs(v-r) > 1e-6 {
				return nil, fmt.Errorf("label at trial %d step %d is not an integer: %v", i, t, v)
			}
			seq[t] = int(r)
		}
		labels[i] = seq
	}
	return labels, nil
}
