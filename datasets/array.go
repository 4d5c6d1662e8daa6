package datasets

import "fmt"

// Array is a dense numeric tensor stored as a flat row-major buffer plus its
// shape. The first axis is always the observation (trial) axis. Storing data
// contiguously keeps slicing and batching cheap and makes conversion to
// framework tensors trivial.
type Array struct {
	Data  []float64
	Shape []int
}

// NewArray allocates a zero-filled array with the given shape.
func NewArray(shape ...int) Array {
	return Array{
		Data:  make([]float64, prod(shape)),
		Shape: append([]int(nil), shape...),
	}
}

// NewArrayFrom wraps an existing buffer, validating that its length matches
// the product of the shape dimensions.
func NewArrayFrom(data []float64, shape ...int) (Array, error) {
	if len(data) != prod(shape) {
		return Array{}, fmt.Errorf("data length %d does not match shape %v (want %d)",
			len(data), shape, prod(shape))
	}
	return Array{Data: data, Shape: append([]int(nil), shape...)}, nil
}

// Len returns the number of observations (size of the leading axis).
func (a Array) Len() int {
	if len(a.Shape) == 0 {
		return 0
	}
	return a.Shape[0]
}

// ObsSize returns the number of values per observation.
func (a Array) ObsSize() int {
	if len(a.Shape) < 2 {
		return 1
	}
	return prod(a.Shape[1:])
}

// Obs returns the flat values of observation i as a view into the buffer.
// Mutating the returned slice mutates the array.
func (a Array) Obs(i int) []float64 {
	sz := a.ObsSize()
	return a.Data[i*sz : (i+1)*sz]
}

// Take gathers the given observations (in order) into a new array. Indices
// may repeat; each must be within the leading axis.
func (a Array) Take(indices []int) (Array, error) {
	n := a.Len()
	out := NewArray(append([]int{len(indices)}, a.Shape[1:]...)...)
	for pos, idx := range indices {
		if idx < 0 || idx >= n {
			return Array{}, fmt.Errorf("index %d out of range [0, %d)", idx, n)
		}
		copy(out.Obs(pos), a.Obs(idx))
	}
	return out, nil
}

// Clone returns a deep copy of the array.
func (a Array) Clone() Array {
	out := Array{
		Data:  make([]float64, len(a.Data)),
		Shape: append([]int(nil), a.Shape...),
	}
	copy(out.Data, a.Data)
	return out
}

// SameLen reports whether all arrays share the same leading (observation)
// dimension. Training code validates this invariant before slicing folds.
func SameLen(arrays ...Array) bool {
	if len(arrays) == 0 {
		return true
	}
	n := arrays[0].Len()
	for _, a := range arrays[1:] {
		if a.Len() != n {
			return false
		}
	}
	return true
}

func prod(dims []int) int {
	p := 1
	for _, d := range dims {
		p *= d
	}
	return p
}
