package datasets

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// Minimal reader for Level 5 MAT-files. We only need the numeric named arrays
// the preprocessing pipeline exports (hgTraceSig, hgMap, phonSeqLabels), so
// this parser handles real numeric matrices (optionally zlib-compressed) and
// rejects everything else. Values are widened to float64 and reordered from
// MATLAB's column-major layout to row-major.

// MAT-file data element types.
const (
	miINT8       = 1
	miUINT8      = 2
	miINT16      = 3
	miUINT16     = 4
	miINT32      = 5
	miUINT32     = 6
	miSINGLE     = 7
	miDOUBLE     = 9
	miINT64      = 12
	miUINT64     = 13
	miMATRIX     = 14
	miCOMPRESSED = 15
)

// MAT-file array classes (subset: numeric only).
const (
	mxDOUBLE = 6
	mxSINGLE = 7
	mxINT8   = 8
	mxUINT8  = 9
	mxINT16  = 10
	mxUINT16 = 11
	mxINT32  = 12
	mxUINT32 = 13
	mxINT64  = 14
	mxUINT64 = 15
)

// ReadMatFile parses a Level 5 MAT-file and returns its numeric arrays by
// name. Non-numeric elements (cells, structs, chars) are rejected with an
// error naming the offending element.
func ReadMatFile(path string) (map[string]Array, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mat file: %w", err)
	}
	if len(raw) < 128 {
		return nil, fmt.Errorf("file too short for MAT header: %d bytes", len(raw))
	}

	// Endianness indicator lives in the last two header bytes: "IM" means the
	// file was written little-endian, "MI" big-endian.
	var order binary.ByteOrder
	switch string(raw[126:128]) {
	case "IM":
		order = binary.LittleEndian
	case "MI":
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("bad MAT endian indicator %q", raw[126:128])
	}

	arrays := make(map[string]Array)
	r := &matReader{buf: raw[128:], order: order}
	for r.remaining() > 0 {
		dtype, data, err := r.readElement()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		if err := parseTopLevel(dtype, data, order, arrays); err != nil {
			return nil, err
		}
	}
	return arrays, nil
}

func parseTopLevel(dtype uint32, data []byte, order binary.ByteOrder, arrays map[string]Array) error {
	switch dtype {
	case miCOMPRESSED:
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("open compressed element: %w", err)
		}
		defer zr.Close()
		inflated, err := io.ReadAll(zr)
		if err != nil {
			return fmt.Errorf("inflate element: %w", err)
		}
		inner := &matReader{buf: inflated, order: order}
		innerType, innerData, err := inner.readElement()
		if err != nil {
			return fmt.Errorf("read inflated element: %w", err)
		}
		return parseTopLevel(innerType, innerData, order, arrays)
	case miMATRIX:
		name, arr, err := parseMatrix(data, order)
		if err != nil {
			return err
		}
		arrays[name] = arr
		return nil
	default:
		// Skip elements we do not understand at the top level (e.g. the
		// subsystem-specific data some writers append).
		return nil
	}
}

// parseMatrix decodes one miMATRIX element: array flags, dimensions, name and
// the real part, converting values to a row-major float64 Array.
func parseMatrix(data []byte, order binary.ByteOrder) (string, Array, error) {
	r := &matReader{buf: data, order: order}

	// Array flags: two uint32 words. The class sits in the low byte of the
	// first word; bit 11 flags a complex imaginary part.
	ft, flags, err := r.readElement()
	if err != nil {
		return "", Array{}, fmt.Errorf("read array flags: %w", err)
	}
	if ft != miUINT32 || len(flags) < 8 {
		return "", Array{}, fmt.Errorf("malformed array flags element (type %d, %d bytes)", ft, len(flags))
	}
	flagWord := order.Uint32(flags[:4])
	class := flagWord & 0xff
	complexFlag := flagWord&0x0800 != 0

	dt, dimBytes, err := r.readElement()
	if err != nil {
		return "", Array{}, fmt.Errorf("read dimensions: %w", err)
	}
	if dt != miINT32 {
		return "", Array{}, fmt.Errorf("unexpected dimensions element type %d", dt)
	}
	dims := make([]int, len(dimBytes)/4)
	for i := range dims {
		dims[i] = int(int32(order.Uint32(dimBytes[i*4 : i*4+4])))
	}

	nt, nameBytes, err := r.readElement()
	if err != nil {
		return "", Array{}, fmt.Errorf("read array name: %w", err)
	}
	if nt != miINT8 {
		return "", Array{}, fmt.Errorf("unexpected name element type %d", nt)
	}
	name := string(nameBytes)

	if !numericClass(class) {
		return "", Array{}, fmt.Errorf("array %q has unsupported class %d (numeric arrays only)", name, class)
	}
	if complexFlag {
		return "", Array{}, fmt.Errorf("array %q is complex; only real arrays are supported", name)
	}

	vt, valBytes, err := r.readElement()
	if err != nil {
		return "", Array{}, fmt.Errorf("read values of %q: %w", name, err)
	}
	colMajor, err := decodeNumeric(vt, valBytes, order)
	if err != nil {
		return "", Array{}, fmt.Errorf("decode values of %q: %w", name, err)
	}
	if len(colMajor) != prod(dims) {
		return "", Array{}, fmt.Errorf("array %q: %d values for shape %v", name, len(colMajor), dims)
	}

	return name, colToRowMajor(colMajor, dims), nil
}

// colToRowMajor re-lays a column-major buffer out in row-major order.
func colToRowMajor(col []float64, dims []int) Array {
	out := NewArray(dims...)
	nd := len(dims)

	// Row-major strides.
	rowStride := make([]int, nd)
	s := 1
	for i := nd - 1; i >= 0; i-- {
		rowStride[i] = s
		s *= dims[i]
	}

	idx := make([]int, nd)
	for ci := range col {
		// idx currently holds the column-major multi-index of ci.
		ri := 0
		for d := 0; d < nd; d++ {
			ri += idx[d] * rowStride[d]
		}
		out.Data[ri] = col[ci]

		// Increment column-major: first axis fastest.
		for d := 0; d < nd; d++ {
			idx[d]++
			if idx[d] < dims[d] {
				break
			}
			idx[d] = 0
		}
	}
	return out
}

func numericClass(class uint32) bool {
	return class >= mxDOUBLE && class <= mxUINT64
}

func decodeNumeric(dtype uint32, data []byte, order binary.ByteOrder) ([]float64, error) {
	size := map[uint32]int{
		miINT8: 1, miUINT8: 1, miINT16: 2, miUINT16: 2,
		miINT32: 4, miUINT32: 4, miSINGLE: 4, miDOUBLE: 8,
		miINT64: 8, miUINT64: 8,
	}[dtype]
	if size == 0 {
		return nil, fmt.Errorf("unsupported numeric storage type %d", dtype)
	}
	if len(data)%size != 0 {
		return nil, fmt.Errorf("numeric payload length %d not a multiple of element size %d", len(data), size)
	}
	n := len(data) / size
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		b := data[i*size : (i+1)*size]
		switch dtype {
		case miINT8:
			out[i] = float64(int8(b[0]))
		case miUINT8:
			out[i] = float64(b[0])
		case miINT16:
			out[i] = float64(int16(order.Uint16(b)))
		case miUINT16:
			out[i] = float64(order.Uint16(b))
		case miINT32:
			out[i] = float64(int32(order.Uint32(b)))
		case miUINT32:
			out[i] = float64(order.Uint32(b))
		case miSINGLE:
			out[i] = float64(math.Float32frombits(order.Uint32(b)))
		case miDOUBLE:
			out[i] = math.Float64frombits(order.Uint64(b))
		case miINT64:
			out[i] = float64(int64(order.Uint64(b)))
		case miUINT64:
			out[i] = float64(order.Uint64(b))
		}
	}
	return out, nil
}

// matReader walks a sequence of MAT data elements, handling both the regular
// 8-byte tag form and the packed "small data element" form, plus the 8-byte
// alignment padding between elements.
type matReader struct {
	buf   []byte
	order binary.ByteOrder
	pos   int
}

func (r *matReader) remaining() int { return len(r.buf) - r.pos }

func (r *matReader) readElement() (dtype uint32, data []byte, err error) {
	if r.remaining() < 8 {
		return 0, nil, io.EOF
	}
	word := r.order.Uint32(r.buf[r.pos : r.pos+4])
	if word>>16 != 0 {
		// Small data element: byte count in the upper half-word, up to four
		// data bytes packed into the second half of the tag.
		nbytes := int(word >> 16)
		dtype = word & 0xffff
		if nbytes > 4 {
			return 0, nil, fmt.Errorf("small element claims %d bytes", nbytes)
		}
		data = r.buf[r.pos+4 : r.pos+4+nbytes]
		r.pos += 8
		return dtype, data, nil
	}

	dtype = word
	nbytes := int(r.order.Uint32(r.buf[r.pos+4 : r.pos+8]))
	if r.remaining() < 8+nbytes {
		return 0, nil, fmt.Errorf("element type %d truncated: want %d bytes, have %d", dtype, nbytes, r.remaining()-8)
	}
	data = r.buf[r.pos+8 : r.pos+8+nbytes]
	r.pos += 8 + nbytes

	// Compressed elements are not padded; everything else aligns to 8 bytes.
	if dtype != miCOMPRESSED {
		if rem := r.pos % 8; rem != 0 {
			pad := 8 - rem
			if pad > r.remaining() {
				pad = r.remaining()
			}
			r.pos += pad
		}
	}
	return dtype, data, nil
}
