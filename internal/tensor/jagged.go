package tensor

import "fmt"

// Jagged is a ragged tensor stored as a flat value buffer plus per-dimension
// offset arrays.
//
// Values is a 2-D buffer of shape [totalElements, innerDim] holding all
// non-padding elements contiguously, ordered by the outer batch index then by
// depth-first enumeration of nested jagged coordinates.
//
// Offsets holds one ascending 1-D integer tensor per nesting depth;
// Offsets[d][i+1] - Offsets[d][i] is the length of the i-th segment at depth
// d. The equivalent dense tensor has rank len(Offsets)+2.
type Jagged struct {
	Values  *RawTensor
	Offsets []*RawTensor
}

// NewJagged validates the structural invariants of a (values, offsets) pair
// and wraps them. It checks ranks and dtypes, not the offset contents: the
// ascending-offsets invariant is the producer's responsibility and is not
// re-verified on every call.
func NewJagged(values *RawTensor, offsets []*RawTensor) (*Jagged, error) {
	if len(values.Shape()) != 2 {
		return nil, fmt.Errorf("%w: jagged values must be 2-D [total, inner], got %v", ErrShapeMismatch, values.Shape())
	}
	if len(offsets) == 0 {
		return nil, fmt.Errorf("%w: jagged tensor needs at least one offsets array", ErrShapeMismatch)
	}
	if !values.DType().IsFloat() {
		return nil, fmt.Errorf("%w: jagged values must be float32 or float64, got %s", ErrShapeMismatch, values.DType())
	}
	for d, off := range offsets {
		if len(off.Shape()) != 1 || off.NumElements() < 1 {
			return nil, fmt.Errorf("%w: offsets[%d] must be a non-empty 1-D tensor, got %v", ErrShapeMismatch, d, off.Shape())
		}
		if !off.DType().IsOffsetInt() {
			return nil, fmt.Errorf("%w: offsets[%d] must be int32 or int64, got %s", ErrShapeMismatch, d, off.DType())
		}
		if off.DType() != offsets[0].DType() {
			return nil, fmt.Errorf("%w: offsets[%d] dtype %s differs from offsets[0] dtype %s",
				ErrShapeMismatch, d, off.DType(), offsets[0].DType())
		}
	}
	return &Jagged{Values: values, Offsets: offsets}, nil
}

// NumJaggedDims returns the nesting depth D.
func (j *Jagged) NumJaggedDims() int {
	return len(j.Offsets)
}

// OuterSize returns the outer batch size (segment count at depth 0).
func (j *Jagged) OuterSize() int {
	return j.Offsets[0].NumElements() - 1
}

// InnerDim returns the trailing channel dimension of the value buffer.
func (j *Jagged) InnerDim() int {
	return j.Values.Shape()[1]
}

// Lengths returns the per-segment lengths at nesting depth d.
func (j *Jagged) Lengths(d int) []int {
	off := j.Offsets[d]
	n := off.NumElements() - 1
	lengths := make([]int, n)
	for i := 0; i < n; i++ {
		lengths[i] = int(OffsetAt(off, i+1) - OffsetAt(off, i))
	}
	return lengths
}

// MaxLength returns the largest segment length at nesting depth d,
// or 0 when there are no segments.
func (j *Jagged) MaxLength(d int) int {
	maxLen := 0
	for _, l := range j.Lengths(d) {
		if l > maxLen {
			maxLen = l
		}
	}
	return maxLen
}

// OffsetAt reads one entry of an offsets tensor regardless of index width.
func OffsetAt(offsets *RawTensor, i int) int64 {
	switch offsets.DType() {
	case Int32:
		return int64(offsets.AsInt32()[i])
	case Int64:
		return offsets.AsInt64()[i]
	default:
		panic(fmt.Sprintf("offsets dtype is %s, not an offset index type", offsets.DType()))
	}
}
