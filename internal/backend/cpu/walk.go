package cpu

import (
	"fmt"

	"github.com/born-ml/jagged/internal/tensor"
)

// dispatchDepth launches a kernel through the closed depth enumeration,
// handing each arm its depth as a literal trip count for the resolver
// loops. The planner rejects depths outside 1..MaxJaggedDims before any
// launch, so the default arm is an internal invariant violation.
func dispatchDepth(depth int, kernel func(depth int)) {
	switch depth {
	case 1:
		kernel(1)
	case 2:
		kernel(2)
	case 3:
		kernel(3)
	case 4:
		kernel(4)
	case 5:
		kernel(5)
	default:
		panic(fmt.Sprintf("jagged depth %d outside supported range 1..%d", depth, MaxJaggedDims))
	}
}

// resolveJaggedCoord maps a flattened jagged coordinate to a physical offset
// into the value buffer by walking the implicit tree of offset arrays.
//
// outer is the starting offset (the outer batch index), flat the flattened
// coordinate in [0, product(dims)), dims the per-depth jagged extents from
// the launch plan, and offsets the per-depth offset sequences.
//
// The coordinate is decomposed by mixed-radix division from the innermost
// dimension outward, then the running offset narrows one depth at a time:
// a coordinate that falls outside its segment's [begin, end) bounds resolves
// to a masked position (implicit padding) and the walk stops early.
//
// depth is fixed per kernel instantiation (the launch boundary dispatches
// over the closed depth enumeration), so the loops below have a small
// constant trip count.
func resolveJaggedCoord[I tensor.OffsetInt](depth int, outer int, flat int, dims []int, offsets [][]I) (int, bool) {
	var coord [MaxJaggedDims]int
	for d := depth - 1; d >= 0; d-- {
		coord[d] = flat % dims[d]
		flat /= dims[d]
	}

	offset := outer
	for d := 0; d < depth; d++ {
		begin := int(offsets[d][offset])
		end := int(offsets[d][offset+1])
		if coord[d] >= end-begin {
			return 0, true
		}
		offset = begin + coord[d]
	}
	return offset, false
}

// offsetsAsSlices extracts the raw index slices of each offsets tensor for a
// concrete index width. The caller guarantees a uniform dtype.
func offsetsAsSlices[I tensor.OffsetInt](offsets []*tensor.RawTensor) [][]I {
	out := make([][]I, len(offsets))
	for d, off := range offsets {
		out[d] = tensor.Data[I](off)
	}
	return out
}
