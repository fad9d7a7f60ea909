package cpu

import (
	"fmt"

	"github.com/born-ml/jagged/internal/tensor"
)

// Launch geometry constants, matching the warp-granular dispatch the kernels
// were designed around. The CPU scheduler walks the same grid so the planner
// is covered by every backend.
const (
	warpSize           = 32
	maxThreadsPerBlock = 1024

	// MaxJaggedDims bounds the supported nesting depth. The tree-walk
	// resolver holds its per-dimension coordinates in a fixed-size array of
	// this length, and launch functions dispatch over the closed enumeration
	// of depths 1..MaxJaggedDims.
	MaxJaggedDims = 5
)

// launchPlan is the per-invocation kernel launch geometry plus the
// device-resident copy of the jagged dimension extents.
type launchPlan struct {
	blockX, blockY int
	grid           int

	outerSize  int
	foldedSize int // product of the jagged dims (canonical 3-D middle dim)
	innerDim   int

	// jaggedDims are dims 1..D of the dense reference, copied out of its
	// shape so kernels index them without touching the dense tensor's
	// metadata. On the GPU path this array is uploaded as a uniform buffer.
	jaggedDims []int
}

// rows returns the total iteration space distributed across the grid.
func (p launchPlan) rows() int {
	return p.outerSize * p.foldedSize
}

// planJaggedDense validates jagged/dense shape compatibility and computes the
// launch geometry for the elementwise kernel family.
//
// values is the jagged value buffer [L, innerDim], offsets the D per-depth
// offset sequences, and dense the rank D+2 dense reference the kernel reads
// or writes.
func planJaggedDense(values *tensor.RawTensor, offsets []*tensor.RawTensor, dense *tensor.RawTensor) (launchPlan, error) {
	d := len(offsets)
	if d < 1 || d > MaxJaggedDims {
		return launchPlan{}, fmt.Errorf("%w: %d offset sequences, supported depth is 1..%d",
			tensor.ErrShapeMismatch, d, MaxJaggedDims)
	}

	denseShape := dense.Shape()
	if len(denseShape) != d+2 {
		return launchPlan{}, fmt.Errorf("%w: dense rank %d does not match %d offset sequences (want rank %d)",
			tensor.ErrShapeMismatch, len(denseShape), d, d+2)
	}

	outerSize := offsets[0].NumElements() - 1
	if denseShape[0] != outerSize {
		return launchPlan{}, fmt.Errorf("%w: dense outer size %d != offsets[0] segment count %d",
			tensor.ErrShapeMismatch, denseShape[0], outerSize)
	}

	innerDim := values.Shape()[1]
	if denseShape[len(denseShape)-1] != innerDim {
		return launchPlan{}, fmt.Errorf("%w: dense inner dim %d != jagged inner dim %d",
			tensor.ErrShapeMismatch, denseShape[len(denseShape)-1], innerDim)
	}

	foldedSize := 1
	jaggedDims := make([]int, d)
	for i := 0; i < d; i++ {
		jaggedDims[i] = denseShape[1+i]
		foldedSize *= denseShape[1+i]
	}

	// Block: x covers the inner channel dim at warp granularity once the
	// channel count is at least half a warp; y packs rows per block.
	blockX := innerDim
	if innerDim >= warpSize/2 {
		blockX = warpSize
	}
	blockY := maxThreadsPerBlock / warpSize

	rows := outerSize * foldedSize
	grid := (rows + blockY - 1) / blockY

	return launchPlan{
		blockX:     blockX,
		blockY:     blockY,
		grid:       grid,
		outerSize:  outerSize,
		foldedSize: foldedSize,
		innerDim:   innerDim,
		jaggedDims: jaggedDims,
	}, nil
}
