package cpu

import (
	"errors"
	"testing"

	"github.com/born-ml/jagged/internal/tensor"
)

func offsetsFromInt32(t *testing.T, data []int32) *tensor.RawTensor {
	t.Helper()
	off, err := tensor.FromSlice(data, tensor.Shape{len(data)}, tensor.CPU)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return off
}

func TestPlanJaggedDense_Geometry(t *testing.T) {
	tests := []struct {
		name       string
		totalRows  int
		innerDim   int
		offsets    []int32
		denseShape tensor.Shape
		wantBlockX int
		wantGrid   int
		wantFolded int
	}{
		{
			name:       "narrow inner dim keeps blockX at innerDim",
			totalRows:  5,
			innerDim:   4,
			offsets:    []int32{0, 2, 5},
			denseShape: tensor.Shape{2, 3, 4},
			wantBlockX: 4,
			wantGrid:   1, // 6 rows, 32 per block
			wantFolded: 3,
		},
		{
			name:       "inner dim at half warp widens blockX to a full warp",
			totalRows:  5,
			innerDim:   16,
			offsets:    []int32{0, 2, 5},
			denseShape: tensor.Shape{2, 3, 16},
			wantBlockX: 32,
			wantGrid:   1,
			wantFolded: 3,
		},
		{
			name:       "large row count spans multiple blocks",
			totalRows:  100,
			innerDim:   8,
			offsets:    makeArange(101),
			denseShape: tensor.Shape{100, 1, 8},
			wantBlockX: 8,
			wantGrid:   4, // ceil(100 / 32)
			wantFolded: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := tensor.Zeros(tensor.Shape{tt.totalRows, tt.innerDim}, tensor.Float32, tensor.CPU)
			offsets := []*tensor.RawTensor{offsetsFromInt32(t, tt.offsets)}
			dense := tensor.Zeros(tt.denseShape, tensor.Float32, tensor.CPU)

			plan, err := planJaggedDense(values, offsets, dense)
			if err != nil {
				t.Fatalf("planJaggedDense: %v", err)
			}
			if plan.blockX != tt.wantBlockX {
				t.Errorf("blockX = %d, want %d", plan.blockX, tt.wantBlockX)
			}
			if plan.blockY != maxThreadsPerBlock/warpSize {
				t.Errorf("blockY = %d, want %d", plan.blockY, maxThreadsPerBlock/warpSize)
			}
			if plan.grid != tt.wantGrid {
				t.Errorf("grid = %d, want %d", plan.grid, tt.wantGrid)
			}
			if plan.foldedSize != tt.wantFolded {
				t.Errorf("foldedSize = %d, want %d", plan.foldedSize, tt.wantFolded)
			}
			if plan.innerDim != tt.innerDim {
				t.Errorf("innerDim = %d, want %d", plan.innerDim, tt.innerDim)
			}
		})
	}
}

func makeArange(n int) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(i)
	}
	return out
}

func TestPlanJaggedDense_Depth2(t *testing.T) {
	// 2 outer segments, 3 middle rows, dense [2, 2, 2, 4].
	values := tensor.Zeros(tensor.Shape{4, 4}, tensor.Float32, tensor.CPU)
	offsets := []*tensor.RawTensor{
		offsetsFromInt32(t, []int32{0, 2, 3}),
		offsetsFromInt32(t, []int32{0, 2, 3, 4}),
	}
	dense := tensor.Zeros(tensor.Shape{2, 2, 2, 4}, tensor.Float32, tensor.CPU)

	plan, err := planJaggedDense(values, offsets, dense)
	if err != nil {
		t.Fatalf("planJaggedDense: %v", err)
	}
	if plan.outerSize != 2 {
		t.Errorf("outerSize = %d, want 2", plan.outerSize)
	}
	if plan.foldedSize != 4 {
		t.Errorf("foldedSize = %d, want 4", plan.foldedSize)
	}
	if got, want := plan.rows(), 8; got != want {
		t.Errorf("rows() = %d, want %d", got, want)
	}
	if len(plan.jaggedDims) != 2 || plan.jaggedDims[0] != 2 || plan.jaggedDims[1] != 2 {
		t.Errorf("jaggedDims = %v, want [2 2]", plan.jaggedDims)
	}
}

func TestPlanJaggedDense_Validation(t *testing.T) {
	values := tensor.Zeros(tensor.Shape{5, 4}, tensor.Float32, tensor.CPU)
	goodOffsets := []*tensor.RawTensor{offsetsFromInt32(t, []int32{0, 2, 5})}

	tests := []struct {
		name    string
		offsets []*tensor.RawTensor
		dense   tensor.Shape
	}{
		{
			name: "depth above the supported maximum",
			offsets: []*tensor.RawTensor{
				offsetsFromInt32(t, []int32{0, 1}), offsetsFromInt32(t, []int32{0, 1}),
				offsetsFromInt32(t, []int32{0, 1}), offsetsFromInt32(t, []int32{0, 1}),
				offsetsFromInt32(t, []int32{0, 1}), offsetsFromInt32(t, []int32{0, 1}),
			},
			dense: tensor.Shape{1, 1, 1, 1, 1, 1, 1, 4},
		},
		{
			name:    "dense rank does not match depth",
			offsets: goodOffsets,
			dense:   tensor.Shape{2, 3, 3, 4},
		},
		{
			name:    "dense outer size disagrees with offsets",
			offsets: goodOffsets,
			dense:   tensor.Shape{3, 3, 4},
		},
		{
			name:    "dense inner dim disagrees with values",
			offsets: goodOffsets,
			dense:   tensor.Shape{2, 3, 8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dense := tensor.Zeros(tt.dense, tensor.Float32, tensor.CPU)
			_, err := planJaggedDense(values, tt.offsets, dense)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, tensor.ErrShapeMismatch) {
				t.Errorf("error = %v, want ErrShapeMismatch", err)
			}
		})
	}
}
