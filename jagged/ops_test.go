package jagged_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/jagged/backend/cpu"
	"github.com/born-ml/jagged/jagged"
)

func newJagged(t *testing.T, values []float32, shape jagged.Shape, offsets []int32) *jagged.Jagged {
	t.Helper()
	v, err := jagged.FromSlice(values, shape, jagged.DeviceCPU)
	require.NoError(t, err)
	off, err := jagged.FromSlice(offsets, jagged.Shape{len(offsets)}, jagged.DeviceCPU)
	require.NoError(t, err)
	j, err := jagged.NewJagged(v, []*jagged.RawTensor{off})
	require.NoError(t, err)
	return j
}

func TestToPaddedDense(t *testing.T) {
	backend := cpu.New()
	x := newJagged(t, []float32{1, 2, 3, 4, 5, 6}, jagged.Shape{3, 2}, []int32{0, 1, 3})

	dense, err := jagged.ToPaddedDense(backend, x, []int{2}, -1)
	require.NoError(t, err)
	assert.Equal(t, jagged.Shape{2, 2, 2}, dense.Shape())
	assert.Equal(t, []float32{1, 2, -1, -1, 3, 4, 5, 6}, dense.AsFloat32())
}

func TestDenseToJagged_SharesOffsets(t *testing.T) {
	backend := cpu.New()
	x := newJagged(t, []float32{1, 2, 3, 4, 5, 6}, jagged.Shape{3, 2}, []int32{0, 1, 3})

	dense, err := jagged.ToPaddedDense(backend, x, []int{2}, 0)
	require.NoError(t, err)

	back, err := jagged.DenseToJagged(backend, dense, x.Offsets, -1)
	require.NoError(t, err)
	assert.Same(t, x.Offsets[0], back.Offsets[0])
	assert.Equal(t, x.Values.AsFloat32(), back.Values.AsFloat32())
}

func TestDenseAdd(t *testing.T) {
	backend := cpu.New()
	x := newJagged(t, []float32{1, 2, 3, 4, 5, 6}, jagged.Shape{3, 2}, []int32{0, 1, 3})
	y, err := jagged.FromSlice([]float32{1, 1, 1, 1, 1, 1, 1, 1}, jagged.Shape{2, 2, 2}, jagged.DeviceCPU)
	require.NoError(t, err)

	out, err := jagged.DenseAdd(backend, x, y)
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 3, 1, 1, 4, 5, 6, 7}, out.AsFloat32())
}

func TestDenseAddJaggedOutput(t *testing.T) {
	backend := cpu.New()
	x := newJagged(t, []float32{1, 2, 3, 4, 5, 6}, jagged.Shape{3, 2}, []int32{0, 1, 3})
	y, err := jagged.FromSlice([]float32{10, 10, 10, 10, 10, 10, 10, 10}, jagged.Shape{2, 2, 2}, jagged.DeviceCPU)
	require.NoError(t, err)

	out, err := jagged.DenseAddJaggedOutput(backend, x, y)
	require.NoError(t, err)
	assert.Same(t, x.Offsets[0], out.Offsets[0])
	assert.Equal(t, []float32{11, 12, 13, 14, 15, 16}, out.Values.AsFloat32())
}

func TestDenseMul(t *testing.T) {
	backend := cpu.New()
	x := newJagged(t, []float32{1, 2, 3, 4, 5, 6}, jagged.Shape{3, 2}, []int32{0, 1, 3})
	y, err := jagged.FromSlice([]float32{2, 2, 2, 2, 3, 3, 3, 3}, jagged.Shape{2, 2, 2}, jagged.DeviceCPU)
	require.NoError(t, err)

	out, err := jagged.DenseMul(backend, x, y)
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 4, 9, 12, 15, 18}, out.Values.AsFloat32())
}

func TestBatchedDenseVecJagged2DMul(t *testing.T) {
	backend := cpu.New()
	a := newJagged(t, []float32{1, 2, 3, 4}, jagged.Shape{2, 2}, []int32{0, 2})
	v, err := jagged.FromSlice([]float32{1, 2}, jagged.Shape{1, 2}, jagged.DeviceCPU)
	require.NoError(t, err)

	out, err := jagged.BatchedDenseVecJagged2DMul(backend, v, a)
	require.NoError(t, err)
	assert.Equal(t, []float32{7, 10}, out.AsFloat32())
}

func TestBatchedDenseVecJagged2DMul_RejectsDeeperJagged(t *testing.T) {
	backend := cpu.New()
	v, err := jagged.FromSlice([]float32{1}, jagged.Shape{1, 1}, jagged.DeviceCPU)
	require.NoError(t, err)
	values, err := jagged.FromSlice([]float32{1, 2}, jagged.Shape{1, 2}, jagged.DeviceCPU)
	require.NoError(t, err)
	off1, err := jagged.FromSlice([]int32{0, 1}, jagged.Shape{2}, jagged.DeviceCPU)
	require.NoError(t, err)
	off2, err := jagged.FromSlice([]int32{0, 1}, jagged.Shape{2}, jagged.DeviceCPU)
	require.NoError(t, err)
	a, err := jagged.NewJagged(values, []*jagged.RawTensor{off1, off2})
	require.NoError(t, err)

	_, err = jagged.BatchedDenseVecJagged2DMul(backend, v, a)
	assert.ErrorIs(t, err, jagged.ErrShapeMismatch)
}

func TestOneDToDense(t *testing.T) {
	backend := cpu.New()
	values, err := jagged.FromSlice([]float32{1, 2, 3, 4, 5}, jagged.Shape{5}, jagged.DeviceCPU)
	require.NoError(t, err)
	offsets, err := jagged.FromSlice([]int32{0, 2, 2, 5}, jagged.Shape{4}, jagged.DeviceCPU)
	require.NoError(t, err)

	dense, err := jagged.OneDToDense(backend, values, offsets, 3, 9)
	require.NoError(t, err)
	assert.Equal(t, jagged.Shape{3, 3}, dense.Shape())
	assert.Equal(t, []float32{1, 2, 9, 9, 9, 9, 3, 4, 5}, dense.AsFloat32())
}

func TestOneDToDense_RejectsMatrixValues(t *testing.T) {
	backend := cpu.New()
	values := jagged.Zeros(jagged.Shape{2, 2}, jagged.Float32, jagged.DeviceCPU)
	offsets, err := jagged.FromSlice([]int32{0, 2}, jagged.Shape{2}, jagged.DeviceCPU)
	require.NoError(t, err)

	_, err = jagged.OneDToDense(backend, values, offsets, 2, 0)
	assert.ErrorIs(t, err, jagged.ErrShapeMismatch)
}

func TestTwoDToDense_DerivesMaxLength(t *testing.T) {
	backend := cpu.New()
	x := newJagged(t, []float32{1, 2, 3, 4, 5, 6}, jagged.Shape{3, 2}, []int32{0, 1, 3})

	dense, err := jagged.TwoDToDense(backend, x)
	require.NoError(t, err)
	assert.Equal(t, jagged.Shape{2, 2, 2}, dense.Shape())
	assert.Equal(t, []float32{1, 2, 0, 0, 3, 4, 5, 6}, dense.AsFloat32())
}

func TestJaggedAccessors(t *testing.T) {
	x := newJagged(t, []float32{1, 2, 3, 4, 5, 6}, jagged.Shape{3, 2}, []int32{0, 1, 3})

	assert.Equal(t, 1, x.NumJaggedDims())
	assert.Equal(t, 2, x.OuterSize())
	assert.Equal(t, 2, x.InnerDim())
	assert.Equal(t, []int{1, 2}, x.Lengths(0))
	assert.Equal(t, 2, x.MaxLength(0))
}
