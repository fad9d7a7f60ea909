package autodiff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/jagged/autodiff"
	"github.com/born-ml/jagged/backend/cpu"
	"github.com/born-ml/jagged/jagged"
)

// TestBackward_EndToEnd exercises the public surface the same way the
// package example does: densify under a recording tape, then backpropagate.
func TestBackward_EndToEnd(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	values, err := jagged.FromSlice([]float32{1, 2, 3, 4, 5, 6}, jagged.Shape{3, 2}, jagged.DeviceCPU)
	require.NoError(t, err)
	offsets, err := jagged.FromSlice([]int32{0, 1, 3}, jagged.Shape{3}, jagged.DeviceCPU)
	require.NoError(t, err)
	x, err := jagged.NewJagged(values, []*jagged.RawTensor{offsets})
	require.NoError(t, err)

	dense, err := jagged.ToPaddedDense(backend, x, []int{2}, 0)
	require.NoError(t, err)

	grads := autodiff.Backward(dense, backend)
	grad, ok := grads[x.Values]
	require.True(t, ok, "no gradient for values")
	assert.Equal(t, []float32{1, 1, 1, 1, 1, 1}, grad.AsFloat32())
}

// TestSharedTape tests that a standalone tape and a backend-owned tape are
// interchangeable through the GetTape accessor.
func TestSharedTape(t *testing.T) {
	backend := autodiff.New(cpu.New())
	assert.Same(t, backend.Tape(), backend.GetTape())
	assert.NotNil(t, autodiff.NewGradientTape())
}
