// Package autodiff implements automatic differentiation using the decorator pattern.
//
// AutodiffBackend wraps any Backend implementation (CPU, WebGPU, etc.) and adds
// gradient tracking capabilities through a GradientTape.
//
// Architecture:
//   - Decorator pattern: AutodiffBackend[B] wraps any Backend implementation
//   - GradientTape: Records operations during forward pass
//   - Operation interface: Each op implements its own backward pass
//   - Reverse-mode AD: Computes gradients efficiently using chain rule
//
// Usage:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	dense, _ := backend.ToPaddedDense(values, offsets, maxLengths, 0)
//	grads := backend.Tape().Backward(outputGrad, backend)
package autodiff

import (
	"github.com/born-ml/jagged/internal/autodiff/ops"
	"github.com/born-ml/jagged/internal/tensor"
)

// AutodiffBackend wraps a Backend and adds automatic differentiation.
// It implements the tensor.Backend interface and records operations in a GradientTape.
//
// Type parameter B must satisfy the tensor.Backend interface.
type AutodiffBackend[B tensor.Backend] struct {
	inner B             // Wrapped backend (CPU, WebGPU, etc.)
	tape  *GradientTape // Records operations for backpropagation
}

// New creates a new AutodiffBackend wrapping the given backend.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return &AutodiffBackend[B]{
		inner: backend,
		tape:  NewGradientTape(),
	}
}

// Tape returns the gradient tape for manual control.
// Useful for:
//   - Starting/stopping recording
//   - Clearing tape between iterations
//   - Inspecting recorded operations
func (b *AutodiffBackend[B]) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped backend for direct access.
func (b *AutodiffBackend[B]) Inner() B {
	return b.inner
}

// Name returns the backend name.
func (b *AutodiffBackend[B]) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Device returns the compute device.
func (b *AutodiffBackend[B]) Device() tensor.Device {
	return b.inner.Device()
}

// Add performs element-wise addition and records the operation.
func (b *AutodiffBackend[B]) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	// Prevent inplace modification that would corrupt the recorded graph:
	// raising the refcount forces the inner backend to allocate a fresh
	// result instead of reusing an operand buffer.
	defer x.ForceNonUnique()()
	defer y.ForceNonUnique()()

	result := b.inner.Add(x, y)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewAddOp(x, y, result))
	}

	return result
}

// ToPaddedDense densifies a jagged tensor and records the operation.
func (b *AutodiffBackend[B]) ToPaddedDense(values *tensor.RawTensor, offsets []*tensor.RawTensor, maxLengths []int, padding float64) (*tensor.RawTensor, error) {
	defer values.ForceNonUnique()()
	// Offsets are structural and never differentiated.

	result, err := b.inner.ToPaddedDense(values, offsets, maxLengths, padding)
	if err != nil {
		return nil, err
	}

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewToPaddedDenseOp(values, offsets, result))
	}

	return result, nil
}

// DenseToJagged extracts the jagged support of a dense tensor and records
// the operation.
func (b *AutodiffBackend[B]) DenseToJagged(dense *tensor.RawTensor, offsets []*tensor.RawTensor, totalLength int) (*tensor.RawTensor, error) {
	defer dense.ForceNonUnique()()

	result, err := b.inner.DenseToJagged(dense, offsets, totalLength)
	if err != nil {
		return nil, err
	}

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewDenseToJaggedOp(dense, offsets, result))
	}

	return result, nil
}

// JaggedDenseAdd computes x + y with dense output and records the operation.
func (b *AutodiffBackend[B]) JaggedDenseAdd(xValues *tensor.RawTensor, offsets []*tensor.RawTensor, y *tensor.RawTensor) (*tensor.RawTensor, error) {
	defer xValues.ForceNonUnique()()
	defer y.ForceNonUnique()()

	result, err := b.inner.JaggedDenseAdd(xValues, offsets, y)
	if err != nil {
		return nil, err
	}

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewJaggedDenseAddOp(xValues, offsets, y, result))
	}

	return result, nil
}

// JaggedDenseAddJaggedOutput computes x + y with jagged output and records
// the operation.
func (b *AutodiffBackend[B]) JaggedDenseAddJaggedOutput(xValues *tensor.RawTensor, offsets []*tensor.RawTensor, y *tensor.RawTensor) (*tensor.RawTensor, error) {
	defer xValues.ForceNonUnique()()
	defer y.ForceNonUnique()()

	result, err := b.inner.JaggedDenseAddJaggedOutput(xValues, offsets, y)
	if err != nil {
		return nil, err
	}

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewJaggedDenseAddJaggedOutputOp(xValues, offsets, y, result))
	}

	return result, nil
}

// JaggedDenseMul computes x * y with jagged output and records the operation.
func (b *AutodiffBackend[B]) JaggedDenseMul(xValues *tensor.RawTensor, offsets []*tensor.RawTensor, y *tensor.RawTensor) (*tensor.RawTensor, error) {
	defer xValues.ForceNonUnique()()
	defer y.ForceNonUnique()()

	result, err := b.inner.JaggedDenseMul(xValues, offsets, y)
	if err != nil {
		return nil, err
	}

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewJaggedDenseMulOp(xValues, offsets, y, result))
	}

	return result, nil
}

// JaggedMulJaggedToDense multiplies two jagged operands into a dense result.
// It is a gradient kernel for JaggedDenseMul and is not itself recorded.
func (b *AutodiffBackend[B]) JaggedMulJaggedToDense(x, y *tensor.RawTensor, offsets []*tensor.RawTensor, denseShape tensor.Shape) (*tensor.RawTensor, error) {
	return b.inner.JaggedMulJaggedToDense(x, y, offsets, denseShape)
}

// BatchedDenseVecJagged2DMul computes the batched product and records the
// operation.
func (b *AutodiffBackend[B]) BatchedDenseVecJagged2DMul(v, aValues, aOffsets *tensor.RawTensor) (*tensor.RawTensor, error) {
	defer v.ForceNonUnique()()
	defer aValues.ForceNonUnique()()

	result, err := b.inner.BatchedDenseVecJagged2DMul(v, aValues, aOffsets)
	if err != nil {
		return nil, err
	}

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewBatchedVecJaggedMulOp(v, aValues, aOffsets, result))
	}

	return result, nil
}

// BatchedDenseVecJagged2DMulVBackward is a gradient kernel and is not
// recorded.
func (b *AutodiffBackend[B]) BatchedDenseVecJagged2DMulVBackward(grad, aValues, aOffsets *tensor.RawTensor, numHeads, maxL int) (*tensor.RawTensor, error) {
	return b.inner.BatchedDenseVecJagged2DMulVBackward(grad, aValues, aOffsets, numHeads, maxL)
}

// BatchedDenseVecJagged2DMulMatBackward is a gradient kernel and is not
// recorded.
func (b *AutodiffBackend[B]) BatchedDenseVecJagged2DMulMatBackward(grad, v, aOffsets *tensor.RawTensor, totalRows int) (*tensor.RawTensor, error) {
	return b.inner.BatchedDenseVecJagged2DMulMatBackward(grad, v, aOffsets, totalRows)
}
