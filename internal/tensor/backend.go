package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual kernel launches for jagged/dense operations.
//
// Implementations:
//   - CPU: worker-pool execution over the same launch geometry
//   - WebGPU: WGSL compute shaders via go-webgpu
//
// Decorator backends for additional functionality:
//   - autodiff: gradient tracking (wraps any backend)
//
// Forward methods validate shapes, dtypes and device residency on the host
// and return an error before any device work is issued; they never
// partially execute.
type Backend interface {
	Name() string
	Device() Device

	// Add performs element-wise addition of two same-shaped float tensors.
	// The gradient tape uses it to accumulate gradients when a tensor feeds
	// multiple operations.
	Add(a, b *RawTensor) *RawTensor

	// ToPaddedDense densifies a jagged tensor into shape
	// [outer, maxLengths..., inner], writing padding at masked positions.
	ToPaddedDense(values *RawTensor, offsets []*RawTensor, maxLengths []int, padding float64) (*RawTensor, error)

	// DenseToJagged extracts the jagged support of a dense tensor into a new
	// value buffer with the given offsets. totalLength < 0 derives the row
	// count from the final entry of the last offsets array.
	DenseToJagged(dense *RawTensor, offsets []*RawTensor, totalLength int) (*RawTensor, error)

	// JaggedDenseAdd computes x + y with dense output; masked positions
	// pass y through unchanged.
	JaggedDenseAdd(xValues *RawTensor, offsets []*RawTensor, y *RawTensor) (*RawTensor, error)

	// JaggedDenseAddJaggedOutput computes x + y scattered back into jagged
	// storage. Positions of x with no dense counterpart keep their x value.
	JaggedDenseAddJaggedOutput(xValues *RawTensor, offsets []*RawTensor, y *RawTensor) (*RawTensor, error)

	// JaggedDenseMul computes x * y with jagged output.
	JaggedDenseMul(xValues *RawTensor, offsets []*RawTensor, y *RawTensor) (*RawTensor, error)

	// JaggedMulJaggedToDense multiplies two jagged operands sharing the same
	// offsets and densifies the product into denseShape (padding 0). Used by
	// the multiplication backward to produce the dense-side gradient.
	JaggedMulJaggedToDense(x, y *RawTensor, offsets []*RawTensor, denseShape Shape) (*RawTensor, error)

	// BatchedDenseVecJagged2DMul computes, per (b, h), the length-weighted
	// sum of jagged matrix rows: out[b, h, :] = sum_l v[b, h, l] * a[off_b+l, h, :].
	BatchedDenseVecJagged2DMul(v, aValues, aOffsets *RawTensor) (*RawTensor, error)

	// BatchedDenseVecJagged2DMulVBackward computes the vector gradient of
	// the batched product: the transposed reduction of grad against aValues.
	// The result has shape [B*numHeads, maxL].
	BatchedDenseVecJagged2DMulVBackward(grad, aValues, aOffsets *RawTensor, numHeads, maxL int) (*RawTensor, error)

	// BatchedDenseVecJagged2DMulMatBackward computes the jagged-matrix
	// gradient: an outer product of v and grad scattered into segment rows.
	// The result has totalRows rows matching the forward aValues.
	BatchedDenseVecJagged2DMulMatBackward(grad, v, aOffsets *RawTensor, totalRows int) (*RawTensor, error)
}
