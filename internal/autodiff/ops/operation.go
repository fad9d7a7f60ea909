// Package ops defines operation records for automatic differentiation.
//
// Each operation implements the Operation interface, which provides:
//   - Forward pass: computed by the backend
//   - Backward pass: computes gradients for inputs given output gradient
//
// Supported operations:
//   - AddOp: element-wise addition (gradient flows to both inputs unchanged)
//   - ToPaddedDenseOp: densification (backward extracts the jagged support)
//   - DenseToJaggedOp: extraction (backward re-densifies with zero padding)
//   - JaggedDenseAddOp / JaggedDenseAddJaggedOutputOp: mixed addition
//   - JaggedDenseMulOp: mixed multiplication (product-rule backward)
//   - BatchedVecJaggedMulOp: batched dense-vector × jagged-matrix product
package ops

import "github.com/born-ml/jagged/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
// Each operation records its inputs and output during the forward pass,
// and computes input gradients during the backward pass.
//
// Offsets tensors are structural, not differentiable, so they never appear
// in Inputs().
type Operation interface {
	// Backward computes gradients for inputs given the output gradient.
	// Returns a slice of gradients corresponding to each input tensor.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors for this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.RawTensor
}
