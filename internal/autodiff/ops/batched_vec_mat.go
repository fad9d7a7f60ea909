package ops

import "github.com/born-ml/jagged/internal/tensor"

// BatchedVecJaggedMulOp represents a batched dense-vector × jagged-matrix
// product: out[b, h, :] = Σ_l v[b, h, l] * a[off_b+l, h, :].
//
// Backward:
//   - grad_v dots outputGrad against the jagged matrix rows across the head
//     dimension (a transposed reduction)
//   - grad_a scatters the outer product of v and outputGrad into each
//     segment's rows
type BatchedVecJaggedMulOp struct {
	v        *tensor.RawTensor
	aValues  *tensor.RawTensor
	aOffsets *tensor.RawTensor // structural, not differentiated
	output   *tensor.RawTensor
}

// NewBatchedVecJaggedMulOp creates a new BatchedVecJaggedMulOp.
func NewBatchedVecJaggedMulOp(v, aValues, aOffsets, output *tensor.RawTensor) *BatchedVecJaggedMulOp {
	return &BatchedVecJaggedMulOp{
		v:        v,
		aValues:  aValues,
		aOffsets: aOffsets,
		output:   output,
	}
}

// Backward computes gradients for [v, aValues].
func (op *BatchedVecJaggedMulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	numHeads := 1
	if b := op.aOffsets.NumElements() - 1; b > 0 {
		numHeads = op.v.Shape()[0] / b
	}

	gradV, err := backend.BatchedDenseVecJagged2DMulVBackward(outputGrad, op.aValues, op.aOffsets, numHeads, op.v.Shape()[1])
	if err != nil {
		panic(err)
	}
	gradA, err := backend.BatchedDenseVecJagged2DMulMatBackward(outputGrad, op.v, op.aOffsets, op.aValues.Shape()[0])
	if err != nil {
		panic(err)
	}
	return []*tensor.RawTensor{gradV, gradA}
}

// Inputs returns [v, aValues]. Offsets carry no gradient.
func (op *BatchedVecJaggedMulOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.v, op.aValues}
}

// Output returns the batched product [B, H*D].
func (op *BatchedVecJaggedMulOp) Output() *tensor.RawTensor {
	return op.output
}
