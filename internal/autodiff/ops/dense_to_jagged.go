package ops

import "github.com/born-ml/jagged/internal/tensor"

// DenseToJaggedOp represents a dense-to-jagged extraction.
//
// Forward: output[resolve(coords), :] = dense[outer, coords..., :] for every
// in-bounds coordinate.
//
// Backward: the extracted gradient scatters back to the positions it was read
// from, and dense positions outside the jagged support receive zero. That is
// exactly a densification of outputGrad with zero padding.
type DenseToJaggedOp struct {
	dense   *tensor.RawTensor
	offsets []*tensor.RawTensor // structural, not differentiated
	output  *tensor.RawTensor   // jagged value rows
}

// NewDenseToJaggedOp creates a new DenseToJaggedOp.
func NewDenseToJaggedOp(dense *tensor.RawTensor, offsets []*tensor.RawTensor, output *tensor.RawTensor) *DenseToJaggedOp {
	return &DenseToJaggedOp{
		dense:   dense,
		offsets: offsets,
		output:  output,
	}
}

// Backward densifies the output gradient with zero padding into the dense
// operand's shape.
func (op *DenseToJaggedOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	shape := op.dense.Shape()
	maxLengths := make([]int, len(shape)-2)
	copy(maxLengths, shape[1:len(shape)-1])

	gradDense, err := backend.ToPaddedDense(outputGrad, op.offsets, maxLengths, 0)
	if err != nil {
		panic(err)
	}
	return []*tensor.RawTensor{gradDense}
}

// Inputs returns the dense operand. Offsets carry no gradient.
func (op *DenseToJaggedOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.dense}
}

// Output returns the jagged value rows.
func (op *DenseToJaggedOp) Output() *tensor.RawTensor {
	return op.output
}
