package ops

import "github.com/born-ml/jagged/internal/tensor"

// ToPaddedDenseOp represents a jagged-to-dense densification.
//
// Forward: output[outer, coords..., :] = values[resolve(coords), :] where the
// coordinate lies inside its segment, padding elsewhere.
//
// Backward: every value row appears at exactly one dense position, so the
// gradient is the jagged extraction of outputGrad with the same offsets.
// Gradient at padded positions is discarded; the padding constant receives
// no gradient.
type ToPaddedDenseOp struct {
	values  *tensor.RawTensor   // jagged value rows [total, inner]
	offsets []*tensor.RawTensor // structural, not differentiated
	output  *tensor.RawTensor   // dense [outer, maxLengths..., inner]
}

// NewToPaddedDenseOp creates a new ToPaddedDenseOp.
func NewToPaddedDenseOp(values *tensor.RawTensor, offsets []*tensor.RawTensor, output *tensor.RawTensor) *ToPaddedDenseOp {
	return &ToPaddedDenseOp{
		values:  values,
		offsets: offsets,
		output:  output,
	}
}

// Backward extracts the jagged support of the output gradient.
func (op *ToPaddedDenseOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	gradValues, err := backend.DenseToJagged(outputGrad, op.offsets, op.values.Shape()[0])
	if err != nil {
		panic(err)
	}
	return []*tensor.RawTensor{gradValues}
}

// Inputs returns the value rows. Offsets carry no gradient.
func (op *ToPaddedDenseOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.values}
}

// Output returns the dense output tensor.
func (op *ToPaddedDenseOp) Output() *tensor.RawTensor {
	return op.output
}
