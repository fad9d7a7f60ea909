package ops

import "github.com/born-ml/jagged/internal/tensor"

// JaggedDenseMulOp represents jagged × dense multiplication with jagged
// output.
//
// Forward: output[off] = x[off] * y[pos(off)].
//
// Backward (product rule):
//   - grad_x = outputGrad * y, another jagged × dense product
//   - grad_y = densify(outputGrad * x) with zero padding: dense positions
//     outside the jagged support never contributed, so their gradient is zero
type JaggedDenseMulOp struct {
	xValues *tensor.RawTensor
	offsets []*tensor.RawTensor // structural, not differentiated
	y       *tensor.RawTensor
	output  *tensor.RawTensor // jagged value rows
}

// NewJaggedDenseMulOp creates a new JaggedDenseMulOp.
func NewJaggedDenseMulOp(xValues *tensor.RawTensor, offsets []*tensor.RawTensor, y, output *tensor.RawTensor) *JaggedDenseMulOp {
	return &JaggedDenseMulOp{
		xValues: xValues,
		offsets: offsets,
		y:       y,
		output:  output,
	}
}

// Backward computes gradients for [xValues, y].
func (op *JaggedDenseMulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	gradX, err := backend.JaggedDenseMul(outputGrad, op.offsets, op.y)
	if err != nil {
		panic(err)
	}
	gradY, err := backend.JaggedMulJaggedToDense(outputGrad, op.xValues, op.offsets, op.y.Shape())
	if err != nil {
		panic(err)
	}
	return []*tensor.RawTensor{gradX, gradY}
}

// Inputs returns [xValues, y]. Offsets carry no gradient.
func (op *JaggedDenseMulOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.xValues, op.y}
}

// Output returns the jagged product.
func (op *JaggedDenseMulOp) Output() *tensor.RawTensor {
	return op.output
}
