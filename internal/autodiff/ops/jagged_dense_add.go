package ops

import "github.com/born-ml/jagged/internal/tensor"

// JaggedDenseAddOp represents jagged + dense addition with dense output.
//
// Forward: output = densify(x) + y, where positions outside the jagged
// support pass y through unchanged.
//
// Backward:
//   - d/dy = 1 everywhere, so grad_y = outputGrad
//   - d/dx = 1 on the jagged support, so grad_x extracts outputGrad
type JaggedDenseAddOp struct {
	xValues *tensor.RawTensor
	offsets []*tensor.RawTensor // structural, not differentiated
	y       *tensor.RawTensor
	output  *tensor.RawTensor // dense
}

// NewJaggedDenseAddOp creates a new JaggedDenseAddOp.
func NewJaggedDenseAddOp(xValues *tensor.RawTensor, offsets []*tensor.RawTensor, y, output *tensor.RawTensor) *JaggedDenseAddOp {
	return &JaggedDenseAddOp{
		xValues: xValues,
		offsets: offsets,
		y:       y,
		output:  output,
	}
}

// Backward computes gradients for [xValues, y].
func (op *JaggedDenseAddOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	gradX, err := backend.DenseToJagged(outputGrad, op.offsets, op.xValues.Shape()[0])
	if err != nil {
		panic(err)
	}
	return []*tensor.RawTensor{gradX, outputGrad}
}

// Inputs returns [xValues, y]. Offsets carry no gradient.
func (op *JaggedDenseAddOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.xValues, op.y}
}

// Output returns the dense sum.
func (op *JaggedDenseAddOp) Output() *tensor.RawTensor {
	return op.output
}

// JaggedDenseAddJaggedOutputOp represents jagged + dense addition scattered
// back into jagged storage.
//
// Forward: output[off] = x[off] + y[pos(off)] where the jagged position has a
// dense counterpart, x[off] alone otherwise.
//
// Backward:
//   - d/dx = 1 everywhere, so grad_x = outputGrad
//   - d/dy = 1 at positions the kernel read, so grad_y densifies outputGrad
//     with zero padding into y's shape
type JaggedDenseAddJaggedOutputOp struct {
	xValues *tensor.RawTensor
	offsets []*tensor.RawTensor // structural, not differentiated
	y       *tensor.RawTensor
	output  *tensor.RawTensor // jagged value rows
}

// NewJaggedDenseAddJaggedOutputOp creates a new JaggedDenseAddJaggedOutputOp.
func NewJaggedDenseAddJaggedOutputOp(xValues *tensor.RawTensor, offsets []*tensor.RawTensor, y, output *tensor.RawTensor) *JaggedDenseAddJaggedOutputOp {
	return &JaggedDenseAddJaggedOutputOp{
		xValues: xValues,
		offsets: offsets,
		y:       y,
		output:  output,
	}
}

// Backward computes gradients for [xValues, y].
func (op *JaggedDenseAddJaggedOutputOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	shape := op.y.Shape()
	maxLengths := make([]int, len(shape)-2)
	copy(maxLengths, shape[1:len(shape)-1])

	gradY, err := backend.ToPaddedDense(outputGrad, op.offsets, maxLengths, 0)
	if err != nil {
		panic(err)
	}
	return []*tensor.RawTensor{outputGrad, gradY}
}

// Inputs returns [xValues, y]. Offsets carry no gradient.
func (op *JaggedDenseAddJaggedOutputOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.xValues, op.y}
}

// Output returns the jagged sum.
func (op *JaggedDenseAddJaggedOutputOp) Output() *tensor.RawTensor {
	return op.output
}
