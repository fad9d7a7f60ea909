package cpu

import (
	"fmt"

	"github.com/born-ml/jagged/internal/tensor"
)

// checkResidency verifies every input tensor lives on this backend's device.
func (cpu *CPUBackend) checkResidency(ts ...*tensor.RawTensor) error {
	for _, t := range ts {
		if t.Device() != cpu.device {
			return fmt.Errorf("%w: got %s, want %s", tensor.ErrDeviceResidency, t.Device(), cpu.device)
		}
	}
	return nil
}

// checkJaggedDenseOperands runs the host-side validation shared by the
// elementwise operator family. It must pass before any kernel is launched.
func (cpu *CPUBackend) checkJaggedDenseOperands(values *tensor.RawTensor, offsets []*tensor.RawTensor, dense *tensor.RawTensor) error {
	if _, err := tensor.NewJagged(values, offsets); err != nil {
		return err
	}
	if err := cpu.checkResidency(append([]*tensor.RawTensor{values, dense}, offsets...)...); err != nil {
		return err
	}
	if dense.DType() != values.DType() {
		return fmt.Errorf("%w: jagged dtype %s vs dense dtype %s (mixed precision not supported)",
			tensor.ErrShapeMismatch, values.DType(), dense.DType())
	}
	return nil
}

// ToPaddedDense densifies a jagged tensor into [outer, maxLengths..., inner].
// Positions with no jagged element receive the padding value.
func (cpu *CPUBackend) ToPaddedDense(values *tensor.RawTensor, offsets []*tensor.RawTensor, maxLengths []int, padding float64) (*tensor.RawTensor, error) {
	if len(maxLengths) != len(offsets) {
		return nil, fmt.Errorf("%w: %d max lengths for %d offset sequences",
			tensor.ErrShapeMismatch, len(maxLengths), len(offsets))
	}

	outShape := make(tensor.Shape, 0, len(offsets)+2)
	outShape = append(outShape, offsets[0].NumElements()-1)
	outShape = append(outShape, maxLengths...)
	outShape = append(outShape, values.Shape()[1])
	out, err := tensor.NewRaw(outShape, values.DType(), cpu.device)
	if err != nil {
		return nil, err
	}

	if err := cpu.checkJaggedDenseOperands(values, offsets, out); err != nil {
		return nil, err
	}
	plan, err := planJaggedDense(values, offsets, out)
	if err != nil {
		return nil, err
	}
	if plan.rows() == 0 || plan.innerDim == 0 {
		return out, nil
	}

	// The dense operand slot is unused by selectLeft; the output stands in.
	switch values.DType() {
	case tensor.Float32:
		launchDenseOutput[float32](cpu, plan, values, offsets, out, out, float32(padding), selectLeft[float32])
	case tensor.Float64:
		launchDenseOutput[float64](cpu, plan, values, offsets, out, out, padding, selectLeft[float64])
	}
	return out, nil
}

// DenseToJagged extracts the jagged support of a dense tensor into a freshly
// allocated value buffer. totalLength < 0 derives the row count from the
// final entry of the last offsets array; an explicit totalLength must cover
// that support (the buffer may be longer, trailing rows stay zero).
func (cpu *CPUBackend) DenseToJagged(dense *tensor.RawTensor, offsets []*tensor.RawTensor, totalLength int) (*tensor.RawTensor, error) {
	if len(offsets) == 0 || len(dense.Shape()) != len(offsets)+2 {
		return nil, fmt.Errorf("%w: dense rank %d does not match %d offset sequences",
			tensor.ErrShapeMismatch, len(dense.Shape()), len(offsets))
	}
	last := offsets[len(offsets)-1]
	if last.NumElements() < 1 {
		return nil, fmt.Errorf("%w: offsets[%d] must be non-empty", tensor.ErrShapeMismatch, len(offsets)-1)
	}
	support := int(tensor.OffsetAt(last, last.NumElements()-1))
	if totalLength < 0 {
		totalLength = support
	} else if totalLength < support {
		return nil, fmt.Errorf("%w: total length %d cannot hold the %d rows the offsets address",
			tensor.ErrShapeMismatch, totalLength, support)
	}

	inner := dense.Shape()[len(dense.Shape())-1]
	out, err := tensor.NewRaw(tensor.Shape{totalLength, inner}, dense.DType(), cpu.device)
	if err != nil {
		return nil, err
	}

	if err := cpu.checkJaggedDenseOperands(out, offsets, dense); err != nil {
		return nil, err
	}
	plan, err := planJaggedDense(out, offsets, dense)
	if err != nil {
		return nil, err
	}
	if plan.rows() == 0 || plan.innerDim == 0 || totalLength == 0 {
		return out, nil
	}

	switch dense.DType() {
	case tensor.Float32:
		launchJaggedOutput[float32](cpu, plan, out, offsets, dense, out, selectRight[float32])
	case tensor.Float64:
		launchJaggedOutput[float64](cpu, plan, out, offsets, dense, out, selectRight[float64])
	}
	return out, nil
}

// JaggedDenseAdd computes x + y with dense output. Masked positions carry y
// through unchanged (the jagged side contributes zero there).
func (cpu *CPUBackend) JaggedDenseAdd(xValues *tensor.RawTensor, offsets []*tensor.RawTensor, y *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := cpu.checkJaggedDenseOperands(xValues, offsets, y); err != nil {
		return nil, err
	}
	plan, err := planJaggedDense(xValues, offsets, y)
	if err != nil {
		return nil, err
	}

	out, err := tensor.NewRaw(y.Shape(), y.DType(), cpu.device)
	if err != nil {
		return nil, err
	}
	if plan.rows() == 0 || plan.innerDim == 0 {
		return out, nil
	}

	switch y.DType() {
	case tensor.Float32:
		launchDenseOutput[float32](cpu, plan, xValues, offsets, y, out, 0, addOp[float32])
	case tensor.Float64:
		launchDenseOutput[float64](cpu, plan, xValues, offsets, y, out, 0, addOp[float64])
	}
	return out, nil
}

// JaggedDenseAddJaggedOutput computes x + y scattered back into jagged
// storage. The output starts as a copy of x, so jagged positions the dense
// side cannot address still yield x.
func (cpu *CPUBackend) JaggedDenseAddJaggedOutput(xValues *tensor.RawTensor, offsets []*tensor.RawTensor, y *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := cpu.checkJaggedDenseOperands(xValues, offsets, y); err != nil {
		return nil, err
	}
	plan, err := planJaggedDense(xValues, offsets, y)
	if err != nil {
		return nil, err
	}

	out := xValues.DeepClone()
	if plan.rows() == 0 || plan.innerDim == 0 {
		return out, nil
	}

	switch y.DType() {
	case tensor.Float32:
		launchJaggedOutput[float32](cpu, plan, xValues, offsets, y, out, addOp[float32])
	case tensor.Float64:
		launchJaggedOutput[float64](cpu, plan, xValues, offsets, y, out, addOp[float64])
	}
	return out, nil
}

// JaggedDenseMul computes x * y with jagged output, zero-initialized.
func (cpu *CPUBackend) JaggedDenseMul(xValues *tensor.RawTensor, offsets []*tensor.RawTensor, y *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := cpu.checkJaggedDenseOperands(xValues, offsets, y); err != nil {
		return nil, err
	}
	plan, err := planJaggedDense(xValues, offsets, y)
	if err != nil {
		return nil, err
	}

	out, err := tensor.NewRaw(xValues.Shape(), xValues.DType(), cpu.device)
	if err != nil {
		return nil, err
	}
	if plan.rows() == 0 || plan.innerDim == 0 {
		return out, nil
	}

	switch y.DType() {
	case tensor.Float32:
		launchJaggedOutput[float32](cpu, plan, xValues, offsets, y, out, mulOp[float32])
	case tensor.Float64:
		launchJaggedOutput[float64](cpu, plan, xValues, offsets, y, out, mulOp[float64])
	}
	return out, nil
}

// JaggedMulJaggedToDense multiplies two jagged operands sharing one set of
// offsets and densifies the product into denseShape. Masked positions are
// zero.
func (cpu *CPUBackend) JaggedMulJaggedToDense(x, y *tensor.RawTensor, offsets []*tensor.RawTensor, denseShape tensor.Shape) (*tensor.RawTensor, error) {
	if !x.Shape().Equal(y.Shape()) {
		return nil, fmt.Errorf("%w: jagged operands must share a shape, got %v vs %v",
			tensor.ErrShapeMismatch, x.Shape(), y.Shape())
	}
	out, err := tensor.NewRaw(denseShape, x.DType(), cpu.device)
	if err != nil {
		return nil, err
	}
	if err := cpu.checkJaggedDenseOperands(x, offsets, out); err != nil {
		return nil, err
	}
	if err := cpu.checkResidency(y); err != nil {
		return nil, err
	}
	plan, err := planJaggedDense(x, offsets, out)
	if err != nil {
		return nil, err
	}
	if plan.rows() == 0 || plan.innerDim == 0 {
		return out, nil
	}

	switch x.DType() {
	case tensor.Float32:
		launchJaggedJaggedDenseOutput[float32](cpu, plan, x, y, offsets, out, 0, mulOp[float32])
	case tensor.Float64:
		launchJaggedJaggedDenseOutput[float64](cpu, plan, x, y, offsets, out, 0, mulOp[float64])
	}
	return out, nil
}
