package cpu

import (
	"github.com/born-ml/jagged/internal/parallel"
	"github.com/born-ml/jagged/internal/tensor"
)

// Combinators for the generic elementwise kernels. Each kernel is
// monomorphized over the element type and takes the combinator as a plain
// func value, so trivial ops like add and select inline into the kernel body.

func selectLeft[T tensor.Float](x, _ T) T  { return x }
func selectRight[T tensor.Float](_, y T) T { return y }
func addOp[T tensor.Float](x, y T) T       { return x + y }
func mulOp[T tensor.Float](x, y T) T       { return x * y }

// forEachRow distributes the outer × folded iteration space across the grid,
// with blockY rows per block, and hands each (row, outer, jaggedFlat) triple
// to body. This is the one scheduling loop shared by all elementwise kernel
// shapes.
func forEachRow(plan launchPlan, cfg parallel.Config, body func(row, outer, jaggedFlat int)) {
	rows := plan.rows()
	parallel.For(plan.grid, func(block int) {
		base := block * plan.blockY
		for ty := 0; ty < plan.blockY; ty++ {
			row := base + ty
			if row >= rows {
				return
			}
			body(row, row/plan.foldedSize, row%plan.foldedSize)
		}
	}, cfg)
}

// jaggedDenseDenseOutputKernel computes out[row] = f(x?, y[row]) per channel,
// with the jagged operand resolved through the tree walk. Masked positions
// combine the padding value instead of a jagged element, so densification
// (f = selectLeft) writes padding there.
func jaggedDenseDenseOutputKernel[T tensor.Float, I tensor.OffsetInt](
	depth int, plan launchPlan, x []T, offsets [][]I, y, out []T, padding T, f func(T, T) T, cfg parallel.Config,
) {
	inner := plan.innerDim
	forEachRow(plan, cfg, func(row, outer, jaggedFlat int) {
		offset, masked := resolveJaggedCoord(depth, outer, jaggedFlat, plan.jaggedDims, offsets)
		base := row * inner
		if masked {
			for c := 0; c < inner; c++ {
				out[base+c] = f(padding, y[base+c])
			}
			return
		}
		vbase := offset * inner
		for c := 0; c < inner; c++ {
			out[base+c] = f(x[vbase+c], y[base+c])
		}
	})
}

// jaggedDenseJaggedOutputKernel computes out[offset] = f(x[offset], y[row])
// per channel, scattering results back into jagged storage at the resolved
// physical offset. Masked positions write nothing: the output keeps its
// caller-supplied initial value there.
func jaggedDenseJaggedOutputKernel[T tensor.Float, I tensor.OffsetInt](
	depth int, plan launchPlan, x []T, offsets [][]I, y, out []T, f func(T, T) T, cfg parallel.Config,
) {
	inner := plan.innerDim
	forEachRow(plan, cfg, func(row, outer, jaggedFlat int) {
		offset, masked := resolveJaggedCoord(depth, outer, jaggedFlat, plan.jaggedDims, offsets)
		if masked {
			return
		}
		base := row * inner
		vbase := offset * inner
		for c := 0; c < inner; c++ {
			out[vbase+c] = f(x[vbase+c], y[base+c])
		}
	})
}

// jaggedJaggedDenseOutputKernel combines two jagged operands that share one
// set of offsets (and therefore one physical offset per position) into a
// dense output. Masked positions receive the padding value.
func jaggedJaggedDenseOutputKernel[T tensor.Float, I tensor.OffsetInt](
	depth int, plan launchPlan, x, y []T, offsets [][]I, out []T, padding T, f func(T, T) T, cfg parallel.Config,
) {
	inner := plan.innerDim
	forEachRow(plan, cfg, func(row, outer, jaggedFlat int) {
		offset, masked := resolveJaggedCoord(depth, outer, jaggedFlat, plan.jaggedDims, offsets)
		base := row * inner
		if masked {
			for c := 0; c < inner; c++ {
				out[base+c] = padding
			}
			return
		}
		vbase := offset * inner
		for c := 0; c < inner; c++ {
			out[base+c] = f(x[vbase+c], y[vbase+c])
		}
	})
}

// The launch helpers below are the closed dispatch over the depth
// enumeration and the offset index widths; operator methods dispatch over
// the value type and hand a monomorphized combinator down.

func launchDenseOutput[T tensor.Float](
	cpu *CPUBackend, plan launchPlan, values *tensor.RawTensor, offsets []*tensor.RawTensor,
	dense, out *tensor.RawTensor, padding T, f func(T, T) T,
) {
	x := tensor.Data[T](values)
	y := tensor.Data[T](dense)
	o := tensor.Data[T](out)
	dispatchDepth(len(offsets), func(depth int) {
		switch offsets[0].DType() {
		case tensor.Int32:
			jaggedDenseDenseOutputKernel(depth, plan, x, offsetsAsSlices[int32](offsets), y, o, padding, f, cpu.cfg)
		case tensor.Int64:
			jaggedDenseDenseOutputKernel(depth, plan, x, offsetsAsSlices[int64](offsets), y, o, padding, f, cpu.cfg)
		}
	})
}

func launchJaggedOutput[T tensor.Float](
	cpu *CPUBackend, plan launchPlan, values *tensor.RawTensor, offsets []*tensor.RawTensor,
	dense, out *tensor.RawTensor, f func(T, T) T,
) {
	x := tensor.Data[T](values)
	y := tensor.Data[T](dense)
	o := tensor.Data[T](out)
	dispatchDepth(len(offsets), func(depth int) {
		switch offsets[0].DType() {
		case tensor.Int32:
			jaggedDenseJaggedOutputKernel(depth, plan, x, offsetsAsSlices[int32](offsets), y, o, f, cpu.cfg)
		case tensor.Int64:
			jaggedDenseJaggedOutputKernel(depth, plan, x, offsetsAsSlices[int64](offsets), y, o, f, cpu.cfg)
		}
	})
}

func launchJaggedJaggedDenseOutput[T tensor.Float](
	cpu *CPUBackend, plan launchPlan, xValues, yValues *tensor.RawTensor, offsets []*tensor.RawTensor,
	out *tensor.RawTensor, padding T, f func(T, T) T,
) {
	x := tensor.Data[T](xValues)
	y := tensor.Data[T](yValues)
	o := tensor.Data[T](out)
	dispatchDepth(len(offsets), func(depth int) {
		switch offsets[0].DType() {
		case tensor.Int32:
			jaggedJaggedDenseOutputKernel(depth, plan, x, y, offsetsAsSlices[int32](offsets), o, padding, f, cpu.cfg)
		case tensor.Int64:
			jaggedJaggedDenseOutputKernel(depth, plan, x, y, offsetsAsSlices[int64](offsets), o, padding, f, cpu.cfg)
		}
	})
}
