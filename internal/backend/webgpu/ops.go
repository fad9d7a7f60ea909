//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/born-ml/jagged/internal/tensor"
)

// Add performs element-wise addition on GPU.
// Panics on shape mismatch, matching the CPU backend's contract for the
// gradient-accumulation primitive.
func (b *Backend) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("webgpu: Add supports float32 only, got %s", x.DType()))
	}
	if !x.Shape().Equal(y.Shape()) {
		panic(fmt.Sprintf("webgpu: Add shape mismatch: %v vs %v", x.Shape(), y.Shape()))
	}

	out, err := tensor.NewRaw(x.Shape(), x.DType(), tensor.WebGPU)
	if err != nil {
		panic(err)
	}
	n := x.NumElements()
	if n == 0 {
		return out
	}

	shader := b.compileShader("add", addShader)
	pipeline := b.getOrCreatePipeline("add", shader)

	bufX := b.createBuffer(x.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufX.Release()
	bufY := b.createBuffer(y.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufY.Release()

	resultSize := uint64(out.ByteSize())
	bufOut := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  resultSize,
	})
	defer bufOut.Release()

	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:4], uint32(n))
	bufParams := b.createUniformBuffer(params)
	defer bufParams.Release()

	bindGroup := b.device.CreateBindGroupSimple(pipeline.GetBindGroupLayout(0), []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufX, 0, uint64(x.ByteSize())),
		wgpu.BufferBindingEntry(1, bufY, 0, uint64(y.ByteSize())),
		wgpu.BufferBindingEntry(2, bufOut, 0, resultSize),
		wgpu.BufferBindingEntry(3, bufParams, 0, 16),
	})
	defer bindGroup.Release()

	workgroups := uint32((n + workgroupSize - 1) / workgroupSize)
	b.dispatch(pipeline, bindGroup, workgroups, 1)

	data, err := b.readBuffer(bufOut, resultSize)
	if err != nil {
		panic("webgpu: Add: " + err.Error())
	}
	copy(out.Data(), data)
	return out
}

// dispatch runs one compute pass and submits it.
func (b *Backend) dispatch(pipeline *wgpu.ComputePipeline, bindGroup *wgpu.BindGroup, x, y uint32) {
	encoder := b.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(x, y, 1)
	pass.End()
	b.queue.Submit(encoder.Finish(nil))
}

// jaggedLaunch is one prepared jagged-kernel invocation: validated geometry,
// operand bytes and the combinator to instantiate.
type jaggedLaunch struct {
	template   string
	shape      string
	combinator string
	x, y       []byte // operand buffer contents
	outInit    []byte // initial output contents (zeros or a copy of x)
	offsets    []*tensor.RawTensor
	dims       []int
	outer      int
	inner      int
	padding    float32
	outShape   tensor.Shape
}

// checkJaggedOperands validates the WebGPU-side constraints common to every
// jagged kernel: float32 values, int32 offsets, residency, depth bound.
func (b *Backend) checkJaggedOperands(values *tensor.RawTensor, offsets []*tensor.RawTensor, others ...*tensor.RawTensor) error {
	for _, t := range append([]*tensor.RawTensor{values}, others...) {
		if t.Device() != tensor.WebGPU {
			return fmt.Errorf("%w: tensor on %s, backend wants WebGPU", tensor.ErrDeviceResidency, t.Device())
		}
		if t.DType() != tensor.Float32 {
			return fmt.Errorf("%w: WebGPU backend supports float32 only, got %s", tensor.ErrShapeMismatch, t.DType())
		}
	}
	if len(offsets) == 0 || len(offsets) > 5 {
		return fmt.Errorf("%w: jagged depth must be 1..5, got %d", tensor.ErrShapeMismatch, len(offsets))
	}
	for d, off := range offsets {
		if off.Device() != tensor.WebGPU {
			return fmt.Errorf("%w: offsets[%d] on %s, backend wants WebGPU", tensor.ErrDeviceResidency, d, off.Device())
		}
		if off.DType() != tensor.Int32 {
			return fmt.Errorf("%w: WebGPU backend supports int32 offsets only, got %s", tensor.ErrShapeMismatch, off.DType())
		}
	}
	return nil
}

// runJaggedKernel uploads the operands, instantiates the shader for the
// launch's combinator, dispatches over the outer × folded row space and
// reads the result back.
func (b *Backend) runJaggedKernel(l jaggedLaunch) (*tensor.RawTensor, error) {
	out, err := tensor.NewRaw(l.outShape, tensor.Float32, tensor.WebGPU)
	if err != nil {
		return nil, err
	}
	copy(out.Data(), l.outInit)

	folded := 1
	for _, d := range l.dims {
		folded *= d
	}
	rows := l.outer * folded
	if rows == 0 || l.inner == 0 || len(l.x) == 0 || len(l.y) == 0 {
		return out, nil
	}

	name, code := jaggedShader(l.template, l.shape, l.combinator)
	shader := b.compileShader(name, code)
	pipeline := b.getOrCreatePipeline(name, shader)

	// Concatenate per-depth offsets; meta carries the dense extents then
	// each depth's start position in the concatenated buffer.
	depth := len(l.offsets)
	meta := make([]byte, 0, 8*depth)
	var flat []byte
	pos := 0
	for _, d := range l.dims {
		meta = binary.LittleEndian.AppendUint32(meta, uint32(d))
	}
	for _, off := range l.offsets {
		meta = binary.LittleEndian.AppendUint32(meta, uint32(pos))
		flat = append(flat, off.Data()...)
		pos += off.NumElements()
	}

	bufX := b.createBuffer(l.x, wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufX.Release()
	bufY := b.createBuffer(l.y, wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufY.Release()
	bufOffsets := b.createBuffer(flat, wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufOffsets.Release()
	bufMeta := b.createBuffer(meta, wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufMeta.Release()

	resultSize := uint64(out.ByteSize())
	bufOut := b.createBuffer(out.Data(), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc|wgpu.BufferUsageCopyDst)
	defer bufOut.Release()

	params := make([]byte, 32)
	binary.LittleEndian.PutUint32(params[0:4], uint32(l.outer))
	binary.LittleEndian.PutUint32(params[4:8], uint32(folded))
	binary.LittleEndian.PutUint32(params[8:12], uint32(l.inner))
	binary.LittleEndian.PutUint32(params[12:16], uint32(depth))
	binary.LittleEndian.PutUint32(params[16:20], math.Float32bits(l.padding))
	bufParams := b.createUniformBuffer(params)
	defer bufParams.Release()

	bindGroup := b.device.CreateBindGroupSimple(pipeline.GetBindGroupLayout(0), []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufX, 0, uint64(len(l.x))),
		wgpu.BufferBindingEntry(1, bufY, 0, uint64(len(l.y))),
		wgpu.BufferBindingEntry(2, bufOffsets, 0, uint64(len(flat))),
		wgpu.BufferBindingEntry(3, bufMeta, 0, uint64(len(meta))),
		wgpu.BufferBindingEntry(4, bufOut, 0, resultSize),
		wgpu.BufferBindingEntry(5, bufParams, 0, 32),
	})
	defer bindGroup.Release()

	workgroupsX := uint32((l.inner + jaggedWorkgroupX - 1) / jaggedWorkgroupX)
	workgroupsY := uint32((rows + jaggedWorkgroupY - 1) / jaggedWorkgroupY)
	b.dispatch(pipeline, bindGroup, workgroupsX, workgroupsY)

	data, err := b.readBuffer(bufOut, resultSize)
	if err != nil {
		return nil, err
	}
	copy(out.Data(), data)
	return out, nil
}

// ToPaddedDense densifies a jagged tensor on GPU.
func (b *Backend) ToPaddedDense(values *tensor.RawTensor, offsets []*tensor.RawTensor, maxLengths []int, padding float64) (*tensor.RawTensor, error) {
	if err := b.checkJaggedOperands(values, offsets); err != nil {
		return nil, err
	}
	if len(maxLengths) != len(offsets) {
		return nil, fmt.Errorf("%w: %d max lengths for depth %d", tensor.ErrShapeMismatch, len(maxLengths), len(offsets))
	}
	outer := offsets[0].NumElements() - 1
	inner := values.Shape()[1]
	outShape := append(tensor.Shape{outer}, maxLengths...)
	outShape = append(outShape, inner)

	init := tensor.Full(outShape, tensor.Float32, tensor.WebGPU, padding)
	return b.runJaggedKernel(jaggedLaunch{
		template:   jaggedDenseOutputShaderTemplate,
		shape:      "jagged_dense_out",
		combinator: "select_left",
		x:          values.Data(),
		y:          init.Data(), // unused by select_left, same extent as out
		outInit:    init.Data(),
		offsets:    offsets,
		dims:       maxLengths,
		outer:      outer,
		inner:      inner,
		padding:    float32(padding),
		outShape:   outShape,
	})
}

// DenseToJagged extracts the jagged support of a dense tensor on GPU.
func (b *Backend) DenseToJagged(dense *tensor.RawTensor, offsets []*tensor.RawTensor, totalLength int) (*tensor.RawTensor, error) {
	if err := b.checkJaggedOperands(dense, offsets); err != nil {
		return nil, err
	}
	shape := dense.Shape()
	if len(shape) != len(offsets)+2 {
		return nil, fmt.Errorf("%w: dense rank %d for depth %d", tensor.ErrShapeMismatch, len(shape), len(offsets))
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
	inner := shape[len(shape)-1]
	zeros := tensor.Zeros(tensor.Shape{totalLength, inner}, tensor.Float32, tensor.WebGPU)

	return b.runJaggedKernel(jaggedLaunch{
		template:   jaggedJaggedOutputShaderTemplate,
		shape:      "jagged_jagged_out",
		combinator: "select_right",
		x:          zeros.Data(),
		y:          dense.Data(),
		outInit:    zeros.Data(),
		offsets:    offsets,
		dims:       shape[1 : len(shape)-1],
		outer:      shape[0],
		inner:      inner,
		outShape:   tensor.Shape{totalLength, inner},
	})
}

// JaggedDenseAdd computes x + y with dense output on GPU.
func (b *Backend) JaggedDenseAdd(xValues *tensor.RawTensor, offsets []*tensor.RawTensor, y *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := b.checkJaggedOperands(xValues, offsets, y); err != nil {
		return nil, err
	}
	shape := y.Shape()
	return b.runJaggedKernel(jaggedLaunch{
		template:   jaggedDenseOutputShaderTemplate,
		shape:      "jagged_dense_out",
		combinator: "add",
		x:          xValues.Data(),
		y:          y.Data(),
		outInit:    make([]byte, y.ByteSize()),
		offsets:    offsets,
		dims:       shape[1 : len(shape)-1],
		outer:      shape[0],
		inner:      shape[len(shape)-1],
		outShape:   shape.Clone(),
	})
}

// JaggedDenseAddJaggedOutput computes x + y scattered into jagged storage on
// GPU. The output starts as a copy of x so positions without a dense
// counterpart keep their x value.
func (b *Backend) JaggedDenseAddJaggedOutput(xValues *tensor.RawTensor, offsets []*tensor.RawTensor, y *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := b.checkJaggedOperands(xValues, offsets, y); err != nil {
		return nil, err
	}
	shape := y.Shape()
	return b.runJaggedKernel(jaggedLaunch{
		template:   jaggedJaggedOutputShaderTemplate,
		shape:      "jagged_jagged_out",
		combinator: "add",
		x:          xValues.Data(),
		y:          y.Data(),
		outInit:    xValues.Data(),
		offsets:    offsets,
		dims:       shape[1 : len(shape)-1],
		outer:      shape[0],
		inner:      shape[len(shape)-1],
		outShape:   xValues.Shape().Clone(),
	})
}

// JaggedDenseMul computes x * y with jagged output on GPU.
func (b *Backend) JaggedDenseMul(xValues *tensor.RawTensor, offsets []*tensor.RawTensor, y *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := b.checkJaggedOperands(xValues, offsets, y); err != nil {
		return nil, err
	}
	shape := y.Shape()
	return b.runJaggedKernel(jaggedLaunch{
		template:   jaggedJaggedOutputShaderTemplate,
		shape:      "jagged_jagged_out",
		combinator: "mul",
		x:          xValues.Data(),
		y:          y.Data(),
		outInit:    make([]byte, xValues.ByteSize()),
		offsets:    offsets,
		dims:       shape[1 : len(shape)-1],
		outer:      shape[0],
		inner:      shape[len(shape)-1],
		outShape:   xValues.Shape().Clone(),
	})
}

// JaggedMulJaggedToDense multiplies two jagged operands sharing the same
// offsets into a dense result on GPU.
func (b *Backend) JaggedMulJaggedToDense(x, y *tensor.RawTensor, offsets []*tensor.RawTensor, denseShape tensor.Shape) (*tensor.RawTensor, error) {
	if err := b.checkJaggedOperands(x, offsets, y); err != nil {
		return nil, err
	}
	if !x.Shape().Equal(y.Shape()) {
		return nil, fmt.Errorf("%w: jagged operands %v vs %v", tensor.ErrShapeMismatch, x.Shape(), y.Shape())
	}
	return b.runJaggedKernel(jaggedLaunch{
		template:   jaggedJaggedDenseShaderTemplate,
		shape:      "jagged_jagged_dense",
		combinator: "mul",
		x:          x.Data(),
		y:          y.Data(),
		outInit:    make([]byte, denseShape.NumElements()*4),
		offsets:    offsets,
		dims:       denseShape[1 : len(denseShape)-1],
		outer:      denseShape[0],
		inner:      denseShape[len(denseShape)-1],
		outShape:   denseShape.Clone(),
	})
}
