//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/born-ml/jagged/internal/tensor"
)

// bvjGeometry carries the validated batched-product dimensions.
type bvjGeometry struct {
	batch, heads, dim, maxL int
}

func (b *Backend) checkBVJ(v, aValues, aOffsets *tensor.RawTensor) (bvjGeometry, error) {
	for _, t := range []*tensor.RawTensor{v, aValues} {
		if t.Device() != tensor.WebGPU {
			return bvjGeometry{}, fmt.Errorf("%w: tensor on %s, backend wants WebGPU", tensor.ErrDeviceResidency, t.Device())
		}
		if t.DType() != tensor.Float32 {
			return bvjGeometry{}, fmt.Errorf("%w: WebGPU backend supports float32 only, got %s", tensor.ErrShapeMismatch, t.DType())
		}
	}
	if aOffsets.DType() != tensor.Int32 {
		return bvjGeometry{}, fmt.Errorf("%w: WebGPU backend supports int32 offsets only, got %s", tensor.ErrShapeMismatch, aOffsets.DType())
	}
	if len(v.Shape()) != 2 || len(aValues.Shape()) != 2 {
		return bvjGeometry{}, fmt.Errorf("%w: want v [B*H, maxL] and values [L, H*D], got %v, %v",
			tensor.ErrShapeMismatch, v.Shape(), aValues.Shape())
	}

	batch := aOffsets.NumElements() - 1
	hd := aValues.Shape()[1]
	if batch == 0 {
		return bvjGeometry{batch: 0, heads: 1, dim: hd, maxL: v.Shape()[1]}, nil
	}
	if v.Shape()[0]%batch != 0 {
		return bvjGeometry{}, fmt.Errorf("%w: v outer size %d not divisible by batch size %d",
			tensor.ErrShapeMismatch, v.Shape()[0], batch)
	}
	heads := v.Shape()[0] / batch
	if heads == 0 || hd%heads != 0 {
		return bvjGeometry{}, fmt.Errorf("%w: values inner dim %d not divisible by %d heads", tensor.ErrShapeMismatch, hd, heads)
	}
	return bvjGeometry{batch: batch, heads: heads, dim: hd / heads, maxL: v.Shape()[1]}, nil
}

// runBVJ dispatches one of the batched-product shaders over totalThreads
// output elements.
func (b *Backend) runBVJ(name, code string, g bvjGeometry, left, right, offsets []byte, outShape tensor.Shape, totalThreads int) (*tensor.RawTensor, error) {
	out, err := tensor.NewRaw(outShape, tensor.Float32, tensor.WebGPU)
	if err != nil {
		return nil, err
	}
	if totalThreads == 0 || out.NumElements() == 0 || len(left) == 0 || len(right) == 0 {
		return out, nil
	}

	shader := b.compileShader(name, code)
	pipeline := b.getOrCreatePipeline(name, shader)

	bufLeft := b.createBuffer(left, wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufLeft.Release()
	bufRight := b.createBuffer(right, wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufRight.Release()
	bufOffsets := b.createBuffer(offsets, wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	defer bufOffsets.Release()

	resultSize := uint64(out.ByteSize())
	bufOut := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  resultSize,
	})
	defer bufOut.Release()

	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params[0:4], uint32(g.batch))
	binary.LittleEndian.PutUint32(params[4:8], uint32(g.heads))
	binary.LittleEndian.PutUint32(params[8:12], uint32(g.dim))
	binary.LittleEndian.PutUint32(params[12:16], uint32(g.maxL))
	bufParams := b.createUniformBuffer(params)
	defer bufParams.Release()

	bindGroup := b.device.CreateBindGroupSimple(pipeline.GetBindGroupLayout(0), []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufLeft, 0, uint64(len(left))),
		wgpu.BufferBindingEntry(1, bufRight, 0, uint64(len(right))),
		wgpu.BufferBindingEntry(2, bufOffsets, 0, uint64(len(offsets))),
		wgpu.BufferBindingEntry(3, bufOut, 0, resultSize),
		wgpu.BufferBindingEntry(4, bufParams, 0, 16),
	})
	defer bindGroup.Release()

	workgroups := uint32((totalThreads + workgroupSize - 1) / workgroupSize)
	b.dispatch(pipeline, bindGroup, workgroups, 1)

	data, err := b.readBuffer(bufOut, resultSize)
	if err != nil {
		return nil, err
	}
	copy(out.Data(), data)
	return out, nil
}

// BatchedDenseVecJagged2DMul computes the batched dense-vector ×
// jagged-matrix product on GPU.
func (b *Backend) BatchedDenseVecJagged2DMul(v, aValues, aOffsets *tensor.RawTensor) (*tensor.RawTensor, error) {
	g, err := b.checkBVJ(v, aValues, aOffsets)
	if err != nil {
		return nil, err
	}
	hd := g.heads * g.dim
	return b.runBVJ("bvj_forward", bvjForwardShader, g,
		v.Data(), aValues.Data(), aOffsets.Data(),
		tensor.Shape{g.batch, hd}, g.batch*hd)
}

// BatchedDenseVecJagged2DMulVBackward computes the vector gradient of the
// batched product on GPU.
func (b *Backend) BatchedDenseVecJagged2DMulVBackward(grad, aValues, aOffsets *tensor.RawTensor, numHeads, maxL int) (*tensor.RawTensor, error) {
	batch := aOffsets.NumElements() - 1
	hd := aValues.Shape()[1]
	if numHeads < 1 || hd%numHeads != 0 {
		return nil, fmt.Errorf("%w: inner dim %d not divisible by %d heads", tensor.ErrShapeMismatch, hd, numHeads)
	}
	g := bvjGeometry{batch: batch, heads: numHeads, dim: hd / numHeads, maxL: maxL}
	return b.runBVJ("bvj_v_backward", bvjVBackwardShader, g,
		grad.Data(), aValues.Data(), aOffsets.Data(),
		tensor.Shape{batch * numHeads, maxL}, batch*numHeads*maxL)
}

// BatchedDenseVecJagged2DMulMatBackward computes the jagged-matrix gradient
// of the batched product on GPU.
func (b *Backend) BatchedDenseVecJagged2DMulMatBackward(grad, v, aOffsets *tensor.RawTensor, totalRows int) (*tensor.RawTensor, error) {
	batch := aOffsets.NumElements() - 1
	hd := grad.Shape()[1]
	heads := 1
	if batch > 0 {
		heads = v.Shape()[0] / batch
	}
	if heads < 1 || hd%heads != 0 {
		return nil, fmt.Errorf("%w: inner dim %d not divisible by %d heads", tensor.ErrShapeMismatch, hd, heads)
	}
	g := bvjGeometry{batch: batch, heads: heads, dim: hd / heads, maxL: v.Shape()[1]}
	return b.runBVJ("bvj_mat_backward", bvjMatBackwardShader, g,
		grad.Data(), v.Data(), aOffsets.Data(),
		tensor.Shape{totalRows, hd}, totalRows*hd)
}
