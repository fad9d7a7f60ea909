package cpu

import (
	"fmt"

	"github.com/born-ml/jagged/internal/parallel"
	"github.com/born-ml/jagged/internal/tensor"
)

// bvjShape is the validated geometry of a batched dense-vector ×
// jagged-matrix product: v is [B*H, maxL], aValues is [sumLengths, H*D],
// aOffsets has B+1 entries.
type bvjShape struct {
	b, h, d, maxL, hd int
}

func (cpu *CPUBackend) checkBatchedVecMat(v, aValues, aOffsets *tensor.RawTensor) (bvjShape, error) {
	if err := cpu.checkResidency(v, aValues, aOffsets); err != nil {
		return bvjShape{}, err
	}
	if len(v.Shape()) != 2 || len(aValues.Shape()) != 2 || len(aOffsets.Shape()) != 1 {
		return bvjShape{}, fmt.Errorf("%w: want v [B*H, maxL], values [L, H*D], offsets [B+1]; got %v, %v, %v",
			tensor.ErrShapeMismatch, v.Shape(), aValues.Shape(), aOffsets.Shape())
	}
	if !aOffsets.DType().IsOffsetInt() {
		return bvjShape{}, fmt.Errorf("%w: offsets must be int32 or int64, got %s", tensor.ErrShapeMismatch, aOffsets.DType())
	}
	if v.DType() != aValues.DType() {
		return bvjShape{}, fmt.Errorf("%w: v dtype %s vs values dtype %s (mixed precision not supported)",
			tensor.ErrShapeMismatch, v.DType(), aValues.DType())
	}

	b := aOffsets.NumElements() - 1
	bh := v.Shape()[0]
	hd := aValues.Shape()[1]
	if b == 0 {
		return bvjShape{b: 0, h: 1, d: hd, maxL: v.Shape()[1], hd: hd}, nil
	}
	if bh%b != 0 {
		return bvjShape{}, fmt.Errorf("%w: v outer size %d not divisible by batch size %d", tensor.ErrShapeMismatch, bh, b)
	}
	h := bh / b
	if h == 0 || hd%h != 0 {
		return bvjShape{}, fmt.Errorf("%w: values inner dim %d not divisible by %d heads", tensor.ErrShapeMismatch, hd, h)
	}
	return bvjShape{b: b, h: h, d: hd / h, maxL: v.Shape()[1], hd: hd}, nil
}

// BatchedDenseVecJagged2DMul computes, per (b, h), the length-weighted sum of
// jagged matrix rows:
//
//	out[b, h*D+d] = Σ_{l < min(len_b, maxL)} v[b*H+h, l] * a[off_b+l, h*D+d]
//
// Zero-length segments yield zero rows. Accumulation is in float64 to bound
// rounding error for float32 storage.
func (cpu *CPUBackend) BatchedDenseVecJagged2DMul(v, aValues, aOffsets *tensor.RawTensor) (*tensor.RawTensor, error) {
	s, err := cpu.checkBatchedVecMat(v, aValues, aOffsets)
	if err != nil {
		return nil, err
	}

	out, err := tensor.NewRaw(tensor.Shape{s.b, s.hd}, v.DType(), cpu.device)
	if err != nil {
		return nil, err
	}
	if out.NumElements() == 0 {
		return out, nil
	}

	switch v.DType() {
	case tensor.Float32:
		dispatchBVJForward[float32](cpu, s, v, aValues, aOffsets, out)
	case tensor.Float64:
		dispatchBVJForward[float64](cpu, s, v, aValues, aOffsets, out)
	}
	return out, nil
}

func dispatchBVJForward[T tensor.Float](cpu *CPUBackend, s bvjShape, v, aValues, aOffsets, out *tensor.RawTensor) {
	switch aOffsets.DType() {
	case tensor.Int32:
		bvjForwardKernel(s, tensor.Data[T](v), tensor.Data[T](aValues), aOffsets.AsInt32(), tensor.Data[T](out), cpu.cfg)
	case tensor.Int64:
		bvjForwardKernel(s, tensor.Data[T](v), tensor.Data[T](aValues), aOffsets.AsInt64(), tensor.Data[T](out), cpu.cfg)
	}
}

func bvjForwardKernel[T tensor.Float, I tensor.OffsetInt](s bvjShape, v, a []T, offsets []I, out []T, cfg parallel.Config) {
	parallel.ForBatch(s.b, s.h, func(b, h int) {
		begin := int(offsets[b])
		length := min(int(offsets[b+1])-begin, s.maxL)
		vRow := (b*s.h + h) * s.maxL
		oRow := b*s.hd + h*s.d
		for d := 0; d < s.d; d++ {
			var acc float64
			for l := 0; l < length; l++ {
				acc += float64(v[vRow+l]) * float64(a[(begin+l)*s.hd+h*s.d+d])
			}
			out[oRow+d] = T(acc)
		}
	}, cfg)
}

// BatchedDenseVecJagged2DMulVBackward computes the gradient of the batched
// product w.r.t. v: the transposed reduction dotting each grad row against
// the corresponding jagged matrix rows across D. Positions at or beyond the
// segment length are exactly zero.
func (cpu *CPUBackend) BatchedDenseVecJagged2DMulVBackward(grad, aValues, aOffsets *tensor.RawTensor, numHeads, maxL int) (*tensor.RawTensor, error) {
	if err := cpu.checkResidency(grad, aValues, aOffsets); err != nil {
		return nil, err
	}
	b := aOffsets.NumElements() - 1
	hd := aValues.Shape()[1]
	if len(grad.Shape()) != 2 || grad.Shape()[1] != hd || grad.Shape()[0] != b {
		return nil, fmt.Errorf("%w: grad shape %v does not match batch %d × inner %d",
			tensor.ErrShapeMismatch, grad.Shape(), b, hd)
	}
	if numHeads < 1 || hd%numHeads != 0 {
		return nil, fmt.Errorf("%w: inner dim %d not divisible by %d heads", tensor.ErrShapeMismatch, hd, numHeads)
	}
	s := bvjShape{b: b, h: numHeads, d: hd / numHeads, maxL: maxL, hd: hd}

	out, err := tensor.NewRaw(tensor.Shape{b * numHeads, maxL}, grad.DType(), cpu.device)
	if err != nil {
		return nil, err
	}
	if out.NumElements() == 0 {
		return out, nil
	}

	switch grad.DType() {
	case tensor.Float32:
		dispatchBVJVBackward[float32](cpu, s, grad, aValues, aOffsets, out)
	case tensor.Float64:
		dispatchBVJVBackward[float64](cpu, s, grad, aValues, aOffsets, out)
	}
	return out, nil
}

func dispatchBVJVBackward[T tensor.Float](cpu *CPUBackend, s bvjShape, grad, aValues, aOffsets, out *tensor.RawTensor) {
	switch aOffsets.DType() {
	case tensor.Int32:
		bvjVBackwardKernel(s, tensor.Data[T](grad), tensor.Data[T](aValues), aOffsets.AsInt32(), tensor.Data[T](out), cpu.cfg)
	case tensor.Int64:
		bvjVBackwardKernel(s, tensor.Data[T](grad), tensor.Data[T](aValues), aOffsets.AsInt64(), tensor.Data[T](out), cpu.cfg)
	}
}

func bvjVBackwardKernel[T tensor.Float, I tensor.OffsetInt](s bvjShape, grad, a []T, offsets []I, out []T, cfg parallel.Config) {
	parallel.ForBatch(s.b, s.h, func(b, h int) {
		begin := int(offsets[b])
		length := min(int(offsets[b+1])-begin, s.maxL)
		gRow := b*s.hd + h*s.d
		oRow := (b*s.h + h) * s.maxL
		for l := 0; l < length; l++ {
			var acc float64
			for d := 0; d < s.d; d++ {
				acc += float64(grad[gRow+d]) * float64(a[(begin+l)*s.hd+h*s.d+d])
			}
			out[oRow+l] = T(acc)
		}
	}, cfg)
}

// BatchedDenseVecJagged2DMulMatBackward computes the gradient of the batched
// product w.r.t. the jagged matrix: the outer product of v and grad scattered
// into each segment's rows. Rows beyond a segment's length stay zero.
func (cpu *CPUBackend) BatchedDenseVecJagged2DMulMatBackward(grad, v, aOffsets *tensor.RawTensor, totalRows int) (*tensor.RawTensor, error) {
	if err := cpu.checkResidency(grad, v, aOffsets); err != nil {
		return nil, err
	}
	b := aOffsets.NumElements() - 1
	if len(grad.Shape()) != 2 || len(v.Shape()) != 2 || grad.Shape()[0] != b {
		return nil, fmt.Errorf("%w: want grad [B, H*D] and v [B*H, maxL] for batch %d; got %v, %v",
			tensor.ErrShapeMismatch, b, grad.Shape(), v.Shape())
	}
	hd := grad.Shape()[1]
	h := 1
	if b > 0 {
		if v.Shape()[0]%b != 0 {
			return nil, fmt.Errorf("%w: v outer size %d not divisible by batch size %d",
				tensor.ErrShapeMismatch, v.Shape()[0], b)
		}
		h = v.Shape()[0] / b
	}
	if h < 1 || hd%h != 0 {
		return nil, fmt.Errorf("%w: inner dim %d not divisible by %d heads", tensor.ErrShapeMismatch, hd, h)
	}
	s := bvjShape{b: b, h: h, d: hd / h, maxL: v.Shape()[1], hd: hd}

	out, err := tensor.NewRaw(tensor.Shape{totalRows, hd}, grad.DType(), cpu.device)
	if err != nil {
		return nil, err
	}
	if out.NumElements() == 0 || b == 0 {
		return out, nil
	}

	switch grad.DType() {
	case tensor.Float32:
		dispatchBVJMatBackward[float32](cpu, s, grad, v, aOffsets, out)
	case tensor.Float64:
		dispatchBVJMatBackward[float64](cpu, s, grad, v, aOffsets, out)
	}
	return out, nil
}

func dispatchBVJMatBackward[T tensor.Float](cpu *CPUBackend, s bvjShape, grad, v, aOffsets, out *tensor.RawTensor) {
	switch aOffsets.DType() {
	case tensor.Int32:
		bvjMatBackwardKernel(s, tensor.Data[T](grad), tensor.Data[T](v), aOffsets.AsInt32(), tensor.Data[T](out), cpu.cfg)
	case tensor.Int64:
		bvjMatBackwardKernel(s, tensor.Data[T](grad), tensor.Data[T](v), aOffsets.AsInt64(), tensor.Data[T](out), cpu.cfg)
	}
}

func bvjMatBackwardKernel[T tensor.Float, I tensor.OffsetInt](s bvjShape, grad, v []T, offsets []I, out []T, cfg parallel.Config) {
	// Parallel over batches only: heads of one batch write interleaved
	// columns of the same rows, so keeping a batch on one worker avoids
	// false sharing without needing atomics.
	parallel.For(s.b, func(b int) {
		begin := int(offsets[b])
		length := min(int(offsets[b+1])-begin, s.maxL)
		for h := 0; h < s.h; h++ {
			vRow := (b*s.h + h) * s.maxL
			gRow := b*s.hd + h*s.d
			for l := 0; l < length; l++ {
				oRow := (begin + l) * s.hd
				for d := 0; d < s.d; d++ {
					out[oRow+h*s.d+d] = v[vRow+l] * grad[gRow+d]
				}
			}
		}
	}, cfg)
}
