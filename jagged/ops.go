// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package jagged

import (
	"fmt"

	"github.com/born-ml/jagged/internal/tensor"
)

// ToPaddedDense densifies x into shape [outer, maxLengths..., inner].
// Positions inside a segment carry the segment's values; positions beyond a
// segment's length carry the padding scalar. maxLengths must hold one extent
// per jagged dimension.
func ToPaddedDense(b Backend, x *Jagged, maxLengths []int, padding float64) (*RawTensor, error) {
	return b.ToPaddedDense(x.Values, x.Offsets, maxLengths, padding)
}

// DenseToJagged extracts the jagged support of dense using the given
// offsets. totalLength < 0 derives the value-row count from the final entry
// of the last offsets array. The returned jagged tensor shares the offsets.
func DenseToJagged(b Backend, dense *RawTensor, offsets []*RawTensor, totalLength int) (*Jagged, error) {
	values, err := b.DenseToJagged(dense, offsets, totalLength)
	if err != nil {
		return nil, err
	}
	return tensor.NewJagged(values, offsets)
}

// DenseAdd computes x + y with a dense result. Dense positions outside the
// jagged support pass y through unchanged.
func DenseAdd(b Backend, x *Jagged, y *RawTensor) (*RawTensor, error) {
	return b.JaggedDenseAdd(x.Values, x.Offsets, y)
}

// DenseAddJaggedOutput computes x + y scattered back into jagged storage.
// The result shares x's offsets.
func DenseAddJaggedOutput(b Backend, x *Jagged, y *RawTensor) (*Jagged, error) {
	values, err := b.JaggedDenseAddJaggedOutput(x.Values, x.Offsets, y)
	if err != nil {
		return nil, err
	}
	return tensor.NewJagged(values, x.Offsets)
}

// DenseMul computes x * y with a jagged result sharing x's offsets.
func DenseMul(b Backend, x *Jagged, y *RawTensor) (*Jagged, error) {
	values, err := b.JaggedDenseMul(x.Values, x.Offsets, y)
	if err != nil {
		return nil, err
	}
	return tensor.NewJagged(values, x.Offsets)
}

// BatchedDenseVecJagged2DMul multiplies batched dense vectors v [B*H, maxL]
// against a depth-1 jagged matrix a with rows [sumLengths, H*D], producing
// [B, H*D]. Rows of zero-length segments are zero.
func BatchedDenseVecJagged2DMul(b Backend, v *RawTensor, a *Jagged) (*RawTensor, error) {
	if a.NumJaggedDims() != 1 {
		return nil, fmt.Errorf("%w: batched product needs a depth-1 jagged matrix, got depth %d",
			ErrShapeMismatch, a.NumJaggedDims())
	}
	return b.BatchedDenseVecJagged2DMul(v, a.Values, a.Offsets[0])
}

// OneDToDense densifies a single-channel jagged tensor: values is 1-D with
// one scalar per element, and the result is [outer, maxL].
func OneDToDense(b Backend, values, offsets *RawTensor, maxL int, padding float64) (*RawTensor, error) {
	if len(values.Shape()) != 1 {
		return nil, fmt.Errorf("%w: single-channel values must be 1-D, got %v", ErrShapeMismatch, values.Shape())
	}
	rows := values.Reshape(Shape{values.NumElements(), 1})
	dense, err := b.ToPaddedDense(rows, []*RawTensor{offsets}, []int{maxL}, padding)
	if err != nil {
		return nil, err
	}
	return dense.Reshape(Shape{dense.Shape()[0], maxL}), nil
}

// TwoDToDense densifies a depth-1 jagged tensor with the max length derived
// from its offsets and padding 0.
func TwoDToDense(b Backend, x *Jagged) (*RawTensor, error) {
	if x.NumJaggedDims() != 1 {
		return nil, fmt.Errorf("%w: TwoDToDense needs a depth-1 jagged tensor, got depth %d",
			ErrShapeMismatch, x.NumJaggedDims())
	}
	return b.ToPaddedDense(x.Values, x.Offsets, []int{x.MaxLength(0)}, 0)
}
