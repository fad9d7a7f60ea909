// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package jagged

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/born-ml/jagged/internal/parallel"
	"github.com/born-ml/jagged/internal/tensor"
)

// Stacked representation: T logical jagged tensors share one value buffer.
// A lengths matrix [T, B] gives each key's per-batch segment lengths, and
// offsetPerKey[t] is the first value row belonging to key t. Keys write
// disjoint output regions, so the per-key loops run concurrently.

// OffsetsPerKey derives, from a [T, B] lengths matrix, the per-key offsets
// arrays (each [B+1], same index width as lengths) and the offsetPerKey
// boundaries [T+1] partitioning the shared value buffer.
func OffsetsPerKey(lengths *RawTensor) ([]int, []*RawTensor, error) {
	if len(lengths.Shape()) != 2 {
		return nil, nil, fmt.Errorf("%w: lengths must be a [T, B] matrix, got %v", ErrShapeMismatch, lengths.Shape())
	}
	if !lengths.DType().IsOffsetInt() {
		return nil, nil, fmt.Errorf("%w: lengths must be int32 or int64, got %s", ErrShapeMismatch, lengths.DType())
	}

	var perKey []*RawTensor
	var err error
	switch lengths.DType() {
	case Int32:
		perKey, err = offsetsPerKeyTyped[int32](lengths)
	case Int64:
		perKey, err = offsetsPerKeyTyped[int64](lengths)
	}
	if err != nil {
		return nil, nil, err
	}

	numKeys := lengths.Shape()[0]
	batch := lengths.Shape()[1]
	offsetPerKey := make([]int, numKeys+1)
	for t := 0; t < numKeys; t++ {
		offsetPerKey[t+1] = offsetPerKey[t] + int(OffsetAt(perKey[t], batch))
	}
	return offsetPerKey, perKey, nil
}

func offsetsPerKeyTyped[I OffsetInt](lengths *RawTensor) ([]*RawTensor, error) {
	numKeys := lengths.Shape()[0]
	batch := lengths.Shape()[1]
	cfg := parallel.DefaultConfig()

	perKey := make([]*RawTensor, numKeys)
	var g errgroup.Group
	for t := 0; t < numKeys; t++ {
		g.Go(func() error {
			offsets, err := tensor.NewRaw(Shape{batch + 1}, lengths.DType(), lengths.Device())
			if err != nil {
				return err
			}
			row := lengths.SliceRows(t, t+1)
			dst := Data[I](offsets)
			scratch := make([]I, parallel.ScanScratchSize(batch, cfg))
			parallel.InclusiveSum(dst[1:], Data[I](row), scratch, cfg)
			perKey[t] = offsets
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return perKey, nil
}

// StackedJagged2DToDense densifies each key of a stacked depth-1 jagged
// tensor. values is the shared [total, inner] buffer, lengths is [T, B].
// maxLengthsPerKey may be nil, in which case each key uses its own maximum
// segment length. Returns the per-key dense tensors [B, maxL_t, inner] and
// the per-key derived offsets.
func StackedJagged2DToDense(b Backend, values, lengths *RawTensor, maxLengthsPerKey []int, padding float64) ([]*RawTensor, []*RawTensor, error) {
	offsetPerKey, perKey, err := OffsetsPerKey(lengths)
	if err != nil {
		return nil, nil, err
	}
	if len(values.Shape()) != 2 {
		return nil, nil, fmt.Errorf("%w: shared values must be 2-D [total, inner], got %v", ErrShapeMismatch, values.Shape())
	}
	numKeys := lengths.Shape()[0]
	if total := offsetPerKey[numKeys]; total != values.Shape()[0] {
		return nil, nil, fmt.Errorf("%w: lengths sum to %d rows but shared values has %d",
			ErrShapeMismatch, total, values.Shape()[0])
	}
	if maxLengthsPerKey != nil && len(maxLengthsPerKey) != numKeys {
		return nil, nil, fmt.Errorf("%w: got %d max lengths for %d keys", ErrShapeMismatch, len(maxLengthsPerKey), numKeys)
	}

	dense := make([]*RawTensor, numKeys)
	var g errgroup.Group
	for t := 0; t < numKeys; t++ {
		g.Go(func() error {
			view := values.SliceRows(offsetPerKey[t], offsetPerKey[t+1])
			maxL := keyMaxLength(maxLengthsPerKey, perKey[t], t)
			out, err := b.ToPaddedDense(view, []*RawTensor{perKey[t]}, []int{maxL}, padding)
			if err != nil {
				return err
			}
			dense[t] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return dense, perKey, nil
}

// keyMaxLength picks the caller-supplied extent for key t, or derives
// the key's maximum segment length from its offsets.
func keyMaxLength(maxLengthsPerKey []int, offsets *RawTensor, t int) int {
	if maxLengthsPerKey != nil {
		return maxLengthsPerKey[t]
	}
	maxL := 0
	n := offsets.NumElements() - 1
	for i := 0; i < n; i++ {
		if l := int(OffsetAt(offsets, i+1) - OffsetAt(offsets, i)); l > maxL {
			maxL = l
		}
	}
	return maxL
}

// StackedJagged1DToDense is the single-channel variant: values is 1-D and
// each key densifies to [B, maxL_t].
func StackedJagged1DToDense(b Backend, values, lengths *RawTensor, maxLengthsPerKey []int, padding float64) ([]*RawTensor, []*RawTensor, error) {
	if len(values.Shape()) != 1 {
		return nil, nil, fmt.Errorf("%w: single-channel values must be 1-D, got %v", ErrShapeMismatch, values.Shape())
	}
	rows := values.Reshape(Shape{values.NumElements(), 1})
	dense, perKey, err := StackedJagged2DToDense(b, rows, lengths, maxLengthsPerKey, padding)
	if err != nil {
		return nil, nil, err
	}
	for t, d := range dense {
		dense[t] = d.Reshape(Shape{d.Shape()[0], d.Shape()[1]})
	}
	return dense, perKey, nil
}

// StackedDenseToJagged extracts each key's dense tensor back into one shared
// value buffer partitioned by offsetPerKey. dense[t] must have the shape
// produced by StackedJagged2DToDense for the same lengths.
func StackedDenseToJagged(b Backend, dense []*RawTensor, lengths *RawTensor) (*RawTensor, []int, error) {
	offsetPerKey, perKey, err := OffsetsPerKey(lengths)
	if err != nil {
		return nil, nil, err
	}
	numKeys := lengths.Shape()[0]
	if len(dense) != numKeys {
		return nil, nil, fmt.Errorf("%w: got %d dense tensors for %d keys", ErrShapeMismatch, len(dense), numKeys)
	}
	if numKeys == 0 {
		return Zeros(Shape{0, 0}, Float32, b.Device()), offsetPerKey, nil
	}

	inner := dense[0].Shape()[len(dense[0].Shape())-1]
	shared, err := tensor.NewRaw(Shape{offsetPerKey[numKeys], inner}, dense[0].DType(), b.Device())
	if err != nil {
		return nil, nil, err
	}

	var g errgroup.Group
	for t := 0; t < numKeys; t++ {
		g.Go(func() error {
			out, err := b.DenseToJagged(dense[t], []*RawTensor{perKey[t]}, offsetPerKey[t+1]-offsetPerKey[t])
			if err != nil {
				return err
			}
			// Keys own disjoint row ranges of the shared buffer.
			view := shared.SliceRows(offsetPerKey[t], offsetPerKey[t+1])
			copy(view.Data(), out.Data())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return shared, offsetPerKey, nil
}
