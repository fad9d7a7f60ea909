// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package jagged provides the public API for jagged (ragged) tensor
// operations in the Born ML framework.
//
// A jagged tensor stores variable-length segments as a flat 2-D value buffer
// plus one ascending offsets array per nesting depth. The package exposes
// densification, extraction, mixed jagged/dense arithmetic, a batched
// dense-vector × jagged-matrix product, and stacked (multi-key) variants
// that multiplex many logical jagged tensors through one shared value
// buffer.
//
// Example:
//
//	backend := cpu.New()
//	values, _ := jagged.FromSlice([]float32{1, 2, 3, 4, 5, 6}, jagged.Shape{3, 2}, jagged.DeviceCPU)
//	offsets, _ := jagged.FromSlice([]int32{0, 2, 2, 3}, jagged.Shape{4}, jagged.DeviceCPU)
//	x, _ := jagged.NewJagged(values, []*jagged.RawTensor{offsets})
//	dense, _ := jagged.ToPaddedDense(backend, x, []int{2}, 0)
package jagged
