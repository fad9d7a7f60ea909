// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package jagged

import (
	"github.com/born-ml/jagged/internal/tensor"
)

// Type aliases for public API

// DType is a constraint for tensor element types.
// Supported types: float32, float64, int32, int64.
type DType = tensor.DType

// Float constrains jagged value element types.
type Float = tensor.Float

// OffsetInt constrains offset index types.
type OffsetInt = tensor.OffsetInt

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
)

// Device represents the compute device a tensor is resident on.
type Device = tensor.Device

// Device constants.
const (
	DeviceCPU    Device = tensor.CPU
	DeviceWebGPU Device = tensor.WebGPU
)

// Shape represents tensor dimensions.
type Shape = tensor.Shape

// RawTensor is the low-level tensor representation.
type RawTensor = tensor.RawTensor

// Jagged is a ragged tensor: a flat value buffer plus per-depth offsets.
type Jagged = tensor.Jagged

// Backend is the interface compute backends implement.
type Backend = tensor.Backend

// Sentinel errors.
var (
	ErrShapeMismatch   = tensor.ErrShapeMismatch
	ErrDeviceResidency = tensor.ErrDeviceResidency
	ErrDeviceExecution = tensor.ErrDeviceExecution
)

// NewJagged validates and wraps a (values, offsets) pair.
func NewJagged(values *RawTensor, offsets []*RawTensor) (*Jagged, error) {
	return tensor.NewJagged(values, offsets)
}

// NewRaw allocates a zero-initialized tensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// FromSlice creates a tensor from a Go slice. The slice is copied.
func FromSlice[T DType](data []T, shape Shape, device Device) (*RawTensor, error) {
	return tensor.FromSlice(data, shape, device)
}

// Zeros creates a zero-filled tensor.
func Zeros(shape Shape, dtype DataType, device Device) *RawTensor {
	return tensor.Zeros(shape, dtype, device)
}

// Full creates a tensor filled with the given scalar.
func Full(shape Shape, dtype DataType, device Device, value float64) *RawTensor {
	return tensor.Full(shape, dtype, device, value)
}

// Data returns a typed zero-copy slice view of a tensor's elements.
func Data[T DType](r *RawTensor) []T {
	return tensor.Data[T](r)
}

// OffsetAt reads one entry of an offsets tensor regardless of index width.
func OffsetAt(offsets *RawTensor, i int) int64 {
	return tensor.OffsetAt(offsets, i)
}
