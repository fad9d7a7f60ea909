//go:build windows

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU backend for GPU-accelerated jagged
// tensor operations.
//
// WebGPU is a cross-platform graphics and compute API; the backend supports
// float32 values with int32 offsets and falls back to the CPU backend for
// wider types.
//
// Example:
//
//	import (
//	    "github.com/born-ml/jagged/backend/webgpu"
//	    "github.com/born-ml/jagged/jagged"
//	)
//
//	func main() {
//	    gpu, err := webgpu.New()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer gpu.Release()
//
//	    dense, err := jagged.ToPaddedDense(gpu, x, []int{8}, 0)
//	}
package webgpu

import (
	internalwebgpu "github.com/born-ml/jagged/internal/backend/webgpu"
	"github.com/born-ml/jagged/jagged"
)

// Backend represents the WebGPU backend implementation.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements jagged.Backend.
var _ jagged.Backend = (*Backend)(nil)

// New creates a new WebGPU backend.
//
// Returns an error if WebGPU initialization fails (e.g., no compatible GPU).
// Call Release() when done to free GPU resources.
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable checks if WebGPU is available on the current system.
//
// Example:
//
//	if webgpu.IsAvailable() {
//	    gpu, _ := webgpu.New()
//	    backend = gpu
//	} else {
//	    backend = cpu.New()
//	}
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
