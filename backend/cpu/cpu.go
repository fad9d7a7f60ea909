// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/jagged/internal/backend/cpu"
	"github.com/born-ml/jagged/internal/parallel"
	"github.com/born-ml/jagged/jagged"
)

// Backend represents the CPU backend implementation.
//
// The CPU backend runs every kernel over the same launch geometry the
// planner computes for accelerators, distributed across a bounded worker
// pool.
type Backend = internalcpu.CPUBackend

// Config controls worker-pool parallelism.
type Config = parallel.Config

// Compile-time check that Backend implements jagged.Backend.
var _ jagged.Backend = (*Backend)(nil)

// New creates a new CPU backend with default parallelism.
//
// Example:
//
//	backend := cpu.New()
//	dense, err := jagged.ToPaddedDense(backend, x, []int{8}, 0)
func New() *Backend {
	return internalcpu.New()
}

// NewWithConfig creates a CPU backend with explicit worker-pool settings.
func NewWithConfig(cfg Config) *Backend {
	return internalcpu.NewWithConfig(cfg)
}
