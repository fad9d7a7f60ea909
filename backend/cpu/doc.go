// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for jagged tensor operations.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Float32 and Float64 value support, int32 and int64 offsets
//   - The accelerator launch geometry replayed on a worker pool
//   - Float64 accumulation for float32 reductions
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/jagged/backend/cpu"
//	    "github.com/born-ml/jagged/jagged"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    dense, err := jagged.ToPaddedDense(backend, x, []int{8}, 0)
//	    ...
//	}
package cpu
