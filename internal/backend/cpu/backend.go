// Package cpu implements the jagged kernel family on the host CPU, scheduling
// launches over the worker pool in internal/parallel.
package cpu

import (
	"fmt"

	"github.com/born-ml/jagged/internal/parallel"
	"github.com/born-ml/jagged/internal/tensor"
)

// CPUBackend implements tensor.Backend on the host CPU. Kernel launches are
// distributed over a goroutine pool using the same block/grid geometry the
// GPU path would use, so the planner is exercised identically on both
// devices.
type CPUBackend struct {
	device tensor.Device
	cfg    parallel.Config
}

// New creates a new CPU backend with default parallelism.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		cfg:    parallel.DefaultConfig(),
	}
}

// NewWithConfig creates a CPU backend with explicit parallel configuration.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		cfg:    cfg,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Add performs element-wise addition of two same-shaped float tensors.
// The gradient tape relies on it to accumulate gradients.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	if !a.Shape().Equal(b.Shape()) {
		panic(fmt.Sprintf("add: shape mismatch: %v vs %v", a.Shape(), b.Shape()))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("add: dtype mismatch: %s vs %s", a.DType(), b.DType()))
	}

	result, err := tensor.NewRaw(a.Shape(), a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("add: failed to create result tensor: %v", err))
	}

	switch a.DType() {
	case tensor.Float32:
		addVectorized(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), cpu.cfg)
	case tensor.Float64:
		addVectorized(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), cpu.cfg)
	default:
		panic(fmt.Sprintf("add: unsupported dtype %s (only float32/float64 supported)", a.DType()))
	}
	return result
}

func addVectorized[T tensor.Float](dst, a, b []T, cfg parallel.Config) {
	parallel.For(len(dst), func(i int) {
		dst[i] = a[i] + b[i]
	}, cfg)
}
