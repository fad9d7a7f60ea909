package tensor

import "errors"

// Error taxonomy for the jagged operator surface. All validation happens on
// the host before any kernel work is enqueued, so these surface synchronously
// and precede any observable side effect.
var (
	// ErrShapeMismatch reports outer/inner size disagreement between jagged
	// and dense operands, or an offset-sequence count that does not match the
	// dense rank.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrDeviceResidency reports an input tensor not resident on the
	// backend's device.
	ErrDeviceResidency = errors.New("tensor not resident on backend device")

	// ErrDeviceExecution reports a failed kernel launch or asynchronous
	// primitive. It is surfaced, not retried.
	ErrDeviceExecution = errors.New("device execution failed")
)
