package sim

import "errors"

// Error kinds. Every error leaving this package wraps exactly one of
// these so callers can map failures to distinct exit codes.
var (
	// ErrConfig marks an invalid parameter set, detected before the
	// first step runs.
	ErrConfig = errors.New("configuration error")
	// ErrIO marks a failure to read or write an external path.
	ErrIO = errors.New("i/o error")
	// ErrEncoding marks an external video encoder failure. Recoverable:
	// the still image and report are still produced.
	ErrEncoding = errors.New("encoding error")
	// ErrResource marks resource exhaustion, e.g. a grid too large to
	// allocate.
	ErrResource = errors.New("resource exhaustion")
	// ErrInternal marks an invariant violation inside the simulator.
	// Fatal; the message carries the step number and seed.
	ErrInternal = errors.New("internal invariant violation")
)
