package pic

import (
	"errors"
	"fmt"
)

// Domain errors for tile construction and configuration.
var (
	// ErrInvalidDim indicates a spatial dimensionality outside {1,2,3}.
	ErrInvalidDim = errors.New("pic: invalid spatial dimension")

	// ErrInvalidExtent indicates a non-positive mesh length, or a length
	// other than 1 along an inactive axis.
	ErrInvalidExtent = errors.New("pic: invalid mesh extent")

	// ErrInvalidCFL indicates a non-positive light-crossing constant.
	ErrInvalidCFL = errors.New("pic: cfl must be positive")

	// ErrHaloTooSmall indicates a halo shallower than a stencil needs.
	ErrHaloTooSmall = errors.New("pic: halo too small")

	// ErrInvalidParam indicates a filter or depositer parameter out of range.
	ErrInvalidParam = errors.New("pic: parameter out of valid bounds")

	// ErrUnknownFilter indicates a filter name with no registered constructor.
	ErrUnknownFilter = errors.New("pic: unknown filter")

	// ErrUnknownBackend indicates a scatter backend name that does not exist.
	ErrUnknownBackend = errors.New("pic: unknown scatter backend")

	// ErrNonFinite indicates NaN or Inf in the deposited sources.
	ErrNonFinite = errors.New("pic: non-finite source field")
)

// StepError wraps an error with the step it happened on.
type StepError struct {
	Step    int
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d: %v", e.Step, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
