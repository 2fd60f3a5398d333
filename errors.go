package vfx

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every error returned by the pipeline matches exactly one of
// ErrAllocation, ErrInvalidState or ErrEffectApplication via errors.Is.
var (
	// ErrAllocation reports that an off-screen buffer could not be created.
	ErrAllocation = errors.New("vfx: buffer allocation failed")
	// ErrInvalidState reports a protocol violation: double begin, end without
	// begin, a step out of order, or use after Dispose.
	ErrInvalidState = errors.New("vfx: invalid state")
	// ErrEffectApplication reports that an effect failed mid-chain. Only the
	// current frame is lost.
	ErrEffectApplication = errors.New("vfx: effect application failed")

	// ErrInvalidSize is wrapped by AllocationError for non-positive or
	// oversized dimensions.
	ErrInvalidSize = errors.New("invalid buffer size")
	// ErrUnsupportedFormat is wrapped by AllocationError when a device cannot
	// back the requested pixel format.
	ErrUnsupportedFormat = errors.New("unsupported pixel format")
)

// AllocationError describes a failed buffer allocation.
type AllocationError struct {
	Width, Height int
	Format        PixelFormat
	Err           error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("vfx: allocate %dx%d %s buffer: %v", e.Width, e.Height, e.Format, e.Err)
}

func (e *AllocationError) Unwrap() error { return e.Err }

// Is matches ErrAllocation.
func (e *AllocationError) Is(target error) bool { return target == ErrAllocation }

// StateError describes a protocol violation. Op is the rejected operation and
// State is the phase the pipeline (or session) was in.
type StateError struct {
	Op    string
	State string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("vfx: %s: invalid in state %s", e.Op, e.State)
}

// Is matches ErrInvalidState.
func (e *StateError) Is(target error) bool { return target == ErrInvalidState }

// EffectError wraps the failure of one effect in a chain.
type EffectError struct {
	Index int
	Name  string
	Err   error
}

func (e *EffectError) Error() string {
	return fmt.Sprintf("vfx: effect %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e *EffectError) Unwrap() error { return e.Err }

// Is matches ErrEffectApplication.
func (e *EffectError) Is(target error) bool { return target == ErrEffectApplication }

func stateErr(op string, state fmt.Stringer) error {
	return &StateError{Op: op, State: state.String()}
}
