// Package customerrors defines the errors shared by the list, pool and
// execution list packages.
package customerrors

import (
	"errors"
)

var (
	// ErrTryAgain is returned by list operations that could not secure the
	// locks they need in this pass, or found nothing to remove. The caller
	// should repeat the same call.
	ErrTryAgain = errors.New("try again")

	// ErrBrokenLock is returned when an unlock fails at a point where the
	// locking protocol guarantees it must succeed. It signals concurrent
	// misuse or memory corruption and is never retried.
	ErrBrokenLock = errors.New("lock not in expected state")

	// ErrCorruptRing is returned by ring inspection when forward and backward
	// traversal disagree or the ring does not close.
	ErrCorruptRing = errors.New("corrupt ring")

	ErrInvalidElement = errors.New("invalid element")

	// ErrNilData is returned when a producer tries to enroll an empty
	// payload handle.
	ErrNilData = errors.New("nil data")

	ErrInvalidCapacity = errors.New("invalid capacity")

	// ErrLayoutMismatch is returned when a mapped region does not have the
	// layout this build expects.
	ErrLayoutMismatch = errors.New("layout mismatch")

	ErrClosed = errors.New("already closed")
)

// IsFatal reports whether err must stop the caller's retry loop because an
// invariant is broken.
func IsFatal(err error) bool {
	return errors.Is(err, ErrBrokenLock) || errors.Is(err, ErrCorruptRing)
}
