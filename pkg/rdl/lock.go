package rdl

import (
	"strings"
	"sync/atomic"

	"go-rdl/pkg/customerrors"
	"go-rdl/util/helpers"

	"github.com/pkg/errors"
)

// Lock word layout. Only the low byte is used. The whole-element lock is
// both sub-lock bits set by a single compare-and-swap, so it can be taken
// only when neither sub-lock is held and it blocks both while held.
const (
	LockFree  uint32 = 0
	LockNext  uint32 = 1 << 0
	LockPrev  uint32 = 1 << 1
	LockWhole        = LockNext | LockPrev
)

// TryLockWhole takes the whole-element lock if the word is fully unlocked.
func TryLockWhole(l *uint32) bool {
	return atomic.CompareAndSwapUint32(l, LockFree, LockWhole)
}

// TryLockWholeN spins up to tries times on TryLockWhole.
func TryLockWholeN(l *uint32, tries int) bool {
	for i := 0; i < tries; i++ {
		if TryLockWhole(l) {
			return true
		}
	}
	return false
}

// UnlockWhole releases the whole-element lock. It fails if the word was not
// exactly LockWhole.
func UnlockWhole(l *uint32) error {
	if !atomic.CompareAndSwapUint32(l, LockWhole, LockFree) {
		return errors.Wrapf(customerrors.ErrBrokenLock, "unlock whole, state %s", LockString(atomic.LoadUint32(l)))
	}
	return nil
}

func TryLockNext(l *uint32) bool {
	return testAndSet(l, LockNext)
}

func TryLockNextN(l *uint32, tries int) bool {
	return testAndSetN(l, LockNext, tries)
}

func UnlockNext(l *uint32) error {
	if !testAndReset(l, LockNext) {
		return errors.Wrap(customerrors.ErrBrokenLock, "unlock next, bit was clear")
	}
	return nil
}

func TryLockPrev(l *uint32) bool {
	return testAndSet(l, LockPrev)
}

func TryLockPrevN(l *uint32, tries int) bool {
	return testAndSetN(l, LockPrev, tries)
}

func UnlockPrev(l *uint32) error {
	if !testAndReset(l, LockPrev) {
		return errors.Wrap(customerrors.ErrBrokenLock, "unlock prev, bit was clear")
	}
	return nil
}

// LockState loads the current lock word.
func LockState(l *uint32) uint32 {
	return atomic.LoadUint32(l)
}

// LockString renders a lock word for logs and error messages.
func LockString(state uint32) string {
	b := uint8(state)
	if b == uint8(LockFree) {
		return "free"
	}
	if b == uint8(LockWhole) {
		return "whole"
	}

	parts := make([]string, 0, 2)
	if helpers.GetBit(b, 0) {
		parts = append(parts, "next")
	}
	if helpers.GetBit(b, 1) {
		parts = append(parts, "prev")
	}
	if len(parts) == 0 {
		return "invalid"
	}
	return strings.Join(parts, "|")
}

// testAndSet sets bit and reports whether it was clear before.
func testAndSet(l *uint32, bit uint32) bool {
	return atomic.OrUint32(l, bit)&bit == 0
}

func testAndSetN(l *uint32, bit uint32, tries int) bool {
	for i := 0; i < tries; i++ {
		if testAndSet(l, bit) {
			return true
		}
	}
	return false
}

// testAndReset clears bit and reports whether it was set before.
func testAndReset(l *uint32, bit uint32) bool {
	return atomic.AndUint32(l, ^bit)&bit != 0
}
