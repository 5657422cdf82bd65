package rdl

import (
	"fmt"
	"sync/atomic"
)

// Ref is the index of an element slot inside its arena.
type Ref uint32

// Element is a handle to one slot of an arena. The zero Element refers to
// nothing.
//
// An element returned by List.Remove is detached: it is linked into no ring
// and its whole-element lock is held on behalf of the caller. Only the
// holder may change its data, and the lock is released by passing the
// element to List.Add.
type Element struct {
	arena *Arena
	ref   Ref
}

func (e Element) Ref() Ref {
	return e.ref
}

func (e Element) IsZero() bool {
	return e.arena == nil
}

// Data returns the payload handle, 0 when the element is unoccupied.
func (e Element) Data() uint64 {
	return atomic.LoadUint64(&e.arena.slot(e.ref).data)
}

// SetData stores a payload handle. The caller must hold the element
// detached.
func (e Element) SetData(data uint64) {
	atomic.StoreUint64(&e.arena.slot(e.ref).data, data)
}

// Reset clears the payload handle.
func (e Element) Reset() {
	e.SetData(0)
}

// Locked reports whether the whole-element lock is held.
func (e Element) Locked() bool {
	return LockState(&e.arena.slot(e.ref).lock) == LockWhole
}

func (e Element) Format(f fmt.State, c rune) {
	if e.IsZero() {
		f.Write([]byte("<nil>"))
		return
	}
	f.Write([]byte(fmt.Sprintf("{ref:'%v', data:'%v'}", e.ref, e.Data())))
}
