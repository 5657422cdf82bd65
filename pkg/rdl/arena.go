package rdl

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"go-rdl/pkg/customerrors"

	"github.com/pkg/errors"
)

// ElementSize is the size of one element slot in bytes.
const ElementSize = int(unsafe.Sizeof(slot{}))

const flagSentinel uint32 = 1

// slot is the in-memory layout of an element. Links are slot indexes, not
// addresses, so a region stays valid wherever it is mapped.
type slot struct {
	next  uint32
	prev  uint32
	lock  uint32
	flags uint32
	data  uint64
}

// Arena is a view over a contiguous region of element slots. All access to
// slot fields goes through sync/atomic, the region may be shared with other
// goroutines and other processes.
type Arena struct {
	buf  []byte
	base unsafe.Pointer
	n    uint32
}

// NewArena views buf as n element slots. buf must be 8-byte aligned and at
// least n*ElementSize bytes long.
func NewArena(buf []byte, n uint32) (*Arena, error) {
	if n == 0 {
		return nil, errors.Wrap(customerrors.ErrInvalidCapacity, "arena without slots")
	}

	need := int(n) * ElementSize
	if len(buf) < need {
		return nil, errors.Wrapf(customerrors.ErrLayoutMismatch, "arena needs %d bytes, got %d", need, len(buf))
	}

	base := unsafe.Pointer(unsafe.SliceData(buf))
	if uintptr(base)%8 != 0 {
		return nil, errors.Wrapf(customerrors.ErrLayoutMismatch, "arena base %p is not 8-byte aligned", base)
	}

	return &Arena{buf: buf[:need], base: base, n: n}, nil
}

// Len returns the number of slots, sentinels included.
func (a *Arena) Len() uint32 {
	return a.n
}

// Size returns the number of bytes the slots occupy.
func (a *Arena) Size() int {
	return len(a.buf)
}

// Element returns the element stored in slot ref.
func (a *Arena) Element(ref Ref) (Element, error) {
	if uint32(ref) >= a.n {
		return Element{}, errors.Wrapf(customerrors.ErrInvalidElement, "ref %d out of %d slots", ref, a.n)
	}
	return Element{arena: a, ref: ref}, nil
}

func (a *Arena) slot(ref Ref) *slot {
	if uint32(ref) >= a.n {
		panic(fmt.Errorf("slot %d out of arena of %d slots", ref, a.n))
	}
	return (*slot)(unsafe.Add(a.base, uintptr(ref)*uintptr(ElementSize)))
}

func (a *Arena) next(ref Ref) Ref {
	return Ref(atomic.LoadUint32(&a.slot(ref).next))
}

func (a *Arena) prev(ref Ref) Ref {
	return Ref(atomic.LoadUint32(&a.slot(ref).prev))
}

func (a *Arena) isSentinel(ref Ref) bool {
	return atomic.LoadUint32(&a.slot(ref).flags)&flagSentinel != 0
}
