package rdl

import (
	"sync/atomic"

	"go-rdl/pkg/customerrors"

	"github.com/pkg/errors"
)

// Walk calls fn for every element from the sentinel's successor to its
// predecessor, stopping early when fn returns true. The ring is read without
// locks, so the result is only exact while no operation is in flight.
func (l *List) Walk(fn func(e Element) (bool, error)) error {
	a := l.arena
	p := a.next(l.head)
	for n := uint32(0); p != l.head; n++ {
		if n >= a.Len() {
			return errors.Wrapf(customerrors.ErrCorruptRing, "%s ring does not return to sentinel %d", l.typ, l.head)
		}
		if uint32(p) >= a.Len() {
			return errors.Wrapf(customerrors.ErrCorruptRing, "%s ring links to slot %d out of %d", l.typ, p, a.Len())
		}

		stop, err := fn(Element{arena: a, ref: p})
		if err != nil {
			return err
		} else if stop {
			return nil
		}
		p = a.next(p)
	}
	return nil
}

// Len counts the elements of a quiescent ring, the sentinel excluded.
func (l *List) Len() (int, error) {
	n := 0
	err := l.Walk(func(Element) (bool, error) {
		n++
		return false, nil
	})
	return n, err
}

// Refs lists the slots of a quiescent ring in forward order.
func (l *List) Refs() ([]Ref, error) {
	refs := []Ref{}
	err := l.Walk(func(e Element) (bool, error) {
		refs = append(refs, e.ref)
		return false, nil
	})
	return refs, err
}

// Verify checks a quiescent ring: forward and backward traversal visit the
// same elements, every element fits the list type, the sentinel holds no
// data, and no lock is held anywhere on the ring.
func (l *List) Verify() error {
	a := l.arena
	hs := a.slot(l.head)
	if atomic.LoadUint64(&hs.data) != 0 {
		return errors.Wrapf(customerrors.ErrCorruptRing, "%s sentinel %d holds data", l.typ, l.head)
	}
	if state := LockState(&hs.lock); state != LockFree {
		return errors.Wrapf(customerrors.ErrBrokenLock, "%s sentinel %d is locked (%s)", l.typ, l.head, LockString(state))
	}

	forward, err := l.Refs()
	if err != nil {
		return err
	}

	i := len(forward) - 1
	for p := a.prev(l.head); p != l.head; p = a.prev(p) {
		if uint32(p) >= a.Len() {
			return errors.Wrapf(customerrors.ErrCorruptRing, "%s ring: backward link to slot %d out of %d", l.typ, p, a.Len())
		}
		if i < 0 || forward[i] != p {
			return errors.Wrapf(customerrors.ErrCorruptRing, "%s ring: backward traversal diverges at slot %d", l.typ, p)
		}
		i--
	}
	if i != -1 {
		return errors.Wrapf(customerrors.ErrCorruptRing, "%s ring: backward traversal is %d elements short", l.typ, i+1)
	}

	for _, ref := range forward {
		if !l.matches(ref) {
			return errors.Wrapf(customerrors.ErrCorruptRing, "%s ring: slot %d does not fit", l.typ, ref)
		}
		if state := LockState(&a.slot(ref).lock); state != LockFree {
			return errors.Wrapf(customerrors.ErrBrokenLock, "%s ring: slot %d is locked (%s)", l.typ, ref, LockString(state))
		}
	}
	return nil
}
