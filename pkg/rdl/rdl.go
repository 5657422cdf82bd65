// Package rdl implements rounded lists: circular doubly-linked lists with a
// fixed sentinel whose elements live in a shared arena and move between an
// idle ring and an enrolled ring without a list-wide lock.
//
// Every element carries one lock word holding a next-link sub-lock, a
// prev-link sub-lock and a whole-element lock (both bits at once). Remove
// walks right from the sentinel and detaches an element e under three locks:
// the next lock of its left neighbour, the whole lock of e and the prev lock
// of its right neighbour. Add walks left from the sentinel and inserts under
// the prev lock of the right bound and the next lock of the left bound.
// Operations touching disjoint regions of a ring proceed in parallel.
//
// A removal of b from  h -> a -> b -> c -> h  runs as
//
//	lock(a.next) lock(b) lock(c.prev)
//	a.next = c   c.prev = a
//	unlock(c.prev) unlock(a.next)
//
// and b stays whole-locked until Add splices it into the other ring. A
// scanner that still sits on b sees its lock held and moves on; once b is
// linked again its data tells which ring it belongs to.
package rdl

import (
	"sync/atomic"

	"go-rdl/pkg/customerrors"

	"github.com/pkg/errors"
)

// Type selects which elements a list accepts: enrolled lists hold elements
// with data, idle lists hold elements without.
type Type uint8

const (
	TypeEnrolled Type = 0x01
	TypeIdle     Type = 0x02
)

func (t Type) String() string {
	switch t {
	case TypeEnrolled:
		return "enrolled"
	case TypeIdle:
		return "idle"
	}
	return "unknown"
}

// List is one ring of an arena, identified by its sentinel slot.
type List struct {
	arena *Arena
	head  Ref
	typ   Type
	opts  Options
}

// Init makes slot head a self-linked sentinel: an empty ring.
func Init(arena *Arena, head Ref) {
	s := arena.slot(head)
	atomic.StoreUint64(&s.data, 0)
	atomic.StoreUint32(&s.lock, LockFree)
	atomic.StoreUint32(&s.flags, flagSentinel)
	atomic.StoreUint32(&s.prev, uint32(head))
	atomic.StoreUint32(&s.next, uint32(head))
}

// Link appends the elements refs behind the sentinel head. It takes no
// locks and must only be used while nothing else can reach the arena.
func Link(arena *Arena, head Ref, refs ...Ref) {
	for _, ref := range refs {
		tail := arena.prev(head)
		s := arena.slot(ref)
		atomic.StoreUint32(&s.lock, LockFree)
		atomic.StoreUint32(&s.flags, 0)
		atomic.StoreUint32(&s.prev, uint32(tail))
		atomic.StoreUint32(&s.next, uint32(head))
		atomic.StoreUint32(&arena.slot(tail).next, uint32(ref))
		atomic.StoreUint32(&arena.slot(head).prev, uint32(ref))
	}
}

// New attaches to the ring whose sentinel is head. If opts is nil, default
// options are used.
func New(arena *Arena, head Ref, typ Type, opts *Options) (*List, error) {
	if arena == nil {
		return nil, errors.New("nil arena")
	}
	if typ != TypeEnrolled && typ != TypeIdle {
		return nil, errors.Errorf("unknown list type %d", typ)
	}
	if uint32(head) >= arena.Len() || !arena.isSentinel(head) {
		return nil, errors.Wrapf(customerrors.ErrInvalidElement, "slot %d is not a sentinel", head)
	}

	o := defaultOptions
	if opts != nil {
		o = opts.withDefaults()
	}

	return &List{arena: arena, head: head, typ: typ, opts: o}, nil
}

func (l *List) Type() Type {
	return l.typ
}

func (l *List) Arena() *Arena {
	return l.arena
}

// matches reports whether ref may be part of this ring: the list's own
// sentinel, or an element whose data state fits the list type. It guards
// against a scan that drifted onto an element which moved to the other ring.
func (l *List) matches(ref Ref) bool {
	if l.arena.isSentinel(ref) {
		return ref == l.head
	}

	data := atomic.LoadUint64(&l.arena.slot(ref).data)
	switch l.typ {
	case TypeEnrolled:
		return data != 0
	case TypeIdle:
		return data == 0
	}
	return false
}

// Remove detaches one element next to the sentinel and returns it with its
// whole-element lock held. The caller owns the element until it hands it to
// Add on either list.
//
// ErrTryAgain is returned when the ring is empty or no element could be
// locked within the scan limit. Any other error is fatal.
func (l *List) Remove() (Element, error) {
	a := l.arena
	h := l.head
	p := h

	for step := 0; step < l.opts.ScanLimit; step++ {
		if a.next(h) == h {
			return Element{}, customerrors.ErrTryAgain
		}

		left := p
		ls := a.slot(left)
		if !TryLockNextN(&ls.lock, l.opts.NextLockTries) {
			p = l.skip(p)
			continue
		}

		var (
			e       Ref
			removed bool
			err     error
		)
		if l.matches(left) {
			e = a.next(left)
			if e != h {
				removed, err = l.unlink(left, e)
				if err != nil {
					return Element{}, err
				}
			}
			p = a.next(a.next(left))
		} else {
			p = h
		}

		if err := UnlockNext(&ls.lock); err != nil {
			return Element{}, errors.Wrapf(err, "remove: release left bound %d", left)
		}

		if removed {
			return Element{arena: a, ref: e}, nil
		}
	}

	return Element{}, customerrors.ErrTryAgain
}

// unlink detaches e, the successor of left, while the caller holds the next
// lock of left. On success e keeps its whole-element lock.
func (l *List) unlink(left, e Ref) (bool, error) {
	a := l.arena
	es := a.slot(e)
	if !TryLockWholeN(&es.lock, l.opts.WholeLockTries) {
		return false, nil
	}

	right := a.next(e)
	rs := a.slot(right)
	if !TryLockPrevN(&rs.lock, l.opts.PrevLockTries) {
		if err := UnlockWhole(&es.lock); err != nil {
			return false, errors.Wrapf(err, "remove: release element %d", e)
		}
		return false, nil
	}

	atomic.StoreUint32(&a.slot(left).next, uint32(right))
	atomic.StoreUint32(&rs.prev, uint32(left))

	if err := UnlockPrev(&rs.lock); err != nil {
		return false, errors.Wrapf(err, "remove: release right bound %d", right)
	}
	return true, nil
}

func (l *List) skip(p Ref) Ref {
	for i := 0; i < l.opts.Skip; i++ {
		p = l.arena.next(p)
	}
	return p
}

// Add inserts a detached element between the sentinel's predecessor and the
// sentinel, then releases the element's whole-element lock.
//
// The element must come from List.Remove on a list of the same arena and
// its data must fit this list's type. ErrTryAgain is returned when no
// insertion point could be locked within the scan limit.
func (l *List) Add(e Element) error {
	if err := l.validate(e); err != nil {
		return err
	}

	a := l.arena
	h := l.head
	es := a.slot(e.ref)
	p := h

	for step := 0; step < l.opts.ScanLimit; step++ {
		ps := a.slot(p)
		if !TryLockPrev(&ps.lock) {
			p = a.prev(p)
			continue
		}

		right := p
		if !l.matches(right) {
			if err := UnlockPrev(&ps.lock); err != nil {
				return errors.Wrapf(err, "add: release drifted bound %d", right)
			}
			p = h
			continue
		}

		left := a.prev(right)
		ls := a.slot(left)
		added := false
		if TryLockNextN(&ls.lock, l.opts.NextLockTries) {
			atomic.StoreUint32(&es.prev, uint32(left))
			atomic.StoreUint32(&es.next, uint32(right))
			atomic.StoreUint32(&ls.next, uint32(e.ref))
			atomic.StoreUint32(&ps.prev, uint32(e.ref))
			added = true

			if err := UnlockWhole(&es.lock); err != nil {
				return errors.Wrapf(err, "add: release element %d", e.ref)
			}
			if err := UnlockNext(&ls.lock); err != nil {
				return errors.Wrapf(err, "add: release left bound %d", left)
			}
		}

		if err := UnlockPrev(&ps.lock); err != nil {
			return errors.Wrapf(err, "add: release right bound %d", right)
		}

		if added {
			return nil
		}
		p = a.prev(right)
	}

	return customerrors.ErrTryAgain
}

func (l *List) validate(e Element) error {
	if e.arena != l.arena {
		return errors.Wrapf(customerrors.ErrInvalidElement, "element %v belongs to another arena", e)
	}
	if l.arena.isSentinel(e.ref) {
		return errors.Wrapf(customerrors.ErrInvalidElement, "element %v is a sentinel", e)
	}
	if !e.Locked() {
		return errors.Wrapf(customerrors.ErrInvalidElement, "element %v is not detached", e)
	}
	if !l.matches(e.ref) {
		return errors.Wrapf(customerrors.ErrInvalidElement, "element %v does not fit %s list", e, l.typ)
	}
	return nil
}
