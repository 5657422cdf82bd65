// Package pool lays out an enrolled ring, an idle ring and a fixed number of
// elements in one contiguous region. The region lives in process memory or
// in a memory-mapped file that cooperating processes open by name; links are
// slot indexes, so every process may map it at a different address.
package pool

import (
	"go-rdl/pkg/customerrors"
	"go-rdl/pkg/pager"
	"go-rdl/pkg/rdl"
	"go-rdl/util/logger"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// MaxCapacity is the largest number of elements a pool can hold.
const MaxCapacity = 1 << 24

const (
	enrolledHead = rdl.Ref(0)
	idleHead     = rdl.Ref(1)
	sentinels    = 2
)

// MemLen returns the size in bytes of a pool region holding capacity
// elements: the metadata header followed by the sentinel and element slots.
func MemLen(capacity int) int {
	return metadataHeaderSize + (capacity+sentinels)*rdl.ElementSize
}

// Open creates or attaches to the pool stored in fileName. Use ":memory:" for
// a pool private to this process. If nil options are provided, default
// options are used.
func Open(fileName string, opts *Options) (*Pool, error) {
	if opts == nil {
		opts = &defaultOptions
	}

	fileMode := opts.FileMode
	if fileMode == 0 {
		fileMode = defaultOptions.FileMode
	}

	size := 0
	if opts.Capacity != 0 {
		if opts.Capacity < 0 || opts.Capacity > MaxCapacity {
			return nil, errors.Wrapf(customerrors.ErrInvalidCapacity, "capacity %d not in [1, %d]", opts.Capacity, MaxCapacity)
		}
		size = MemLen(opts.Capacity)
	}

	pl := &Pool{
		log: logger.Component("pool"),
	}

	p, err := pager.Open(fileName, size, fileMode, func(data []byte, fresh bool) error {
		if fresh {
			return pl.init(data, uint32(opts.Capacity))
		}
		return pl.attach(data)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open pool %s", fileName)
	}
	pl.pager = p

	if opts.Capacity != 0 && int(pl.meta.capacity) != opts.Capacity {
		_ = p.Close()
		return nil, errors.Wrapf(customerrors.ErrLayoutMismatch, "pool %s holds %d elements, expected %d", fileName, pl.meta.capacity, opts.Capacity)
	}

	if pl.enrolled, err = rdl.New(pl.arena, rdl.Ref(pl.meta.enrolledHead), rdl.TypeEnrolled, opts.List); err != nil {
		_ = p.Close()
		return nil, errors.Wrap(err, "failed to attach enrolled list")
	}
	if pl.idle, err = rdl.New(pl.arena, rdl.Ref(pl.meta.idleHead), rdl.TypeIdle, opts.List); err != nil {
		_ = p.Close()
		return nil, errors.Wrap(err, "failed to attach idle list")
	}

	pl.log = pl.log.WithField("id", pl.meta.id.String())
	pl.log.WithFields(logrus.Fields{
		"file":     fileName,
		"capacity": pl.meta.capacity,
		"bytes":    p.Size(),
		"created":  p.Fresh(),
	}).Info("pool opened")

	return pl, nil
}

// Pool owns the region holding both rings and all elements. Elements are
// never allocated or freed one by one; they only move between the rings.
type Pool struct {
	pager    *pager.Pager
	arena    *rdl.Arena
	meta     *metadata
	enrolled *rdl.List
	idle     *rdl.List
	log      *logrus.Entry
}

// init lays out a zeroed region: both sentinels self-linked, every element
// in the idle ring. The header is written last, so a region whose
// initialization was interrupted never passes attach.
func (pl *Pool) init(data []byte, capacity uint32) error {
	if capacity == 0 {
		return errors.Wrap(customerrors.ErrInvalidCapacity, "cannot create an empty pool")
	}

	arena, err := rdl.NewArena(data[metadataHeaderSize:], capacity+sentinels)
	if err != nil {
		return err
	}

	rdl.Init(arena, enrolledHead)
	rdl.Init(arena, idleHead)
	for ref := rdl.Ref(sentinels); uint32(ref) < arena.Len(); ref++ {
		rdl.Link(arena, idleHead, ref)
	}

	meta := &metadata{
		magic:        magic,
		version:      version,
		elementSize:  uint16(rdl.ElementSize),
		capacity:     capacity,
		enrolledHead: uint32(enrolledHead),
		idleHead:     uint32(idleHead),
		id:           uuid.New(),
	}

	buf, err := meta.MarshalBinary()
	if err != nil {
		return err
	}
	copy(data[:metadataHeaderSize], buf)

	pl.arena = arena
	pl.meta = meta
	return nil
}

// attach validates the header of an existing region.
func (pl *Pool) attach(data []byte) error {
	meta := &metadata{}
	if err := meta.UnmarshalBinary(data); err != nil {
		return errors.Wrap(customerrors.ErrLayoutMismatch, err.Error())
	}

	switch {
	case meta.magic != magic:
		return errors.Wrapf(customerrors.ErrLayoutMismatch, "bad magic 0x%x", meta.magic)
	case meta.version != version:
		return errors.Wrapf(customerrors.ErrLayoutMismatch, "unsupported version %d", meta.version)
	case int(meta.elementSize) != rdl.ElementSize:
		return errors.Wrapf(customerrors.ErrLayoutMismatch, "element size %d, expected %d", meta.elementSize, rdl.ElementSize)
	case meta.capacity == 0 || meta.capacity > MaxCapacity:
		return errors.Wrapf(customerrors.ErrLayoutMismatch, "bad capacity %d", meta.capacity)
	case len(data) != MemLen(int(meta.capacity)):
		return errors.Wrapf(customerrors.ErrLayoutMismatch, "region is %d bytes, capacity %d needs %d", len(data), meta.capacity, MemLen(int(meta.capacity)))
	}

	arena, err := rdl.NewArena(data[metadataHeaderSize:], meta.capacity+sentinels)
	if err != nil {
		return err
	}

	pl.arena = arena
	pl.meta = meta
	return nil
}

// Enrolled returns the ring of elements holding data.
func (pl *Pool) Enrolled() *rdl.List {
	return pl.enrolled
}

// Idle returns the ring of free elements.
func (pl *Pool) Idle() *rdl.List {
	return pl.idle
}

func (pl *Pool) Capacity() int {
	return int(pl.meta.capacity)
}

// MemLen returns the size of the region in bytes, for callers that map or
// replicate it.
func (pl *Pool) MemLen() int {
	return pl.pager.Size()
}

func (pl *Pool) ID() uuid.UUID {
	return pl.meta.id
}

// Stats counts both rings. The counts are exact only while no operation is
// in flight.
func (pl *Pool) Stats() (enrolled, idle int, err error) {
	if enrolled, err = pl.enrolled.Len(); err != nil {
		return 0, 0, err
	}
	if idle, err = pl.idle.Len(); err != nil {
		return 0, 0, err
	}
	return enrolled, idle, nil
}

// Verify checks both rings of a quiescent pool and that together they hold
// every element exactly once.
func (pl *Pool) Verify() error {
	if err := pl.enrolled.Verify(); err != nil {
		return err
	}
	if err := pl.idle.Verify(); err != nil {
		return err
	}

	seen := make([]bool, pl.arena.Len())
	count := 0
	for _, l := range []*rdl.List{pl.enrolled, pl.idle} {
		err := l.Walk(func(e rdl.Element) (bool, error) {
			if seen[e.Ref()] {
				return true, errors.Wrapf(customerrors.ErrCorruptRing, "element %v is on more than one ring", e)
			}
			seen[e.Ref()] = true
			count++
			return false, nil
		})
		if err != nil {
			return err
		}
	}

	if count != pl.Capacity() {
		return errors.Wrapf(customerrors.ErrCorruptRing, "rings hold %d elements, pool has %d", count, pl.Capacity())
	}
	return nil
}

func (pl *Pool) Flush() error {
	return pl.pager.Flush()
}

// Close flushes and releases this process's view of the pool. Elements
// detached by this process and not yet added back are lost to the pool.
func (pl *Pool) Close() error {
	if err := pl.pager.Flush(); err != nil {
		pl.log.WithError(err).Warn("flush before close failed")
	}
	if err := pl.pager.Close(); err != nil {
		return err
	}
	pl.log.Debug("pool closed")
	return nil
}
