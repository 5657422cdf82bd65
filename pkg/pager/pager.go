// Package pager maps a fixed-size region either from a file shared with other
// processes or from process memory.
package pager

import (
	"os"
	"unsafe"

	"go-rdl/pkg/customerrors"
	"go-rdl/util/helpers"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

// InMemory as file name gives a region on the Go heap, private to this
// process.
const InMemory = ":memory:"

// InitFunc is called once the region is mapped, while the file is locked
// against other openers. fresh is true when the region was just created and
// is still zeroed.
type InitFunc func(data []byte, fresh bool) error

// Pager owns one contiguous, 8-byte aligned region.
type Pager struct {
	fileName string
	file     *os.File
	mem      mmap.MMap
	heap     []uint64
	data     []byte
	fresh    bool
	closed   bool
}

// Open maps fileName. A missing or empty file is created with size bytes; an
// existing one is mapped whole, and must be exactly size bytes unless size is
// 0. init runs before any other opener can see a fresh region.
func Open(fileName string, size int, mode os.FileMode, init InitFunc) (*Pager, error) {
	if fileName == InMemory {
		return openMemory(size, init)
	}

	if err := helpers.CreateParentDir(fileName); err != nil {
		return nil, errors.Wrap(err, "failed to create pool directory")
	}

	f, err := os.OpenFile(fileName, os.O_RDWR|os.O_CREATE, mode)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open pool file")
	}

	p := &Pager{fileName: fileName, file: f}
	if err := p.mapFile(size, init); err != nil {
		_ = p.Close()
		return nil, err
	}
	return p, nil
}

func openMemory(size int, init InitFunc) (*Pager, error) {
	if size <= 0 {
		return nil, errors.Wrap(customerrors.ErrInvalidCapacity, "in-memory region needs a size")
	}

	heap := make([]uint64, helpers.AlignUp(size, 8)/8)
	p := &Pager{
		fileName: InMemory,
		heap:     heap,
		data:     unsafe.Slice((*byte)(unsafe.Pointer(&heap[0])), size),
		fresh:    true,
	}

	if init != nil {
		if err := init(p.data, true); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Pager) mapFile(size int, init InitFunc) error {
	if err := lockFile(p.file); err != nil {
		return errors.Wrap(err, "failed to lock pool file")
	}
	defer unlockFile(p.file)

	fi, err := p.file.Stat()
	if err != nil {
		return errors.Wrap(err, "failed to stat pool file")
	}

	fileSize := int(fi.Size())
	if fileSize == 0 {
		if size <= 0 {
			return errors.Wrapf(customerrors.ErrInvalidCapacity, "pool file %s is empty", p.fileName)
		}
		if err := p.file.Truncate(int64(size)); err != nil {
			return errors.Wrap(err, "failed to size pool file")
		}
		fileSize = size
		p.fresh = true
	} else if size > 0 && fileSize != size {
		return errors.Wrapf(customerrors.ErrLayoutMismatch, "pool file %s is %d bytes, expected %d", p.fileName, fileSize, size)
	}

	p.mem, err = mmap.MapRegion(p.file, fileSize, mmap.RDWR, 0, 0)
	if err != nil {
		return errors.Wrap(err, "failed to map pool file")
	}
	p.data = p.mem

	if init != nil {
		if err := init(p.data, p.fresh); err != nil {
			return err
		}
	}
	if p.fresh {
		return p.Flush()
	}
	return nil
}

// Data returns the mapped region.
func (p *Pager) Data() []byte {
	return p.data
}

func (p *Pager) Size() int {
	return len(p.data)
}

// Fresh reports whether this Open created the region.
func (p *Pager) Fresh() bool {
	return p.fresh
}

// Flush writes a file-backed region back to its file.
func (p *Pager) Flush() error {
	if p.mem == nil {
		return nil
	}
	return errors.Wrap(p.mem.Flush(), "failed to flush pool file")
}

// Close unmaps the region. Other processes keep their own mappings.
func (p *Pager) Close() error {
	if p.closed {
		return customerrors.ErrClosed
	}
	p.closed = true

	var err error
	if p.mem != nil {
		if e := p.mem.Unmap(); e != nil {
			err = errors.Wrap(e, "failed to unmap pool file")
		}
		p.mem = nil
	}
	if p.file != nil {
		if e := p.file.Close(); e != nil && err == nil {
			err = errors.Wrap(e, "failed to close pool file")
		}
		p.file = nil
	}
	p.data = nil
	p.heap = nil
	return err
}
