package pool

import (
	"encoding/binary"
	"errors"

	"github.com/google/uuid"
)

// bin is the byte order of the metadata header.
var bin = binary.LittleEndian

const (
	magic              = 0x0D1E
	version            = uint8(0x1)
	metadataHeaderSize = 64
)

// metadata is the header at the start of a pool region.
type metadata struct {
	magic        uint16    // magic marker to identify a pool
	version      uint8     // version of the layout
	flags        uint8     // flags (unused)
	elementSize  uint16    // size of one element slot
	capacity     uint32    // number of elements, sentinels excluded
	enrolledHead uint32    // slot of the enrolled sentinel
	idleHead     uint32    // slot of the idle sentinel
	id           uuid.UUID // identity of the pool, fixed at creation
}

func (m metadata) MarshalBinary() ([]byte, error) {
	buf := make([]byte, metadataHeaderSize)

	bin.PutUint16(buf[0:2], m.magic)
	buf[2] = m.version
	buf[3] = m.flags
	bin.PutUint16(buf[4:6], m.elementSize)
	bin.PutUint32(buf[8:12], m.capacity)
	bin.PutUint32(buf[12:16], m.enrolledHead)
	bin.PutUint32(buf[16:20], m.idleHead)
	copy(buf[20:36], m.id[:])

	return buf, nil
}

func (m *metadata) UnmarshalBinary(d []byte) error {
	if len(d) < metadataHeaderSize {
		return errors.New("in-sufficient data for unmarshal")
	} else if m == nil {
		return errors.New("cannot unmarshal into nil")
	}

	m.magic = bin.Uint16(d[0:2])
	m.version = d[2]
	m.flags = d[3]
	m.elementSize = bin.Uint16(d[4:6])
	m.capacity = bin.Uint32(d[8:12])
	m.enrolledHead = bin.Uint32(d[12:16])
	m.idleHead = bin.Uint32(d[16:20])
	copy(m.id[:], d[20:36])

	return nil
}
