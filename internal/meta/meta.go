// Package meta encodes, decodes, and verifies the 36-byte checkpoint record
// that anchors a committed root and links backward to the previous
// checkpoint. It is the store's analogue of the teacher's metaDB concept,
// but self-contained inside the segment stream rather than an external
// store, per the checksum-authenticated, magic-framed record this design
// calls for.
package meta

import (
	"encoding/binary"
	"fmt"

	"github.com/urkeldb/urkeldb/types"
)

const headerLen = 16 // magic + prev_meta_segment + prev_meta_offset + root_segment + root_offset

// Encode renders m into a types.MetaSize buffer, computing the checksum
// over the 16-byte header with h.
func Encode(m types.Meta, h types.Hash) []byte {
	buf := make([]byte, types.MetaSize)
	binary.LittleEndian.PutUint32(buf[0:4], types.MetaMagic)
	binary.LittleEndian.PutUint16(buf[4:6], uint16(m.PrevMetaSegment))
	binary.LittleEndian.PutUint32(buf[6:10], m.PrevMetaOffset)
	binary.LittleEndian.PutUint16(buf[10:12], uint16(m.RootSegment))
	binary.LittleEndian.PutUint32(buf[12:16], m.RootOffset)

	sum := h.Digest(buf[:headerLen])
	copy(buf[headerLen:], sum[:types.ChecksumSize])
	return buf
}

// Decode parses buf (exactly types.MetaSize bytes) as a meta record placed
// at (segment, offset), verifying its magic and checksum against h. A
// magic mismatch is reported distinctly from a checksum mismatch so
// recovery can tell "not a meta record at all" from "torn write".
func Decode(buf []byte, segment, offset uint32, h types.Hash) (types.Meta, error) {
	if len(buf) != types.MetaSize {
		return types.Meta{}, fmt.Errorf("meta: buffer is %d bytes, want %d", len(buf), types.MetaSize)
	}

	magic := binary.LittleEndian.Uint32(buf[0:4])
	if magic != types.MetaMagic {
		return types.Meta{}, fmt.Errorf("%w: bad magic 0x%08x at segment %d offset %d",
			types.ErrInvalidMagic, magic, segment, offset)
	}

	sum := h.Digest(buf[:headerLen])
	if !bytesEqual(sum[:types.ChecksumSize], buf[headerLen:types.MetaSize]) {
		return types.Meta{}, fmt.Errorf("%w: checksum mismatch at segment %d offset %d",
			types.ErrInvalidChecksum, segment, offset)
	}

	m := types.Meta{
		Magic:           magic,
		PrevMetaSegment: uint32(binary.LittleEndian.Uint16(buf[4:6])),
		PrevMetaOffset:  binary.LittleEndian.Uint32(buf[6:10]),
		RootSegment:     uint32(binary.LittleEndian.Uint16(buf[10:12])),
		RootOffset:      binary.LittleEndian.Uint32(buf[12:16]),
		Checksum:        append([]byte(nil), buf[headerLen:types.MetaSize]...),
		Self:            types.Pointer{Segment: segment, Offset: offset},
	}
	return m, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
