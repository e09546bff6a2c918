package types

// MetaSize is the fixed width of a meta record (section 3.3): 4 byte magic +
// 2 byte prev segment + 4 byte prev offset + 2 byte root segment + 4 byte
// root offset + 20 byte checksum.
const MetaSize = 36

// MetaMagic is the constant 4-byte little-endian magic that opens every
// meta record.
const MetaMagic uint32 = 0x6d726b6c

// ChecksumSize is the width of the checksum field: the first 20 bytes of
// digest(header[0..16]).
const ChecksumSize = 20

// Meta is the in-memory decoding of a 36-byte checkpoint record. It names
// the committed root and links backward to the previous checkpoint, forming
// the history chain walked by get_history.
type Meta struct {
	// Magic is always MetaMagic once a record is known to be valid; kept
	// here so callers can reconstruct bytes without consulting the package
	// constant explicitly.
	Magic uint32

	// PrevMetaSegment/PrevMetaOffset point to the previous checkpoint, or
	// (0, 0) if this is the first meta ever written.
	PrevMetaSegment uint32
	PrevMetaOffset  uint32

	// RootSegment/RootOffset point at the committed root node. Both zero
	// means the committed tree is empty (root is the Null sentinel).
	RootSegment uint32
	RootOffset  uint32

	// Checksum is the first ChecksumSize bytes of digest(header[0..16]).
	Checksum []byte

	// Self is where this meta record itself lives; not part of the wire
	// encoding, filled in by the reader/scanner for convenience.
	Self Pointer
}

// PrevPointer returns the location of the previous meta in the history
// chain, or the zero Pointer if this is the first checkpoint.
func (m Meta) PrevPointer() Pointer {
	return Pointer{Segment: m.PrevMetaSegment, Offset: m.PrevMetaOffset}
}

// RootPointer returns the location of the committed root node, or the zero
// Pointer if the committed tree is empty.
func (m Meta) RootPointer() Pointer {
	return Pointer{Segment: m.RootSegment, Offset: m.RootOffset}
}
