// Package codec implements the fixed-width node encoding of spec section
// 4.1: tag-prefixed Internal and (zero-padded) Leaf records that always
// occupy exactly Layout.NodeSize bytes, so that a node never straddles two
// segments and the tag byte alone disambiguates the two on-disk shapes.
package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/urkeldb/urkeldb/types"
)

// Layout derives the fixed widths for a given digest size and key size
// (bits/8, the tree's key width in bytes), per the invariants of spec
// section 3.2:
//
//	node_size = 1 + 2*(D + 2 + 4)
//	leaf_size = 1 + D + bits/8 + 2 + 4 + 4   (must be <= node_size)
type Layout struct {
	DigestSize int
	KeySize    int
}

// NodeSize is the fixed width of every persisted node slot.
func (l Layout) NodeSize() int {
	return 1 + 2*(l.DigestSize+2+4)
}

// LeafSize is the width of the unpadded Leaf payload.
func (l Layout) LeafSize() int {
	return 1 + l.DigestSize + l.KeySize + 2 + 4 + 4
}

// Valid reports whether the layout satisfies leaf_size <= node_size.
func (l Layout) Valid() bool {
	return l.LeafSize() <= l.NodeSize()
}

// Encode renders n into a freshly-allocated Layout.NodeSize() buffer. n must
// be KindInternal or KindLeaf; zeroDigest must be the hash capability's
// zero digest (used to detect Null children that need their digest written
// as all-zero with zeroed pointer fields).
func Encode(l Layout, n *types.Node, zeroDigest []byte) ([]byte, error) {
	buf := make([]byte, l.NodeSize())

	switch n.Kind {
	case types.KindInternal:
		buf[0] = types.TagInternal
		off := 1
		off = encodeChild(buf, off, n.Left, l.DigestSize, zeroDigest)
		encodeChild(buf, off, n.Right, l.DigestSize, zeroDigest)
		return buf, nil

	case types.KindLeaf:
		if len(n.Key) != l.KeySize {
			return nil, fmt.Errorf("codec: leaf key is %d bytes, want %d", len(n.Key), l.KeySize)
		}
		buf[0] = types.TagLeaf
		off := 1
		copy(buf[off:off+l.DigestSize], n.LeafDigest)
		off += l.DigestSize
		copy(buf[off:off+l.KeySize], n.Key)
		off += l.KeySize
		binary.LittleEndian.PutUint16(buf[off:], uint16(n.ValueSegment))
		off += 2
		binary.LittleEndian.PutUint32(buf[off:], n.ValueOffset)
		off += 4
		binary.LittleEndian.PutUint32(buf[off:], n.ValueSize)
		// remaining bytes are already zero (padding to NodeSize).
		return buf, nil

	default:
		return nil, fmt.Errorf("codec: cannot encode node kind %s", n.Kind)
	}
}

func encodeChild(buf []byte, off int, c types.Child, digestSize int, zeroDigest []byte) int {
	if c.Kind == types.KindNull || len(c.Digest) == 0 {
		copy(buf[off:off+digestSize], zeroDigest)
		off += digestSize
		// pointer fields stay zero.
		return off + 2 + 4
	}
	copy(buf[off:off+digestSize], c.Digest)
	off += digestSize
	binary.LittleEndian.PutUint16(buf[off:], uint16(c.Pointer.Segment))
	off += 2
	binary.LittleEndian.PutUint32(buf[off:], c.Pointer.Offset)
	off += 4
	return off
}

// Decode parses buf (exactly Layout.NodeSize() bytes) into a Node placed at
// (segment, offset). Any tag byte other than TagInternal/TagLeaf is
// types.ErrDatabaseCorruption. A child whose digest equals zeroDigest is
// decoded as the Null sentinel regardless of its pointer fields, per spec
// section 4.1.
func Decode(l Layout, buf []byte, segment, offset uint32, zeroDigest []byte) (*types.Node, error) {
	if len(buf) != l.NodeSize() {
		return nil, fmt.Errorf("codec: buffer is %d bytes, want %d", len(buf), l.NodeSize())
	}

	var n *types.Node
	switch buf[0] {
	case types.TagInternal:
		off := 1
		left, off := decodeChild(buf, off, l.DigestSize, zeroDigest)
		right, _ := decodeChild(buf, off, l.DigestSize, zeroDigest)
		n = types.NewInternalNode(left, right)

	case types.TagLeaf:
		off := 1
		digest := clone(buf[off : off+l.DigestSize])
		off += l.DigestSize
		key := clone(buf[off : off+l.KeySize])
		off += l.KeySize
		valueSegment := binary.LittleEndian.Uint16(buf[off:])
		off += 2
		valueOffset := binary.LittleEndian.Uint32(buf[off:])
		off += 4
		valueSize := binary.LittleEndian.Uint32(buf[off:])

		leaf := types.NewLeafNode(key, digest)
		leaf.ValueSegment = uint32(valueSegment)
		leaf.ValueOffset = valueOffset
		leaf.ValueSize = valueSize
		n = leaf

	default:
		return nil, fmt.Errorf("%w: unknown node tag 0x%02x at segment %d offset %d",
			types.ErrDatabaseCorruption, buf[0], segment, offset)
	}

	n.SetPlacement(segment, offset)
	return n, nil
}

func decodeChild(buf []byte, off, digestSize int, zeroDigest []byte) (types.Child, int) {
	digest := clone(buf[off : off+digestSize])
	off += digestSize
	segment := binary.LittleEndian.Uint16(buf[off:])
	off += 2
	pointerOffset := binary.LittleEndian.Uint32(buf[off:])
	off += 4

	if isZero(digest) {
		return types.NullChild(zeroDigest), off
	}
	return types.HashChild(digest, types.Pointer{Segment: uint32(segment), Offset: pointerOffset}), off
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
