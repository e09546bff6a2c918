// Package types holds the data model, capability interfaces, and sentinel
// errors shared across the store's internal packages. Keeping these in one
// leaf package (with no internal/ dependents of its own) mirrors the
// teacher's convention of a shared types package imported by both the root
// orchestration layer and its segment/meta subpackages.
package types

// NodeKind tags the four node variants of section 3.1. Null and Hash are
// never themselves persisted - only Internal and Leaf occupy a node slot on
// disk - but all four show up as values flowing through the tree-facing API
// (get_root, read_node, and the Left/Right children of a resolved Internal).
type NodeKind uint8

const (
	// KindNull is the empty subtree sentinel. Its hash is always the hash
	// capability's zero digest.
	KindNull NodeKind = iota
	// KindInternal has two children and a memoized hash of both.
	KindInternal
	// KindLeaf stores a key, a pointer to its value payload, and a
	// precomputed leaf digest supplied by the tree layer.
	KindLeaf
	// KindHash is an unresolved reference to a node persisted elsewhere.
	// Resolving it means reading node_size bytes at (Segment, Offset) and
	// decoding them into KindInternal or KindLeaf.
	KindHash
)

func (k NodeKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInternal:
		return "internal"
	case KindLeaf:
		return "leaf"
	case KindHash:
		return "hash"
	default:
		return "unknown"
	}
}

// On-disk tag bytes. Only these two values are legal as the first byte of a
// persisted node_size slot; anything else is ErrDatabaseCorruption.
const (
	TagInternal byte = 0x01
	TagLeaf     byte = 0x02
)

// Pointer names an on-disk location: the segment a record lives in and its
// byte offset within that segment. Segment indices are 1-based; 0 means "no
// such segment" (used by the zero value and by prev_meta_segment==0 to mean
// "no previous meta").
type Pointer struct {
	Segment uint32
	Offset  uint32
}

// IsZero reports whether p names no location.
func (p Pointer) IsZero() bool {
	return p.Segment == 0 && p.Offset == 0
}

// Child is either the Null sentinel, an unresolved Hash pointer, or a
// Resolved node already loaded into memory. This is the sum type called for
// in spec section 9: "Model this as a sum type Child = Null | Hash{...} |
// Resolved(Box<Node>) and update the field in place on resolution."
type Child struct {
	Kind     NodeKind // KindNull, KindHash, or KindInternal/KindLeaf once resolved
	Digest   []byte   // child's hash; nil/zero digest for KindNull
	Pointer  Pointer  // valid when Kind == KindHash
	Resolved *Node    // valid once Kind is KindInternal or KindLeaf
}

// NullChild returns the Null sentinel child value carrying zeroDigest.
func NullChild(zeroDigest []byte) Child {
	return Child{Kind: KindNull, Digest: zeroDigest}
}

// HashChild returns an unresolved reference to a node at ptr with the given
// digest.
func HashChild(digest []byte, ptr Pointer) Child {
	return Child{Kind: KindHash, Digest: digest, Pointer: ptr}
}

// ResolvedChild wraps an already-loaded node as a child value.
func ResolvedChild(n *Node) Child {
	return Child{Kind: n.Kind, Digest: n.Hash(), Resolved: n}
}

// Node is the in-memory representation of a persisted Internal or Leaf
// record, or the Null/Hash sentinels that appear as children. Placement
// fields (Segment, Offset) are set once a node is written or read; per
// invariant, nodes are immutable after being assigned a position.
type Node struct {
	Kind NodeKind

	// Internal fields.
	Left, Right Child
	hash        []byte // memoized H_internal(left.hash, right.hash)

	// Leaf fields.
	Key          []byte
	LeafDigest   []byte
	ValueSegment uint32
	ValueOffset  uint32
	ValueSize    uint32

	// Transient placement, set when the node is written or read. Not part
	// of the on-disk payload of Internal/Leaf; only the child pointers of
	// an Internal encode a position.
	Segment uint32
	Offset  uint32
}

// NewNullNode builds the Null sentinel as a Node value. GetRoot reports an
// empty root as a NullChild, not as this Node.
func NewNullNode(zeroDigest []byte) *Node {
	return &Node{Kind: KindNull, hash: zeroDigest}
}

// NewInternalNode builds an Internal node from two children. The hash is
// computed lazily via Hash(hashInternal) and memoized.
func NewInternalNode(left, right Child) *Node {
	return &Node{Kind: KindInternal, Left: left, Right: right}
}

// NewLeafNode builds a Leaf node. leafDigest is computed by the tree layer
// and stored verbatim; this store never recomputes it.
func NewLeafNode(key, leafDigest []byte) *Node {
	return &Node{Kind: KindLeaf, Key: key, LeafDigest: leafDigest}
}

// Hash returns the node's digest, memoizing Internal hashes after first
// computation via hashFn. Leaf and Null nodes already carry their digest.
func (n *Node) Hash(hashFn ...func(left, right []byte) []byte) []byte {
	switch n.Kind {
	case KindNull:
		return n.hash
	case KindLeaf:
		return n.LeafDigest
	case KindInternal:
		if n.hash == nil && len(hashFn) > 0 {
			n.hash = hashFn[0](n.Left.Digest, n.Right.Digest)
		}
		return n.hash
	default:
		return nil
	}
}

// Placement reports the (segment, offset) this node was assigned when
// written or read.
func (n *Node) Placement() Pointer {
	return Pointer{Segment: n.Segment, Offset: n.Offset}
}

// SetPlacement assigns a disk location to a node. Callers must not call this
// twice for the same node: nodes are immutable once positioned.
func (n *Node) SetPlacement(segment, offset uint32) {
	n.Segment = segment
	n.Offset = offset
}
