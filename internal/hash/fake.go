package hash

import (
	"crypto/sha256"

	"github.com/urkeldb/urkeldb/types"
)

// sha256Hash is a stdlib-backed Hash capability used only by tests that want
// a second, independently-implemented capability to rule out the production
// blake2b implementation accidentally being load-bearing for correctness.
type sha256Hash struct {
	zero []byte
}

// NewSHA256 returns a sha256-backed Hash capability for tests.
func NewSHA256() types.Hash {
	return &sha256Hash{zero: make([]byte, sha256.Size)}
}

func (h *sha256Hash) Size() int { return sha256.Size }

func (h *sha256Hash) ZeroDigest() []byte {
	out := make([]byte, len(h.zero))
	copy(out, h.zero)
	return out
}

func (h *sha256Hash) Digest(b []byte) []byte {
	sum := sha256.Sum256(b)
	return sum[:]
}

func (h *sha256Hash) HashInternal(left, right []byte) []byte {
	buf := make([]byte, 0, 1+len(left)+len(right))
	buf = append(buf, internalTag)
	buf = append(buf, left...)
	buf = append(buf, right...)
	return h.Digest(buf)
}
