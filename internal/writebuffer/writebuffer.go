// Package writebuffer implements the growable staging area that commits
// render node and value bytes into before they are appended to segment
// files. Its defining job is keeping every record inside one segment: it
// rolls over to the next segment whenever a pending write would cross the
// configured size limit, and every returned position already accounts for
// that rollover, so callers never have to reason about where a write landed
// relative to a boundary.
package writebuffer

import (
	"fmt"

	"github.com/urkeldb/urkeldb/types"
)

const (
	baseCapacity = 8 * 1024

	// FlushThreshold is the accumulated-bytes mark past which NeedsFlush
	// recommends the caller commit rather than keep staging.
	FlushThreshold = 120 * 1024 * 1024
)

// Chunk is a contiguous run of bytes destined for one segment, produced by
// Flush. StartOffset is the byte offset within Segment where Data begins.
type Chunk struct {
	Segment     uint32
	StartOffset uint32
	Data        []byte
}

// Buffer is a growable staging area for one writer. It is not safe for
// concurrent use; callers serialize access themselves (the store's
// single-writer discipline).
type Buffer struct {
	maxFileSize int64

	segment     uint32
	startOffset uint32 // offset within segment where cur begins
	cur         []byte

	chunks []Chunk

	bytesWritten int64 // total bytes staged since the last Flush
}

// New returns a Buffer that rolls segments at maxFileSize bytes.
func New(maxFileSize int64) *Buffer {
	return &Buffer{maxFileSize: maxFileSize}
}

// Start (re)positions the buffer to begin staging at (segment, offset),
// discarding any prior unflushed state. Called once on store open; rotation
// is handled inside Expand and does not go through Start.
func (b *Buffer) Start(segment, offset uint32) {
	b.segment = segment
	b.startOffset = offset
	b.cur = nil
	b.chunks = nil
	b.bytesWritten = 0
}

// Position reports where the next Write/Pad call would begin, as of right
// now — i.e. before any rollover a subsequent call of size n might trigger.
func (b *Buffer) Position() types.Pointer {
	return types.Pointer{Segment: b.segment, Offset: b.startOffset + uint32(len(b.cur))}
}

// Expand ensures the next n bytes can be appended without crossing
// maxFileSize. If they would, the current chunk is sealed, the segment
// index advances, and the local offset resets to 0. Callers that need the
// position a write landed at must read Position() after calling Expand (or
// simply call Write/Pad, which do this internally), never before.
func (b *Buffer) Expand(n int) error {
	if int64(n) > b.maxFileSize {
		return fmt.Errorf("writebuffer: record of %d bytes exceeds max segment size %d", n, b.maxFileSize)
	}
	localPos := int64(b.startOffset) + int64(len(b.cur))
	if localPos+int64(n) > b.maxFileSize {
		b.sealChunk()
		b.segment++
		b.startOffset = 0
	}
	b.ensureCap(n)
	return nil
}

func (b *Buffer) sealChunk() {
	if len(b.cur) > 0 {
		b.chunks = append(b.chunks, Chunk{Segment: b.segment, StartOffset: b.startOffset, Data: b.cur})
	}
	b.cur = nil
}

func (b *Buffer) ensureCap(extra int) {
	need := len(b.cur) + extra
	if cap(b.cur) >= need {
		return
	}
	newCap := cap(b.cur)
	if newCap == 0 {
		newCap = baseCapacity
	}
	for newCap < need {
		newCap *= 2
	}
	grown := make([]byte, len(b.cur), newCap)
	copy(grown, b.cur)
	b.cur = grown
}

// Write expands capacity (rolling a segment if needed), appends p, and
// returns the position p now starts at. The returned pointer always names
// the segment the bytes actually landed in, even when that call just
// rolled over.
func (b *Buffer) Write(p []byte) (types.Pointer, error) {
	if err := b.Expand(len(p)); err != nil {
		return types.Pointer{}, err
	}
	pos := b.Position()
	b.cur = append(b.cur, p...)
	b.bytesWritten += int64(len(p))
	return pos, nil
}

// Pad appends n zero bytes, rolling over first if required, and returns the
// position the padding starts at.
func (b *Buffer) Pad(n int) (types.Pointer, error) {
	if err := b.Expand(n); err != nil {
		return types.Pointer{}, err
	}
	pos := b.Position()
	b.cur = append(b.cur, make([]byte, n)...)
	b.bytesWritten += int64(n)
	return pos, nil
}

// Flush returns every chunk staged since the last Flush (sealed chunks plus
// whatever is still open in the current segment) and resets internal
// bookkeeping for a new staging round. The buffer remains positioned at the
// end of what it just flushed; it does not start a new segment.
func (b *Buffer) Flush() []Chunk {
	b.sealChunk()
	out := b.chunks
	if len(out) > 0 {
		last := out[len(out)-1]
		b.startOffset = last.StartOffset + uint32(len(last.Data))
	}
	b.chunks = nil
	b.bytesWritten = 0
	return out
}

// NeedsFlush reports whether enough bytes have been staged since the last
// Flush that the caller should commit rather than keep buffering.
func (b *Buffer) NeedsFlush() bool {
	return b.bytesWritten >= FlushThreshold
}
