package meta

import (
	"context"
	"encoding/binary"

	"github.com/urkeldb/urkeldb/internal/segment"
	"github.com/urkeldb/urkeldb/types"
)

// DefaultReadBufferSize is the nominal slab read size recovery scans
// backward in, before rounding down to a whole number of meta records.
const DefaultReadBufferSize = 1 << 20 // ~1 MiB

// SlabSize is the largest meta_size-aligned window recovery reads in one
// shot while scanning a segment backward.
func SlabSize() int64 {
	return (DefaultReadBufferSize / int64(types.MetaSize)) * int64(types.MetaSize)
}

// Recover performs the backward scan described for standalone opens: walk
// segments from highest to lowest index, and within each, scan
// slab-sized, meta-aligned windows from the end of the file backward
// looking for the newest valid meta record. The first one found wins; its
// segment is truncated to discard any torn trailing bytes past it. A
// segment with no valid meta anywhere is unlinked and the scan continues
// on its predecessor. If no segment yields a meta, the store is fresh.
//
// descending must list existing segment indices from highest to lowest.
// The returned byte count is the total read while scanning, for callers
// that want to report it (e.g. as a metric).
func Recover(ctx context.Context, hash types.Hash, cache *segment.Cache, fs types.FS, dir string, descending []uint32) (types.Meta, uint32, bool, int64, error) {
	var scanned int64
	for _, idx := range descending {
		h, err := cache.Get(idx, false)
		if err != nil {
			return types.Meta{}, 0, false, scanned, err
		}

		m, ok, n, err := scanSegmentBackward(ctx, hash, h)
		scanned += n
		if err != nil {
			return types.Meta{}, 0, false, scanned, err
		}
		if ok {
			truncSize := int64(m.Self.Offset) + int64(types.MetaSize)
			if err := h.Truncate(ctx, truncSize); err != nil {
				return types.Meta{}, 0, false, scanned, err
			}
			return m, idx, true, scanned, nil
		}

		cache.Evict(idx)
		if err := fs.Unlink(dir + "/" + segment.FileName(idx)); err != nil {
			return types.Meta{}, 0, false, scanned, err
		}
	}
	return types.Meta{}, 0, false, scanned, nil
}

func scanSegmentBackward(ctx context.Context, hash types.Hash, h *segment.Handle) (types.Meta, bool, int64, error) {
	slab := SlabSize()
	size := h.Size()
	var scanned int64

	// Only meta_size-aligned offsets are ever valid; ignore any unaligned
	// trailing bytes (the tail of an in-flight, not-yet-padded write).
	end := size - (size % int64(types.MetaSize))

	for end > 0 {
		start := end - slab
		if start < 0 {
			start = 0
		}
		start -= start % int64(types.MetaSize)
		windowLen := end - start

		buf, err := h.ReadSync(uint32(start), int(windowLen))
		if err != nil {
			return types.Meta{}, false, scanned, err
		}
		scanned += int64(len(buf))

		for pos := windowLen - int64(types.MetaSize); pos >= 0; pos -= int64(types.MetaSize) {
			slot := buf[pos : pos+int64(types.MetaSize)]
			if binary.LittleEndian.Uint32(slot[0:4]) != types.MetaMagic {
				continue
			}
			m, err := Decode(slot, h.Index(), uint32(start+pos), hash)
			if err != nil {
				// Magic matched by coincidence but the checksum didn't:
				// keep scanning rather than treating this as fatal.
				continue
			}
			return m, true, scanned, nil
		}

		end = start
	}
	return types.Meta{}, false, scanned, nil
}
