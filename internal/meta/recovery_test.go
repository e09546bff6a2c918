package meta_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/urkeldb/urkeldb/internal/fsmem"
	"github.com/urkeldb/urkeldb/internal/hash"
	"github.com/urkeldb/urkeldb/internal/meta"
	"github.com/urkeldb/urkeldb/internal/segment"
	"github.com/urkeldb/urkeldb/types"
)

func writeMeta(t *testing.T, ctx context.Context, h *segment.Handle, hashFn types.Hash, m types.Meta) uint32 {
	t.Helper()
	buf := meta.Encode(m, hashFn)
	pos, err := h.Write(ctx, buf)
	require.NoError(t, err)
	return pos
}

func TestRecoverEmptyDirIsFreshStore(t *testing.T) {
	ctx := context.Background()
	fs := fsmem.New()
	require.NoError(t, fs.MkdirAll("/db", 0755))
	cache := segment.NewCache(fs, "/db", 1<<20)

	_, _, found, _, err := meta.Recover(ctx, hash.Default(), cache, fs, "/db", nil)
	require.NoError(t, err)
	require.False(t, found)
}

func TestRecoverFindsSingleValidMeta(t *testing.T) {
	ctx := context.Background()
	fs := fsmem.New()
	require.NoError(t, fs.MkdirAll("/db", 0755))
	h := hash.Default()
	cache := segment.NewCache(fs, "/db", 1<<20)

	seg, err := cache.Get(1, true)
	require.NoError(t, err)
	_, err = seg.Write(ctx, make([]byte, 144)) // pretend some node data (padded to a meta-aligned length) precedes the meta
	require.NoError(t, err)
	offset := writeMeta(t, ctx, seg, h, types.Meta{RootSegment: 1, RootOffset: 0})

	m, idx, found, _, err := meta.Recover(ctx, h, cache, fs, "/db", []uint32{1})
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, uint32(1), idx)
	require.Equal(t, offset, m.Self.Offset)
	require.Equal(t, uint32(1), m.RootSegment)

	require.Equal(t, int64(offset)+int64(types.MetaSize), seg.Size())
}

func TestRecoverTruncatesTornTail(t *testing.T) {
	ctx := context.Background()
	fs := fsmem.New()
	require.NoError(t, fs.MkdirAll("/db", 0755))
	h := hash.Default()
	cache := segment.NewCache(fs, "/db", 1<<20)

	seg, err := cache.Get(1, true)
	require.NoError(t, err)
	offset := writeMeta(t, ctx, seg, h, types.Meta{RootSegment: 1, RootOffset: 0})
	// Simulate a torn trailing write: a node started but never finished.
	_, err = seg.Write(ctx, []byte{0x02, 0xDE, 0xAD})
	require.NoError(t, err)
	require.Greater(t, seg.Size(), int64(offset)+int64(types.MetaSize))

	m, _, found, _, err := meta.Recover(ctx, h, cache, fs, "/db", []uint32{1})
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, offset, m.Self.Offset)
	require.Equal(t, int64(offset)+int64(types.MetaSize), seg.Size())
}

func TestRecoverPicksNewestMetaInWindow(t *testing.T) {
	ctx := context.Background()
	fs := fsmem.New()
	require.NoError(t, fs.MkdirAll("/db", 0755))
	h := hash.Default()
	cache := segment.NewCache(fs, "/db", 1<<20)

	seg, err := cache.Get(1, true)
	require.NoError(t, err)
	first := writeMeta(t, ctx, seg, h, types.Meta{RootSegment: 1, RootOffset: 0})
	second := writeMeta(t, ctx, seg, h, types.Meta{
		PrevMetaSegment: 1,
		PrevMetaOffset:  first,
		RootSegment:     1,
		RootOffset:      64,
	})
	require.Greater(t, second, first)

	m, _, found, _, err := meta.Recover(ctx, h, cache, fs, "/db", []uint32{1})
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, second, m.Self.Offset)
	require.Equal(t, uint32(64), m.RootOffset)
}

func TestRecoverSkipsSegmentWithNoValidMetaAndUnlinks(t *testing.T) {
	ctx := context.Background()
	fs := fsmem.New()
	require.NoError(t, fs.MkdirAll("/db", 0755))
	h := hash.Default()
	cache := segment.NewCache(fs, "/db", 1<<20)

	seg1, err := cache.Get(1, true)
	require.NoError(t, err)
	good := writeMeta(t, ctx, seg1, h, types.Meta{RootSegment: 1, RootOffset: 0})

	seg2, err := cache.Get(2, true)
	require.NoError(t, err)
	_, err = seg2.Write(ctx, make([]byte, int(types.MetaSize)*3)) // all zero, no magic anywhere
	require.NoError(t, err)

	m, idx, found, _, err := meta.Recover(ctx, h, cache, fs, "/db", []uint32{2, 1})
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, uint32(1), idx)
	require.Equal(t, good, m.Self.Offset)

	_, statErr := fs.Lstat("/db/" + segment.FileName(2))
	require.Error(t, statErr, "segment with no valid meta must be unlinked")
}

func TestRecoverCorruptedChecksumIsSkipped(t *testing.T) {
	ctx := context.Background()
	fs := fsmem.New()
	require.NoError(t, fs.MkdirAll("/db", 0755))
	h := hash.Default()
	cache := segment.NewCache(fs, "/db", 1<<20)

	seg, err := cache.Get(1, true)
	require.NoError(t, err)
	good := writeMeta(t, ctx, seg, h, types.Meta{RootSegment: 1, RootOffset: 0})

	// Write a second meta-sized record with the right magic but a corrupt
	// checksum; recovery must keep walking to the older, valid one.
	corrupt := meta.Encode(types.Meta{RootSegment: 1, RootOffset: 128}, h)
	corrupt[len(corrupt)-1] ^= 0xFF
	_, err = seg.Write(ctx, corrupt)
	require.NoError(t, err)

	m, _, found, _, err := meta.Recover(ctx, h, cache, fs, "/db", []uint32{1})
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, good, m.Self.Offset)
}
