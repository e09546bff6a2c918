package segment_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/urkeldb/urkeldb/internal/fsmem"
	"github.com/urkeldb/urkeldb/internal/segment"
)

func TestWriteThenReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	fs := fsmem.New()
	require.NoError(t, fs.MkdirAll("/db", 0755))

	h, err := segment.Open(fs, "/db", 1, true, 1<<20)
	require.NoError(t, err)

	pos, err := h.Write(ctx, []byte("hello segment"))
	require.NoError(t, err)
	require.Equal(t, uint32(0), pos)

	pos2, err := h.Write(ctx, []byte("!"))
	require.NoError(t, err)
	require.Equal(t, uint32(len("hello segment")), pos2)

	got, err := h.Read(ctx, 0, len("hello segment"))
	require.NoError(t, err)
	require.Equal(t, "hello segment", string(got))

	gotSync, err := h.ReadSync(0, len("hello segment"))
	require.NoError(t, err)
	require.Equal(t, "hello segment", string(gotSync))

	require.Equal(t, int64(len("hello segment!")), h.Size())
}

func TestReadPastEndOfFileErrors(t *testing.T) {
	ctx := context.Background()
	fs := fsmem.New()
	require.NoError(t, fs.MkdirAll("/db", 0755))
	h, err := segment.Open(fs, "/db", 1, true, 1<<20)
	require.NoError(t, err)

	_, err = h.Write(ctx, []byte("ab"))
	require.NoError(t, err)

	_, err = h.Read(ctx, 0, 10)
	require.Error(t, err)
}

func TestReadsCounterTracksOutstandingReads(t *testing.T) {
	ctx := context.Background()
	fs := fsmem.New()
	require.NoError(t, fs.MkdirAll("/db", 0755))
	h, err := segment.Open(fs, "/db", 1, true, 1<<20)
	require.NoError(t, err)
	_, err = h.Write(ctx, []byte("abcd"))
	require.NoError(t, err)

	require.EqualValues(t, 0, h.Reads())
	_, err = h.Read(ctx, 0, 4)
	require.NoError(t, err)
	require.EqualValues(t, 0, h.Reads()) // Read releases before returning
}

func TestTruncateDiscardsTail(t *testing.T) {
	ctx := context.Background()
	fs := fsmem.New()
	require.NoError(t, fs.MkdirAll("/db", 0755))
	h, err := segment.Open(fs, "/db", 1, true, 1<<20)
	require.NoError(t, err)
	_, err = h.Write(ctx, []byte("0123456789"))
	require.NoError(t, err)

	require.NoError(t, h.Truncate(ctx, 4))
	require.Equal(t, int64(4), h.Size())

	got, err := h.Read(ctx, 0, 4)
	require.NoError(t, err)
	require.Equal(t, "0123", string(got))
}

func TestHandleCacheOpensAndEvicts(t *testing.T) {
	fs := fsmem.New()
	require.NoError(t, fs.MkdirAll("/db", 0755))
	c := segment.NewCache(fs, "/db", 1<<20)

	// Fill past MaxOpenFiles with non-current, zero-read handles; eviction
	// should keep the cache from growing unboundedly even though it's a
	// soft cap.
	for i := uint32(1); i <= segment.MaxOpenFiles+8; i++ {
		c.SetCurrent(i) // pretend each new one is momentarily current
		_, err := c.Get(i, true)
		require.NoError(t, err)
	}
	require.LessOrEqual(t, c.Len(), segment.MaxOpenFiles+1)

	require.NoError(t, c.CloseAll())
	require.Equal(t, 0, c.Len())
}

func TestHandleCacheGetIsIdempotentPerIndex(t *testing.T) {
	fs := fsmem.New()
	require.NoError(t, fs.MkdirAll("/db", 0755))
	c := segment.NewCache(fs, "/db", 1<<20)

	h1, err := c.Get(1, true)
	require.NoError(t, err)
	h2, err := c.Get(1, true)
	require.NoError(t, err)
	require.Same(t, h1, h2)
}
