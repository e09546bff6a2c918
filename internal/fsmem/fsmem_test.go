package fsmem_test

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/urkeldb/urkeldb/internal/fsmem"
)

// A file written through one handle is visible through a second handle
// opened against the same path, the way two segment.Handles sharing an
// index would expect.
func TestWriteThenReadRoundTrips(t *testing.T) {
	fs := fsmem.New()
	ctx := context.Background()

	w, err := fs.OpenFile("/data/0000000001.dat", true, 0)
	require.NoError(t, err)
	_, err = w.WriteAt(ctx, []byte("hello urkel"), 0)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := fs.OpenFile("/data/0000000001.dat", false, 0)
	require.NoError(t, err)
	defer r.Close()

	buf := make([]byte, 11)
	n, err := r.ReadAtSync(buf, 0)
	require.NoError(t, err)
	require.Equal(t, 11, n)
	require.Equal(t, "hello urkel", string(buf))

	size, err := r.Size()
	require.NoError(t, err)
	require.Equal(t, int64(11), size)
}

// OpenFile without create against a path that was never written fails with
// a not-exist error, the same as the real os-backed FS would.
func TestOpenFileWithoutCreateMissingPathFails(t *testing.T) {
	fs := fsmem.New()
	_, err := fs.OpenFile("/data/0000000001.dat", false, 0)
	require.Error(t, err)
	require.True(t, os.IsNotExist(err))
}

// A read past end of file reports io.EOF, not a zero-filled buffer.
func TestReadPastEndOfFileReportsEOF(t *testing.T) {
	fs := fsmem.New()
	ctx := context.Background()

	h, err := fs.OpenFile("/data/0000000001.dat", true, 0)
	require.NoError(t, err)
	_, err = h.WriteAt(ctx, []byte("ab"), 0)
	require.NoError(t, err)

	buf := make([]byte, 4)
	_, err = h.ReadAtSync(buf, 0)
	require.ErrorIs(t, err, io.EOF)
}

// Truncate both shrinks and zero-extends, matching os.File.Truncate.
func TestTruncateShrinksAndGrows(t *testing.T) {
	fs := fsmem.New()
	ctx := context.Background()

	h, err := fs.OpenFile("/data/0000000001.dat", true, 0)
	require.NoError(t, err)
	_, err = h.WriteAt(ctx, []byte("0123456789"), 0)
	require.NoError(t, err)

	require.NoError(t, h.Truncate(ctx, 4))
	size, err := h.Size()
	require.NoError(t, err)
	require.Equal(t, int64(4), size)

	require.NoError(t, h.Truncate(ctx, 8))
	size, err = h.Size()
	require.NoError(t, err)
	require.Equal(t, int64(8), size)

	buf := make([]byte, 8)
	n, err := h.ReadAtSync(buf, 0)
	require.NoError(t, err)
	require.Equal(t, 8, n)
	require.Equal(t, []byte{'0', '1', '2', '3', 0, 0, 0, 0}, buf)
}

// ReadDir lists only the files directly inside the named directory, the
// shape listSegments relies on to discover segment files.
func TestReadDirListsImmediateChildrenOnly(t *testing.T) {
	fs := fsmem.New()
	ctx := context.Background()

	for _, name := range []string{
		"/data/0000000001.dat",
		"/data/0000000002.dat",
	} {
		h, err := fs.OpenFile(name, true, 0)
		require.NoError(t, err)
		_, err = h.WriteAt(ctx, []byte("x"), 0)
		require.NoError(t, err)
		require.NoError(t, h.Close())
	}

	entries, err := fs.ReadDir("/data")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "0000000001.dat", entries[0].Name())
	require.Equal(t, "0000000002.dat", entries[1].Name())
}

// Corrupt simulates a torn trailing write: truncating to a shorter length
// and appending junk bytes past the last valid record, the scenario
// recovery's backward scan must tolerate.
func TestCorruptTruncatesAndAppendsJunk(t *testing.T) {
	fs := fsmem.New()
	ctx := context.Background()

	h, err := fs.OpenFile("/data/0000000001.dat", true, 0)
	require.NoError(t, err)
	_, err = h.WriteAt(ctx, []byte("0123456789"), 0)
	require.NoError(t, err)

	fs.Corrupt("/data/0000000001.dat", 4, []byte{0xde, 0xad})

	size, err := h.Size()
	require.NoError(t, err)
	require.Equal(t, int64(6), size)

	buf := make([]byte, 6)
	_, err = h.ReadAtSync(buf, 0)
	require.NoError(t, err)
	require.Equal(t, []byte{'0', '1', '2', '3', 0xde, 0xad}, buf)
}

// Rmdir refuses a non-empty directory, and Unlink then Rmdir succeeds once
// it is empty - the path Store.Destroy relies on.
func TestRmdirRequiresEmptyDirectory(t *testing.T) {
	fs := fsmem.New()
	ctx := context.Background()

	h, err := fs.OpenFile("/data/0000000001.dat", true, 0)
	require.NoError(t, err)
	_, err = h.WriteAt(ctx, []byte("x"), 0)
	require.NoError(t, err)

	require.Error(t, fs.Rmdir("/data"))

	require.NoError(t, fs.Unlink("/data/0000000001.dat"))
	require.NoError(t, fs.Rmdir("/data"))

	_, err = fs.ReadDir("/data")
	require.Error(t, err)
}
