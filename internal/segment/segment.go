// Package segment wraps one on-disk segment file with the read/write
// accounting the store needs: an outstanding-read counter that vetoes cache
// eviction while a traversal is mid-read, and both an asynchronous and a
// synchronous read path, so a read-locked tree walk never has to hop back
// onto a scheduler mid-traversal (the teacher's segment.Reader plays the
// read-path role this type generalizes from "replay a sealed log" to
// "serve concurrent node reads against a live, still-growing file").
package segment

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/urkeldb/urkeldb/types"
)

// FileName returns the canonical on-disk name for segment index.
func FileName(index uint32) string {
	return fmt.Sprintf("%010d.dat", index)
}

// Handle is an open segment file: an append cursor plus accounted reads.
type Handle struct {
	index int64
	file  types.File

	size  int64 // current on-disk length; only the writer (single-threaded) mutates this
	reads int32 // atomic outstanding-read count
}

// Open opens (creating if needed and allowed) the segment file for index in
// dir via fs, and stats its current size.
func Open(fs types.FS, dir string, index uint32, create bool, maxFileSize int64) (*Handle, error) {
	path := dir + "/" + FileName(index)
	f, err := fs.OpenFile(path, create, maxFileSize)
	if err != nil {
		return nil, err
	}
	size, err := f.Size()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Handle{index: int64(index), file: f, size: size}, nil
}

// Index is this handle's segment index.
func (h *Handle) Index() uint32 { return uint32(h.index) }

// Size is the current on-disk length, as tracked by the writer.
func (h *Handle) Size() int64 { return atomic.LoadInt64(&h.size) }

// Reads reports the number of outstanding read operations. The handle
// cache refuses to evict a handle while this is non-zero.
func (h *Handle) Reads() int32 { return atomic.LoadInt32(&h.reads) }

// Write appends p at the current end of file and advances Size. Callers
// (the store's single writer) are responsible for ensuring p does not push
// the segment past its configured maximum size; Handle itself does not
// enforce that limit, the write buffer does.
func (h *Handle) Write(ctx context.Context, p []byte) (uint32, error) {
	pos := atomic.LoadInt64(&h.size)
	if _, err := h.file.WriteAt(ctx, p, pos); err != nil {
		return 0, err
	}
	atomic.StoreInt64(&h.size, pos+int64(len(p)))
	return uint32(pos), nil
}

// Read reads size bytes at offset via the asynchronous path, incrementing
// Reads for the duration of the call.
func (h *Handle) Read(ctx context.Context, offset uint32, size int) ([]byte, error) {
	atomic.AddInt32(&h.reads, 1)
	defer atomic.AddInt32(&h.reads, -1)

	buf := make([]byte, size)
	if _, err := readFull(func(p []byte, off int64) (int, error) {
		return h.file.ReadAt(ctx, p, off)
	}, buf, int64(offset)); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadSync is the synchronous counterpart of Read, for callers (tree
// traversal under a read lock) that must not interleave with an async
// scheduler mid-walk.
func (h *Handle) ReadSync(offset uint32, size int) ([]byte, error) {
	atomic.AddInt32(&h.reads, 1)
	defer atomic.AddInt32(&h.reads, -1)

	buf := make([]byte, size)
	if _, err := readFull(func(p []byte, off int64) (int, error) {
		return h.file.ReadAtSync(p, off)
	}, buf, int64(offset)); err != nil {
		return nil, err
	}
	return buf, nil
}

// RawRead reads into a caller-supplied, reusable buffer (sized to exactly
// what's needed) rather than allocating, mirroring the teacher's
// scratch-buffer reuse around its frame header reads.
func (h *Handle) RawRead(ctx context.Context, offset uint32, buf []byte) (int, error) {
	atomic.AddInt32(&h.reads, 1)
	defer atomic.AddInt32(&h.reads, -1)

	return readFull(func(p []byte, off int64) (int, error) {
		return h.file.ReadAt(ctx, p, off)
	}, buf, int64(offset))
}

func readFull(readAt func(p []byte, off int64) (int, error), buf []byte, offset int64) (int, error) {
	n, err := readAt(buf, offset)
	if err == io.EOF && n == len(buf) {
		err = nil
	}
	if err != nil {
		return n, err
	}
	if n < len(buf) {
		return n, io.ErrUnexpectedEOF
	}
	return n, nil
}

// Sync flushes the segment to stable storage.
func (h *Handle) Sync(ctx context.Context) error {
	return h.file.Sync(ctx)
}

// Truncate shrinks or grows the segment to size, used by recovery to
// discard a torn trailing write.
func (h *Handle) Truncate(ctx context.Context, size int64) error {
	if err := h.file.Truncate(ctx, size); err != nil {
		return err
	}
	atomic.StoreInt64(&h.size, size)
	return nil
}

// Close releases the underlying file handle. The caller must ensure no
// reads are outstanding; Close does not wait for Reads() to reach zero.
func (h *Handle) Close() error {
	return h.file.Close()
}
