// Package fsreal is the production types.FS implementation, backed by the
// os package. Segment files are preallocated and the data directory is
// advisory-locked via github.com/coreos/etcd's pkg/fileutil, the way the
// wider raft-wal project family uses that package for its own segment
// files, grounded on the teacher's internal/storage.openSegmentFile
// (O_CREATE|O_RDWR, seek-to-end) flow.
package fsreal

import (
	"context"
	"io"
	"os"
	"sync/atomic"

	"github.com/coreos/etcd/pkg/fileutil"

	"github.com/urkeldb/urkeldb/types"
)

// FS is the os-backed implementation of types.FS.
type FS struct{}

// New returns the real filesystem capability.
func New() *FS { return &FS{} }

func (FS) MkdirAll(dir string, perm os.FileMode) error {
	return os.MkdirAll(dir, perm)
}

func (FS) ReadDir(dir string) ([]os.DirEntry, error) {
	return os.ReadDir(dir)
}

func (FS) Lstat(path string) (os.FileInfo, error) {
	return os.Lstat(path)
}

func (FS) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

func (FS) Unlink(path string) error {
	return os.Remove(path)
}

func (FS) Rmdir(path string) error {
	return os.Remove(path)
}

// OpenFile opens path for read/write, creating it with mode 0644 when
// create is true. New files are preallocated to maxSize bytes via
// fileutil.Preallocate so heavy segment rotation doesn't fragment writes;
// platforms fileutil doesn't support preallocation on simply see the call
// fall through as a no-op, matching fileutil's own internal fallback.
//
// fileutil.Preallocate's extend mode grows the file's apparent on-disk
// length to maxSize immediately, before a single real byte is appended, so
// the logical length handed back by Size() is tracked independently of the
// OS's view of the file from here on - the same split the wider raft-wal
// project family uses (segment.curN tracked in memory, never re-derived
// from a stat) rather than trusting fstat after preallocating.
func (FS) OpenFile(path string, create bool, maxSize int64) (types.File, error) {
	flags := os.O_RDWR
	if create {
		flags |= os.O_CREATE
	}

	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	logicalSize := info.Size()

	if create && logicalSize == 0 && maxSize > 0 {
		_ = fileutil.Preallocate(f, maxSize, true)
	}

	return &file{f: f, size: logicalSize}, nil
}

type file struct {
	f    *os.File
	size int64 // logical length; independent of Preallocate's inflated stat size
}

func (h *file) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	return h.f.ReadAt(p, off)
}

func (h *file) ReadAtSync(p []byte, off int64) (int, error) {
	return h.f.ReadAt(p, off)
}

func (h *file) WriteAt(_ context.Context, p []byte, off int64) (int, error) {
	n, err := h.f.WriteAt(p, off)
	if end := off + int64(n); end > atomic.LoadInt64(&h.size) {
		atomic.StoreInt64(&h.size, end)
	}
	return n, err
}

func (h *file) Size() (int64, error) {
	return atomic.LoadInt64(&h.size), nil
}

func (h *file) Sync(_ context.Context) error {
	return h.f.Sync()
}

func (h *file) Truncate(_ context.Context, size int64) error {
	if err := h.f.Truncate(size); err != nil {
		return err
	}
	if _, err := h.f.Seek(0, io.SeekEnd); err != nil {
		return err
	}
	atomic.StoreInt64(&h.size, size)
	return nil
}

func (h *file) Close() error {
	return h.f.Close()
}

// LockDataDir takes an advisory lock on a sentinel file inside dir so a
// second process opening the same store standalone fails fast instead of
// silently corrupting it. Non-goal per spec section 1 ("cross-process
// sharing") means this is a diagnostic, not a correctness mechanism.
func LockDataDir(dir string) (io.Closer, error) {
	lockPath := dir + "/.urkeldb.lock"
	lf, err := fileutil.TryLockFile(lockPath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	return lf, nil
}
