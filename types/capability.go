package types

import (
	"context"
	"os"
)

// FS is the file-system capability the store consumes (section 6.2). A real
// implementation (internal/fsreal) wraps the os package; a complete
// in-memory implementation (internal/fsmem) satisfies the same contract so
// tests can simulate torn writes and crashes without touching disk.
type FS interface {
	// MkdirAll creates dir (and parents) with the given permission if
	// missing; it is not an error if dir already exists as a directory.
	MkdirAll(dir string, perm os.FileMode) error

	// ReadDir lists the entries of dir, sorted by name.
	ReadDir(dir string) ([]os.DirEntry, error)

	// Lstat returns metadata for path without following a trailing symlink.
	Lstat(path string) (os.FileInfo, error)

	// Rename renames oldpath to newpath, replacing newpath if it exists.
	Rename(oldpath, newpath string) error

	// Unlink removes the file at path.
	Unlink(path string) error

	// Rmdir removes the (assumed empty) directory at path.
	Rmdir(path string) error

	// OpenFile opens path for reading and writing, creating it (and
	// preallocating maxSize bytes where the backend supports it) when
	// create is true.
	OpenFile(path string, create bool, maxSize int64) (File, error)
}

// File is a single open segment handle. Every method that touches the
// backing medium is a suspension point per section 5: an implementation
// backed by real files may block; the in-memory implementation never does
// but still honors the same ordering contract.
type File interface {
	// ReadAt reads len(p) bytes starting at off. This is the asynchronous
	// path used by commit/read_node callers that can be suspended; ctx is
	// passed through, and the bundled fsreal and fsmem implementations do
	// not consult it.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)

	// ReadAtSync is the synchronous twin of ReadAt, used by tree traversal
	// under a read lock that must not interleave with the scheduler
	// (section 4.3).
	ReadAtSync(p []byte, off int64) (int, error)

	// WriteAt appends/overwrites len(p) bytes at off. The store only ever
	// calls this with monotonically increasing offsets at or past the
	// current size (append-only discipline); no implementation is required
	// to support arbitrary overwrite.
	WriteAt(ctx context.Context, p []byte, off int64) (int, error)

	// Size returns the file's current logical length: the append cursor,
	// not necessarily the number of bytes physically reserved on disk (an
	// implementation may preallocate ahead of it).
	Size() (int64, error)

	// Sync flushes the file to durable storage.
	Sync(ctx context.Context) error

	// Truncate shortens the file to size, used by recovery to discard a
	// torn trailing write.
	Truncate(ctx context.Context, size int64) error

	// Close releases the handle. Implementations must tolerate Close being
	// called while reads are outstanding from the caller's perspective; the
	// handle cache is responsible for not evicting while reads > 0.
	Close() error
}

// Hash is the cryptographic capability the store consumes (section 6.3).
// The store never picks a concrete hash function itself.
type Hash interface {
	// Size returns the digest width in bytes. Must be >= 20 (meta checksum
	// width).
	Size() int

	// ZeroDigest returns the all-zero digest of Size() bytes that marks the
	// Null sentinel child and an empty committed root.
	ZeroDigest() []byte

	// Digest hashes b.
	Digest(b []byte) []byte

	// HashInternal combines two child digests into a parent Internal hash.
	HashInternal(left, right []byte) []byte
}
