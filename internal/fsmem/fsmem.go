// Package fsmem is a complete in-memory implementation of types.FS, the
// direct analogue of the teacher's testStorage/testSegmentWriter fake in
// wal_stubs_test.go. It is shipped as part of the module (not test-only
// code) per spec sections 4.6/9 ("In-memory FS for tests... the capability
// interface is the substitution seam"): callers can run the whole store
// against pure memory, and property tests simulate torn writes by
// truncating the backing buffer directly via Corrupt.
package fsmem

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/urkeldb/urkeldb/types"
)

// FS is an in-memory types.FS. The zero value is not usable; use New.
type FS struct {
	mu    sync.Mutex
	files map[string]*memFile
	dirs  map[string]bool
}

// New returns an empty in-memory filesystem rooted at "/".
func New() *FS {
	return &FS{
		files: make(map[string]*memFile),
		dirs:  map[string]bool{"/": true},
	}
}

type memFile struct {
	mu   sync.Mutex
	data []byte
	refs int
}

func (f *memFile) size() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.data))
}

func (fsys *FS) MkdirAll(dir string, _ os.FileMode) error {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()
	for d := path.Clean(dir); d != "." && d != "/"; d = path.Dir(d) {
		fsys.dirs[d] = true
	}
	fsys.dirs["/"] = true
	return nil
}

type dirEntry struct {
	name  string
	isDir bool
	size  int64
}

func (d dirEntry) Name() string      { return d.name }
func (d dirEntry) IsDir() bool       { return d.isDir }
func (d dirEntry) Type() fs.FileMode { return d.Info2().Mode() }
func (d dirEntry) Info() (fs.FileInfo, error) {
	return d.Info2(), nil
}
func (d dirEntry) Info2() fileInfo {
	mode := os.FileMode(0644)
	if d.isDir {
		mode = os.ModeDir | 0755
	}
	return fileInfo{name: d.name, size: d.size, mode: mode}
}

type fileInfo struct {
	name string
	size int64
	mode os.FileMode
}

func (fi fileInfo) Name() string       { return fi.name }
func (fi fileInfo) Size() int64        { return fi.size }
func (fi fileInfo) Mode() os.FileMode  { return fi.mode }
func (fi fileInfo) ModTime() time.Time { return time.Time{} }
func (fi fileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi fileInfo) Sys() any           { return nil }

func (fsys *FS) ReadDir(dir string) ([]os.DirEntry, error) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	dir = path.Clean(dir)
	if !fsys.dirs[dir] {
		return nil, &os.PathError{Op: "readdir", Path: dir, Err: os.ErrNotExist}
	}

	var entries []os.DirEntry
	for p, f := range fsys.files {
		if path.Dir(p) == dir {
			entries = append(entries, dirEntry{name: path.Base(p), size: f.size()})
		}
	}
	for d := range fsys.dirs {
		if d != dir && path.Dir(d) == dir {
			entries = append(entries, dirEntry{name: path.Base(d), isDir: true})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

func (fsys *FS) Lstat(p string) (os.FileInfo, error) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	p = path.Clean(p)
	if f, ok := fsys.files[p]; ok {
		return fileInfo{name: path.Base(p), size: f.size(), mode: 0644}, nil
	}
	if fsys.dirs[p] {
		return fileInfo{name: path.Base(p), mode: os.ModeDir | 0755}, nil
	}
	return nil, &os.PathError{Op: "lstat", Path: p, Err: os.ErrNotExist}
}

func (fsys *FS) Rename(oldpath, newpath string) error {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	oldpath, newpath = path.Clean(oldpath), path.Clean(newpath)
	if fsys.dirs[oldpath] {
		delete(fsys.dirs, oldpath)
		fsys.dirs[newpath] = true
		for p := range fsys.files {
			if path.Dir(p) == oldpath {
				newp := path.Join(newpath, path.Base(p))
				fsys.files[newp] = fsys.files[p]
				delete(fsys.files, p)
			}
		}
		return nil
	}
	f, ok := fsys.files[oldpath]
	if !ok {
		return &os.PathError{Op: "rename", Path: oldpath, Err: os.ErrNotExist}
	}
	fsys.files[newpath] = f
	delete(fsys.files, oldpath)
	return nil
}

func (fsys *FS) Unlink(p string) error {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	p = path.Clean(p)
	if _, ok := fsys.files[p]; !ok {
		return &os.PathError{Op: "unlink", Path: p, Err: os.ErrNotExist}
	}
	delete(fsys.files, p)
	return nil
}

func (fsys *FS) Rmdir(p string) error {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	p = path.Clean(p)
	for fp := range fsys.files {
		if path.Dir(fp) == p {
			return &os.PathError{Op: "rmdir", Path: p, Err: errNotEmpty}
		}
	}
	delete(fsys.dirs, p)
	return nil
}

var errNotEmpty = osNotEmptyError("directory not empty")

type osNotEmptyError string

func (e osNotEmptyError) Error() string { return string(e) }

func (fsys *FS) OpenFile(p string, create bool, _ int64) (types.File, error) {
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	p = path.Clean(p)
	f, ok := fsys.files[p]
	if !ok {
		if !create {
			return nil, &os.PathError{Op: "open", Path: p, Err: os.ErrNotExist}
		}
		f = &memFile{}
		fsys.files[p] = f
		fsys.dirs[path.Dir(p)] = true
	}
	f.mu.Lock()
	f.refs++
	f.mu.Unlock()
	return &memHandle{f: f}, nil
}

// Corrupt truncates or appends junk bytes directly to the named file,
// bypassing normal write discipline, to simulate a torn trailing write for
// recovery property tests (spec section 8, scenario S4).
func (fsys *FS) Corrupt(p string, newSize int, junk []byte) {
	fsys.mu.Lock()
	f, ok := fsys.files[path.Clean(p)]
	fsys.mu.Unlock()
	if !ok {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if newSize >= 0 && newSize <= len(f.data) {
		f.data = f.data[:newSize]
	}
	f.data = append(f.data, junk...)
}

type memHandle struct {
	f *memFile
}

func (h *memHandle) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	return h.ReadAtSync(p, off)
}

func (h *memHandle) ReadAtSync(p []byte, off int64) (int, error) {
	h.f.mu.Lock()
	defer h.f.mu.Unlock()

	if off >= int64(len(h.f.data)) {
		return 0, io.EOF
	}
	n := copy(p, h.f.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (h *memHandle) WriteAt(_ context.Context, p []byte, off int64) (int, error) {
	h.f.mu.Lock()
	defer h.f.mu.Unlock()

	end := off + int64(len(p))
	if end > int64(len(h.f.data)) {
		grown := make([]byte, end)
		copy(grown, h.f.data)
		h.f.data = grown
	}
	copy(h.f.data[off:end], p)
	return len(p), nil
}

func (h *memHandle) Size() (int64, error) {
	return h.f.size(), nil
}

func (h *memHandle) Sync(_ context.Context) error { return nil }

func (h *memHandle) Truncate(_ context.Context, size int64) error {
	h.f.mu.Lock()
	defer h.f.mu.Unlock()
	if size <= int64(len(h.f.data)) {
		h.f.data = h.f.data[:size]
		return nil
	}
	grown := make([]byte, size)
	copy(grown, h.f.data)
	h.f.data = grown
	return nil
}

func (h *memHandle) Close() error {
	h.f.mu.Lock()
	h.f.refs--
	h.f.mu.Unlock()
	return nil
}
