package urkeldb

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/urkeldb/urkeldb/internal/codec"
	"github.com/urkeldb/urkeldb/internal/fsreal"
	"github.com/urkeldb/urkeldb/internal/hash"
	"github.com/urkeldb/urkeldb/internal/meta"
	"github.com/urkeldb/urkeldb/internal/rootindex"
	"github.com/urkeldb/urkeldb/internal/segment"
	"github.com/urkeldb/urkeldb/internal/writebuffer"
	"github.com/urkeldb/urkeldb/options"
	"github.com/urkeldb/urkeldb/types"
)

// storeState enumerates the lifecycle states a Store moves linearly
// through. Read operations are only accepted in stateOpen.
type storeState int32

const (
	stateClosed storeState = iota
	stateOpening
	stateOpen
	stateCommitting
	stateClosing
)

// snapshot is the immutable, atomically-swapped view of where the store
// currently is: the writable segment, the last emitted meta (zero Pointer
// if none yet), and the live root. Readers load a *snapshot without
// holding any lock; only the single writer ever replaces it.
type snapshot struct {
	currentSegment uint32
	lastMeta       types.Pointer
	rootHash       []byte
	rootPointer    types.Pointer // zero Pointer means the root is the Null sentinel
}

// Store is the node-store handle. The zero value is not usable; construct
// with Open.
type Store struct {
	state atomic.Int32 // storeState

	opts   options.Options
	fs     types.FS
	hash   types.Hash
	logger log.Logger
	layout codec.Layout
	dir    string

	metrics *storeMetrics

	snap atomic.Pointer[snapshot]

	// readMu serializes get_history's backward meta-chain walk, which
	// reads a meta then follows its prev pointer across suspension
	// points and must not interleave with another such walk.
	readMu sync.Mutex

	cache *segment.Cache
	wb    *writebuffer.Buffer

	rootCacheMu sync.Mutex
	rootCache   map[string]types.Pointer

	rootIndex *rootindex.Index

	// lastCacheEvictions is the handle cache's Evictions() count as of the
	// last time it was folded into the cacheEvictions metric.
	lastCacheEvictions uint64

	// dirLock is held only when opts.Standalone and s.fs is a real
	// filesystem: a second standalone process opening the same directory
	// fails fast at Open instead of racing this one's writer. nil for
	// in-memory filesystems and for embedded mode, where the host
	// application owns its own exclusion.
	dirLock io.Closer
}

// Open prepares dir for use according to opts and, if opts.Standalone,
// recovers the last committed checkpoint. Reopening an already-open Store
// value is an error; reopening a *new* Store value against a directory a
// prior Store closed cleanly is the normal restart path.
func Open(opts options.Options) (*Store, error) {
	s := &Store{opts: opts, dir: opts.DataDir, rootCache: make(map[string]types.Pointer)}
	s.state.Store(int32(stateClosed))
	if !s.state.CompareAndSwap(int32(stateClosed), int32(stateOpening)) {
		return nil, types.ErrStoreOpen
	}

	if s.fs = opts.FS; s.fs == nil {
		return nil, fmt.Errorf("urkeldb: Options.FS is required")
	}
	s.hash = opts.Hash
	if s.hash == nil {
		s.hash = hash.Default()
	}
	s.logger = opts.Logger
	if s.logger == nil {
		s.logger = log.NewNopLogger()
	}

	s.layout = codec.Layout{DigestSize: s.hash.Size(), KeySize: opts.KeySize}
	if !s.layout.Valid() {
		return nil, fmt.Errorf("urkeldb: leaf_size exceeds node_size for digest size %d, key size %d", s.hash.Size(), opts.KeySize)
	}

	s.metrics = newStoreMetrics(opts.Registerer)

	if err := s.fs.MkdirAll(s.dir, 0o750); err != nil {
		return nil, err
	}

	if opts.Standalone {
		if _, ok := s.fs.(*fsreal.FS); ok {
			lock, err := fsreal.LockDataDir(s.dir)
			if err != nil {
				return nil, fmt.Errorf("urkeldb: data directory already locked by another standalone process: %w", err)
			}
			s.dirLock = lock
		}
	}

	maxOpen := opts.MaxOpenFiles
	if maxOpen <= 0 {
		maxOpen = options.DefaultMaxOpenFiles
	}
	s.cache = segment.NewCache(s.fs, s.dir, opts.MaxFileSize)
	s.cache.SetMaxOpen(maxOpen)

	indices, err := listSegments(s.fs, s.dir)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := s.openSegments(ctx, indices); err != nil {
		return nil, err
	}

	if opts.RootIndex {
		idx, err := rootindex.Open(s.dir + "/rootindex.bolt")
		if err != nil {
			level.Warn(s.logger).Log("msg", "root index unavailable, continuing without accelerator", "err", err)
		} else {
			s.rootIndex = idx
		}
	}

	s.state.Store(int32(stateOpen))
	return s, nil
}

func (s *Store) openSegments(ctx context.Context, indices []uint32) error {
	if len(indices) == 0 {
		h, err := s.cache.Get(1, true)
		if err != nil {
			return err
		}
		s.cache.SetCurrent(1)
		s.wb = writebuffer.New(s.opts.MaxFileSize)
		s.wb.Start(1, uint32(h.Size()))
		s.snap.Store(&snapshot{currentSegment: 1, rootHash: s.hash.ZeroDigest()})
		return nil
	}

	highest := indices[len(indices)-1]

	if !s.opts.Standalone {
		h, err := s.cache.Get(highest, true)
		if err != nil {
			return err
		}
		s.cache.SetCurrent(highest)
		s.wb = writebuffer.New(s.opts.MaxFileSize)
		s.wb.Start(highest, uint32(h.Size()))
		s.snap.Store(&snapshot{currentSegment: highest, rootHash: s.hash.ZeroDigest()})
		return nil
	}

	descending := make([]uint32, len(indices))
	for i, idx := range indices {
		descending[len(indices)-1-i] = idx
	}

	m, segIdx, found, scanned, err := meta.Recover(ctx, s.hash, s.cache, s.fs, s.dir, descending)
	s.metrics.recoveryBytes.Add(float64(scanned))
	if err != nil {
		return err
	}
	if !found {
		h, err := s.cache.Get(1, true)
		if err != nil {
			return err
		}
		s.cache.SetCurrent(1)
		s.wb = writebuffer.New(s.opts.MaxFileSize)
		s.wb.Start(1, uint32(h.Size()))
		s.snap.Store(&snapshot{currentSegment: 1, rootHash: s.hash.ZeroDigest()})
		return nil
	}

	h, err := s.cache.Get(segIdx, false)
	if err != nil {
		return err
	}
	s.cache.SetCurrent(segIdx)
	s.wb = writebuffer.New(s.opts.MaxFileSize)
	s.wb.Start(segIdx, uint32(h.Size()))

	rootPtr := m.RootPointer()
	rootHash := s.hash.ZeroDigest()
	if !rootPtr.IsZero() {
		n, err := s.readNode(ctx, rootPtr, nil, false)
		if err != nil {
			return err
		}
		rootHash = n.Hash(s.hash.HashInternal)
	}
	s.snap.Store(&snapshot{currentSegment: segIdx, lastMeta: m.Self, rootHash: rootHash, rootPointer: rootPtr})
	return nil
}

// listSegments enumerates segment files in dir, sorted ascending, and
// verifies they are numbered contiguously from 1.
func listSegments(fs types.FS, dir string) ([]uint32, error) {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var indices []uint32
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		var idx uint32
		if _, err := fmt.Sscanf(e.Name(), "%010d.dat", &idx); err != nil {
			continue // not a segment file (e.g. rootindex.bolt)
		}
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	for i, idx := range indices {
		if idx != uint32(i+1) {
			return nil, types.ErrMissingTreeFiles
		}
	}
	return indices, nil
}

func (s *Store) loadSnapshot() *snapshot {
	return s.snap.Load()
}

func (s *Store) isOpen() bool {
	return storeState(s.state.Load()) == stateOpen
}

// Close drops in-memory state and closes every open segment handle. It
// never flushes: any writes staged but not committed are lost, by design.
func (s *Store) Close() error {
	if !s.state.CompareAndSwap(int32(stateOpen), int32(stateClosing)) {
		return types.ErrStoreClosed
	}
	var firstErr error
	if s.rootIndex != nil {
		if err := s.rootIndex.Close(); err != nil {
			firstErr = err
		}
	}
	if err := s.cache.CloseAll(); err != nil && firstErr == nil {
		firstErr = err
	}
	if s.dirLock != nil {
		if err := s.dirLock.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.state.Store(int32(stateClosed))
	return firstErr
}

// Destroy unlinks every segment file and removes dir. If the directory
// cannot be removed (e.g. a stray file remains), it is renamed to a
// randomized sibling path instead, so data is never left half-visible
// under its original name.
func (s *Store) Destroy() error {
	if storeState(s.state.Load()) != stateClosed {
		return types.ErrStoreOpen
	}
	entries, err := s.fs.ReadDir(s.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := s.fs.Unlink(s.dir + "/" + e.Name()); err != nil {
			return err
		}
	}
	if err := s.fs.Rmdir(s.dir); err != nil {
		renamed := fmt.Sprintf("%s.orphaned-%d", s.dir, time.Now().UnixNano())
		return s.fs.Rename(s.dir, renamed)
	}
	return nil
}

// WriteNode stages node's encoding in the write buffer and assigns it a
// disk position. n must not already have a position assigned.
func (s *Store) WriteNode(n *types.Node) (types.Pointer, error) {
	if !s.isOpen() {
		return types.Pointer{}, types.ErrStoreClosed
	}
	if s.opts.ReadOnly {
		return types.Pointer{}, fmt.Errorf("urkeldb: store is read-only")
	}
	buf, err := codec.Encode(s.layout, n, s.hash.ZeroDigest())
	if err != nil {
		return types.Pointer{}, err
	}
	pos, err := s.wb.Write(buf)
	if err != nil {
		return types.Pointer{}, err
	}
	n.SetPlacement(pos.Segment, pos.Offset)
	s.metrics.nodesWritten.Inc()
	s.metrics.bytesWritten.Add(float64(len(buf)))
	return pos, nil
}

// WriteValue stages value's raw bytes and records its position and size
// onto leaf.
func (s *Store) WriteValue(leaf *types.Node, value []byte) (types.Pointer, error) {
	if !s.isOpen() {
		return types.Pointer{}, types.ErrStoreClosed
	}
	if s.opts.ReadOnly {
		return types.Pointer{}, fmt.Errorf("urkeldb: store is read-only")
	}
	pos, err := s.wb.Write(value)
	if err != nil {
		return types.Pointer{}, err
	}
	leaf.ValueSegment, leaf.ValueOffset, leaf.ValueSize = pos.Segment, pos.Offset, uint32(len(value))
	s.metrics.bytesWritten.Add(float64(len(value)))
	return pos, nil
}

// WriteNull pads a full node_size block of zeros, used by the tree layer
// for a well-known "nothing here" slot.
func (s *Store) WriteNull() (types.Pointer, error) {
	if !s.isOpen() {
		return types.Pointer{}, types.ErrStoreClosed
	}
	if s.opts.ReadOnly {
		return types.Pointer{}, fmt.Errorf("urkeldb: store is read-only")
	}
	pos, err := s.wb.Pad(s.layout.NodeSize())
	if err != nil {
		return types.Pointer{}, err
	}
	s.metrics.bytesWritten.Add(float64(s.layout.NodeSize()))
	return pos, nil
}

// flushChunks appends every pending write-buffer chunk to its segment,
// creating segments as rollover requires.
func (s *Store) flushChunks(ctx context.Context) (uint32, error) {
	chunks := s.wb.Flush()
	lastSegment := s.loadSnapshot().currentSegment
	for _, c := range chunks {
		h, err := s.cache.Get(c.Segment, true)
		if err != nil {
			return 0, err
		}
		if uint32(h.Size()) != c.StartOffset {
			return 0, fmt.Errorf("%w: segment %d size %d does not match expected write-buffer offset %d",
				types.ErrAssertion, c.Segment, h.Size(), c.StartOffset)
		}
		if _, err := h.Write(ctx, c.Data); err != nil {
			return 0, err
		}
		s.metrics.bytesWritten.Add(float64(len(c.Data)))
		if c.Segment != lastSegment {
			s.metrics.rotations.Inc()
			s.cache.SetCurrent(c.Segment)
		}
		lastSegment = c.Segment
	}
	s.observeCacheEvictions()
	return lastSegment, nil
}

// observeCacheEvictions reports the cache's monotonic eviction count as a
// delta against what was last observed, since Cache.evictLocked maintains
// its own counter rather than depending on this package's metrics.
func (s *Store) observeCacheEvictions() {
	total := s.cache.Evictions()
	prev := atomic.LoadUint64(&s.lastCacheEvictions)
	if total > prev && atomic.CompareAndSwapUint64(&s.lastCacheEvictions, prev, total) {
		s.metrics.cacheEvictions.Add(float64(total - prev))
	}
}

// Commit is the atomic unit of durability. In standalone mode it flushes
// every staged chunk, pads to the next meta-aligned offset, appends a new
// meta record linking back to the previous one and pointing at root (nil
// meaning the Null/empty root), fsyncs the segment the meta landed in, and
// publishes the new snapshot. In embedded mode — where a host drives its
// own durability protocol over these same segment files — commit only
// flushes and fsyncs; the store does not track a root of its own.
func (s *Store) Commit(ctx context.Context, root *types.Node) (types.Meta, error) {
	if !s.state.CompareAndSwap(int32(stateOpen), int32(stateCommitting)) {
		return types.Meta{}, types.ErrStoreClosed
	}
	defer s.state.Store(int32(stateOpen))

	if s.opts.ReadOnly {
		return types.Meta{}, fmt.Errorf("urkeldb: store is read-only")
	}

	start := time.Now()
	prev := s.loadSnapshot()

	lastSegment, err := s.flushChunks(ctx)
	if err != nil {
		return types.Meta{}, err
	}

	if !s.opts.Standalone {
		h, err := s.cache.Get(lastSegment, false)
		if err != nil {
			return types.Meta{}, err
		}
		if err := h.Sync(ctx); err != nil {
			return types.Meta{}, err
		}
		s.snap.Store(&snapshot{
			currentSegment: lastSegment,
			lastMeta:       prev.lastMeta,
			rootHash:       prev.rootHash,
			rootPointer:    prev.rootPointer,
		})
		return types.Meta{}, nil
	}

	rootPtr := types.Pointer{}
	rootHash := s.hash.ZeroDigest()
	if root != nil {
		rootPtr = root.Placement()
		rootHash = root.Hash(s.hash.HashInternal)
	}

	// Pad to a meta-aligned offset. Padding itself can straddle a segment
	// boundary and roll over (Expand triggers a rollover exactly like any
	// other write when the pad doesn't fit in the current segment), which
	// lands the write cursor at a fresh, unaligned offset into the new
	// segment - so re-read the position and re-pad until it actually lands
	// on a multiple of MetaSize instead of trusting the pre-pad offset.
	for {
		pos := s.wb.Position()
		padLen := int(types.MetaSize-int(pos.Offset%uint32(types.MetaSize))) % types.MetaSize
		if padLen == 0 {
			break
		}
		if _, err := s.wb.Pad(padLen); err != nil {
			return types.Meta{}, err
		}
	}

	m := types.Meta{
		PrevMetaSegment: prev.lastMeta.Segment,
		PrevMetaOffset:  prev.lastMeta.Offset,
		RootSegment:     rootPtr.Segment,
		RootOffset:      rootPtr.Offset,
	}
	buf := meta.Encode(m, s.hash)
	// The meta itself can roll over to offset 0 of a new segment, so its
	// position is the one Write reports, not the pre-write Position().
	metaPos, err := s.wb.Write(buf)
	if err != nil {
		return types.Meta{}, err
	}

	lastSegment, err = s.flushChunks(ctx)
	if err != nil {
		return types.Meta{}, err
	}

	h, err := s.cache.Get(lastSegment, false)
	if err != nil {
		return types.Meta{}, err
	}
	if err := h.Sync(ctx); err != nil {
		return types.Meta{}, err
	}

	decoded, err := meta.Decode(buf, metaPos.Segment, metaPos.Offset, s.hash)
	if err != nil {
		return types.Meta{}, fmt.Errorf("%w: just-encoded meta failed to decode", types.ErrAssertion)
	}

	s.snap.Store(&snapshot{
		currentSegment: lastSegment,
		lastMeta:       metaPos,
		rootHash:       rootHash,
		rootPointer:    rootPtr,
	})
	s.rememberRoot(rootHash, rootPtr)

	s.metrics.commits.Inc()
	s.metrics.commitSeconds.Observe(time.Since(start).Seconds())
	s.metrics.cacheSize.Set(float64(s.cache.Len()))
	return decoded, nil
}

// ReadNode resolves the node_size record at ptr via the asynchronous read
// path. expectedDigest, when non-nil and Options.VerifyChecksums is set,
// is compared against the decoded node's own digest (its LeafDigest, or
// its memoized Internal hash computed from the children digests the
// record itself carries) to catch bit-rot the meta checksum alone
// wouldn't — the meta only authenticates its own 16-byte header, not
// every node in the tree.
func (s *Store) ReadNode(ctx context.Context, ptr types.Pointer, expectedDigest []byte) (*types.Node, error) {
	if !s.isOpen() {
		return nil, types.ErrStoreClosed
	}
	return s.readNode(ctx, ptr, expectedDigest, false)
}

// ReadNodeSync is the synchronous counterpart of ReadNode, for tree
// traversal performed under readMu where interleaving with an async
// scheduler would be unsafe.
func (s *Store) ReadNodeSync(ptr types.Pointer, expectedDigest []byte) (*types.Node, error) {
	if !s.isOpen() {
		return nil, types.ErrStoreClosed
	}
	return s.readNode(context.Background(), ptr, expectedDigest, true)
}

func (s *Store) readNode(ctx context.Context, ptr types.Pointer, expectedDigest []byte, sync bool) (*types.Node, error) {
	h, err := s.cache.Get(ptr.Segment, false)
	if err != nil {
		return nil, err
	}
	var buf []byte
	if sync {
		buf, err = h.ReadSync(ptr.Offset, s.layout.NodeSize())
	} else {
		buf, err = h.Read(ctx, ptr.Offset, s.layout.NodeSize())
	}
	if err != nil {
		return nil, err
	}
	s.metrics.nodesRead.Inc()
	s.metrics.bytesRead.Add(float64(len(buf)))

	n, err := codec.Decode(s.layout, buf, ptr.Segment, ptr.Offset, s.hash.ZeroDigest())
	if err != nil {
		return nil, err
	}

	if s.opts.VerifyChecksums && expectedDigest != nil {
		actual := n.Hash(s.hash.HashInternal)
		if !bytes.Equal(actual, expectedDigest) {
			return nil, fmt.Errorf("%w: node at segment %d offset %d has digest %x, expected %x",
				types.ErrDatabaseCorruption, ptr.Segment, ptr.Offset, actual, expectedDigest)
		}
	}
	return n, nil
}

// Read is a generic read used for value payloads and meta records: size
// raw bytes at (segment, offset).
func (s *Store) Read(ctx context.Context, ptr types.Pointer, size int) ([]byte, error) {
	if !s.isOpen() {
		return nil, types.ErrStoreClosed
	}
	h, err := s.cache.Get(ptr.Segment, false)
	if err != nil {
		return nil, err
	}
	buf, err := h.Read(ctx, ptr.Offset, size)
	if err != nil {
		return nil, err
	}
	s.metrics.bytesRead.Add(float64(len(buf)))
	return buf, nil
}

// GetRootHash returns the live root's digest, or the hash capability's
// zero digest if nothing has been committed yet.
func (s *Store) GetRootHash() []byte {
	return append([]byte(nil), s.loadSnapshot().rootHash...)
}

// GetRoot returns the live root as a Child: the Null sentinel if no
// commits have happened yet, or an unresolved Hash pointer the tree layer
// can resolve on demand.
func (s *Store) GetRoot() types.Child {
	snap := s.loadSnapshot()
	if snap.rootPointer.IsZero() {
		return types.NullChild(s.hash.ZeroDigest())
	}
	return types.HashChild(append([]byte(nil), snap.rootHash...), snap.rootPointer)
}

// GetHistory walks the backward meta chain starting at the last commit
// until it finds a meta whose root digest equals rootHash, returning that
// root as an unresolved Hash pointer. It fails with a MissingNode error
// once the chain is exhausted without a match.
func (s *Store) GetHistory(ctx context.Context, rootHash []byte) (types.Child, error) {
	if !s.isOpen() {
		return types.Child{}, types.ErrStoreClosed
	}

	if ptr, ok := s.lookupRoot(rootHash); ok {
		return types.HashChild(append([]byte(nil), rootHash...), ptr), nil
	}

	s.readMu.Lock()
	defer s.readMu.Unlock()

	cur := s.loadSnapshot().lastMeta
	for {
		if cur.IsZero() {
			return types.Child{}, types.NewMissingNodeError(rootHash)
		}

		h, err := s.cache.Get(cur.Segment, false)
		if err != nil {
			return types.Child{}, err
		}
		buf, err := h.ReadSync(cur.Offset, types.MetaSize)
		if err != nil {
			return types.Child{}, err
		}
		m, err := meta.Decode(buf, cur.Segment, cur.Offset, s.hash)
		if err != nil {
			return types.Child{}, err
		}
		s.metrics.historySteps.Inc()

		rootPtr := m.RootPointer()
		digest := s.hash.ZeroDigest()
		if !rootPtr.IsZero() {
			n, err := s.readNode(ctx, rootPtr, nil, true)
			if err != nil {
				return types.Child{}, err
			}
			digest = n.Hash(s.hash.HashInternal)
		}

		if bytes.Equal(digest, rootHash) {
			s.rememberRoot(rootHash, rootPtr)
			return types.HashChild(append([]byte(nil), digest...), rootPtr), nil
		}
		cur = m.PrevPointer()
	}
}

// Checkpoints returns every meta record reachable by walking backward from
// the last commit, newest first. It exists for inspection tooling
// (urkelctl inspect) rather than any tree-layer operation - get_history
// only ever needs to find one match, not enumerate the whole chain.
func (s *Store) Checkpoints(ctx context.Context) ([]types.Meta, error) {
	if !s.isOpen() {
		return nil, types.ErrStoreClosed
	}

	s.readMu.Lock()
	defer s.readMu.Unlock()

	var out []types.Meta
	cur := s.loadSnapshot().lastMeta
	for !cur.IsZero() {
		h, err := s.cache.Get(cur.Segment, false)
		if err != nil {
			return nil, err
		}
		buf, err := h.ReadSync(cur.Offset, types.MetaSize)
		if err != nil {
			return nil, err
		}
		m, err := meta.Decode(buf, cur.Segment, cur.Offset, s.hash)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
		cur = m.PrevPointer()
	}
	return out, nil
}

func (s *Store) lookupRoot(rootHash []byte) (types.Pointer, bool) {
	key := string(rootHash)
	s.rootCacheMu.Lock()
	ptr, ok := s.rootCache[key]
	s.rootCacheMu.Unlock()
	if ok {
		return ptr, true
	}
	if s.rootIndex == nil {
		return types.Pointer{}, false
	}
	ptr, found, err := s.rootIndex.Get(rootHash)
	if err != nil || !found {
		return types.Pointer{}, false
	}
	return ptr, true
}

func (s *Store) rememberRoot(rootHash []byte, ptr types.Pointer) {
	key := string(rootHash)
	s.rootCacheMu.Lock()
	s.rootCache[key] = ptr
	s.rootCacheMu.Unlock()
	if s.rootIndex != nil {
		_ = s.rootIndex.Put(rootHash, ptr)
	}
}

// Stats is a point-in-time snapshot of store-level counters, supplementing
// the prometheus collectors with a cheap in-process read for callers that
// don't scrape metrics.
type Stats struct {
	CurrentSegment   uint32
	OpenHandles      int
	CacheEvictions   uint64
	RootCacheSize    int
	HasCommittedRoot bool
}

// Stats returns a snapshot of the store's current bookkeeping.
func (s *Store) Stats() Stats {
	snap := s.loadSnapshot()
	s.rootCacheMu.Lock()
	rootCacheSize := len(s.rootCache)
	s.rootCacheMu.Unlock()
	return Stats{
		CurrentSegment:   snap.currentSegment,
		OpenHandles:      s.cache.Len(),
		CacheEvictions:   s.cache.Evictions(),
		RootCacheSize:    rootCacheSize,
		HasCommittedRoot: !snap.rootPointer.IsZero(),
	}
}
