package segment

import (
	"math/rand"
	"sync"

	"github.com/urkeldb/urkeldb/types"
)

// MaxOpenFiles bounds the handle cache. The bound is a soft target, not a
// hard cap: if every cached handle is either the current writable segment
// or has outstanding reads, a newly opened handle joins anyway.
const MaxOpenFiles = 32

// Cache is a sparse, index-addressed collection of open segment handles.
// Opening a given index is serialized by a per-index wait group so two
// concurrent openers converge on one Handle instead of racing to create
// two.
type Cache struct {
	fs          types.FS
	dir         string
	maxFileSize int64
	maxOpen     int
	rng         *rand.Rand

	mu        sync.Mutex
	handles   map[uint32]*Handle
	opening   map[uint32]*sync.WaitGroup
	current   uint32 // the writable segment; never evicted
	evictions uint64
}

// NewCache returns an empty handle cache rooted at dir.
func NewCache(fs types.FS, dir string, maxFileSize int64) *Cache {
	return &Cache{
		fs:          fs,
		dir:         dir,
		maxFileSize: maxFileSize,
		maxOpen:     MaxOpenFiles,
		rng:         rand.New(rand.NewSource(1)),
		handles:     make(map[uint32]*Handle),
		opening:     make(map[uint32]*sync.WaitGroup),
	}
}

// SetMaxOpen overrides the soft cap on cached handles (default
// MaxOpenFiles).
func (c *Cache) SetMaxOpen(n int) {
	if n > 0 {
		c.mu.Lock()
		c.maxOpen = n
		c.mu.Unlock()
	}
}

// SetCurrent marks index as the current writable segment, exempting it from
// eviction.
func (c *Cache) SetCurrent(index uint32) {
	c.mu.Lock()
	c.current = index
	c.mu.Unlock()
}

// Get returns the open handle for index, opening it (creating the file if
// create is true) if not already cached.
func (c *Cache) Get(index uint32, create bool) (*Handle, error) {
	for {
		c.mu.Lock()
		if h, ok := c.handles[index]; ok {
			c.mu.Unlock()
			return h, nil
		}
		if wg, ok := c.opening[index]; ok {
			c.mu.Unlock()
			wg.Wait()
			continue
		}
		wg := &sync.WaitGroup{}
		wg.Add(1)
		c.opening[index] = wg
		c.mu.Unlock()

		h, err := Open(c.fs, c.dir, index, create, c.maxFileSize)

		c.mu.Lock()
		delete(c.opening, index)
		if err == nil {
			c.evictLocked()
			c.handles[index] = h
		}
		wg.Done()
		c.mu.Unlock()
		return h, err
	}
}

// Put registers an already-open handle, evicting first if the cache is at
// its cap. The store's own rotation path opens new segments through Get.
func (c *Cache) Put(h *Handle) {
	c.mu.Lock()
	c.evictLocked()
	c.handles[h.Index()] = h
	c.mu.Unlock()
}

// evictLocked is called with mu held. It picks a candidate uniformly at
// random from cached handles that are neither the current segment nor have
// outstanding reads, and closes it. If no candidate exists, eviction is a
// no-op: the cap is a soft target.
func (c *Cache) evictLocked() {
	if len(c.handles) < c.maxOpen {
		return
	}
	var candidates []uint32
	for idx, h := range c.handles {
		if idx == c.current {
			continue
		}
		if h.Reads() != 0 {
			continue
		}
		candidates = append(candidates, idx)
	}
	if len(candidates) == 0 {
		return
	}
	pick := candidates[c.rng.Intn(len(candidates))]
	h := c.handles[pick]
	delete(c.handles, pick)
	c.evictions++
	_ = h.Close()
}

// Evictions reports the cumulative number of handles closed to make room
// under the soft cap (metrics use; does not include Evict calls).
func (c *Cache) Evictions() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictions
}

// Evict closes and drops index unconditionally, used by recovery when it
// unlinks a segment.
func (c *Cache) Evict(index uint32) {
	c.mu.Lock()
	h, ok := c.handles[index]
	delete(c.handles, index)
	c.mu.Unlock()
	if ok {
		_ = h.Close()
	}
}

// Len reports the number of currently cached handles (test/metrics use).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handles)
}

// CloseAll closes every cached handle and empties the cache.
func (c *Cache) CloseAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var firstErr error
	for idx, h := range c.handles {
		if err := h.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(c.handles, idx)
	}
	return firstErr
}
