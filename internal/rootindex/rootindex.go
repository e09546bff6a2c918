// Package rootindex is an optional accelerator: a persistent bbolt-backed
// map from committed root digest to its (segment, offset) pointer, so
// get_history's most common case — "have we ever committed this exact root
// before" — can skip walking the meta chain. It is never the source of
// truth: the segment files and their meta chain remain self-describing and
// fully recoverable with RootIndex disabled, per this being an accelerator
// and not a second copy of durable state. Grounded on the
// Tx/Bucket/Cursor-keyed-by-hash pattern used for a boltdb-backed node
// index in the corpus (a cellstate/layerfs-style node store keeps file
// metadata under bolt keys derived from content hashes; this index keeps
// pointers under root-hash keys the same way).
package rootindex

import (
	"encoding/binary"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/urkeldb/urkeldb/types"
)

var bucketName = []byte("roots")

// Index is a persistent root-hash -> Pointer accelerator. It opens its own
// file directly via bbolt's mmap-based engine, independent of the store's
// types.FS capability — an in-memory or otherwise non-real FS simply
// leaves RootIndex disabled.
type Index struct {
	db *bolt.DB
}

// Open opens (creating if needed) the bbolt database at path.
func Open(path string) (*Index, error) {
	db, err := bolt.Open(path, 0644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Index{db: db}, nil
}

// Put records that rootDigest's committed node lives at ptr.
func (idx *Index) Put(rootDigest []byte, ptr types.Pointer) error {
	return idx.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put(rootDigest, encodePointer(ptr))
	})
}

// Get looks up rootDigest, reporting found=false rather than an error when
// it has never been committed.
func (idx *Index) Get(rootDigest []byte) (ptr types.Pointer, found bool, err error) {
	err = idx.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get(rootDigest)
		if v == nil {
			return nil
		}
		found = true
		ptr = decodePointer(v)
		return nil
	})
	return ptr, found, err
}

// Close releases the underlying bbolt file.
func (idx *Index) Close() error {
	return idx.db.Close()
}

func encodePointer(p types.Pointer) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], p.Segment)
	binary.LittleEndian.PutUint32(buf[4:8], p.Offset)
	return buf
}

func decodePointer(b []byte) types.Pointer {
	return types.Pointer{
		Segment: binary.LittleEndian.Uint32(b[0:4]),
		Offset:  binary.LittleEndian.Uint32(b[4:8]),
	}
}
