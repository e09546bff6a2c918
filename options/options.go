// Package options configures an opened Store: the data directory, segment
// sizing, the open-handle budget, standalone vs. embedded recovery mode,
// and the pluggable capabilities (filesystem, hash, logger, metrics
// registerer). The functional-options shape follows the same pattern as
// the rest of this corpus's storage engines.
package options

import (
	"strings"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/urkeldb/urkeldb/types"
)

// Options holds a Store's full configuration. Construct with
// NewDefaultOptions and layer OptionFuncs via Apply, or build one directly
// and pass it to Store.Open.
type Options struct {
	// DataDir is the directory segment and lock files live in.
	DataDir string

	// MaxFileSize bounds a single segment's size before the write buffer
	// rolls over to the next one.
	MaxFileSize int64

	// MaxOpenFiles is the soft cap on concurrently open segment handles.
	MaxOpenFiles int

	// Standalone selects whether the store runs its own crash recovery
	// (true) or is embedded in a host that drives its own durability
	// protocol and simply wants the highest segment opened for append
	// (false).
	Standalone bool

	// ReadOnly opens the store with write_node/write_value/write_null/commit
	// rejected; reads and history queries still work. Standalone recovery
	// still runs on open and may truncate a torn tail.
	ReadOnly bool

	// VerifyChecksums makes every ReadNode/ReadNodeSync call that supplies
	// an expected digest compare it with the decoded node's digest (a
	// Leaf's stored LeafDigest, or an Internal's hash of its recorded
	// children digests), trading read throughput for defense against
	// silent corruption that the meta checksum wouldn't otherwise catch.
	// Reads without an expected digest are not checked.
	VerifyChecksums bool

	// RootIndex enables the optional persistent root-hash accelerator
	// index. Disabling it changes nothing about correctness or the
	// durable on-disk format; get_history simply falls back to walking
	// the meta chain unaided.
	RootIndex bool

	// KeySize is the tree's key width in bytes (bits/8 in the sizing
	// formulas), used to derive the node codec's fixed layout.
	KeySize int

	FS     types.FS
	Hash   types.Hash
	Logger log.Logger

	// Registerer receives the store's prometheus collectors. A nil
	// Registerer means metrics are constructed but never registered
	// anywhere (safe default for tests and embedders who run their own
	// registry wiring).
	Registerer prometheus.Registerer
}

// OptionFunc mutates an Options value; see the With* constructors.
type OptionFunc func(*Options)

// NewDefaultOptions returns an Options populated with DefaultXxx constants
// and nil pluggable capabilities. The Store fills Hash/Logger in with its
// own defaults at Open time if still nil; FS has no default, and Open
// fails while it is nil.
func NewDefaultOptions() Options {
	return Options{
		DataDir:         DefaultDataDir,
		MaxFileSize:     DefaultMaxFileSize,
		MaxOpenFiles:    DefaultMaxOpenFiles,
		Standalone:      true,
		KeySize:         DefaultKeySize,
		RootIndex:       true,
		VerifyChecksums: false,
	}
}

// Apply layers fns onto a copy of o and returns the result.
func (o Options) Apply(fns ...OptionFunc) Options {
	for _, fn := range fns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// WithDataDir sets the directory segment files live in.
func WithDataDir(dir string) OptionFunc {
	return func(o *Options) {
		dir = strings.TrimSpace(dir)
		if dir != "" {
			o.DataDir = dir
		}
	}
}

// WithMaxFileSize sets the per-segment size limit. A size outside
// [MinMaxFileSize, MaxMaxFileSize] is ignored and the previous limit kept.
func WithMaxFileSize(size int64) OptionFunc {
	return func(o *Options) {
		if size >= MinMaxFileSize && size <= MaxMaxFileSize {
			o.MaxFileSize = size
		}
	}
}

// WithMaxOpenFiles overrides the handle cache's soft cap.
func WithMaxOpenFiles(n int) OptionFunc {
	return func(o *Options) {
		if n > 0 {
			o.MaxOpenFiles = n
		}
	}
}

// WithStandalone sets whether the store performs its own recovery on open.
func WithStandalone(standalone bool) OptionFunc {
	return func(o *Options) { o.Standalone = standalone }
}

// WithReadOnly opens the store with its write operations and commit
// rejected.
func WithReadOnly(readOnly bool) OptionFunc {
	return func(o *Options) { o.ReadOnly = readOnly }
}

// WithVerifyChecksums turns on opt-in per-read digest verification.
func WithVerifyChecksums(verify bool) OptionFunc {
	return func(o *Options) { o.VerifyChecksums = verify }
}

// WithRootIndex turns the optional persistent root-hash accelerator index
// on or off.
func WithRootIndex(enabled bool) OptionFunc {
	return func(o *Options) { o.RootIndex = enabled }
}

// WithKeySize sets the tree's key width in bytes.
func WithKeySize(n int) OptionFunc {
	return func(o *Options) {
		if n > 0 {
			o.KeySize = n
		}
	}
}

// WithFS overrides the filesystem capability (e.g. internal/fsmem for
// tests).
func WithFS(fs types.FS) OptionFunc {
	return func(o *Options) {
		if fs != nil {
			o.FS = fs
		}
	}
}

// WithHash overrides the hash capability.
func WithHash(h types.Hash) OptionFunc {
	return func(o *Options) {
		if h != nil {
			o.Hash = h
		}
	}
}

// WithLogger overrides the structured logger.
func WithLogger(l log.Logger) OptionFunc {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithRegisterer sets where the store's prometheus collectors are
// registered.
func WithRegisterer(r prometheus.Registerer) OptionFunc {
	return func(o *Options) { o.Registerer = r }
}
