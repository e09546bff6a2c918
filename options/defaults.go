package options

const (
	// DefaultDataDir is used only by callers that build Options via
	// NewDefaultOptions and don't override it; Store.Open requires a
	// non-empty DataDir in practice.
	DefaultDataDir = "./urkeldb-data"

	// DefaultMaxFileSize matches this design's segment size ceiling
	// guidance: large enough that rotation is infrequent, small enough
	// that a single segment fits comfortably in memory during recovery.
	DefaultMaxFileSize = 256 * 1024 * 1024

	// MinMaxFileSize and MaxMaxFileSize bound WithMaxFileSize. The upper
	// bound mirrors the maximum segment size a 32-bit offset plus the
	// reserved high bit can address.
	MinMaxFileSize int64 = 1 * 1024 * 1024
	MaxMaxFileSize int64 = 0x7FFF_F000

	// DefaultMaxOpenFiles is the handle cache's soft cap.
	DefaultMaxOpenFiles = 32

	// DefaultKeySize is 256-bit keys, the width of a BLAKE2b-256/SHA-256
	// leaf key as used by the default hash capability.
	DefaultKeySize = 32
)
