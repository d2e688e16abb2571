package streamcache

import "errors"

var (
	// ErrClosed is returned by operations on a closed Stream.
	ErrClosed = errors.New("stream is closed")

	// ErrInvalidSeek is returned when a seek resolves to a negative
	// position or uses an unknown whence value.
	ErrInvalidSeek = errors.New("invalid seek")

	// ErrCorrupted reports an internal consistency violation, such as a
	// duplicate range insertion or an end-of-stream observation below an
	// offset already proven reachable. It indicates a bug in the cache
	// or its source, not a transient condition.
	ErrCorrupted = errors.New("cache state corrupted")
)
