package streamcache

import "io"

// Source is the stream a [Stream] fetches from on a cache miss.
//
// Read and Seek follow the standard io contracts. The Stream fully
// owns the source's cursor: it repositions the source before each
// miss-driven read and tracks the position the source reports.
//
// If the source also implements [io.Closer], [Stream.Close] closes it.
type Source interface {
	io.Reader
	io.Seeker
}

// Sizer is optionally implemented by sources that can report their
// total size without disturbing the read cursor.
//
// [Stream.Size] prefers Sizer over the generic seek-to-end probe. A
// Sizer that cannot determine the size should return an error; the
// Stream then falls back to probing with Seek.
type Sizer interface {
	Size() (int64, error)
}
