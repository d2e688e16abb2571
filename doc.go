// Package streamcache provides a transparent read-through cache for
// seekable byte streams.
//
// A [Stream] wraps any seekable [Source], typically a remote or
// slow-to-reopen resource, and serves repeated or overlapping reads
// from a local spool, falling back to the source only for ranges never
// seen before. Read and seek semantics are those of a plain
// [io.ReadSeeker]; the cache is invisible to the caller apart from
// latency.
//
// Fetched ranges are appended to a [Spool] (a temporary file by
// default) and indexed by logical offset. The cache grows for the
// lifetime of the Stream: there is no eviction, no write support, and
// no persistence across Streams.
//
// # Quick Start
//
// Wrap an HTTP resource and read it like a local file:
//
//	src, err := httpsource.New("https://example.com/large.bin")
//	if err != nil {
//	    return err
//	}
//	s, err := streamcache.New(src)
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	header := make([]byte, 512)
//	if _, err := io.ReadFull(s, header); err != nil {
//	    return err
//	}
//	if _, err := s.Seek(0, io.SeekStart); err != nil {
//	    return err
//	}
//	// Served from the spool, no second request.
//	if _, err := io.ReadFull(s, header); err != nil {
//	    return err
//	}
//
// A Stream is for exclusive, sequential use by one caller; it performs
// no internal locking.
package streamcache
