package streamcache

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/meigma/streamcache/internal/rangeindex"
)

// Stream is a read-through cache in front of a seekable Source.
//
// Every range fetched from the source is appended to the spool and
// indexed by logical offset; later reads inside an indexed range are
// served locally. The spool grows without bound for the lifetime of
// the Stream.
//
// A read that lands inside a cached run returns at most the bytes
// remaining in that run; it never spans into uncached territory.
// Callers re-request the remainder, exactly as with any short read.
//
// Stream is for exclusive, sequential use by one caller; it performs
// no internal locking.
type Stream struct {
	src   Source
	spool Spool
	index *rangeindex.Index

	pos    int64 // logical read/seek cursor
	srcPos int64 // last known source cursor
	end    int64 // largest logical offset proven reachable
	eof    bool  // end is exact: the source reported EOF there

	hits   int64
	misses int64

	closed  bool
	logger  *slog.Logger
	metrics *streamMetrics
}

// Interface compliance.
var (
	_ io.Reader     = (*Stream)(nil)
	_ io.Seeker     = (*Stream)(nil)
	_ io.ReadSeeker = (*Stream)(nil)
	_ io.Closer     = (*Stream)(nil)
)

// Stats holds cumulative cache counters.
type Stats struct {
	// Hits counts reads served from the spool.
	Hits int64
	// Misses counts reads that fetched from the source.
	Misses int64
}

// New wraps src in a read-through cache.
//
// The default spool is a temporary file; override with WithSpool or
// WithSpoolDir. If construction fails, any spool acquired along the
// way is released before the error is returned.
func New(src Source, opts ...Option) (*Stream, error) {
	if src == nil {
		return nil, errors.New("source is nil")
	}

	cfg := config{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	spool := cfg.spool
	ownSpool := false
	if spool == nil {
		var err error
		spool, err = NewFileSpool(cfg.spoolDir)
		if err != nil {
			return nil, err
		}
		ownSpool = true
	}

	var metrics *streamMetrics
	if cfg.meter != nil {
		var err error
		metrics, err = newStreamMetrics(cfg.meter)
		if err != nil {
			if ownSpool {
				_ = spool.Close() //nolint:errcheck // construction already failing
			}
			return nil, fmt.Errorf("create metrics: %w", err)
		}
	}

	return &Stream{
		src:     src,
		spool:   spool,
		index:   rangeindex.New(),
		logger:  cfg.logger,
		metrics: metrics,
	}, nil
}

// Read reads up to len(p) bytes at the current logical position.
//
// Reads inside a cached run come from the spool and never cross the
// run's end; everything else is fetched from the source, cached, and
// returned. A zero-length p is a no-op returning 0 bytes and touches
// neither the spool nor the source.
func (s *Stream) Read(p []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}

	// A refetch after a spool fault must not reindex a run that is
	// already present at this exact offset.
	indexed := false

	if run, ok := s.index.Find(s.pos); ok && run.Contains(s.pos) {
		indexed = run.Logical == s.pos
		inRun := s.pos - run.Logical
		want := run.Size - inRun
		if int64(len(p)) < want {
			want = int64(len(p))
		}
		n, err := s.spool.ReadAt(p[:want], run.Physical+inRun)
		if n > 0 {
			s.pos += int64(n)
			s.hits++
			s.metrics.recordHit()
			return n, nil
		}
		if err != nil {
			// Fall through and refetch from the source rather than
			// serve a fault as data.
			s.logger.Warn("spool read failed, refetching",
				slog.Int64("offset", s.pos),
				slog.Any("error", err))
		}
	}

	// Cache miss.
	if s.pos != s.srcPos {
		got, err := s.src.Seek(s.pos, io.SeekStart)
		if err != nil {
			return 0, fmt.Errorf("seek source to %d: %w", s.pos, err)
		}
		s.srcPos = got
	}

	r, err := s.src.Read(p)
	if r == 0 {
		if err == nil || errors.Is(err, io.EOF) {
			// True end of stream. The end is now exact and sticky.
			if s.end < s.pos {
				return 0, fmt.Errorf("%w: source reported EOF at %d below known end %d", ErrCorrupted, s.pos, s.end)
			}
			s.eof = true
			return 0, io.EOF
		}
		return 0, err
	}

	s.srcPos += int64(r)

	if !indexed {
		phys, aerr := s.spool.Append(p[:r])
		if aerr != nil {
			// The fetched bytes are dropped; srcPos stays accurate so
			// the next read reseeks the source.
			return 0, aerr
		}
		if ierr := s.index.Insert(rangeindex.Run{Logical: s.pos, Physical: phys, Size: int64(r)}); ierr != nil {
			return 0, fmt.Errorf("%w: %v", ErrCorrupted, ierr)
		}
	}

	s.misses++
	s.metrics.recordMiss(r)
	s.pos += int64(r)
	if s.pos > s.end {
		s.end = s.pos
	}
	if errors.Is(err, io.EOF) {
		// Bytes plus EOF: the stream ends exactly here.
		s.eof = true
	}
	return r, nil
}

// Seek sets the logical position for the next Read.
//
// Targets inside already-observed territory resolve without any I/O;
// the bytes there may still miss the cache on the next Read. Anything
// beyond falls through to the source. A resolved target before offset
// zero is an error, never clamped.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}

	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += s.pos
		whence = io.SeekStart
	case io.SeekEnd:
		if s.eof {
			offset += s.end
			whence = io.SeekStart
		}
		// End not yet proven: only the source can resolve this.
	default:
		return 0, fmt.Errorf("%w: unknown whence %d", ErrInvalidSeek, whence)
	}

	if whence == io.SeekStart {
		if offset < 0 {
			return 0, fmt.Errorf("%w: negative position %d", ErrInvalidSeek, offset)
		}
		if offset < s.end || (s.eof && offset == s.end) {
			// Previously observed territory; assume it is reachable.
			s.pos = offset
			return offset, nil
		}
	}

	got, err := s.src.Seek(offset, whence)
	if err != nil {
		return 0, err
	}
	s.srcPos = got
	s.pos = got
	if got > s.end {
		s.end = got
	}
	return got, nil
}

// Size returns the total size of the stream.
//
// It asks the source directly if the source implements Sizer, and
// otherwise probes by seeking the source to its end and restoring the
// cursor. A failed restore is logged, not fatal; the recorded source
// position stays accurate either way. A positive result fixes the
// stream's end, after which relative-to-end seeks resolve without
// source I/O.
func (s *Stream) Size() (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}

	if sizer, ok := s.src.(Sizer); ok {
		if n, err := sizer.Size(); err == nil && n > 0 {
			s.markEnd(n)
			return n, nil
		}
		// A source that cannot report its size is not an error here;
		// fall back to the seek probe.
	}

	end, err := s.src.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("probe source size: %w", err)
	}
	if _, err := s.src.Seek(s.srcPos, io.SeekStart); err != nil {
		s.logger.Warn("failed to restore source position after size probe",
			slog.Int64("position", s.srcPos),
			slog.Any("error", err))
		// The cursor is stuck at the end; record that so the next
		// miss reseeks.
		s.srcPos = end
	}
	if end > 0 {
		s.markEnd(end)
	}
	return end, nil
}

func (s *Stream) markEnd(size int64) {
	s.eof = true
	if size > s.end {
		s.end = size
	}
}

// Stats returns the cumulative hit/miss counters.
func (s *Stream) Stats() Stats {
	return Stats{Hits: s.hits, Misses: s.misses}
}

// Close releases the spool and the source, closing the source if it
// implements io.Closer, and logs the final cache counters. Closing an
// already-closed Stream is a no-op.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	s.logger.Info("cached stream closed",
		slog.Int64("cache_hits", s.hits),
		slog.Int64("cache_misses", s.misses))

	err := s.spool.Close()
	if c, ok := s.src.(io.Closer); ok {
		err = errors.Join(err, c.Close())
	}
	s.index = nil
	return err
}
