// Package zstdsource exposes the decompressed view of a zstd-compressed
// stream as a seekable Source.
//
// Zstandard streams have no random access: a backward seek restarts
// decompression from the beginning and a forward seek decompresses and
// discards everything in between. That makes this the archetype of a
// slow-to-reposition source; put a streamcache Stream in front of it
// and previously visited ranges become cheap.
package zstdsource

import (
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Source decompresses a zstd stream on the fly while presenting plain
// read/seek semantics over the decompressed bytes.
//
// Source is not safe for concurrent use.
type Source struct {
	compressed io.ReadSeeker
	dec        *zstd.Decoder
	pos        int64 // position in the decompressed stream
	size       int64 // decompressed size, -1 until the stream has been drained once
}

// New creates a Source reading the zstd stream in compressed, which is
// rewound to its start. The caller keeps ownership of compressed.
func New(compressed io.ReadSeeker) (*Source, error) {
	if _, err := compressed.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind compressed stream: %w", err)
	}
	dec, err := zstd.NewReader(compressed)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Source{
		compressed: compressed,
		dec:        dec,
		size:       -1,
	}, nil
}

// Read decompresses from the current position.
func (s *Source) Read(p []byte) (int, error) {
	n, err := s.dec.Read(p)
	s.pos += int64(n)
	if errors.Is(err, io.EOF) && s.size < 0 {
		s.size = s.pos
	}
	return n, err
}

// Seek repositions the decompressed stream. Seeking backward restarts
// decompression from the start of the compressed input; seeking
// relative to the end first drains the stream to learn its size.
func (s *Source) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = s.pos + offset
	case io.SeekEnd:
		if s.size < 0 {
			if err := s.drain(); err != nil {
				return 0, err
			}
		}
		abs = s.size + offset
	default:
		return 0, fmt.Errorf("seek: invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("seek: negative position %d", abs)
	}
	if err := s.discardTo(abs); err != nil {
		return 0, err
	}
	return s.pos, nil
}

// Close releases the decoder. The compressed input stays open; it
// belongs to the caller.
func (s *Source) Close() error {
	s.dec.Close()
	return nil
}

func (s *Source) restart() error {
	if _, err := s.compressed.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind compressed stream: %w", err)
	}
	if err := s.dec.Reset(s.compressed); err != nil {
		return fmt.Errorf("reset zstd decoder: %w", err)
	}
	s.pos = 0
	return nil
}

// discardTo moves the decompressed position to abs, restarting the
// decoder when abs lies behind the current position.
func (s *Source) discardTo(abs int64) error {
	if abs < s.pos {
		if err := s.restart(); err != nil {
			return err
		}
	}
	if abs == s.pos {
		return nil
	}
	n, err := io.CopyN(io.Discard, s.dec, abs-s.pos)
	s.pos += n
	if errors.Is(err, io.EOF) {
		// Seeking beyond the end of the stream is allowed; reads
		// there simply return EOF.
		if s.size < 0 {
			s.size = s.pos
		}
		s.pos = abs
		return nil
	}
	if err != nil {
		return fmt.Errorf("discard to %d: %w", abs, err)
	}
	return nil
}

func (s *Source) drain() error {
	n, err := io.Copy(io.Discard, s.dec)
	s.pos += n
	if err != nil {
		return fmt.Errorf("drain stream: %w", err)
	}
	s.size = s.pos
	return nil
}
