package streamcache

import (
	"fmt"
	"io"
	"os"
)

// Spool is the append-only local store holding fetched bytes.
//
// Physical offsets returned by Append address the spool directly and
// have no relation to logical stream offsets; the Stream keeps the
// mapping between the two. Implementations must not assume any cursor
// is preserved between calls.
//
// A Spool must report storage faults as errors; it must never fabricate
// data on reads.
type Spool interface {
	// Append writes p at the end of the spool and returns the physical
	// offset at which the bytes landed.
	Append(p []byte) (int64, error)

	// ReadAt reads previously appended bytes at a physical offset,
	// following the io.ReaderAt contract.
	io.ReaderAt

	io.Closer
}

// fileSpool spools fetched bytes into a temporary file, addressed with
// explicit offsets rather than the file cursor.
type fileSpool struct {
	f    *os.File
	path string // retained only if the file could not be unlinked
	size int64
}

// NewFileSpool creates a Spool backed by a temporary file in dir. An
// empty dir uses the default temp directory. The file is unlinked
// immediately where the platform allows, so its bytes vanish with the
// spool.
func NewFileSpool(dir string) (Spool, error) {
	f, err := os.CreateTemp(dir, "streamcache-*")
	if err != nil {
		return nil, fmt.Errorf("create spool file: %w", err)
	}
	s := &fileSpool{f: f}
	// Unlinking an open file fails on some platforms; keep the path
	// around and remove on Close instead.
	if err := os.Remove(f.Name()); err != nil {
		s.path = f.Name()
	}
	return s, nil
}

// Append implements Spool.
func (s *fileSpool) Append(p []byte) (int64, error) {
	off := s.size
	if _, err := s.f.WriteAt(p, off); err != nil {
		return 0, fmt.Errorf("spool write at %d: %w", off, err)
	}
	s.size += int64(len(p))
	return off, nil
}

// ReadAt implements io.ReaderAt.
func (s *fileSpool) ReadAt(p []byte, off int64) (int, error) {
	return s.f.ReadAt(p, off)
}

// Close closes and removes the spool file.
func (s *fileSpool) Close() error {
	err := s.f.Close()
	if s.path != "" {
		if rerr := os.Remove(s.path); rerr != nil && err == nil {
			err = rerr
		}
	}
	return err
}
