// Package rangeindex maintains an ordered index of cached byte ranges
// keyed by their logical stream offset.
package rangeindex

import (
	"fmt"

	"github.com/google/btree"
)

// Run describes one contiguous range of bytes held in the spool.
type Run struct {
	// Logical is the offset of the run in the caller-visible stream.
	Logical int64
	// Physical is the offset of the run's bytes inside the spool.
	Physical int64
	// Size is the length of the run in bytes, always > 0.
	Size int64
}

// End returns the logical offset one past the last byte of the run.
func (r Run) End() int64 {
	return r.Logical + r.Size
}

// Contains reports whether off falls inside the run.
func (r Run) Contains(off int64) bool {
	return off >= r.Logical && off < r.End()
}

// Index is an ordered map of runs keyed by logical offset.
//
// Runs are never merged, split, or removed; the index only grows.
// Index is not safe for concurrent use.
type Index struct {
	tree *btree.BTreeG[Run]
}

const btreeDegree = 16

// New returns an empty index.
func New() *Index {
	return &Index{
		tree: btree.NewG(btreeDegree, func(a, b Run) bool {
			return a.Logical < b.Logical
		}),
	}
}

// Insert adds a run to the index.
//
// A run whose logical offset is already indexed indicates corrupted
// bookkeeping in the caller; Insert reports it as an error and leaves
// the existing run in place.
func (ix *Index) Insert(r Run) error {
	if r.Size <= 0 {
		return fmt.Errorf("insert run at %d: non-positive size %d", r.Logical, r.Size)
	}
	if prev, ok := ix.tree.Get(Run{Logical: r.Logical}); ok {
		return fmt.Errorf("insert run at %d: offset already indexed (existing run of %d bytes)", r.Logical, prev.Size)
	}
	ix.tree.ReplaceOrInsert(r)
	return nil
}

// Find returns the run whose logical offset equals off, or failing
// that the nearest run starting before off. The returned run may or
// may not contain off; callers check with Contains.
func (ix *Index) Find(off int64) (Run, bool) {
	var (
		run   Run
		found bool
	)
	ix.tree.DescendLessOrEqual(Run{Logical: off}, func(r Run) bool {
		run = r
		found = true
		return false
	})
	return run, found
}

// Len returns the number of indexed runs.
func (ix *Index) Len() int {
	return ix.tree.Len()
}
