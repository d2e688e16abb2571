package rangeindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindExactMatch(t *testing.T) {
	t.Parallel()

	ix := New()
	require.NoError(t, ix.Insert(Run{Logical: 0, Physical: 0, Size: 4}))
	require.NoError(t, ix.Insert(Run{Logical: 10, Physical: 4, Size: 6}))

	run, ok := ix.Find(10)
	require.True(t, ok)
	assert.Equal(t, int64(10), run.Logical)
	assert.Equal(t, int64(4), run.Physical)
	assert.Equal(t, int64(6), run.Size)
}

func TestFindPredecessor(t *testing.T) {
	t.Parallel()

	ix := New()
	require.NoError(t, ix.Insert(Run{Logical: 0, Size: 4}))
	require.NoError(t, ix.Insert(Run{Logical: 10, Size: 6}))
	require.NoError(t, ix.Insert(Run{Logical: 100, Size: 1}))

	// Mid-run offset resolves to the run that starts before it.
	run, ok := ix.Find(12)
	require.True(t, ok)
	assert.Equal(t, int64(10), run.Logical)
	assert.True(t, run.Contains(12))

	// An offset in a hole still returns the predecessor, which does
	// not contain it.
	run, ok = ix.Find(50)
	require.True(t, ok)
	assert.Equal(t, int64(10), run.Logical)
	assert.False(t, run.Contains(50))
}

func TestFindBeforeFirstRun(t *testing.T) {
	t.Parallel()

	ix := New()
	require.NoError(t, ix.Insert(Run{Logical: 10, Size: 6}))

	_, ok := ix.Find(5)
	assert.False(t, ok)
}

func TestFindEmpty(t *testing.T) {
	t.Parallel()

	_, ok := New().Find(0)
	assert.False(t, ok)
}

func TestInsertDuplicateOffset(t *testing.T) {
	t.Parallel()

	ix := New()
	require.NoError(t, ix.Insert(Run{Logical: 7, Physical: 0, Size: 3}))

	err := ix.Insert(Run{Logical: 7, Physical: 99, Size: 5})
	require.Error(t, err)

	// The original run survives.
	run, ok := ix.Find(7)
	require.True(t, ok)
	assert.Equal(t, int64(0), run.Physical)
	assert.Equal(t, int64(3), run.Size)
	assert.Equal(t, 1, ix.Len())
}

func TestInsertRejectsEmptyRun(t *testing.T) {
	t.Parallel()

	ix := New()
	assert.Error(t, ix.Insert(Run{Logical: 0, Size: 0}))
	assert.Error(t, ix.Insert(Run{Logical: 0, Size: -1}))
}

func TestManyRuns(t *testing.T) {
	t.Parallel()

	ix := New()
	const runSize = 8
	for i := range 1000 {
		off := int64(i * runSize)
		require.NoError(t, ix.Insert(Run{Logical: off, Physical: off, Size: runSize}))
	}
	require.Equal(t, 1000, ix.Len())

	for _, off := range []int64{0, 1, 799, 4096, 7999} {
		run, ok := ix.Find(off)
		require.True(t, ok, "offset %d", off)
		assert.True(t, run.Contains(off), "offset %d resolved to run at %d", off, run.Logical)
		assert.Equal(t, off/runSize*runSize, run.Logical)
	}
}

func TestNegativeOffsets(t *testing.T) {
	t.Parallel()

	// The logical domain is signed; the index must order negative
	// offsets correctly even if the cache never produces them today.
	ix := New()
	require.NoError(t, ix.Insert(Run{Logical: -20, Size: 5}))
	require.NoError(t, ix.Insert(Run{Logical: 0, Size: 5}))

	run, ok := ix.Find(-18)
	require.True(t, ok)
	assert.Equal(t, int64(-20), run.Logical)
}
