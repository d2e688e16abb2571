package streamcache

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSpoolAppendReturnsPhysicalOffsets(t *testing.T) {
	t.Parallel()

	sp, err := NewFileSpool(t.TempDir())
	require.NoError(t, err)
	defer sp.Close()

	off, err := sp.Append([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(0), off)

	off, err = sp.Append([]byte("world"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), off)

	buf := make([]byte, 5)
	n, err := sp.ReadAt(buf, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []byte("world"), buf)

	n, err = sp.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), buf[:n])
}

func TestFileSpoolReadPastEnd(t *testing.T) {
	t.Parallel()

	sp, err := NewFileSpool(t.TempDir())
	require.NoError(t, err)
	defer sp.Close()

	_, err = sp.Append([]byte("abc"))
	require.NoError(t, err)

	buf := make([]byte, 8)
	n, err := sp.ReadAt(buf, 0)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 3, n)

	_, err = sp.ReadAt(buf, 100)
	assert.ErrorIs(t, err, io.EOF)
}

func TestFileSpoolDefaultDir(t *testing.T) {
	t.Parallel()

	sp, err := NewFileSpool("")
	require.NoError(t, err)
	require.NoError(t, sp.Close())
}
