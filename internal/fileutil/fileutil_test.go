package fileutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteIfChanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")

	require.NoError(t, WriteIfChanged(path, []byte("one")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))

	before, err := os.Stat(path)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	require.NoError(t, WriteIfChanged(path, []byte("one")))
	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), after.ModTime(), "identical content must not rewrite")

	require.NoError(t, WriteIfChanged(path, []byte("two")))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestWriteIfMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "out.txt")

	require.NoError(t, WriteIfMissing(path, []byte("first"), 0o644))
	require.NoError(t, WriteIfMissing(path, []byte("second"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data), "existing files are kept")
}

func TestHashBytes(t *testing.T) {
	h := HashBytes([]byte("content"))
	assert.Len(t, h, 16)
	assert.Equal(t, h, HashBytes([]byte("content")))
	assert.NotEqual(t, h, HashBytes([]byte("different")))
}
