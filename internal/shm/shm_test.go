package shm

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegionIsZeroedAndWritable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shm.bin")
	r, err := NewAt(path, 4096)
	require.NoError(t, err)
	defer r.Close()

	buf := r.Bytes()
	assert.Len(t, buf, 4096)
	assert.Equal(t, byte(0), buf[0])

	buf[0] = 0xAB
	assert.Equal(t, byte(0xAB), r.Bytes()[0])
}

func TestNewRejectsNonPositiveSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shm.bin")
	_, err := NewAt(path, 0)
	assert.Error(t, err)
}

func TestCloseIsIdempotentlySafe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shm.bin")
	r, err := NewAt(path, 4096)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
}

func TestPathReturnsBackingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shm.bin")
	r, err := NewAt(path, 4096)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, path, r.Path())
}
