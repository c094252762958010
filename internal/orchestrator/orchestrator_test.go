package orchestrator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncSeedPoolsCopiesMissingFiles(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "instance_0")
	b := filepath.Join(root, "instance_1")
	require.NoError(t, os.MkdirAll(filepath.Join(a, "queue"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(b, "queue"), 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(a, "queue", "id:000001:+cov_block_2"), []byte("aaa"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(b, "queue", "id:000001:+cov_edge_1"), []byte("bbb"), 0o644))

	require.NoError(t, SyncSeedPools([]string{a, b}))

	_, err := os.Stat(filepath.Join(b, "queue", "id:000001:+cov_block_2"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(a, "queue", "id:000001:+cov_edge_1"))
	assert.NoError(t, err)
}

func TestSyncSeedPoolsDoesNotOverwriteExisting(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "instance_0")
	b := filepath.Join(root, "instance_1")
	require.NoError(t, os.MkdirAll(filepath.Join(a, "queue"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(b, "queue"), 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(a, "queue", "id:000001"), []byte("aaa"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(b, "queue", "id:000001"), []byte("bbb"), 0o644))

	require.NoError(t, SyncSeedPools([]string{a, b}))

	data, err := os.ReadFile(filepath.Join(b, "queue", "id:000001"))
	require.NoError(t, err)
	assert.Equal(t, "bbb", string(data))
}
