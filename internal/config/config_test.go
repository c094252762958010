package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/covfuzz/covfuzz/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigHasNonEmptyUseCov(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 2, cfg.Engine.LoopBoundK)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "covfuzz.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
target:
  command: ["./target", "@@"]
  cfg_file: cfg.json
engine:
  loop_bound_k: 3
  use_cov: ["block"]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Engine.LoopBoundK)
	assert.Equal(t, []string{"block"}, cfg.Engine.UseCov)
	assert.Equal(t, []string{"./target", "@@"}, cfg.Target.Command)
}

func TestValidateRejectsEmptyUseCov(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.UseCov = nil
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrEmptyUseCov))
}
