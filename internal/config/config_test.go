package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, 60, cfg.Index.MaxAgeMinutes)
	assert.Equal(t, 32, cfg.Index.MaxDepth)
	assert.Equal(t, 10000, cfg.Index.MaxLines)
	assert.Equal(t, 10, cfg.Locks.FileStaleMinutes)
	assert.Equal(t, 5, cfg.Locks.DirStaleMinutes)
	assert.NotEmpty(t, cfg.Paths.IndexDir)
	assert.NotEmpty(t, cfg.Paths.LockDir)
	require.NoError(t, cfg.Validate())
}

func TestLoad_ProjectConfigOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
index:
  max_age_minutes: 5
oracle:
  model: custom-model
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".codescribe.yaml"), content, 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Index.MaxAgeMinutes)
	assert.Equal(t, "custom-model", cfg.Oracle.Model)
	// Untouched fields keep their defaults.
	assert.Equal(t, 32, cfg.Index.MaxDepth)
}

func TestLoad_EnvOverridesProjectConfig(t *testing.T) {
	dir := t.TempDir()
	content := []byte("oracle:\n  host: http://from-file:1234\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".codescribe.yaml"), content, 0o644))

	t.Setenv("CODESCRIBE_ORACLE_HOST", "http://from-env:5678")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "http://from-env:5678", cfg.Oracle.Host)
}

func TestLoad_MissingConfigFilesUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, NewConfig().Index, cfg.Index)
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := NewConfig()
	cfg.Index.MaxAgeMinutes = 0
	cfg.Oracle.Model = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_age_minutes")
	assert.Contains(t, err.Error(), "oracle.model")
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".codescribe.yaml"), []byte("{not yaml"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "config.yaml")

	cfg := NewConfig()
	cfg.Index.MaxAgeMinutes = 7
	require.NoError(t, cfg.WriteYAML(path))

	loaded := NewConfig()
	require.NoError(t, loaded.loadYAML(path))
	assert.Equal(t, 7, loaded.Index.MaxAgeMinutes)
}
