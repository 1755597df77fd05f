package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codescribe/codescribe/pkg/version"
)

// execute runs the CLI with isolated HOME, index, and lock directories
// and returns combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CODESCRIBE_INDEX_DIR", filepath.Join(home, "index"))
	t.Setenv("CODESCRIBE_LOCK_DIR", filepath.Join(home, "locks"))

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCmd_PrintsVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, version.Version)
}

func TestProjectsCmd_EmptyIndex(t *testing.T) {
	out, err := execute(t, "projects")
	require.NoError(t, err)
	assert.Contains(t, out, "no indexed projects")
}

func TestStatusCmd_NoRecord(t *testing.T) {
	project := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(project, ".git"), 0o755))

	out, err := execute(t, "status", project)
	require.NoError(t, err)
	assert.Contains(t, out, "no record cached")
	assert.Contains(t, out, filepath.Base(project))
}

func TestClearCmd_NoRecordIsIdempotent(t *testing.T) {
	project := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(project, ".git"), 0o755))

	out, err := execute(t, "clear", project)
	require.NoError(t, err)
	assert.Contains(t, out, "cleared record for")
}

func TestClearCmd_AllClearsPartition(t *testing.T) {
	project := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(project, ".git"), 0o755))

	out, err := execute(t, "clear", "--all", project)
	require.NoError(t, err)
	assert.Contains(t, out, "cleared project")
	assert.Contains(t, out, filepath.Base(project))
}

func TestLocksCleanupCmd_EmptyLockDir(t *testing.T) {
	out, err := execute(t, "locks", "cleanup")
	require.NoError(t, err)
	assert.Contains(t, out, "removed 0 of 0")
}

func TestRootCmd_UnknownCommandFails(t *testing.T) {
	_, err := execute(t, "frobnicate")
	require.Error(t, err)
}
