package indexstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore builds a store over an isolated temp index directory.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(Config{IndexDir: t.TempDir()})
	require.NoError(t, err)
	return s
}

// newProject creates a temp project dir with a .git marker and one file.
func newProject(t *testing.T, fileName, content string) (root, file string) {
	t.Helper()
	root = t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	file = filepath.Join(root, fileName)
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))
	return root, file
}

func TestProjectScope_FindsGitMarker(t *testing.T) {
	s := newTestStore(t)
	root, file := newProject(t, "a.txt", "hello")

	scope, err := s.ProjectScope(file)
	require.NoError(t, err)

	assert.Equal(t, root, scope.Root)
	assert.Equal(t, filepath.Base(root), scope.Name)
	assert.NotEmpty(t, scope.ID)
}

func TestProjectScope_StableAcrossCalls(t *testing.T) {
	s := newTestStore(t)
	root, file := newProject(t, "a.txt", "hello")

	first, err := s.ProjectScope(file)
	require.NoError(t, err)
	second, err := s.ProjectScope(filepath.Join(root, "other.txt"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

func TestProjectScope_NestedMarkerWins(t *testing.T) {
	s := newTestStore(t)
	root, _ := newProject(t, "a.txt", "hello")

	sub := filepath.Join(root, "vendor", "lib")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "go.mod"), []byte("module lib"), 0o644))
	inner := filepath.Join(sub, "lib.go")
	require.NoError(t, os.WriteFile(inner, []byte("package lib"), 0o644))

	scope, err := s.ProjectScope(inner)
	require.NoError(t, err)
	assert.Equal(t, sub, scope.Root)
}

func TestProjectScope_WorkspaceRootFallback(t *testing.T) {
	ws := t.TempDir()
	s, err := New(Config{IndexDir: t.TempDir(), WorkspaceRoot: ws})
	require.NoError(t, err)

	sub := filepath.Join(ws, "deep", "dir")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	file := filepath.Join(sub, "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	scope, err := s.ProjectScope(file)
	require.NoError(t, err)
	assert.Equal(t, ws, scope.Root)
}

func TestProjectScope_ParentFallback(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()
	file := filepath.Join(dir, "orphan.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	scope, err := s.ProjectScope(file)
	require.NoError(t, err)
	assert.Equal(t, dir, scope.Root)
}

func TestProjectScope_IDIsFilesystemSafe(t *testing.T) {
	s := newTestStore(t)
	root, file := newProject(t, "a.txt", "hello")
	_ = root

	scope, err := s.ProjectScope(file)
	require.NoError(t, err)
	assert.NotContains(t, scope.ID, "/")
	assert.NotContains(t, scope.ID, "\\")
	assert.NotContains(t, scope.ID, ":")
}

func TestRecordPath_SeparatorSubstitution(t *testing.T) {
	s := newTestStore(t)
	root, _ := newProject(t, "a.txt", "hello")

	nested := filepath.Join(root, "src", "pkg", "main.go")
	loc, err := s.RecordPath(nested)
	require.NoError(t, err)

	assert.Equal(t, "src_pkg_main.go.json", filepath.Base(loc))
	assert.True(t, strings.HasPrefix(loc, s.IndexDir()))
}

func TestRecordPath_ProjectRootItself(t *testing.T) {
	s := newTestStore(t)
	root, _ := newProject(t, "a.txt", "hello")

	loc, err := s.RecordPath(root)
	require.NoError(t, err)
	assert.Equal(t, "__project__.json", filepath.Base(loc))
}

func TestWrite_ReadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	_, file := newProject(t, "a.txt", "hello")

	before := time.Now().UnixMilli()
	written, err := s.Write(file, PathRecord{Summary: "Greeting text", Detail: "Says hello"})
	require.NoError(t, err)

	assert.False(t, written.IsDirectory)
	assert.GreaterOrEqual(t, written.LastModifiedAt, before)

	rec, ok := s.Read(file)
	require.True(t, ok)
	assert.Equal(t, "Greeting text", rec.Summary)
	assert.Equal(t, "Says hello", rec.Detail)
	assert.Equal(t, written.LastModifiedAt, rec.LastModifiedAt)
}

func TestWrite_ResolvesIsDirectoryFromLiveFilesystem(t *testing.T) {
	s := newTestStore(t)
	root, _ := newProject(t, "a.txt", "hello")

	// Caller lies about the flag; the store must not trust it.
	rec, err := s.Write(root, PathRecord{IsDirectory: false, Summary: "project root"})
	require.NoError(t, err)
	assert.True(t, rec.IsDirectory)
}

func TestWrite_PreservesLastDocumentedAt(t *testing.T) {
	s := newTestStore(t)
	_, file := newProject(t, "a.txt", "hello")

	_, err := s.Write(file, PathRecord{Summary: "v1", LastDocumentedAt: 12345})
	require.NoError(t, err)

	// Rewrite without setting LastDocumentedAt; the old stamp survives.
	_, err = s.Write(file, PathRecord{Summary: "v2"})
	require.NoError(t, err)

	rec, ok := s.Read(file)
	require.True(t, ok)
	assert.Equal(t, int64(12345), rec.LastDocumentedAt)
	assert.Equal(t, "v2", rec.Summary)
}

func TestWrite_LastWriteWins(t *testing.T) {
	s := newTestStore(t)
	_, file := newProject(t, "a.txt", "hello")

	_, err := s.Write(file, PathRecord{Summary: "first"})
	require.NoError(t, err)
	_, err = s.Write(file, PathRecord{Summary: "second"})
	require.NoError(t, err)

	rec, ok := s.Read(file)
	require.True(t, ok)
	assert.Equal(t, "second", rec.Summary)
}

func TestWrite_NonexistentPathFails(t *testing.T) {
	s := newTestStore(t)
	root, _ := newProject(t, "a.txt", "hello")

	_, err := s.Write(filepath.Join(root, "missing.txt"), PathRecord{Summary: "x"})
	require.Error(t, err)
}

func TestRead_AbsentRecord(t *testing.T) {
	s := newTestStore(t)
	_, file := newProject(t, "a.txt", "hello")

	_, ok := s.Read(file)
	assert.False(t, ok)
}

func TestRead_CorruptRecordDegradesToAbsent(t *testing.T) {
	s := newTestStore(t)
	_, file := newProject(t, "a.txt", "hello")

	_, err := s.Write(file, PathRecord{Summary: "x"})
	require.NoError(t, err)

	loc, err := s.RecordPath(file)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(loc, []byte("{not json"), 0o644))

	_, ok := s.Read(file)
	assert.False(t, ok)
}

func TestIsValid(t *testing.T) {
	s := newTestStore(t)
	_, file := newProject(t, "a.txt", "hello")

	assert.False(t, s.IsValid(file, time.Hour), "no record yet")

	_, err := s.Write(file, PathRecord{Summary: "x"})
	require.NoError(t, err)

	assert.True(t, s.IsValid(file, time.Hour))
	assert.False(t, s.IsValid(file, -time.Second), "expired window")
}

func TestRemove_Idempotent(t *testing.T) {
	s := newTestStore(t)
	_, file := newProject(t, "a.txt", "hello")

	_, err := s.Write(file, PathRecord{Summary: "x"})
	require.NoError(t, err)

	require.NoError(t, s.Remove(file))
	_, ok := s.Read(file)
	assert.False(t, ok)

	// Removing an absent record is fine.
	require.NoError(t, s.Remove(file))
}

func TestClearProject_IsolatedBetweenProjects(t *testing.T) {
	s := newTestStore(t)
	rootA, fileA := newProject(t, "a.txt", "aaa")
	_, fileB := newProject(t, "b.txt", "bbb")

	_, err := s.Write(fileA, PathRecord{Summary: "a"})
	require.NoError(t, err)
	_, err = s.Write(fileB, PathRecord{Summary: "b"})
	require.NoError(t, err)

	require.NoError(t, s.ClearProject(rootA))

	_, okA := s.Read(fileA)
	assert.False(t, okA, "cleared project's record should be gone")

	_, okB := s.Read(fileB)
	assert.True(t, okB, "other project's record must survive")

	// Clearing again is idempotent.
	require.NoError(t, s.ClearProject(rootA))
}

func TestListProjects(t *testing.T) {
	s := newTestStore(t)
	rootA, fileA := newProject(t, "a.txt", "aaa")
	rootB, fileB := newProject(t, "b.txt", "bbb")

	_, err := s.Write(fileA, PathRecord{Summary: "a"})
	require.NoError(t, err)
	_, err = s.Write(fileB, PathRecord{Summary: "b"})
	require.NoError(t, err)

	projects, err := s.ListProjects()
	require.NoError(t, err)
	require.Len(t, projects, 2)

	roots := []string{projects[0].Root, projects[1].Root}
	assert.Contains(t, roots, rootA)
	assert.Contains(t, roots, rootB)
}

func TestListProjects_EmptyIndex(t *testing.T) {
	s := newTestStore(t)
	projects, err := s.ListProjects()
	require.NoError(t, err)
	assert.Empty(t, projects)
}
