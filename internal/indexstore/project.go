package indexstore

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// projectMarkers are files/directories that identify a project root,
// checked in order while walking upward.
var projectMarkers = []string{
	".git",
	"go.mod",
	"package.json",
	"pyproject.toml",
	"Cargo.toml",
}

// unsafeNameChars matches characters stripped from the readable suffix of
// a partition directory name.
var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Project identifies one index partition.
type Project struct {
	// ID is the partition directory name: short hash + readable suffix.
	ID string `json:"id"`

	// Name is the project's base directory name.
	Name string `json:"name"`

	// Root is the absolute project root path.
	Root string `json:"root"`
}

// ProjectScope derives the enclosing project for any path inside it.
//
// It walks upward from the path looking for a project marker. If none is
// found it falls back to the configured workspace root (when the path is
// under it), and finally to the path's immediate parent directory. The
// result is stable for repeated calls on the same project.
func (s *Store) ProjectScope(path string) (Project, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Project{}, err
	}

	start := abs
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		start = filepath.Dir(abs)
	}

	for dir := start; ; dir = filepath.Dir(dir) {
		for _, marker := range projectMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return projectFor(dir), nil
			}
		}
		if filepath.Dir(dir) == dir {
			break
		}
	}

	if s.workspaceRoot != "" {
		if rel, err := filepath.Rel(s.workspaceRoot, abs); err == nil && !strings.HasPrefix(rel, "..") {
			return projectFor(s.workspaceRoot), nil
		}
	}

	return projectFor(start), nil
}

// projectFor builds the stable partition identity for a project root.
func projectFor(root string) Project {
	sum := sha256.Sum256([]byte(root))
	name := filepath.Base(root)

	suffix := unsafeNameChars.ReplaceAllString(name, "-")
	suffix = strings.Trim(suffix, "-.")
	if suffix == "" {
		suffix = "project"
	}

	return Project{
		ID:   hex.EncodeToString(sum[:6]) + "-" + suffix,
		Name: name,
		Root: root,
	}
}
