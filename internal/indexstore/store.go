package indexstore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	scriberr "github.com/codescribe/codescribe/internal/errors"
)

const (
	// projectMetaName is the partition metadata file name.
	projectMetaName = "project.json"

	// recordsDirName holds the per-path record files within a partition,
	// separated from partition metadata so record names cannot collide
	// with project.json.
	recordsDirName = "records"
)

// Config contains explicit store configuration.
// Each caller builds its own Store; there is no shared instance.
type Config struct {
	// IndexDir is the base directory holding per-project partitions.
	IndexDir string

	// WorkspaceRoot is the fallback project root for paths with no marker.
	WorkspaceRoot string
}

// Store is a durable mapping from absolute path to PathRecord.
// It holds no mutable state beyond configuration; cross-process access to
// the same record is serialized by the lock manager, not by the store.
type Store struct {
	indexDir      string
	workspaceRoot string
}

// New creates a Store rooted at cfg.IndexDir, creating it if needed.
func New(cfg Config) (*Store, error) {
	if cfg.IndexDir == "" {
		return nil, scriberr.New(scriberr.ErrCodeConfigInvalid, "index directory must not be empty", nil)
	}
	if err := os.MkdirAll(cfg.IndexDir, 0o755); err != nil {
		return nil, scriberr.Wrap(scriberr.ErrCodeRecordWrite, fmt.Errorf("failed to create index directory: %w", err))
	}
	return &Store{indexDir: cfg.IndexDir, workspaceRoot: cfg.WorkspaceRoot}, nil
}

// IndexDir returns the base index directory.
func (s *Store) IndexDir() string {
	return s.indexDir
}

// RecordPath returns the storage location for a path's record.
// It is a pure function of the path and the project root: separators are
// normalized to a single joiner so the same logical path resolves to the
// same location regardless of host conventions.
func (s *Store) RecordPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", scriberr.Wrap(scriberr.ErrCodeProjectScope, err)
	}

	scope, err := s.ProjectScope(abs)
	if err != nil {
		return "", scriberr.Wrap(scriberr.ErrCodeProjectScope, err)
	}

	rel, err := filepath.Rel(scope.Root, abs)
	if err != nil {
		return "", scriberr.Wrap(scriberr.ErrCodeProjectScope, err)
	}

	name := recordFileName(rel)
	return filepath.Join(s.indexDir, scope.ID, recordsDirName, name), nil
}

// recordFileName maps a project-relative path to a record file name.
func recordFileName(rel string) string {
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return "__project__.json"
	}
	return strings.ReplaceAll(rel, "/", "_") + ".json"
}

// Write persists a record at its location, creating the partition as
// needed. IsDirectory is resolved freshly from the live filesystem and
// LastModifiedAt is stamped with the current time. A previously stored
// LastDocumentedAt survives unless the caller sets one explicitly.
func (s *Store) Write(path string, rec PathRecord) (PathRecord, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return rec, scriberr.Wrap(scriberr.ErrCodeRecordWrite, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return rec, scriberr.Wrap(scriberr.ErrCodeRecordWrite, fmt.Errorf("failed to stat %s: %w", abs, err))
	}

	rec.Path = abs
	rec.IsDirectory = info.IsDir()
	rec.LastModifiedAt = time.Now().UnixMilli()

	if rec.LastDocumentedAt == 0 {
		if prev, ok := s.Read(abs); ok {
			rec.LastDocumentedAt = prev.LastDocumentedAt
		}
	}

	loc, err := s.RecordPath(abs)
	if err != nil {
		return rec, err
	}

	if err := s.ensurePartition(abs, filepath.Dir(loc)); err != nil {
		return rec, err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return rec, scriberr.Wrap(scriberr.ErrCodeRecordWrite, err)
	}

	// Atomic write: temp file + rename.
	tmp := loc + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return rec, scriberr.Wrap(scriberr.ErrCodeRecordWrite, fmt.Errorf("failed to write record: %w", err))
	}
	if err := os.Rename(tmp, loc); err != nil {
		_ = os.Remove(tmp)
		return rec, scriberr.Wrap(scriberr.ErrCodeRecordWrite, fmt.Errorf("failed to save record: %w", err))
	}

	return rec, nil
}

// ensurePartition creates the records directory and partition metadata.
func (s *Store) ensurePartition(path, recordsDir string) error {
	if err := os.MkdirAll(recordsDir, 0o755); err != nil {
		return scriberr.Wrap(scriberr.ErrCodeRecordWrite, fmt.Errorf("failed to create partition: %w", err))
	}

	metaPath := filepath.Join(filepath.Dir(recordsDir), projectMetaName)
	if _, err := os.Stat(metaPath); err == nil {
		return nil
	}

	scope, err := s.ProjectScope(path)
	if err != nil {
		return scriberr.Wrap(scriberr.ErrCodeProjectScope, err)
	}
	data, err := json.MarshalIndent(scope, "", "  ")
	if err != nil {
		return scriberr.Wrap(scriberr.ErrCodeRecordWrite, err)
	}
	if err := os.WriteFile(metaPath, data, 0o644); err != nil {
		return scriberr.Wrap(scriberr.ErrCodeRecordWrite, fmt.Errorf("failed to write partition metadata: %w", err))
	}
	return nil
}

// Read loads the record for a path. A missing record is the routine
// "no documentation yet" state, reported as ok=false, not an error.
// Unreadable or corrupt records also degrade to absent, with a warning.
func (s *Store) Read(path string) (PathRecord, bool) {
	loc, err := s.RecordPath(path)
	if err != nil {
		slog.Warn("failed to locate record",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return PathRecord{}, false
	}

	data, err := os.ReadFile(loc)
	if os.IsNotExist(err) {
		return PathRecord{}, false
	}
	if err != nil {
		slog.Warn("failed to read record, treating as absent",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return PathRecord{}, false
	}

	var rec PathRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		slog.Warn("corrupt record, treating as absent",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return PathRecord{}, false
	}
	return rec, true
}

// IsValid reports whether a record exists and is younger than maxAge.
// This is the fast-path cache check before any recursion or regeneration.
func (s *Store) IsValid(path string, maxAge time.Duration) bool {
	rec, ok := s.Read(path)
	if !ok {
		return false
	}
	age := time.Now().UnixMilli() - rec.LastModifiedAt
	return age >= 0 && age <= maxAge.Milliseconds()
}

// Remove deletes the record for a path. Removing an absent record is not
// an error.
func (s *Store) Remove(path string) error {
	loc, err := s.RecordPath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(loc); err != nil && !os.IsNotExist(err) {
		return scriberr.Wrap(scriberr.ErrCodeRecordWrite, fmt.Errorf("failed to remove record: %w", err))
	}
	return nil
}

// ClearProject removes the entire partition for the project enclosing the
// given path. Idempotent: clearing an absent partition is not an error.
func (s *Store) ClearProject(projectPath string) error {
	scope, err := s.ProjectScope(projectPath)
	if err != nil {
		return scriberr.Wrap(scriberr.ErrCodeProjectScope, err)
	}
	partition := filepath.Join(s.indexDir, scope.ID)
	if err := os.RemoveAll(partition); err != nil {
		return scriberr.Wrap(scriberr.ErrCodeRecordWrite, fmt.Errorf("failed to clear partition: %w", err))
	}
	return nil
}

// ListProjects enumerates the partitions present in the index directory,
// sorted by project name.
func (s *Store) ListProjects() ([]Project, error) {
	entries, err := os.ReadDir(s.indexDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, scriberr.Wrap(scriberr.ErrCodeRecordRead, err)
	}

	var projects []Project
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		metaPath := filepath.Join(s.indexDir, entry.Name(), projectMetaName)
		data, err := os.ReadFile(metaPath)
		if err != nil {
			// Partition without metadata: report what the dir name holds.
			projects = append(projects, Project{ID: entry.Name(), Name: entry.Name()})
			continue
		}

		var p Project
		if err := json.Unmarshal(data, &p); err != nil {
			slog.Warn("corrupt partition metadata",
				slog.String("partition", entry.Name()),
				slog.String("error", err.Error()))
			projects = append(projects, Project{ID: entry.Name(), Name: entry.Name()})
			continue
		}
		projects = append(projects, p)
	}

	sort.Slice(projects, func(i, j int) bool { return projects[i].Name < projects[j].Name })
	return projects, nil
}
