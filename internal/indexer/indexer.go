// Package indexer orchestrates documentation indexing of filesystem paths.
//
// For each path it decides whether the cached record in the index store is
// still valid or must be regenerated through the documentation oracle,
// recursing depth-first into directories and aggregating child summaries
// as the directory's members. All regeneration is serialized across
// processes by per-path file locks; reads are lock-free.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	scriberr "github.com/codescribe/codescribe/internal/errors"
	"github.com/codescribe/codescribe/internal/indexstore"
	"github.com/codescribe/codescribe/internal/lockfile"
	"github.com/codescribe/codescribe/internal/oracle"
)

// Lock prefixes keep file and directory indexing locks independent.
const (
	LockPrefixFile = "index-file"
	LockPrefixDir  = "index-dir"
)

// LockPrefixes lists every prefix the indexer locks under, for cleanup
// sweeps.
var LockPrefixes = []string{LockPrefixFile, LockPrefixDir}

const (
	// DefaultMaxDepth bounds directory recursion (symlink cycle guard).
	DefaultMaxDepth = 32

	// DefaultMaxLines is the size above which files are stubbed instead
	// of being sent to the oracle.
	DefaultMaxLines = 10000

	// DefaultMaxAge is the cache validity window for file records.
	DefaultMaxAge = time.Hour
)

// Excluder is the exclusion predicate collaborator.
type Excluder interface {
	IsExcluded(path string, extras ...string) bool
}

// Config wires the indexer's collaborators. Store, Locks, and Oracle are
// required; zero limits fall back to defaults.
type Config struct {
	Store    *indexstore.Store
	Locks    *lockfile.Manager
	Oracle   oracle.Oracle
	Excluder Excluder

	// MaxAge is the cache validity window for file records.
	MaxAge time.Duration

	// MaxDepth bounds directory recursion.
	MaxDepth int

	// MaxLines is the oversized-file threshold.
	MaxLines int

	// LockOptions is the base acquisition behavior; staleness windows
	// are overridden per lock kind.
	LockOptions lockfile.AcquireOptions

	// FileLockStale and DirLockStale bound how long a crashed holder
	// can block others.
	FileLockStale time.Duration
	DirLockStale  time.Duration
}

// Indexer produces up-to-date PathRecords for paths.
type Indexer struct {
	cfg Config
}

// New creates an Indexer, validating required collaborators.
func New(cfg Config) (*Indexer, error) {
	if cfg.Store == nil || cfg.Locks == nil || cfg.Oracle == nil || cfg.Excluder == nil {
		return nil, scriberr.New(scriberr.ErrCodeInvalidInput, "indexer requires store, locks, oracle, and excluder", nil)
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.MaxLines <= 0 {
		cfg.MaxLines = DefaultMaxLines
	}
	if cfg.LockOptions.Factor < 1.0 {
		cfg.LockOptions = lockfile.DefaultAcquireOptions()
	}
	if cfg.FileLockStale <= 0 {
		cfg.FileLockStale = 10 * time.Minute
	}
	if cfg.DirLockStale <= 0 {
		cfg.DirLockStale = 5 * time.Minute
	}
	return &Indexer{cfg: cfg}, nil
}

// Index produces an up-to-date record for a path, recursively for
// directories. A nil record with nil error means the path was skipped:
// excluded, or currently being indexed by another process.
func (ix *Indexer) Index(ctx context.Context, path string) (*indexstore.PathRecord, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, scriberr.Wrap(scriberr.ErrCodeInvalidInput, err)
	}
	return ix.indexPath(ctx, abs, 0)
}

// Record returns the cached record for a path, if any.
func (ix *Indexer) Record(path string) (*indexstore.PathRecord, bool) {
	rec, ok := ix.cfg.Store.Read(path)
	if !ok {
		return nil, false
	}
	return &rec, true
}

// UpToDate reports whether a path's cached record is currently valid.
func (ix *Indexer) UpToDate(path string) bool {
	return ix.cfg.Store.IsValid(path, ix.cfg.MaxAge)
}

// indexPath dispatches one path by its filesystem type.
func (ix *Indexer) indexPath(ctx context.Context, path string, depth int) (*indexstore.PathRecord, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if depth > ix.cfg.MaxDepth {
		return nil, scriberr.New(scriberr.ErrCodeDepthExceeded,
			fmt.Sprintf("max depth %d exceeded at %s", ix.cfg.MaxDepth, path), nil)
	}

	if ix.cfg.Excluder.IsExcluded(path) {
		return nil, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, scriberr.Wrap(scriberr.ErrCodeUnsupportedPath,
			fmt.Errorf("cannot stat %s: %w", path, err))
	}

	switch {
	case info.IsDir():
		return ix.indexDirectory(ctx, path, info, depth)
	case info.Mode().IsRegular():
		return ix.indexFile(ctx, path, info)
	default:
		return nil, scriberr.New(scriberr.ErrCodeUnsupportedPath,
			fmt.Sprintf("%s is neither a regular file nor a directory", path), nil)
	}
}

// indexFile produces a record for one file, using the cache when valid
// and short-circuiting binary, empty, and oversized files to stub records
// without consulting the oracle.
func (ix *Indexer) indexFile(ctx context.Context, path string, info os.FileInfo) (*indexstore.PathRecord, error) {
	fileStamp := info.ModTime().UnixMilli()

	// Fast path: reads are lock-free.
	if rec, ok := ix.fileCacheFresh(path, fileStamp); ok {
		return rec, nil
	}

	if info.Size() == 0 {
		return ix.writeRecord(path, indexstore.PathRecord{Detail: "Empty file"})
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, scriberr.Wrap(scriberr.ErrCodeRecordRead,
			fmt.Errorf("cannot read %s: %w", path, err))
	}

	if isBinaryContent(data) {
		return ix.writeRecord(path, indexstore.PathRecord{Detail: "Binary file"})
	}
	if lines := lineCount(data); lines > ix.cfg.MaxLines {
		return ix.writeRecord(path, indexstore.PathRecord{
			Detail: fmt.Sprintf("File too large to document (%d lines)", lines),
		})
	}

	opts := ix.cfg.LockOptions
	opts.StaleAfter = ix.cfg.FileLockStale
	release, err := ix.cfg.Locks.Acquire(ctx, path, LockPrefixFile, opts)
	if err != nil {
		if scriberr.IsContention(err) {
			slog.Debug("file is being indexed elsewhere, skipping",
				slog.String("path", path))
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = release() }()

	// Another holder may have finished while we waited for the lock.
	if rec, ok := ix.fileCacheFresh(path, fileStamp); ok {
		return rec, nil
	}

	content := string(data)
	summary, err := ix.cfg.Oracle.Summarize(ctx, content)
	if err != nil {
		return nil, err
	}
	detail, err := ix.cfg.Oracle.Describe(ctx, path, content)
	if err != nil {
		return nil, err
	}

	return ix.writeRecord(path, indexstore.PathRecord{Summary: summary, Detail: detail})
}

// indexDirectory indexes a directory's children depth-first, then the
// directory itself. The cached directory record is reused only when it is
// at least as new as the directory's own mtime and every child's recorded
// stamp, so a change anywhere underneath invalidates every ancestor.
func (ix *Indexer) indexDirectory(ctx context.Context, path string, info os.FileInfo, depth int) (*indexstore.PathRecord, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, scriberr.Wrap(scriberr.ErrCodeRecordRead,
			fmt.Errorf("cannot list %s: %w", path, err))
	}

	var members []indexstore.Member
	var maxChildStamp int64

	for _, entry := range entries {
		childPath := filepath.Join(path, entry.Name())

		child, err := ix.indexPath(ctx, childPath, depth+1)
		if err != nil {
			// Unsupported children and over-deep subtrees degrade to a
			// skip so sibling progress is preserved; real failures
			// (oracle, lock I/O, storage) abort the directory.
			code := scriberr.GetCode(err)
			if code == scriberr.ErrCodeUnsupportedPath || code == scriberr.ErrCodeDepthExceeded {
				slog.Warn("skipping child",
					slog.String("path", childPath),
					slog.String("error", err.Error()))
				continue
			}
			return nil, err
		}
		if child == nil {
			continue
		}

		kind := indexstore.KindFile
		if child.IsDirectory {
			kind = indexstore.KindDirectory
		}
		members = append(members, indexstore.Member{
			Name:    entry.Name(),
			Kind:    kind,
			Summary: child.Summary,
		})
		if child.LastModifiedAt > maxChildStamp {
			maxChildStamp = child.LastModifiedAt
		}
	}

	dirStamp := info.ModTime().UnixMilli()
	if rec, ok := ix.dirCacheFresh(path, dirStamp, maxChildStamp); ok {
		return rec, nil
	}

	opts := ix.cfg.LockOptions
	opts.StaleAfter = ix.cfg.DirLockStale
	release, err := ix.cfg.Locks.Acquire(ctx, path, LockPrefixDir, opts)
	if err != nil {
		if scriberr.IsContention(err) {
			slog.Debug("directory is being indexed elsewhere, skipping",
				slog.String("path", path))
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = release() }()

	// Re-check under the lock: another holder may have just finished.
	if rec, ok := ix.dirCacheFresh(path, dirStamp, maxChildStamp); ok {
		return rec, nil
	}

	summary, detail, err := ix.cfg.Oracle.DescribeDirectory(ctx, path, members)
	if err != nil {
		return nil, err
	}

	return ix.writeRecord(path, indexstore.PathRecord{
		Summary: summary,
		Detail:  detail,
		Members: members,
	})
}

// fileCacheFresh returns the cached file record when it is younger than
// the validity window and at least as new as the file's own mtime.
func (ix *Indexer) fileCacheFresh(path string, fileStamp int64) (*indexstore.PathRecord, bool) {
	if !ix.cfg.Store.IsValid(path, ix.cfg.MaxAge) {
		return nil, false
	}
	rec, ok := ix.cfg.Store.Read(path)
	if !ok || rec.LastModifiedAt < fileStamp {
		return nil, false
	}
	return &rec, true
}

// dirCacheFresh returns the cached directory record when it is at least
// as new as both staleness signals.
func (ix *Indexer) dirCacheFresh(path string, dirStamp, maxChildStamp int64) (*indexstore.PathRecord, bool) {
	rec, ok := ix.cfg.Store.Read(path)
	if !ok {
		return nil, false
	}
	if rec.LastModifiedAt >= dirStamp && rec.LastModifiedAt >= maxChildStamp {
		return &rec, true
	}
	return nil, false
}

// writeRecord persists a record and returns it.
func (ix *Indexer) writeRecord(path string, rec indexstore.PathRecord) (*indexstore.PathRecord, error) {
	written, err := ix.cfg.Store.Write(path, rec)
	if err != nil {
		return nil, err
	}
	return &written, nil
}
