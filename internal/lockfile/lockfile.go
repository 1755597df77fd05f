// Package lockfile provides named, filesystem-backed mutual exclusion over
// arbitrary paths using gofrs/flock.
//
// Locks are keyed by (target path, prefix) so the same target can carry
// independent locks for independent operations (e.g. "index-file" vs
// "document"). Lock artifacts live in a shared directory visible to all
// processes on the host; artifact mtime doubles as the staleness signal so
// locks abandoned by crashed processes self-heal without manual intervention.
package lockfile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	scriberr "github.com/codescribe/codescribe/internal/errors"
)

const (
	// DefaultStaleAfter is the staleness window used when the caller does
	// not supply one. A lock artifact untouched for longer than this is
	// presumed abandoned by a crashed holder.
	DefaultStaleAfter = 10 * time.Minute

	// lockSuffix marks lock artifacts in the shared directory.
	lockSuffix = ".lock"

	// maxReadableSuffix bounds the human-readable portion of an artifact
	// name so artifacts stay under common filename limits. The hash
	// fragment alone carries the collision resistance.
	maxReadableSuffix = 80
)

// Config contains explicit lock manager configuration.
// Each caller builds its own Manager; there is no shared instance.
type Config struct {
	// LockDir is the shared directory holding lock artifacts.
	// Defaults to <tmp>/codescribe-locks.
	LockDir string
}

// Manager provides mutual exclusion over filesystem paths.
// It holds no mutable state beyond configuration and is safe for
// concurrent use from multiple goroutines.
type Manager struct {
	lockDir string
}

// AcquireOptions configures a single acquisition attempt.
type AcquireOptions struct {
	// Retries is the number of attempts after the first.
	Retries int

	// MinWait is the initial backoff wait between attempts.
	MinWait time.Duration

	// MaxWait caps the backoff wait.
	MaxWait time.Duration

	// Factor is the backoff multiplier.
	Factor float64

	// StaleAfter is the age at which an existing lock is reclaimed.
	StaleAfter time.Duration
}

// DefaultAcquireOptions returns the default acquisition behavior.
func DefaultAcquireOptions() AcquireOptions {
	return AcquireOptions{
		Retries:    5,
		MinWait:    100 * time.Millisecond,
		MaxWait:    2 * time.Second,
		Factor:     2.0,
		StaleAfter: DefaultStaleAfter,
	}
}

// ReleaseFunc releases an acquired lock. It is idempotent; the caller must
// invoke it on every exit path.
type ReleaseFunc func() error

// NewManager creates a lock manager rooted at cfg.LockDir, creating the
// directory if needed.
func NewManager(cfg Config) (*Manager, error) {
	dir := cfg.LockDir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "codescribe-locks")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, scriberr.Wrap(scriberr.ErrCodeLockArtifact, fmt.Errorf("failed to create lock directory: %w", err))
	}
	return &Manager{lockDir: dir}, nil
}

// LockDir returns the directory holding lock artifacts.
func (m *Manager) LockDir() string {
	return m.lockDir
}

// ArtifactPath returns the deterministic lock artifact path for a target.
// The name combines a hash fragment of the full target (collision
// resistance) with a sanitized form of the path (debuggability).
func (m *Manager) ArtifactPath(target, prefix string) string {
	sum := sha256.Sum256([]byte(target))
	frag := hex.EncodeToString(sum[:8])
	return filepath.Join(m.lockDir, prefix+"-"+frag+"-"+sanitizePath(target)+lockSuffix)
}

// sanitizePath strips separators and other unsafe characters from a path
// so it can be embedded in a filename, truncating to keep names short.
func sanitizePath(path string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")
	s := r.Replace(path)
	s = strings.Trim(s, "_")
	if len(s) > maxReadableSuffix {
		s = s[len(s)-maxReadableSuffix:]
	}
	return s
}

// Acquire obtains the lock for (target, prefix), retrying with bounded
// exponential backoff while another holder is active.
//
// An existing artifact older than opts.StaleAfter is reclaimed first: the
// previous holder is presumed crashed, the artifact is force-released and
// recreated. On success the returned ReleaseFunc must be called on every
// exit path. Exhausting the retry budget against a live holder fails with
// a contention error (scriberr.IsContention); any other failure is a
// genuine I/O error and propagates as ErrCodeLockArtifact.
func (m *Manager) Acquire(ctx context.Context, target, prefix string, opts AcquireOptions) (ReleaseFunc, error) {
	if opts.Factor < 1.0 {
		opts = DefaultAcquireOptions()
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = DefaultStaleAfter
	}

	artifact := m.ArtifactPath(target, prefix)

	if err := m.ensureArtifact(artifact); err != nil {
		return nil, err
	}

	if stale, err := m.isStale(artifact, opts.StaleAfter); err == nil && stale {
		slog.Warn("reclaiming stale lock",
			slog.String("target", target),
			slog.String("artifact", artifact))
		m.forceRelease(artifact)
		if err := m.ensureArtifact(artifact); err != nil {
			return nil, err
		}
	}

	fl := flock.New(artifact)
	wait := opts.MinWait

	for attempt := 0; attempt <= opts.Retries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		acquired, err := fl.TryLock()
		if err != nil {
			return nil, scriberr.Wrap(scriberr.ErrCodeLockArtifact, fmt.Errorf("failed to acquire lock on %s: %w", artifact, err))
		}
		if acquired {
			// Touch the artifact so its mtime reflects acquisition time;
			// staleness is measured from here.
			now := time.Now()
			_ = os.Chtimes(artifact, now, now)
			return m.releaseFunc(fl, artifact), nil
		}

		if attempt >= opts.Retries {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}

		wait = time.Duration(float64(wait) * opts.Factor)
		if wait > opts.MaxWait {
			wait = opts.MaxWait
		}
	}

	return nil, scriberr.Contention(target)
}

// releaseFunc builds an idempotent release closure for an acquired lock.
func (m *Manager) releaseFunc(fl *flock.Flock, artifact string) ReleaseFunc {
	var once sync.Once
	var err error
	return func() error {
		once.Do(func() {
			if uerr := fl.Unlock(); uerr != nil {
				err = scriberr.Wrap(scriberr.ErrCodeLockRelease, fmt.Errorf("failed to release lock on %s: %w", artifact, uerr))
			}
		})
		return err
	}
}

// ensureArtifact creates the artifact file if it does not exist.
// Failure to create is fatal for the acquisition.
func (m *Manager) ensureArtifact(artifact string) error {
	f, err := os.OpenFile(artifact, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return scriberr.Wrap(scriberr.ErrCodeLockArtifact, fmt.Errorf("failed to create lock artifact %s: %w", artifact, err))
	}
	return f.Close()
}

// isStale reports whether the artifact's mtime exceeds the given age.
func (m *Manager) isStale(artifact string, staleAfter time.Duration) (bool, error) {
	info, err := os.Stat(artifact)
	if err != nil {
		return false, err
	}
	return time.Since(info.ModTime()) > staleAfter, nil
}

// forceRelease reclaims an abandoned lock: graceful unlock first, then
// direct artifact removal as fallback.
func (m *Manager) forceRelease(artifact string) {
	fl := flock.New(artifact)
	if acquired, err := fl.TryLock(); err == nil && acquired {
		_ = fl.Unlock()
	}
	if err := os.Remove(artifact); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to remove stale lock artifact",
			slog.String("artifact", artifact),
			slog.String("error", err.Error()))
	}
}
