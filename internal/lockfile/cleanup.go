package lockfile

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CleanupStats summarizes a stale-lock sweep.
type CleanupStats struct {
	// Removed is the number of stale artifacts removed.
	Removed int
	// Failed is the number of artifacts that could not be removed.
	Failed int
	// Total is the number of matching artifacts examined.
	Total int
}

// CleanupStale sweeps the lock directory for artifacts matching any of the
// given prefixes and force-releases every artifact older than maxAge.
//
// A single artifact's failure never aborts the sweep; it is counted and
// the sweep continues. Callers run this at well-defined startup points or
// on a schedule, never as an import side effect.
func (m *Manager) CleanupStale(maxAge time.Duration, prefixes []string) CleanupStats {
	var stats CleanupStats

	entries, err := os.ReadDir(m.lockDir)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("failed to read lock directory",
				slog.String("dir", m.lockDir),
				slog.String("error", err.Error()))
		}
		return stats
	}

	for _, entry := range entries {
		if entry.IsDir() || !matchesPrefixes(entry.Name(), prefixes) {
			continue
		}
		stats.Total++

		artifact := filepath.Join(m.lockDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			stats.Failed++
			continue
		}
		if time.Since(info.ModTime()) <= maxAge {
			continue
		}

		if m.removeArtifact(artifact) {
			stats.Removed++
		} else {
			stats.Failed++
		}
	}

	if stats.Removed > 0 || stats.Failed > 0 {
		slog.Info("stale lock cleanup finished",
			slog.Int("removed", stats.Removed),
			slog.Int("failed", stats.Failed),
			slog.Int("total", stats.Total))
	}
	return stats
}

// CleanupTarget removes stale lock artifacts for a single target across
// the given prefixes, using the default staleness window.
// Returns the number of artifacts cleaned and the number that failed.
func (m *Manager) CleanupTarget(target string, prefixes []string) (cleaned, failed int) {
	for _, prefix := range prefixes {
		artifact := m.ArtifactPath(target, prefix)

		stale, err := m.isStale(artifact, DefaultStaleAfter)
		if err != nil {
			// Absent artifact means nothing to clean.
			if !os.IsNotExist(err) {
				failed++
			}
			continue
		}
		if !stale {
			continue
		}

		if m.removeArtifact(artifact) {
			cleaned++
		} else {
			failed++
		}
	}
	return cleaned, failed
}

// removeArtifact force-releases and deletes one artifact.
func (m *Manager) removeArtifact(artifact string) bool {
	m.forceRelease(artifact)
	if _, err := os.Stat(artifact); err == nil {
		// forceRelease logs its own removal failures; report status here.
		return false
	}
	return true
}

// matchesPrefixes reports whether a lock artifact name belongs to any of
// the given prefixes. An empty prefix list matches every artifact.
func matchesPrefixes(name string, prefixes []string) bool {
	if !strings.HasSuffix(name, lockSuffix) {
		return false
	}
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(name, p+"-") {
			return true
		}
	}
	return false
}
