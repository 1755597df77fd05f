// Package ignore decides whether a path is excluded from indexing.
//
// The decision combines built-in defaults, .gitignore files found at the
// project root and in intermediate directories, and caller-supplied glob
// patterns. Matching is pure text matching over slash-normalized relative
// paths; parsed .gitignore pattern lists are cached per directory in an
// LRU so deep trees do not re-read the same files on every check.
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	lru "github.com/hashicorp/golang-lru/v2"
)

// gitignoreCacheSize bounds the per-directory pattern cache.
const gitignoreCacheSize = 256

// Matcher reports whether paths are excluded from indexing.
type Matcher struct {
	rootDir string
	extra   []string

	// cache maps a directory to the glob patterns derived from its
	// .gitignore, or nil when the directory has none.
	cache *lru.Cache[string, []string]
}

// Options configures a Matcher.
type Options struct {
	// RootDir is the project root; relative matching is anchored here.
	RootDir string

	// ExtraPatterns are additional doublestar globs to exclude.
	ExtraPatterns []string
}

// NewMatcher creates a Matcher for a project root.
func NewMatcher(opts Options) (*Matcher, error) {
	cache, err := lru.New[string, []string](gitignoreCacheSize)
	if err != nil {
		return nil, err
	}
	return &Matcher{
		rootDir: opts.RootDir,
		extra:   opts.ExtraPatterns,
		cache:   cache,
	}, nil
}

// IsExcluded reports whether path should be excluded from indexing.
// Extra per-call patterns are checked in addition to the configured ones.
func (m *Matcher) IsExcluded(path string, extras ...string) bool {
	rel, err := filepath.Rel(m.rootDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		// Outside the root: only name-based defaults apply.
		return matchesAnySegment(filepath.Base(path), DefaultPatterns)
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return false
	}

	for _, segment := range strings.Split(rel, "/") {
		if matchesAnySegment(segment, DefaultPatterns) {
			return true
		}
	}

	for _, pattern := range m.extra {
		if matchesGlob(pattern, rel) {
			return true
		}
	}
	for _, pattern := range extras {
		if matchesGlob(pattern, rel) {
			return true
		}
	}

	return m.matchesGitignore(rel)
}

// matchesAnySegment checks one path segment against name patterns.
func matchesAnySegment(segment string, patterns []string) bool {
	for _, pattern := range patterns {
		if pattern == segment {
			return true
		}
		if ok, err := doublestar.Match(pattern, segment); err == nil && ok {
			return true
		}
	}
	return false
}

// matchesGlob matches a doublestar glob against a relative path, both as
// given and unanchored.
func matchesGlob(pattern, rel string) bool {
	if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
		return true
	}
	if !strings.HasPrefix(pattern, "**/") {
		if ok, err := doublestar.Match("**/"+pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// matchesGitignore checks .gitignore files from the root down to the
// path's directory.
func (m *Matcher) matchesGitignore(rel string) bool {
	dir := m.rootDir
	segments := strings.Split(rel, "/")

	// Walk root -> parent of the target, checking each level's patterns
	// against the path relative to that level.
	for i := 0; i < len(segments); i++ {
		sub := strings.Join(segments[i:], "/")
		for _, pattern := range m.patternsFor(dir) {
			if matchesGlob(pattern, sub) {
				return true
			}
		}
		dir = filepath.Join(dir, segments[i])
	}

	return false
}

// patternsFor returns the glob patterns derived from dir's .gitignore,
// loading and caching on first use.
func (m *Matcher) patternsFor(dir string) []string {
	if patterns, ok := m.cache.Get(dir); ok {
		return patterns
	}
	patterns := loadGitignore(filepath.Join(dir, ".gitignore"))
	m.cache.Add(dir, patterns)
	return patterns
}

// loadGitignore reads a .gitignore file and converts its entries to
// doublestar globs. Negation patterns are not supported; a negated entry
// is skipped rather than re-including an excluded path.
func loadGitignore(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer func() { _ = f.Close() }()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		patterns = append(patterns, gitignoreToGlobs(line)...)
	}
	return patterns
}

// gitignoreToGlobs converts one gitignore entry into doublestar globs.
func gitignoreToGlobs(entry string) []string {
	dirOnly := strings.HasSuffix(entry, "/")
	entry = strings.TrimSuffix(entry, "/")

	anchored := strings.HasPrefix(entry, "/")
	entry = strings.TrimPrefix(entry, "/")
	// An internal slash anchors the pattern to this .gitignore's directory.
	anchored = anchored || strings.Contains(entry, "/")

	var globs []string
	if anchored {
		globs = append(globs, entry, entry+"/**")
	} else {
		globs = append(globs, entry, "**/"+entry, entry+"/**", "**/"+entry+"/**")
	}
	if dirOnly {
		// Directory-only entries still exclude everything beneath them.
		return globs
	}
	return globs
}
