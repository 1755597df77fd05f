// Package config loads and validates codescribe configuration.
//
// Precedence, lowest to highest: built-in defaults, user config
// (~/.codescribe/config.yaml), project config (.codescribe.yaml in the
// project root), environment variables (CODESCRIBE_*).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// projectConfigName is the per-project config file name.
const projectConfigName = ".codescribe.yaml"

// Config represents the complete codescribe configuration.
type Config struct {
	Version int          `yaml:"version"`
	Paths   PathsConfig  `yaml:"paths"`
	Index   IndexConfig  `yaml:"index"`
	Locks   LocksConfig  `yaml:"locks"`
	Oracle  OracleConfig `yaml:"oracle"`
	Logging LogConfig    `yaml:"logging"`
}

// PathsConfig configures storage locations and exclusions.
type PathsConfig struct {
	// IndexDir is the base directory holding per-project index partitions.
	IndexDir string `yaml:"index_dir"`

	// LockDir is the shared directory holding lock artifacts.
	LockDir string `yaml:"lock_dir"`

	// WorkspaceRoot is the fallback project root when no marker file is found.
	WorkspaceRoot string `yaml:"workspace_root"`

	// Exclude are extra glob patterns excluded from indexing,
	// in addition to defaults and .gitignore entries.
	Exclude []string `yaml:"exclude"`
}

// IndexConfig configures cache validity and traversal limits.
type IndexConfig struct {
	// MaxAgeMinutes is how long a cached file record stays valid.
	MaxAgeMinutes int `yaml:"max_age_minutes"`

	// MaxDepth bounds directory recursion (symlink cycle guard).
	MaxDepth int `yaml:"max_depth"`

	// MaxLines is the line count above which a file is stubbed
	// instead of being sent to the oracle.
	MaxLines int `yaml:"max_lines"`
}

// LocksConfig configures lock acquisition and staleness.
type LocksConfig struct {
	// Retries is the number of acquisition attempts after the first.
	Retries int `yaml:"retries"`

	// MinWaitMs is the initial backoff wait between attempts.
	MinWaitMs int `yaml:"min_wait_ms"`

	// MaxWaitMs caps the backoff wait.
	MaxWaitMs int `yaml:"max_wait_ms"`

	// Factor is the backoff multiplier.
	Factor float64 `yaml:"factor"`

	// FileStaleMinutes is when a file lock is presumed abandoned.
	FileStaleMinutes int `yaml:"file_stale_minutes"`

	// DirStaleMinutes is when a directory lock is presumed abandoned.
	DirStaleMinutes int `yaml:"dir_stale_minutes"`
}

// OracleConfig configures the documentation oracle endpoint.
type OracleConfig struct {
	// Host is the Ollama-compatible endpoint (e.g. http://127.0.0.1:11434).
	Host string `yaml:"host"`

	// Model is the model name to request.
	Model string `yaml:"model"`

	// TimeoutSeconds is the per-request HTTP timeout.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// MaxRetries is the retry budget for transient oracle failures.
	MaxRetries int `yaml:"max_retries"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			IndexDir: defaultIndexDir(),
			LockDir:  filepath.Join(os.TempDir(), "codescribe-locks"),
		},
		Index: IndexConfig{
			MaxAgeMinutes: 60,
			MaxDepth:      32,
			MaxLines:      10000,
		},
		Locks: LocksConfig{
			Retries:          5,
			MinWaitMs:        100,
			MaxWaitMs:        2000,
			Factor:           2.0,
			FileStaleMinutes: 10,
			DirStaleMinutes:  5,
		},
		Oracle: OracleConfig{
			Host:           "http://127.0.0.1:11434",
			Model:          "llama3.1",
			TimeoutSeconds: 120,
			MaxRetries:     2,
		},
		Logging: LogConfig{
			Level: "info",
		},
	}
}

// FileMaxAge returns the cache validity window for file records.
func (c *Config) FileMaxAge() time.Duration {
	return time.Duration(c.Index.MaxAgeMinutes) * time.Minute
}

// FileLockStale returns the staleness window for file locks.
func (c *Config) FileLockStale() time.Duration {
	return time.Duration(c.Locks.FileStaleMinutes) * time.Minute
}

// DirLockStale returns the staleness window for directory locks.
func (c *Config) DirLockStale() time.Duration {
	return time.Duration(c.Locks.DirStaleMinutes) * time.Minute
}

// GetUserConfigPath returns the path to the user-level config file.
func GetUserConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".codescribe", "config.yaml")
}

func defaultIndexDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".codescribe", "index")
	}
	return filepath.Join(home, ".codescribe", "index")
}

// Load builds the effective configuration for a project directory.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	// User/global config first (if present)
	if userPath := GetUserConfigPath(); userPath != "" {
		if err := cfg.loadYAML(userPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	// Project config overrides user config
	projPath := filepath.Join(dir, projectConfigName)
	if err := cfg.loadYAML(projPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}

	// Environment overrides win
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadYAML merges values from a YAML file into the config.
// Unset fields in the file keep their current values.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies CODESCRIBE_* environment variables.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CODESCRIBE_INDEX_DIR"); v != "" {
		c.Paths.IndexDir = v
	}
	if v := os.Getenv("CODESCRIBE_LOCK_DIR"); v != "" {
		c.Paths.LockDir = v
	}
	if v := os.Getenv("CODESCRIBE_WORKSPACE_ROOT"); v != "" {
		c.Paths.WorkspaceRoot = v
	}
	if v := os.Getenv("CODESCRIBE_ORACLE_HOST"); v != "" {
		c.Oracle.Host = v
	}
	if v := os.Getenv("CODESCRIBE_ORACLE_MODEL"); v != "" {
		c.Oracle.Model = v
	}
	if v := os.Getenv("CODESCRIBE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("CODESCRIBE_MAX_AGE_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Index.MaxAgeMinutes = n
		}
	}
}

// Validate checks the configuration for invalid values.
// All problems are reported at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Paths.IndexDir == "" {
		problems = append(problems, "paths.index_dir must not be empty")
	}
	if c.Paths.LockDir == "" {
		problems = append(problems, "paths.lock_dir must not be empty")
	}
	if c.Index.MaxAgeMinutes <= 0 {
		problems = append(problems, "index.max_age_minutes must be positive")
	}
	if c.Index.MaxDepth <= 0 {
		problems = append(problems, "index.max_depth must be positive")
	}
	if c.Index.MaxLines <= 0 {
		problems = append(problems, "index.max_lines must be positive")
	}
	if c.Locks.Retries < 0 {
		problems = append(problems, "locks.retries must not be negative")
	}
	if c.Locks.MinWaitMs <= 0 || c.Locks.MaxWaitMs < c.Locks.MinWaitMs {
		problems = append(problems, "locks.min_wait_ms/max_wait_ms must form a valid range")
	}
	if c.Locks.Factor < 1.0 {
		problems = append(problems, "locks.factor must be >= 1.0")
	}
	if c.Locks.FileStaleMinutes <= 0 || c.Locks.DirStaleMinutes <= 0 {
		problems = append(problems, "lock staleness windows must be positive")
	}
	if c.Oracle.Host == "" {
		problems = append(problems, "oracle.host must not be empty")
	}
	if c.Oracle.Model == "" {
		problems = append(problems, "oracle.model must not be empty")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

// WriteYAML writes the configuration to the given path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
