// Package cmd provides the CLI commands for codescribe.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/codescribe/codescribe/internal/config"
	"github.com/codescribe/codescribe/internal/ignore"
	"github.com/codescribe/codescribe/internal/indexer"
	"github.com/codescribe/codescribe/internal/indexstore"
	"github.com/codescribe/codescribe/internal/lockfile"
	"github.com/codescribe/codescribe/internal/logging"
	"github.com/codescribe/codescribe/internal/oracle"
	"github.com/codescribe/codescribe/pkg/version"
)

var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the codescribe CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codescribe",
		Short: "On-demand documentation index for codebases",
		Long: `Codescribe maintains a per-project cache of natural-language
documentation records for files and directories, generated on demand
by a local LLM and kept fresh against filesystem modification times.

Concurrent runs over the same tree coordinate through per-path file
locks, so several processes can index a workspace without duplicating
oracle work.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("codescribe version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.codescribe/logs/")
	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newProjectsCmd())
	cmd.AddCommand(newClearCmd())
	cmd.AddCommand(newLocksCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLogging installs file logging for the process.
func startLogging(_ *cobra.Command, _ []string) error {
	cfg := logging.DefaultConfig()
	if debugMode {
		cfg = logging.DebugConfig()
	}

	cleanup, err := logging.SetupDefault(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup

	if debugMode {
		slog.Info("Debug logging enabled",
			slog.String("log_file", logging.DefaultLogPath()),
			slog.String("version", version.Version))
	}
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

// loadConfig loads the effective configuration for a working directory.
func loadConfig(dir string) (*config.Config, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	if debugMode {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// buildStore creates the index store from configuration.
func buildStore(cfg *config.Config) (*indexstore.Store, error) {
	return indexstore.New(indexstore.Config{
		IndexDir:      cfg.Paths.IndexDir,
		WorkspaceRoot: cfg.Paths.WorkspaceRoot,
	})
}

// buildLocks creates the lock manager from configuration.
func buildLocks(cfg *config.Config) (*lockfile.Manager, error) {
	return lockfile.NewManager(lockfile.Config{LockDir: cfg.Paths.LockDir})
}

// buildIndexer assembles the full indexing pipeline for one project root.
func buildIndexer(cfg *config.Config, root string, extraExcludes []string) (*indexer.Indexer, *indexstore.Store, error) {
	store, err := buildStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	locks, err := buildLocks(cfg)
	if err != nil {
		return nil, nil, err
	}

	patterns := append([]string{}, cfg.Paths.Exclude...)
	patterns = append(patterns, extraExcludes...)
	matcher, err := ignore.NewMatcher(ignore.Options{
		RootDir:       root,
		ExtraPatterns: patterns,
	})
	if err != nil {
		return nil, nil, err
	}

	client := oracle.NewClient(
		cfg.Oracle.Host,
		cfg.Oracle.Model,
		time.Duration(cfg.Oracle.TimeoutSeconds)*time.Second,
		cfg.Oracle.MaxRetries,
	)

	ix, err := indexer.New(indexer.Config{
		Store:    store,
		Locks:    locks,
		Oracle:   client,
		Excluder: matcher,
		MaxAge:   cfg.FileMaxAge(),
		MaxDepth: cfg.Index.MaxDepth,
		MaxLines: cfg.Index.MaxLines,
		LockOptions: lockfile.AcquireOptions{
			Retries: cfg.Locks.Retries,
			MinWait: time.Duration(cfg.Locks.MinWaitMs) * time.Millisecond,
			MaxWait: time.Duration(cfg.Locks.MaxWaitMs) * time.Millisecond,
			Factor:  cfg.Locks.Factor,
		},
		FileLockStale: cfg.FileLockStale(),
		DirLockStale:  cfg.DirLockStale(),
	})
	if err != nil {
		return nil, nil, err
	}

	return ix, store, nil
}
