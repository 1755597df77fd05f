package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/codescribe/codescribe/internal/indexer"
	"github.com/codescribe/codescribe/internal/output"
)

func newLocksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locks",
		Short: "Manage lock artifacts",
	}

	cmd.AddCommand(newLocksCleanupCmd())

	return cmd
}

func newLocksCleanupCmd() *cobra.Command {
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove stale lock artifacts",
		Long: `Sweep the lock directory and remove artifacts older than --max-age
that are not currently held. Crashed indexing runs leave artifacts
behind; they are reclaimed automatically on the next acquisition, so
this sweep only reclaims disk space and tidies the lock directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocksCleanup(cmd, maxAge)
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 10*time.Minute, "Age beyond which an unheld artifact is removed")

	return cmd
}

func runLocksCleanup(cmd *cobra.Command, maxAge time.Duration) error {
	out := output.New(cmd.OutOrStdout())

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cwd)
	if err != nil {
		return err
	}

	locks, err := buildLocks(cfg)
	if err != nil {
		return err
	}

	stats := locks.CleanupStale(maxAge, indexer.LockPrefixes)
	if stats.Failed > 0 {
		out.Warningf("removed %d of %d stale artifact(s), %d failed",
			stats.Removed, stats.Total, stats.Failed)
	} else {
		out.Successf("removed %d of %d artifact(s) examined", stats.Removed, stats.Total)
	}
	return nil
}
