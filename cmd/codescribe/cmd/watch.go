package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/codescribe/codescribe/internal/ignore"
	"github.com/codescribe/codescribe/internal/output"
	"github.com/codescribe/codescribe/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	var (
		reindex  bool
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Watch a tree and invalidate records as files change",
		Long: `Watch a directory tree and drop the cached record for every path
that changes, so the next index run regenerates it. With --reindex the
changed tree is re-indexed immediately after each batch of changes.

Runs until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runWatch(ctx, cmd, path, reindex, debounce)
		},
	}

	cmd.Flags().BoolVar(&reindex, "reindex", false, "Re-index the tree after each batch of changes")
	cmd.Flags().DurationVar(&debounce, "debounce", 200*time.Millisecond, "Window for coalescing rapid changes")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, path string, reindex bool, debounce time.Duration) error {
	out := output.New(cmd.OutOrStdout())

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cwd)
	if err != nil {
		return err
	}

	ix, store, err := buildIndexer(cfg, abs, nil)
	if err != nil {
		return err
	}

	matcher, err := ignore.NewMatcher(ignore.Options{
		RootDir:       abs,
		ExtraPatterns: cfg.Paths.Exclude,
	})
	if err != nil {
		return err
	}
	w, err := watcher.New(watcher.Options{DebounceWindow: debounce}, matcher)
	if err != nil {
		return err
	}

	if err := w.Start(ctx, abs); err != nil {
		return err
	}
	out.Statusf("👀", "watching %s", abs)

	for {
		select {
		case <-ctx.Done():
			out.Newline()
			out.Success("watch stopped")
			return nil

		case err := <-w.Errors():
			slog.Warn("watch error", slog.String("error", err.Error()))

		case events, ok := <-w.Batches():
			if !ok {
				return nil
			}
			for _, ev := range events {
				if err := store.Remove(ev.Path); err != nil {
					slog.Warn("failed to invalidate record",
						slog.String("path", ev.Path),
						slog.String("error", err.Error()))
					continue
				}
				out.Statusf("♻️ ", "%s %s", ev.Operation, ev.Path)
			}
			if reindex {
				if _, err := ix.Index(ctx, abs); err != nil {
					if ctx.Err() != nil {
						continue
					}
					out.Errorf("re-index failed: %v", err)
				}
			}
		}
	}
}
