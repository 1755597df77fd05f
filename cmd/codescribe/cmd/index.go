package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/codescribe/codescribe/internal/output"
)

func newIndexCmd() *cobra.Command {
	var (
		force    bool
		excludes []string
		parallel int
	)

	cmd := &cobra.Command{
		Use:   "index [path...]",
		Short: "Generate or refresh documentation records for paths",
		Long: `Index one or more paths, generating documentation records through
the configured oracle. Directories are indexed recursively; records
that are still fresh are reused without consulting the oracle.

Paths currently being indexed by another process are skipped rather
than waited on indefinitely. Re-run the command to pick them up.

Use --force to discard the containing project's cached records first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			paths := args
			if len(paths) == 0 {
				paths = []string{"."}
			}

			return runIndex(ctx, cmd, paths, force, excludes, parallel)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Discard cached records for the containing project first")
	cmd.Flags().StringArrayVar(&excludes, "exclude", nil, "Extra glob pattern to exclude (repeatable)")
	cmd.Flags().IntVar(&parallel, "parallel", 4, "Maximum paths indexed concurrently")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, paths []string, force bool, excludes []string, parallel int) error {
	out := output.New(cmd.OutOrStdout())

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cwd)
	if err != nil {
		return err
	}

	if parallel <= 0 {
		parallel = 1
	}

	var mu sync.Mutex
	var indexed, skipped int

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for _, path := range paths {
		path := path
		g.Go(func() error {
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}

			ix, store, err := buildIndexer(cfg, abs, excludes)
			if err != nil {
				return err
			}

			if force {
				if err := store.ClearProject(abs); err != nil {
					return err
				}
			}

			rec, err := ix.Index(gctx, abs)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			if rec == nil {
				skipped++
				out.Warningf("skipped %s (excluded or locked elsewhere)", path)
			} else {
				indexed++
				out.Statusf("📄", "%s: %s", path, rec.Summary)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	out.Successf("indexed %d path(s), skipped %d", indexed, skipped)
	return nil
}
