package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/codescribe/codescribe/internal/output"
)

func newClearCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "clear [path]",
		Short: "Remove cached documentation records",
		Long: `Remove the cached record for a path, or the whole containing
project's partition with --all. Records regenerate on the next index
run; clearing never touches the source tree.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runClear(cmd, path, all)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Clear the entire project partition, not just one record")

	return cmd
}

func runClear(cmd *cobra.Command, path string, all bool) error {
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

	store, err := buildStore(cfg)
	if err != nil {
		return err
	}

	if all {
		project, err := store.ProjectScope(abs)
		if err != nil {
			return err
		}
		if err := store.ClearProject(abs); err != nil {
			return err
		}
		out.Successf("cleared project %s (%s)", project.Name, project.ID)
		return nil
	}

	if err := store.Remove(abs); err != nil {
		return err
	}
	out.Successf("cleared record for %s", abs)
	return nil
}
