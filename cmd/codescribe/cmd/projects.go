package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/codescribe/codescribe/internal/output"
)

func newProjectsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List projects with cached documentation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjects(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runProjects(cmd *cobra.Command, jsonOutput bool) error {
	out := output.New(cmd.OutOrStdout())

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

	projects, err := store.ListProjects()
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(projects)
	}

	if len(projects) == 0 {
		out.Warning("no indexed projects")
		return nil
	}

	for _, p := range projects {
		out.Statusf("📁", "%s (%s)", p.Name, p.ID)
		out.Statusf("", "root: %s", p.Root)
	}
	return nil
}
