package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/codescribe/codescribe/internal/indexstore"
	"github.com/codescribe/codescribe/internal/output"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status [path]",
		Short: "Show the cached documentation record for a path",
		Long: `Display the cached record for a path, if one exists: its summary,
detail, freshness, and (for directories) its members. No oracle call
is made; 'codescribe index' regenerates stale records.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runStatus(cmd, path, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

type statusInfo struct {
	Path       string                `json:"path"`
	Project    indexstore.Project    `json:"project"`
	RecordFile string                `json:"record_file"`
	HasRecord  bool                  `json:"has_record"`
	Fresh      bool                  `json:"fresh"`
	Record     *indexstore.PathRecord `json:"record,omitempty"`
}

func runStatus(cmd *cobra.Command, path string, jsonOutput bool) error {
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

	project, err := store.ProjectScope(abs)
	if err != nil {
		return err
	}
	recordFile, err := store.RecordPath(abs)
	if err != nil {
		return err
	}

	info := statusInfo{
		Path:       abs,
		Project:    project,
		RecordFile: recordFile,
	}
	if rec, ok := store.Read(abs); ok {
		info.HasRecord = true
		info.Fresh = store.IsValid(abs, cfg.FileMaxAge())
		info.Record = &rec
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	out.Statusf("📁", "Project: %s (%s)", project.Name, project.ID)
	out.Statusf("", "root: %s", project.Root)
	out.Statusf("", "record file: %s", recordFile)
	out.Newline()

	if !info.HasRecord {
		out.Warning("no record cached; run 'codescribe index' to create one")
		return nil
	}

	freshness := "stale"
	if info.Fresh {
		freshness = "fresh"
	}
	documented := time.UnixMilli(info.Record.LastModifiedAt).Format(time.RFC3339)
	out.Statusf("📄", "%s (%s, recorded %s)", abs, freshness, documented)
	if info.Record.Summary != "" {
		out.Statusf("", "summary: %s", info.Record.Summary)
	}
	if info.Record.Detail != "" {
		out.Statusf("", "detail: %s", info.Record.Detail)
	}
	for _, m := range info.Record.Members {
		out.Status("", fmt.Sprintf("  %-9s %s: %s", m.Kind, m.Name, m.Summary))
	}

	return nil
}
