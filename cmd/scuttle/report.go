package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/scuttlekit/scuttle/internal/report"
	"github.com/scuttlekit/scuttle/internal/rule"
)

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write a markdown crawl status report",
		Long: `Report renders the workspace's crawl state as markdown: page counts per
status, the loaded rule modules, and recent failures with their reasons.

Examples:
  # Print the report
  scuttle report

  # Write it to a file
  scuttle report -o STATUS.md`,
		Args: cobra.NoArgs,
		RunE: runReportCmd,
	}

	cmd.Flags().StringP("output", "o", "", "Write the report to this file instead of stdout")

	return cmd
}

// runReportCmd executes the report command.
func runReportCmd(cmd *cobra.Command, _ []string) error {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	// Rules are listed when they load; a workspace with broken rules still
	// gets its page statistics.
	var modules []rule.ModuleInfo
	if engine, err := e.newEngine(); err == nil {
		modules = engine.Modules()
	} else {
		e.logger.Warn("rules not loadable, omitting from report", "error", err)
	}

	sum, err := report.BuildSummary(cmd.Context(), e.store, modules)
	if err != nil {
		return err
	}

	if output == "" {
		return report.NewWriter(cmd.OutOrStdout()).Write(sum)
	}

	if dir := filepath.Dir(output); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := report.NewWriter(f).Write(sum); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote report to %s\n", output)
	return nil
}
