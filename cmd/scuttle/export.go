package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/scuttlekit/scuttle/internal/export"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export extracted records as CSV",
		Long: `Export tabulates every page's extracted records into CSV, one row per
page. The column set is the union of all record keys in order of first
appearance; pages missing a key leave that cell empty.

Examples:
  # Write CSV to stdout
  scuttle export

  # Write to a file, selected columns only
  scuttle export -o items.csv --columns title,price`,
		Args: cobra.NoArgs,
		RunE: runExportCmd,
	}

	cmd.Flags().StringP("output", "o", "", "Write CSV to this file instead of stdout")
	cmd.Flags().StringSlice("columns", nil, "Only export these columns, in the given order")

	return cmd
}

// runExportCmd executes the export command.
func runExportCmd(cmd *cobra.Command, _ []string) error {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	columns, err := cmd.Flags().GetStringSlice("columns")
	if err != nil {
		return err
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	table, err := export.FromStore(cmd.Context(), e.store)
	if err != nil {
		return err
	}
	if table.Len() == 0 {
		return fmt.Errorf("no extracted records to export; run 'scuttle parse --all' first")
	}

	if output == "" {
		return table.WriteCSV(cmd.OutOrStdout(), columns...)
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
	if err := table.WriteCSV(f, columns...); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d row(s) to %s\n", table.Len(), output)
	return nil
}
