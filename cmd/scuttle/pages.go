package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/scuttlekit/scuttle/internal/model"
	"github.com/scuttlekit/scuttle/internal/store"
)

// NewPagesCmd creates the pages command.
func NewPagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pages",
		Short: "List pages in the workspace",
		Long: `Pages lists the workspace's pages with their lifecycle status. Failed
pages show their failure reason.

Examples:
  # All pages
  scuttle pages

  # Only failed pages
  scuttle pages --status failed

  # Only pages of one rule type
  scuttle pages --type 2`,
		Args: cobra.NoArgs,
		RunE: runPagesCmd,
	}

	cmd.Flags().StringP("status", "s", "", "Filter by status (new, downloading, downloaded, failed)")
	cmd.Flags().IntP("type", "t", 0, "Filter by page type id")

	return cmd
}

// runPagesCmd executes the pages command.
func runPagesCmd(cmd *cobra.Command, _ []string) error {
	var filter store.Filter

	if raw, err := cmd.Flags().GetString("status"); err == nil && raw != "" {
		status, err := model.ParseStatusName(raw)
		if err != nil {
			return err
		}
		filter.Status = status
	}
	if typeID, err := cmd.Flags().GetInt("type"); err == nil && typeID > 0 {
		filter.TypeID = model.PageTypeID(typeID)
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	pages, err := e.store.List(cmd.Context(), filter)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No pages.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tTYPE\tDEPTH\tURL\tREASON")
	for _, page := range pages {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\t%s\n",
			page.ID,
			page.Status,
			page.TypeID,
			page.Depth,
			page.URL,
			page.FailureReason,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n%s page(s)\n", strconv.Itoa(len(pages)))
	return nil
}
