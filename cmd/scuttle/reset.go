package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scuttlekit/scuttle/internal/model"
	"github.com/scuttlekit/scuttle/internal/store"
)

// NewResetCmd creates the reset command.
func NewResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset [page-id...]",
		Short: "Return pages to state New for re-fetching",
		Long: `Reset clears a page's stored content and failure reason and returns it
to state New, so the next crawl fetches it again. Extracted records are
kept until the next successful parse replaces them.

Examples:
  # Re-queue two specific pages
  scuttle reset 42 43

  # Re-queue everything that failed
  scuttle reset --failed`,
		Args: cobra.ArbitraryArgs,
		RunE: runResetCmd,
	}

	cmd.Flags().Bool("failed", false, "Reset every failed page")

	return cmd
}

// runResetCmd executes the reset command.
func runResetCmd(cmd *cobra.Command, args []string) error {
	failed, err := cmd.Flags().GetBool("failed")
	if err != nil {
		return err
	}
	if failed == (len(args) > 0) {
		return fmt.Errorf("provide either page ids or --failed")
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	ctx := cmd.Context()
	var ids []int64

	if failed {
		pages, err := e.store.List(ctx, store.Filter{Status: model.StatusFailed})
		if err != nil {
			return err
		}
		for _, page := range pages {
			ids = append(ids, page.ID)
		}
	} else {
		for _, arg := range args {
			id, err := parsePageID(arg)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
	}

	for _, id := range ids {
		if err := e.store.Reset(ctx, id); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Reset %d page(s) to new\n", len(ids))
	return nil
}
