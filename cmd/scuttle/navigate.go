package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scuttlekit/scuttle/internal/navigator"
)

// NewNavigateCmd creates the navigate command.
func NewNavigateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "navigate [page-id]",
		Short: "Run navigate rules against stored pages",
		Long: `Navigate re-runs link discovery against already downloaded content,
without touching the network. Discovered pages are registered in state New
and picked up by the next crawl. Running navigate twice on unchanged
content adds nothing.

Examples:
  # Re-run link discovery for one page
  scuttle navigate 42

  # Re-run link discovery for every downloaded page
  scuttle navigate --all`,
		Args: cobra.MaximumNArgs(1),
		RunE: runNavigateCmd,
	}

	cmd.Flags().BoolP("all", "a", false, "Navigate every downloaded page")

	return cmd
}

// runNavigateCmd executes the navigate command.
func runNavigateCmd(cmd *cobra.Command, args []string) error {
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}
	if all == (len(args) == 1) {
		return fmt.Errorf("provide either a page id or --all")
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	engine, err := e.newEngine()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	nav := navigator.New(e.store)

	if all {
		inserted, err := nav.NavigateAll(ctx, engine)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d link(s)\n", inserted)
		return nil
	}

	id, err := parsePageID(args[0])
	if err != nil {
		return err
	}
	page, err := e.store.Get(ctx, id)
	if err != nil {
		return err
	}
	inserted, err := nav.Navigate(ctx, engine, page)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d link(s) from page %d\n", inserted, id)
	return nil
}
