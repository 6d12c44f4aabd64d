package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scuttlekit/scuttle/internal/parser"
)

// NewParseCmd creates the parse command.
func NewParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [page-id]",
		Short: "Run parse rules against stored pages",
		Long: `Parse re-runs record extraction against already downloaded content,
without touching the network. Each page's extracted records replace its
previous ones, so iterating on a parse rule and re-running this command
converges on the latest rule's output.

Examples:
  # Re-extract one page
  scuttle parse 42

  # Re-extract every downloaded page
  scuttle parse --all`,
		Args: cobra.MaximumNArgs(1),
		RunE: runParseCmd,
	}

	cmd.Flags().BoolP("all", "a", false, "Parse every downloaded page")

	return cmd
}

// runParseCmd executes the parse command.
func runParseCmd(cmd *cobra.Command, args []string) error {
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
	p := parser.New(e.store)

	if all {
		written, err := p.ParseAll(ctx, engine)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d record(s)\n", written)
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
	written, err := p.Parse(ctx, engine, page)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d record(s) from page %d\n", written, id)
	return nil
}
