package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scuttlekit/scuttle/internal/model"
	"github.com/scuttlekit/scuttle/internal/store"
)

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check stored pages with their validate rules",
		Long: `Validate runs each downloaded page's validate rule against its stored
content and lists the pages the rule turns down. Typical validate rules
catch login walls or error pages that were served with HTTP 200.

With --reset, failing pages are returned to state New so the next crawl
fetches them again. Their extracted records survive until the next
successful parse.

Examples:
  # List invalid pages
  scuttle validate

  # Re-queue invalid pages for the next crawl
  scuttle validate --reset`,
		Args: cobra.NoArgs,
		RunE: runValidateCmd,
	}

	cmd.Flags().Bool("reset", false, "Return invalid pages to state New")

	return cmd
}

// runValidateCmd executes the validate command.
func runValidateCmd(cmd *cobra.Command, _ []string) error {
	reset, err := cmd.Flags().GetBool("reset")
	if err != nil {
		return err
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
	pages, err := e.store.List(ctx, store.Filter{Status: model.StatusDownloaded})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var checked, invalid int
	for _, page := range pages {
		content, err := e.store.Content(ctx, page.ID)
		if err != nil {
			return err
		}

		ok, err := engine.Validate(page.TypeID, content)
		if err != nil {
			e.logger.Warn("validate rule failed", "page_id", page.ID, "error", err)
			continue
		}
		checked++
		if ok {
			continue
		}

		invalid++
		fmt.Fprintf(out, "invalid: page %d %s\n", page.ID, page.URL)
		if reset {
			if err := e.store.Reset(ctx, page.ID); err != nil {
				return err
			}
		}
	}

	fmt.Fprintf(out, "Checked %d page(s), %d invalid", checked, invalid)
	if reset && invalid > 0 {
		fmt.Fprintf(out, ", %d reset to new", invalid)
	}
	fmt.Fprintln(out)
	return nil
}
