package main

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/scuttlekit/scuttle/internal/model"
)

// NewRegisterCmd creates the register command.
func NewRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register <url> <type-id>",
		Short: "Register a seed page for crawling",
		Long: `Register adds a page to the crawl frontier in state New. The type id
selects which rule_*.js module handles the page. Registering a URL that is
already known is a no-op.

Examples:
  # Register a listing page handled by the TYPE_ID = 1 rule
  scuttle register https://example.test/catalog 1

  # Register a deep seed at depth 3
  scuttle register https://example.test/archive 2 --depth 3`,
		Args: cobra.ExactArgs(2),
		RunE: runRegisterCmd,
	}

	cmd.Flags().IntP("depth", "d", 0, "Crawl depth to record for the seed")

	return cmd
}

// runRegisterCmd executes the register command.
func runRegisterCmd(cmd *cobra.Command, args []string) error {
	rawURL := args[0]
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("invalid url %q: must be absolute http(s)", rawURL)
	}

	typeID, err := strconv.Atoi(args[1])
	if err != nil || typeID <= 0 {
		return fmt.Errorf("invalid type id %q: must be a positive integer", args[1])
	}

	depth, err := cmd.Flags().GetInt("depth")
	if err != nil {
		return err
	}
	if depth < 0 {
		return fmt.Errorf("invalid depth %d: must be non-negative", depth)
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	id, err := e.store.Register(cmd.Context(), rawURL, model.PageTypeID(typeID), depth)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Registered page %d: %s (type %d)\n", id, rawURL, typeID)
	return nil
}
