package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/scuttlekit/scuttle/internal/config"
	"github.com/scuttlekit/scuttle/internal/store"
)

//go:embed templates/scuttle.yml templates/rule_example.js
var workspaceTemplates embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new scuttle workspace",
		Long: `Init creates a scuttle workspace in the given directory (default: the
current directory). A workspace consists of:

- scuttle.yml        crawl configuration with documented defaults
- scuttle.db         the page store, created with an up-to-date schema
- rule_example.js    an example rule module to adapt

Examples:
  # Initialize the current directory
  scuttle init

  # Initialize a new directory
  scuttle init ./mycrawl

  # Overwrite an existing scuttle.yml
  scuttle init -f`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInitCmd,
	}

	cmd.Flags().BoolP("force", "f", false, "Overwrite an existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return fmt.Errorf("create workspace directory: %w", err)
	}
	ws := config.Workspace{Dir: abs}

	if !force {
		if _, err := os.Stat(ws.ConfigPath()); err == nil {
			return fmt.Errorf("workspace already initialized: %s (use -f to overwrite)", ws.ConfigPath())
		}
	}

	cfgTemplate, err := workspaceTemplates.ReadFile("templates/scuttle.yml")
	if err != nil {
		return fmt.Errorf("read config template: %w", err)
	}
	if err := os.WriteFile(ws.ConfigPath(), cfgTemplate, 0o600); err != nil {
		return fmt.Errorf("write configuration file: %w", err)
	}

	// Only scaffold the example rule into a workspace without rules, so
	// re-running init -f never clutters a configured workspace.
	existing, err := filepath.Glob(filepath.Join(ws.RulesDir(), "rule_*.js"))
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		ruleTemplate, err := workspaceTemplates.ReadFile("templates/rule_example.js")
		if err != nil {
			return fmt.Errorf("read rule template: %w", err)
		}
		rulePath := filepath.Join(ws.Dir, "rule_example.js")
		if err := os.WriteFile(rulePath, ruleTemplate, 0o600); err != nil {
			return fmt.Errorf("write example rule: %w", err)
		}
	}

	// Opening the store creates the database and applies the schema.
	s, err := store.Open(ws.DatabasePath(), store.DefaultOptions())
	if err != nil {
		return fmt.Errorf("create page store: %w", err)
	}
	if err := s.Close(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initialized workspace: %s\n", ws.Dir)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Edit rule_example.js for your site")
	fmt.Fprintln(out, "  2. Register a seed page: scuttle register <url> <type-id>")
	fmt.Fprintln(out, "  3. Start crawling:       scuttle crawl")

	return nil
}
