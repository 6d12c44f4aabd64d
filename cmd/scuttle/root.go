package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/scuttlekit/scuttle/internal/config"
	"github.com/scuttlekit/scuttle/internal/log"
	"github.com/scuttlekit/scuttle/internal/rule"
	"github.com/scuttlekit/scuttle/internal/store"
)

// NewRootCmd creates the root command for scuttle.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scuttle",
		Short: "Crawl web pages and extract data with JavaScript rules",
		Long: `Scuttle crawls web pages into a local workspace database and runs
user-supplied JavaScript rules against the stored content to discover links
and extract records.

A workspace is a directory holding scuttle.yml, the scuttle.db page store,
and rule_*.js files. Commands find the workspace via --workspace, the
current directory, or the XDG config directory, in that order.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("workspace", "w", "", "Workspace directory (default: current directory)")

	// Add subcommands
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewRegisterCmd())
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewNavigateCmd())
	cmd.AddCommand(NewParseCmd())
	cmd.AddCommand(NewValidateCmd())
	cmd.AddCommand(NewPagesCmd())
	cmd.AddCommand(NewDumpCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewResetCmd())
	cmd.AddCommand(NewRulesCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// env bundles everything a workspace-bound command needs.
type env struct {
	workspace config.Workspace
	cfg       *config.Config
	store     *store.Store
	logger    *slog.Logger
}

// close releases the environment's store.
func (e *env) close() {
	if e.store != nil {
		_ = e.store.Close()
	}
}

// openEnv resolves the workspace from flags, loads its configuration, and
// opens the page store. Callers must close the returned env.
func openEnv(cmd *cobra.Command) (*env, error) {
	explicit, err := cmd.Flags().GetString("workspace")
	if err != nil {
		explicit, _ = cmd.Root().PersistentFlags().GetString("workspace")
	}

	ws, err := config.Find(explicit)
	if err != nil {
		return nil, err
	}

	cfg, err := ws.Load()
	if err != nil {
		return nil, err
	}

	s, err := store.Open(ws.DatabasePath(), store.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("open page store: %w", err)
	}

	logger := log.NewLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd))
	slog.SetDefault(logger)

	return &env{workspace: ws, cfg: cfg, store: s, logger: logger}, nil
}

// loadRuleSources reads the workspace's rule_*.js files.
func (e *env) loadRuleSources() ([]rule.Source, error) {
	sources, err := rule.LoadSources(e.workspace.RulesDir())
	if err != nil {
		return nil, fmt.Errorf("load rules from %s: %w", e.workspace.RulesDir(), err)
	}
	return sources, nil
}

// newEngine builds a single rule engine from the workspace's rules.
func (e *env) newEngine() (*rule.Engine, error) {
	sources, err := e.loadRuleSources()
	if err != nil {
		return nil, err
	}
	return rule.NewEngine(sources, rule.WithExecTimeout(e.cfg.RuleTimeout.Std()))
}

// getVerboseFlag retrieves the verbose flag from the command or its root.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, _ = cmd.Root().PersistentFlags().GetBool("verbose")
	}
	return verbose
}

// parsePageID parses a positional page id argument.
func parsePageID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid page id %q", arg)
	}
	return id, nil
}
