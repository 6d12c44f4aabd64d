package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewRulesCmd creates the rules command.
func NewRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the workspace's rule modules",
		Long: `Rules loads every rule_*.js file in the workspace and lists the page
type and hooks each module provides. Loading errors (syntax errors,
duplicate type ids) are reported instead of a listing, which makes this
command a quick syntax check while editing rules.`,
		Args: cobra.NoArgs,
		RunE: runRulesCmd,
	}
}

// runRulesCmd executes the rules command.
func runRulesCmd(cmd *cobra.Command, _ []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	engine, err := e.newEngine()
	if err != nil {
		return err
	}

	modules := engine.Modules()
	if len(modules) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No rule files in", e.workspace.RulesDir())
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tTYPE\tNAVIGATE\tPARSE\tVALIDATE")
	for _, mod := range modules {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
			mod.Name,
			mod.TypeID,
			checkmark(mod.HasNavigate),
			checkmark(mod.HasParse),
			checkmark(mod.HasValidate),
		)
	}
	return w.Flush()
}

func checkmark(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}
