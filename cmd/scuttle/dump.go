package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDumpCmd creates the dump command.
func NewDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <page-id>",
		Short: "Print a page's stored content",
		Long: `Dump writes the raw stored content of a downloaded page to stdout.
Useful while developing rules:

  scuttle dump 42 | less`,
		Args: cobra.ExactArgs(1),
		RunE: runDumpCmd,
	}
}

// runDumpCmd executes the dump command.
func runDumpCmd(cmd *cobra.Command, args []string) error {
	id, err := parsePageID(args[0])
	if err != nil {
		return err
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	content, err := e.store.Content(cmd.Context(), id)
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), content)
	return nil
}
