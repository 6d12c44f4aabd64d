package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestNewInitCmd tests the init command creation.
func TestNewInitCmd(t *testing.T) {
	t.Parallel()

	cmd := NewInitCmd()

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has force flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("force")
		if flag == nil {
			t.Fatal("expected force flag")
		}
		if flag.Shorthand != "f" {
			t.Errorf("expected shorthand 'f', got %q", flag.Shorthand)
		}
	})
}

// TestRunInitCmd tests the init command execution.
func TestRunInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("scaffolds a workspace", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()

		cmd := NewInitCmd()
		cmd.SetArgs([]string{dir})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, name := range []string{"scuttle.yml", "scuttle.db", "rule_example.js"} {
			if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
				t.Errorf("expected %s to be created: %v", name, err)
			}
		}

		content, err := os.ReadFile(filepath.Join(dir, "scuttle.yml"))
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(content), "concurrency:") {
			t.Error("expected config template to document concurrency")
		}
	})

	t.Run("fails when already initialized", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()

		cmd := NewInitCmd()
		cmd.SetArgs([]string{dir})
		if err := cmd.Execute(); err != nil {
			t.Fatal(err)
		}

		again := NewInitCmd()
		again.SetArgs([]string{dir})
		err := again.Execute()
		if err == nil {
			t.Fatal("expected error on second init")
		}
		if !strings.Contains(err.Error(), "already initialized") {
			t.Errorf("expected 'already initialized' error, got %v", err)
		}
	})

	t.Run("force keeps existing rules", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()

		cmd := NewInitCmd()
		cmd.SetArgs([]string{dir})
		if err := cmd.Execute(); err != nil {
			t.Fatal(err)
		}

		// Rename the example into a real rule, then re-init with force.
		custom := filepath.Join(dir, "rule_catalog.js")
		if err := os.Rename(filepath.Join(dir, "rule_example.js"), custom); err != nil {
			t.Fatal(err)
		}

		again := NewInitCmd()
		again.SetArgs([]string{dir, "-f"})
		if err := again.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if _, err := os.Stat(custom); err != nil {
			t.Errorf("expected custom rule to survive: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "rule_example.js")); err == nil {
			t.Error("expected no new example rule in a workspace with rules")
		}
	})
}
