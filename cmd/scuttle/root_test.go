package main

import (
	"testing"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "scuttle" {
			t.Errorf("expected use 'scuttle', got %q", cmd.Use)
		}
	})

	t.Run("has descriptions", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has verbose flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
	})

	t.Run("has workspace flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("workspace")
		if flag == nil {
			t.Fatal("expected workspace flag")
		}
		if flag.Shorthand != "w" {
			t.Errorf("expected shorthand 'w', got %q", flag.Shorthand)
		}
	})

	t.Run("has all subcommands", func(t *testing.T) {
		t.Parallel()

		want := map[string]bool{
			"init":     false,
			"register": false,
			"crawl":    false,
			"navigate": false,
			"parse":    false,
			"validate": false,
			"pages":    false,
			"dump":     false,
			"export":   false,
			"report":   false,
			"reset":    false,
			"rules":    false,
			"version":  false,
		}
		for _, sub := range cmd.Commands() {
			if _, ok := want[sub.Name()]; ok {
				want[sub.Name()] = true
			}
		}
		for name, found := range want {
			if !found {
				t.Errorf("missing subcommand %q", name)
			}
		}
	})
}

func TestParsePageID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		arg     string
		want    int64
		wantErr bool
	}{
		{arg: "1", want: 1},
		{arg: "42", want: 42},
		{arg: "0", wantErr: true},
		{arg: "-3", wantErr: true},
		{arg: "abc", wantErr: true},
		{arg: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.arg, func(t *testing.T) {
			t.Parallel()

			got, err := parsePageID(tt.arg)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parsePageID(%q) accepted invalid input", tt.arg)
				}
				return
			}
			if err != nil {
				t.Fatalf("parsePageID(%q) failed: %v", tt.arg, err)
			}
			if got != tt.want {
				t.Errorf("parsePageID(%q) = %d, want %d", tt.arg, got, tt.want)
			}
		})
	}
}
