package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
	if cfg.Concurrency != DefaultConcurrency {
		t.Errorf("concurrency = %d, want %d", cfg.Concurrency, DefaultConcurrency)
	}
	if cfg.FetchTimeout.Std() != DefaultFetchTimeout {
		t.Errorf("fetch timeout = %v, want %v", cfg.FetchTimeout.Std(), DefaultFetchTimeout)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Concurrency = 0 },
			wantErr: ErrInvalidConcurrency,
		},
		{
			name:    "zero batch size",
			mutate:  func(c *Config) { c.BatchSize = 0 },
			wantErr: ErrInvalidBatchSize,
		},
		{
			name:    "zero fetch timeout",
			mutate:  func(c *Config) { c.FetchTimeout = 0 },
			wantErr: ErrInvalidFetchTimeout,
		},
		{
			name:    "negative retry budget",
			mutate:  func(c *Config) { c.RetryBudget = -1 },
			wantErr: ErrInvalidRetryBudget,
		},
		{
			name:    "negative delay",
			mutate:  func(c *Config) { c.Delay = Duration(-time.Second) },
			wantErr: ErrInvalidDelay,
		},
		{
			name:    "negative max body size",
			mutate:  func(c *Config) { c.MaxBodySize = -1 },
			wantErr: ErrInvalidMaxBodySize,
		},
		{
			name:   "zero retry budget is fine",
			mutate: func(c *Config) { c.RetryBudget = 0 },
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// writeWorkspace creates a workspace directory with the given scuttle.yml
// content.
func writeWorkspace(t *testing.T, yml string) Workspace {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	return Workspace{Dir: dir}
}

func TestWorkspaceLoad(t *testing.T) {
	t.Parallel()

	t.Run("overrides defaults", func(t *testing.T) {
		t.Parallel()

		ws := writeWorkspace(t, `
concurrency: 8
delay: 1s
backoffBase: 500ms
cascadeNavigate: true
allowedContentTypes:
  - text/html
`)
		cfg, err := ws.Load()
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if cfg.Concurrency != 8 {
			t.Errorf("concurrency = %d, want 8", cfg.Concurrency)
		}
		if cfg.Delay.Std() != time.Second {
			t.Errorf("delay = %v, want 1s", cfg.Delay.Std())
		}
		if cfg.BackoffBase.Std() != 500*time.Millisecond {
			t.Errorf("backoff base = %v, want 500ms", cfg.BackoffBase.Std())
		}
		if !cfg.CascadeNavigate {
			t.Error("cascadeNavigate = false, want true")
		}
		// Untouched keys keep their defaults.
		if cfg.BatchSize != DefaultBatchSize {
			t.Errorf("batch size = %d, want default %d", cfg.BatchSize, DefaultBatchSize)
		}
	})

	t.Run("garbage duration", func(t *testing.T) {
		t.Parallel()

		ws := writeWorkspace(t, "delay: soonish\n")
		if _, err := ws.Load(); err == nil {
			t.Error("load accepted an unparseable duration")
		}
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		t.Parallel()

		ws := writeWorkspace(t, "concurrency: -2\n")
		_, err := ws.Load()
		if !errors.Is(err, ErrInvalidConcurrency) {
			t.Errorf("error = %v, want %v", err, ErrInvalidConcurrency)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		ws := Workspace{Dir: t.TempDir()}
		_, err := ws.Load()
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, want %v", err, ErrConfigNotFound)
		}
	})
}

func TestFind(t *testing.T) {
	t.Parallel()

	t.Run("explicit workspace", func(t *testing.T) {
		t.Parallel()

		ws := writeWorkspace(t, "concurrency: 2\n")
		found, err := Find(ws.Dir)
		if err != nil {
			t.Fatalf("find failed: %v", err)
		}
		if found.Dir != ws.Dir {
			t.Errorf("dir = %q, want %q", found.Dir, ws.Dir)
		}
	})

	t.Run("explicit non-workspace", func(t *testing.T) {
		t.Parallel()

		_, err := Find(t.TempDir())
		if !errors.Is(err, ErrWorkspaceNotFound) {
			t.Errorf("error = %v, want %v", err, ErrWorkspaceNotFound)
		}
	})
}

func TestWorkspacePaths(t *testing.T) {
	t.Parallel()

	ws := Workspace{Dir: "/srv/crawl"}
	if got := ws.ConfigPath(); got != filepath.Join("/srv/crawl", ConfigFileName) {
		t.Errorf("config path = %q", got)
	}
	if got := ws.DatabasePath(); got != filepath.Join("/srv/crawl", DatabaseFileName) {
		t.Errorf("database path = %q", got)
	}
	if got := ws.RulesDir(); got != "/srv/crawl" {
		t.Errorf("rules dir = %q", got)
	}
}
