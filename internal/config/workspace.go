package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// Workspace is a directory holding scuttle.yml, the page store, and the
// rule files.
type Workspace struct {
	// Dir is the absolute path of the workspace directory.
	Dir string
}

// ConfigPath returns the path of the workspace's scuttle.yml.
func (w Workspace) ConfigPath() string {
	return filepath.Join(w.Dir, ConfigFileName)
}

// DatabasePath returns the path of the workspace's page store.
func (w Workspace) DatabasePath() string {
	return filepath.Join(w.Dir, DatabaseFileName)
}

// RulesDir returns the directory scanned for rule_*.js files. Rules live
// directly in the workspace.
func (w Workspace) RulesDir() string {
	return w.Dir
}

// Load reads and validates the workspace's configuration. Keys absent from
// the file keep their defaults.
func (w Workspace) Load() (*Config, error) {
	data, err := os.ReadFile(w.ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", w.ConfigPath(), ErrConfigNotFound)
		}
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", w.ConfigPath(), err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", w.ConfigPath(), err)
	}
	return cfg, nil
}

// isWorkspace reports whether dir contains a scuttle.yml.
func isWorkspace(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil && !info.IsDir()
}

// Find resolves the workspace in the following order:
//  1. the explicit directory, when non-empty (must be a workspace)
//  2. the current working directory
//  3. the XDG config directory (e.g. ~/.config/scuttle)
//
// It returns ErrWorkspaceNotFound when none of them has a scuttle.yml.
func Find(explicit string) (Workspace, error) {
	if explicit != "" {
		abs, err := filepath.Abs(explicit)
		if err != nil {
			return Workspace{}, err
		}
		if !isWorkspace(abs) {
			return Workspace{}, fmt.Errorf("%s: %w", abs, ErrWorkspaceNotFound)
		}
		return Workspace{Dir: abs}, nil
	}

	if cwd, err := os.Getwd(); err == nil && isWorkspace(cwd) {
		return Workspace{Dir: cwd}, nil
	}

	xdgDir := filepath.Join(xdg.ConfigHome, AppName)
	if isWorkspace(xdgDir) {
		return Workspace{Dir: xdgDir}, nil
	}

	return Workspace{}, ErrWorkspaceNotFound
}
