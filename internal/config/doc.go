// Package config defines the workspace layout and crawl configuration.
//
// A workspace is a directory holding scuttle.yml, the scuttle.db page
// store, and the rule_*.js rule files. Every command resolves its
// workspace first, either from an explicit flag, the current directory,
// or the XDG config directory.
package config
