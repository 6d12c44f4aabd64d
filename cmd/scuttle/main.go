// Package main provides the entry point for the scuttle CLI.
//
// Scuttle crawls web pages into a local workspace database and runs
// user-supplied JavaScript rules against the stored content to discover
// links and extract records. Fetching and interpretation are decoupled:
// extraction rules can be re-run against the local mirror at any time
// without touching the network.
//
// Usage:
//
//	scuttle init
//	scuttle register <url> <type-id>
//	scuttle crawl
//	scuttle export
//
// See --help for all available commands and options.
package main

// main is the entry point for scuttle.
func main() {
	Execute()
}
