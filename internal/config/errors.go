package config

import "errors"

// Configuration validation errors returned by Config.Validate(). Sentinel
// errors keep errors.Is() usable for callers while still reading well in
// CLI output.
var (
	// ErrWorkspaceNotFound is returned when no directory with a scuttle.yml
	// could be resolved.
	ErrWorkspaceNotFound = errors.New("no workspace found: run 'scuttle init' or pass --workspace")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidConcurrency is returned when the worker count is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidBatchSize is returned when the claim batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidFetchTimeout is returned when the per-fetch timeout is not positive.
	ErrInvalidFetchTimeout = errors.New("invalid fetch timeout: must be positive")

	// ErrInvalidRetryBudget is returned when the retry budget is negative.
	// Zero is valid and means a single attempt per page.
	ErrInvalidRetryBudget = errors.New("invalid retry budget: must be non-negative")

	// ErrInvalidDelay is returned when the politeness delay is negative.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")
)
