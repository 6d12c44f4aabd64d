package store

import "errors"

// Sentinel errors returned by Store operations. Callers distinguish
// these with errors.Is; anything else is a storage failure that should
// stop the current run.
var (
	// ErrPageNotFound is returned when the requested page id or URL
	// does not exist.
	ErrPageNotFound = errors.New("page not found")

	// ErrInvalidTransition is returned when a commit targets a page
	// that is not in the Downloading lease state. This is a programming
	// contract violation, never an expected runtime condition.
	ErrInvalidTransition = errors.New("invalid page status transition")

	// ErrNoContent is returned when reading content of a page that has
	// not been downloaded yet.
	ErrNoContent = errors.New("page has no content")

	// ErrDatabaseNotFound is returned by Open when the database file
	// does not exist and creation was not requested.
	ErrDatabaseNotFound = errors.New("database not found")
)
