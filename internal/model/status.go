package model

import (
	"fmt"
	"strings"
)

// PageStatus is the lifecycle state of a page, persisted as a small
// integer code.
//
// The numeric values are part of the on-disk format and must not be
// reordered. Codes 1-3 predate the lease state: early databases stored
// the status as free-form text ("NotDownloaded", "Downloaded", "Failed")
// which the v2 migration mapped onto 1/2/3. StatusDownloading was added
// later and therefore takes the next free code rather than slotting in
// between New and Downloaded.
type PageStatus int

const (
	// StatusNew marks a page that has been registered but not yet fetched.
	StatusNew PageStatus = 1

	// StatusDownloaded marks a page whose content has been fetched,
	// accepted by the validation policy, and persisted.
	StatusDownloaded PageStatus = 2

	// StatusFailed marks a terminal fetch failure: either the retry
	// budget was exhausted on transport errors or the validation policy
	// rejected the response. Failed pages are excluded from claiming
	// until explicitly reset.
	StatusFailed PageStatus = 3

	// StatusDownloading is the lease state: the page has been claimed by
	// an in-flight fetch. No claim survives a process restart, so any
	// page found in this state on startup is demoted back to StatusNew.
	StatusDownloading PageStatus = 4
)

// String returns the human-readable status name.
func (s PageStatus) String() string {
	switch s {
	case StatusNew:
		return "New"
	case StatusDownloading:
		return "Downloading"
	case StatusDownloaded:
		return "Downloaded"
	case StatusFailed:
		return "Failed"
	default:
		return fmt.Sprintf("PageStatus(%d)", int(s))
	}
}

// Valid reports whether s is one of the defined status codes.
func (s PageStatus) Valid() bool {
	switch s {
	case StatusNew, StatusDownloading, StatusDownloaded, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether s is an end state of the fetch lifecycle.
func (s PageStatus) Terminal() bool {
	return s == StatusDownloaded || s == StatusFailed
}

// ParseStatus converts a persisted integer code into a PageStatus.
// It returns an error for codes outside the enumeration so that a
// corrupted database surfaces immediately instead of producing pages
// in an impossible state.
func ParseStatus(code int) (PageStatus, error) {
	s := PageStatus(code)
	if !s.Valid() {
		return 0, fmt.Errorf("unknown page status code %d", code)
	}
	return s, nil
}

// ParseStatusName converts a case-insensitive status name, as accepted on
// the command line, into a PageStatus.
func ParseStatusName(name string) (PageStatus, error) {
	switch strings.ToLower(name) {
	case "new":
		return StatusNew, nil
	case "downloading":
		return StatusDownloading, nil
	case "downloaded":
		return StatusDownloaded, nil
	case "failed":
		return StatusFailed, nil
	default:
		return 0, fmt.Errorf("unknown status %q (want new, downloading, downloaded, or failed)", name)
	}
}

// ParseLegacyStatus maps a free-form status value from a v1 database
// onto the integer enumeration. The mapping is part of the documented
// upgrade path: unrecognized values map to StatusNew so that no page is
// dropped during migration, only re-fetched.
func ParseLegacyStatus(text string) PageStatus {
	switch text {
	case "Downloaded", "downloaded":
		return StatusDownloaded
	case "Failed", "failed":
		return StatusFailed
	default:
		// Includes "NotDownloaded", "new", and anything unexpected.
		return StatusNew
	}
}
