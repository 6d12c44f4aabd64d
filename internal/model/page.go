package model

import (
	"fmt"
	"time"
)

// PageTypeID selects which navigate/parse rule pair applies to a page.
// Type ids are small positive integers declared by rule modules.
type PageTypeID int

// Page is a uniquely-URLed unit of crawlable content.
//
// The URL is the deduplication key: the store guarantees exactly one
// page row per canonical URL regardless of how many links reference it.
// Content is persisted separately and loaded on demand via
// Store.Content; a Page value never holds the body.
type Page struct {
	// ID is the surrogate identifier assigned by the store.
	ID int64

	// URL is the canonical URL of the page.
	URL string

	// TypeID selects the rule module that applies to this page.
	TypeID PageTypeID

	// Depth is the distance from the seed page. Informational only:
	// claiming prefers shallow pages but depth carries no correctness
	// guarantee.
	Depth int

	// Status is the current lifecycle state.
	Status PageStatus

	// Fetch holds HTTP metadata for downloaded pages. Zero until the
	// page reaches StatusDownloaded.
	Fetch FetchMeta

	// FailureReason records why a page reached StatusFailed.
	// Empty for all other states.
	FailureReason string
}

// FetchMeta is the HTTP metadata captured alongside page content.
type FetchMeta struct {
	// HTTPStatus is the response status code.
	HTTPStatus int

	// ContentType is the response Content-Type header value.
	ContentType string

	// Headers contains the full response headers.
	Headers map[string][]string

	// FetchedAt is when the response was committed.
	FetchedAt time.Time
}

// String formats the page the way `scuttle pages` prints it.
func (p Page) String() string {
	return fmt.Sprintf("Page %4d  type %3d  depth %3d  %-12s  %s",
		p.ID, p.TypeID, p.Depth, p.Status, p.URL)
}
