package model

import "time"

// Link is a discovered directed edge from a source page to a
// destination URL, carrying the destination's intended page type.
// Links are crawl history: they are immutable once created and never
// deduplicate the pages they imply (the store's URL-keyed page dedup
// does that).
type Link struct {
	// ID is the surrogate identifier assigned by the store.
	ID int64

	// SourceID is the page the edge was discovered on.
	SourceID int64

	// URL is the normalized destination URL.
	URL string

	// TypeID is the rule type the destination should be crawled as.
	TypeID PageTypeID

	// DiscoveredAt is when the navigator recorded the edge.
	DiscoveredAt time.Time
}

// Edge is the (url, type) pair a navigate rule emits before it is
// persisted. Navigator deduplicates edges within one rule invocation
// before handing them to the store.
type Edge struct {
	URL    string
	TypeID PageTypeID
}
