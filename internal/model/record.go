package model

// KV is one extracted key/value pair. Parse rules emit an ordered
// sequence of these; the engine persists them without interpreting key
// semantics. Grouping conventions (numeric suffixes, prefixes for
// repeated groups) are the rule author's concern.
type KV struct {
	Key   string
	Value string
}

// Record is a persisted extracted pair associated with a page.
// A fresh parse pass replaces the full record set for its page.
type Record struct {
	// PageID is the page the pair was extracted from.
	PageID int64

	// Seq preserves the emission order of the rule output so the
	// downstream tabulator sees columns in a stable order.
	Seq int

	Key   string
	Value string
}
