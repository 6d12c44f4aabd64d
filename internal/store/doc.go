// Package store provides SQLite-based persistence for the crawl engine.
//
// The Store is the sole owner of entity state. All mutation happens
// through short-lived transactions that either fully apply or have no
// effect; no transaction ever spans a network call. The page lifecycle
// is enforced here: claiming flips New pages to the Downloading lease
// state, commits require the lease, and leftover leases from a crashed
// run are reclaimed on startup.
//
// SQLite (via modernc.org/sqlite) keeps the database a single file
// inside the workspace with no CGO and no external server. The
// connection pool is capped at one connection: SQLite supports a single
// writer, and funneling every transaction through one connection makes
// claim mutual exclusion a property of the database rather than of
// caller discipline.
//
// The on-disk schema is versioned. Early databases stored the page
// status as free-form text; the v2 migration maps those values onto the
// integer enumeration and later migrations extend it. See migrate.go.
package store
