package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/scuttlekit/scuttle/internal/model"
)

// migration is one schema version step. Steps run in order inside
// their own transaction; the version row is written in the same
// transaction, so a crash mid-migration leaves the database at the
// previous version with nothing half-applied.
type migration struct {
	version int
	name    string
	apply   func(ctx context.Context, tx *sql.Tx) error
}

// migrations is the ordered schema history. Existing steps must never
// be edited once released; schema changes append a new step.
var migrations = []migration{
	{1, "initial pages table", migrateV1},
	{2, "status text to checked integer", migrateV2},
	{3, "lease state, fetch metadata, links, records", migrateV3},
}

// Migrate brings the database schema up to the current version.
// It is idempotent and runs on every Open.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (
		     version INTEGER PRIMARY KEY,
		     name TEXT NOT NULL,
		     applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		 )`)
	if err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}

	var current sql.NullInt64
	if err := db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if current.Valid && m.version <= int(current.Int64) {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.version, err)
		}
		if err := m.apply(ctx, tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.name, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, name) VALUES (?, ?)", m.version, m.name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
		}
	}
	return nil
}

// migrateV1 creates the original pages table. Status was free-form
// text in this version; it only exists so that v2 has a fixed starting
// point and so that pre-versioning databases (which match this shape)
// can adopt the migration history cleanly.
func migrateV1(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS pages (
		     id INTEGER PRIMARY KEY AUTOINCREMENT,
		     url TEXT NOT NULL UNIQUE,
		     depth INTEGER NOT NULL DEFAULT 0,
		     status TEXT NOT NULL DEFAULT 'NotDownloaded',
		     content TEXT
		 )`)
	return err
}

// migrateV2 rebuilds the pages table with the status as a checked
// integer code. Legacy text values are mapped through
// model.ParseLegacyStatus: Downloaded and Failed keep their meaning,
// everything else (including unrecognized text) becomes New so no page
// is dropped, only re-fetched.
func migrateV2(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, "ALTER TABLE pages RENAME TO pages_legacy"); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx,
		`CREATE TABLE pages (
		     id INTEGER PRIMARY KEY AUTOINCREMENT,
		     url TEXT NOT NULL UNIQUE,
		     depth INTEGER NOT NULL DEFAULT 0,
		     status INTEGER NOT NULL DEFAULT 1 CHECK (status IN (1, 2, 3)),
		     content TEXT
		 )`)
	if err != nil {
		return err
	}

	rows, err := tx.QueryContext(ctx, "SELECT id, url, depth, status, content FROM pages_legacy")
	if err != nil {
		return err
	}
	defer rows.Close()

	type legacyPage struct {
		id      int64
		url     string
		depth   int
		status  string
		content sql.NullString
	}
	var pages []legacyPage
	for rows.Next() {
		var p legacyPage
		if err := rows.Scan(&p.id, &p.url, &p.depth, &p.status, &p.content); err != nil {
			return err
		}
		pages = append(pages, p)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	// Buffered: the single connection cannot insert while rows stream.
	for _, p := range pages {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO pages (id, url, depth, status, content) VALUES (?, ?, ?, ?, ?)",
			p.id, p.url, p.depth, model.ParseLegacyStatus(p.status), p.content)
		if err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, "DROP TABLE pages_legacy")
	return err
}

// migrateV3 brings the schema to the current shape: the Downloading
// lease code joins the status check, pages gain a type id, fetch
// metadata, and a failure reason, and the links and records relations
// are created.
func migrateV3(ctx context.Context, tx *sql.Tx) error {
	statements := []string{
		`ALTER TABLE pages RENAME TO pages_v2`,
		`CREATE TABLE pages (
		     id INTEGER PRIMARY KEY AUTOINCREMENT,
		     url TEXT NOT NULL UNIQUE,
		     type_id INTEGER NOT NULL DEFAULT 1,
		     depth INTEGER NOT NULL DEFAULT 0,
		     status INTEGER NOT NULL DEFAULT 1 CHECK (status IN (1, 2, 3, 4)),
		     content TEXT,
		     http_status INTEGER,
		     content_type TEXT,
		     headers TEXT,
		     fetched_at TEXT,
		     failure_reason TEXT
		 )`,
		`INSERT INTO pages (id, url, depth, status, content)
		 SELECT id, url, depth, status, content FROM pages_v2`,
		`DROP TABLE pages_v2`,
		`CREATE INDEX idx_pages_status ON pages(status)`,
		`CREATE TABLE links (
		     id INTEGER PRIMARY KEY AUTOINCREMENT,
		     source_id INTEGER NOT NULL REFERENCES pages(id),
		     url TEXT NOT NULL,
		     type_id INTEGER NOT NULL,
		     discovered_at TEXT NOT NULL DEFAULT (datetime('now'))
		 )`,
		`CREATE INDEX idx_links_source ON links(source_id)`,
		`CREATE TABLE records (
		     id INTEGER PRIMARY KEY AUTOINCREMENT,
		     page_id INTEGER NOT NULL REFERENCES pages(id),
		     seq INTEGER NOT NULL,
		     key TEXT NOT NULL,
		     value TEXT NOT NULL
		 )`,
		`CREATE INDEX idx_records_page ON records(page_id)`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
