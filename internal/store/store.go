package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/scuttlekit/scuttle/internal/model"
)

// Store persists pages, links, and extracted records in a single SQLite
// database file. All methods are safe for concurrent use: every
// transaction runs on the store's single connection, so writes are
// serialized by construction.
type Store struct {
	db   *sql.DB
	path string
}

// Options configures Open.
type Options struct {
	// CreateIfNotExists creates the database file (and its parent
	// directory) when it does not exist. When false, Open fails with
	// ErrDatabaseNotFound instead.
	CreateIfNotExists bool

	// EnableWAL enables write-ahead logging. Recommended: readers do
	// not block the single writer.
	EnableWAL bool
}

// DefaultOptions returns the options used by the CLI.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the database at path and applies any pending
// schema migrations.
func Open(path string, opts Options) (*Store, error) {
	if !opts.CreateIfNotExists {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, path)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := path + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = path + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports a single writer. One connection serializes all
	// transactions, which makes claim mutual exclusion a database
	// property instead of caller discipline.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := Migrate(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// pageColumns is the column list every page query selects, kept in one
// place so scanPage stays in sync.
const pageColumns = "id, url, type_id, depth, status, http_status, content_type, headers, fetched_at, failure_reason"

// Register inserts a new page in state New if the URL is unseen and
// returns its id. If a page with the same URL already exists, the
// existing id is returned and nothing is mutated: no status change, no
// depth change. Registration never fails on duplicates.
func (s *Store) Register(ctx context.Context, url string, typeID model.PageTypeID, depth int) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	id, err := registerInTx(ctx, tx, url, typeID, depth)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit registration: %w", err)
	}
	return id, nil
}

// registerInTx performs URL-keyed page registration inside an existing
// transaction. Shared by Register and InsertLinks.
func registerInTx(ctx context.Context, tx *sql.Tx, url string, typeID model.PageTypeID, depth int) (int64, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO pages (url, type_id, depth, status) VALUES (?, ?, ?, ?) ON CONFLICT(url) DO NOTHING",
		url, typeID, depth, model.StatusNew,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to register page: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected > 0 {
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to read inserted id: %w", err)
		}
		return id, nil
	}

	// Duplicate URL: return the existing page untouched.
	var id int64
	if err := tx.QueryRowContext(ctx, "SELECT id FROM pages WHERE url = ?", url).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to look up existing page: %w", err)
	}
	return id, nil
}

// ClaimPending atomically selects up to limit pages in state New,
// transitions them to Downloading, and returns them. No page is ever
// returned by two concurrent calls: the select and the update run in
// one transaction on the store's single connection. Shallow pages are
// claimed first so crawls proceed in breadth batches.
func (s *Store) ClaimPending(ctx context.Context, limit int) ([]model.Page, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin claim transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	rows, err := tx.QueryContext(ctx,
		"SELECT "+pageColumns+" FROM pages WHERE status = ? ORDER BY depth ASC, id ASC LIMIT ?",
		model.StatusNew, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending pages: %w", err)
	}

	pages, err := collectPages(rows)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, tx.Commit()
	}

	placeholders := make([]string, 0, len(pages))
	args := make([]any, 0, len(pages)+1)
	args = append(args, model.StatusDownloading)
	for _, p := range pages {
		placeholders = append(placeholders, "?")
		args = append(args, p.ID)
	}
	query := fmt.Sprintf("UPDATE pages SET status = ? WHERE id IN (%s)", strings.Join(placeholders, ", "))
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to claim pages: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit claim: %w", err)
	}

	for i := range pages {
		pages[i].Status = model.StatusDownloading
	}
	return pages, nil
}

// ReclaimStaleLeases transitions every page left in Downloading back to
// New and returns how many were reclaimed. No claim survives a process
// restart, so this runs at the start of every crawl to recover pages a
// crashed or cancelled run left mid-fetch.
func (s *Store) ReclaimStaleLeases(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE pages SET status = ? WHERE status = ?",
		model.StatusNew, model.StatusDownloading,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reclaim stale leases: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n, nil
}

// CommitDownloaded transitions a Downloading page to Downloaded,
// persisting its content and fetch metadata. Returns
// ErrInvalidTransition if the page is not currently leased and
// ErrPageNotFound if the id does not exist.
func (s *Store) CommitDownloaded(ctx context.Context, id int64, content string, meta model.FetchMeta) error {
	headers, err := json.Marshal(meta.Headers)
	if err != nil {
		return fmt.Errorf("failed to serialize headers: %w", err)
	}

	fetchedAt := meta.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now().UTC()
	}

	return s.commitTransition(ctx, id,
		`UPDATE pages
		 SET status = ?, content = ?, http_status = ?, content_type = ?, headers = ?, fetched_at = ?, failure_reason = NULL
		 WHERE id = ? AND status = ?`,
		model.StatusDownloaded, content, meta.HTTPStatus, meta.ContentType,
		string(headers), fetchedAt.Format(time.RFC3339), id, model.StatusDownloading,
	)
}

// CommitFailed transitions a Downloading page to Failed with a reason.
// The same lease guard as CommitDownloaded applies.
func (s *Store) CommitFailed(ctx context.Context, id int64, reason string) error {
	return s.commitTransition(ctx, id,
		"UPDATE pages SET status = ?, failure_reason = ? WHERE id = ? AND status = ?",
		model.StatusFailed, reason, id, model.StatusDownloading,
	)
}

// commitTransition runs a guarded status update and maps a zero-row
// result onto ErrPageNotFound or ErrInvalidTransition.
func (s *Store) commitTransition(ctx context.Context, id int64, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to commit page %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var status int
	err = s.db.QueryRowContext(ctx, "SELECT status FROM pages WHERE id = ?", id).Scan(&status)
	if err == sql.ErrNoRows {
		return fmt.Errorf("page %d: %w", id, ErrPageNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to inspect page %d: %w", id, err)
	}
	return fmt.Errorf("page %d is %v, not %v: %w",
		id, model.PageStatus(status), model.StatusDownloading, ErrInvalidTransition)
}

// InsertLinks registers each edge's destination page (deduplicated by
// URL, at the source's depth plus one) and records the edge itself.
// Duplicate edges within one call are collapsed before insertion, and
// an edge identical to one already recorded for the same source is not
// recorded again, so repeated navigation of an unchanged page leaves
// the link set unchanged. The whole operation is one transaction.
func (s *Store) InsertLinks(ctx context.Context, sourceID int64, edges []model.Edge) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin link transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var depth int
	err = tx.QueryRowContext(ctx, "SELECT depth FROM pages WHERE id = ?", sourceID).Scan(&depth)
	if err == sql.ErrNoRows {
		return fmt.Errorf("source page %d: %w", sourceID, ErrPageNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to read source page %d: %w", sourceID, err)
	}

	seen := make(map[model.Edge]bool, len(edges))
	for _, edge := range edges {
		if seen[edge] {
			continue
		}
		seen[edge] = true

		if _, err := registerInTx(ctx, tx, edge.URL, edge.TypeID, depth+1); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO links (source_id, url, type_id)
			 SELECT ?, ?, ?
			 WHERE NOT EXISTS (
			     SELECT 1 FROM links WHERE source_id = ? AND url = ? AND type_id = ?
			 )`,
			sourceID, edge.URL, edge.TypeID, sourceID, edge.URL, edge.TypeID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert link %s: %w", edge.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit links: %w", err)
	}
	return nil
}

// UpsertRecords replaces all extracted records for a page with the
// given ordered pairs. Delete and insert happen in one transaction, so
// a reader never observes the page with an empty record set in between.
func (s *Store) UpsertRecords(ctx context.Context, pageID int64, kvs []model.KV) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin record transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM pages WHERE id = ?", pageID).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("page %d: %w", pageID, ErrPageNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check page %d: %w", pageID, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM records WHERE page_id = ?", pageID); err != nil {
		return fmt.Errorf("failed to clear records for page %d: %w", pageID, err)
	}
	for seq, kv := range kvs {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO records (page_id, seq, key, value) VALUES (?, ?, ?, ?)",
			pageID, seq, kv.Key, kv.Value,
		)
		if err != nil {
			return fmt.Errorf("failed to insert record %q for page %d: %w", kv.Key, pageID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit records: %w", err)
	}
	return nil
}

// Get retrieves a page by id.
func (s *Store) Get(ctx context.Context, id int64) (model.Page, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+pageColumns+" FROM pages WHERE id = ?", id)
	page, err := scanPage(row)
	if err == sql.ErrNoRows {
		return model.Page{}, fmt.Errorf("page %d: %w", id, ErrPageNotFound)
	}
	return page, err
}

// GetByURL retrieves a page by its canonical URL.
func (s *Store) GetByURL(ctx context.Context, url string) (model.Page, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+pageColumns+" FROM pages WHERE url = ?", url)
	page, err := scanPage(row)
	if err == sql.ErrNoRows {
		return model.Page{}, fmt.Errorf("page %s: %w", url, ErrPageNotFound)
	}
	return page, err
}

// Content returns the stored content of a page. ErrNoContent is
// returned when the page exists but has not been downloaded.
func (s *Store) Content(ctx context.Context, id int64) (string, error) {
	var content sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT content FROM pages WHERE id = ?", id).Scan(&content)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("page %d: %w", id, ErrPageNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read content of page %d: %w", id, err)
	}
	if !content.Valid {
		return "", fmt.Errorf("page %d: %w", id, ErrNoContent)
	}
	return content.String, nil
}

// Filter narrows List results. Zero values mean "no constraint"; rule
// type ids are positive, so TypeID 0 never excludes anything.
type Filter struct {
	Status model.PageStatus
	TypeID model.PageTypeID
}

// List returns pages matching the filter, ordered by id.
func (s *Store) List(ctx context.Context, f Filter) ([]model.Page, error) {
	query := "SELECT " + pageColumns + " FROM pages WHERE 1=1"
	args := make([]any, 0, 2)
	if f.Status != 0 {
		query += " AND status = ?"
		args = append(args, f.Status)
	}
	if f.TypeID != 0 {
		query += " AND type_id = ?"
		args = append(args, f.TypeID)
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	return collectPages(rows)
}

// Links returns the recorded edges originating at sourceID, in
// discovery order. A sourceID of zero returns every edge.
func (s *Store) Links(ctx context.Context, sourceID int64) ([]model.Link, error) {
	query := "SELECT id, source_id, url, type_id, discovered_at FROM links"
	args := []any{}
	if sourceID != 0 {
		query += " WHERE source_id = ?"
		args = append(args, sourceID)
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	var links []model.Link
	for rows.Next() {
		var link model.Link
		var discovered string
		if err := rows.Scan(&link.ID, &link.SourceID, &link.URL, &link.TypeID, &discovered); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		link.DiscoveredAt = parseTimestamp(discovered)
		links = append(links, link)
	}
	return links, rows.Err()
}

// Records returns the extracted pairs for a page in emission order.
func (s *Store) Records(ctx context.Context, pageID int64) ([]model.KV, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, value FROM records WHERE page_id = ? ORDER BY seq ASC", pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to read records for page %d: %w", pageID, err)
	}
	defer rows.Close()

	var kvs []model.KV
	for rows.Next() {
		var kv model.KV
		if err := rows.Scan(&kv.Key, &kv.Value); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		kvs = append(kvs, kv)
	}
	return kvs, rows.Err()
}

// IterRecords calls fn once per page that has extracted records, in
// page id order, with the page's pairs in emission order. fn must not
// call back into the store: the result set is streamed on the single
// connection.
func (s *Store) IterRecords(ctx context.Context, fn func(pageID int64, kvs []model.KV) error) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT page_id, key, value FROM records ORDER BY page_id ASC, seq ASC")
	if err != nil {
		return fmt.Errorf("failed to iterate records: %w", err)
	}
	defer rows.Close()

	var (
		current int64
		kvs     []model.KV
	)
	flush := func() error {
		if len(kvs) == 0 {
			return nil
		}
		err := fn(current, kvs)
		kvs = nil
		return err
	}

	for rows.Next() {
		var (
			pageID int64
			kv     model.KV
		)
		if err := rows.Scan(&pageID, &kv.Key, &kv.Value); err != nil {
			return fmt.Errorf("failed to scan record: %w", err)
		}
		if pageID != current {
			if err := flush(); err != nil {
				return err
			}
			current = pageID
		}
		kvs = append(kvs, kv)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return flush()
}

// Reset returns a page to state New, clearing content, metadata, and
// failure reason so the next crawl fetches it again. Extracted records
// are kept until the next successful parse replaces them.
func (s *Store) Reset(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE pages
		 SET status = ?, content = NULL, http_status = NULL, content_type = NULL,
		     headers = NULL, fetched_at = NULL, failure_reason = NULL
		 WHERE id = ?`,
		model.StatusNew, id,
	)
	if err != nil {
		return fmt.Errorf("failed to reset page %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("page %d: %w", id, ErrPageNotFound)
	}
	return nil
}

// CountByStatus returns how many pages are in each lifecycle state.
func (s *Store) CountByStatus(ctx context.Context) (map[model.PageStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM pages GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.PageStatus]int)
	for rows.Next() {
		var (
			code  int
			count int
		)
		if err := rows.Scan(&code, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		status, err := model.ParseStatus(code)
		if err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanPage reads one page row in pageColumns order.
func scanPage(row rowScanner) (model.Page, error) {
	var (
		page       model.Page
		statusCode int
		httpStatus sql.NullInt64
		cType      sql.NullString
		headers    sql.NullString
		fetchedAt  sql.NullString
		failure    sql.NullString
	)
	err := row.Scan(&page.ID, &page.URL, &page.TypeID, &page.Depth, &statusCode,
		&httpStatus, &cType, &headers, &fetchedAt, &failure)
	if err != nil {
		return model.Page{}, err
	}

	page.Status, err = model.ParseStatus(statusCode)
	if err != nil {
		return model.Page{}, fmt.Errorf("page %d: %w", page.ID, err)
	}

	page.Fetch.HTTPStatus = int(httpStatus.Int64)
	page.Fetch.ContentType = cType.String
	if headers.Valid && headers.String != "" {
		if err := json.Unmarshal([]byte(headers.String), &page.Fetch.Headers); err != nil {
			return model.Page{}, fmt.Errorf("page %d: failed to parse headers: %w", page.ID, err)
		}
	}
	if fetchedAt.Valid {
		page.Fetch.FetchedAt = parseTimestamp(fetchedAt.String)
	}
	page.FailureReason = failure.String
	return page, nil
}

// collectPages drains rows into a slice, closing them.
func collectPages(rows *sql.Rows) ([]model.Page, error) {
	defer rows.Close()

	var pages []model.Page
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		pages = append(pages, page)
	}
	return pages, rows.Err()
}

// timestampFormats contains the formats SQLite may hand back depending
// on how the value was written. More specific formats come first.
var timestampFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp parses a stored timestamp, returning the zero time
// when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
