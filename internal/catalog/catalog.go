// Package catalog persists descriptive records for stored artifacts.
//
// The artifact store holds the audio bytes; the catalog holds everything a
// response needs to say about them (title, artist, thumbnail, size). It lets
// the service answer repeat requests with full metadata after a restart,
// when the in-memory job ledger is gone.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"tapedeck/internal/shared"
)

const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	fingerprint TEXT PRIMARY KEY,
	source_url  TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	artist      TEXT NOT NULL DEFAULT '',
	thumbnail   TEXT NOT NULL DEFAULT '',
	location    TEXT NOT NULL,
	size_bytes  INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_artifacts_created_at ON artifacts(created_at);
`

// Entry is one catalog record, keyed by fingerprint.
type Entry struct {
	Fingerprint string
	SourceURL   string
	Title       string
	Artist      string
	Thumbnail   string
	Location    string
	SizeBytes   int64
	CreatedAt   time.Time
}

// Catalog wraps the SQLite database holding artifact records.
type Catalog struct {
	db *sql.DB
}

// Open opens (or creates) the catalog database at path and applies the
// schema. The path can be ":memory:" for tests.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping catalog database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply catalog schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Save inserts or replaces the record for e.Fingerprint.
func (c *Catalog) Save(ctx context.Context, e *Entry) error {
	query := `
		INSERT INTO artifacts (fingerprint, source_url, title, artist, thumbnail, location, size_bytes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET
			source_url = excluded.source_url,
			title      = excluded.title,
			artist     = excluded.artist,
			thumbnail  = excluded.thumbnail,
			location   = excluded.location,
			size_bytes = excluded.size_bytes
	`
	_, err := c.db.ExecContext(ctx, query,
		e.Fingerprint, e.SourceURL, e.Title, e.Artist, e.Thumbnail, e.Location, e.SizeBytes, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save catalog entry: %w", err)
	}
	return nil
}

// Get retrieves the record for a fingerprint.
// Returns an error wrapping [shared.ErrNotFound] when no record exists.
func (c *Catalog) Get(ctx context.Context, fp string) (*Entry, error) {
	query := `
		SELECT fingerprint, source_url, title, artist, thumbnail, location, size_bytes, created_at
		FROM artifacts WHERE fingerprint = ?
	`
	var e Entry
	err := c.db.QueryRowContext(ctx, query, fp).Scan(
		&e.Fingerprint, &e.SourceURL, &e.Title, &e.Artist, &e.Thumbnail, &e.Location, &e.SizeBytes, &e.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("artifact %s: %w", fp, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog entry: %w", err)
	}
	return &e, nil
}

// List returns up to limit records, newest first.
func (c *Catalog) List(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT fingerprint, source_url, title, artist, thumbnail, location, size_bytes, created_at
		FROM artifacts ORDER BY created_at DESC LIMIT ?
	`
	rows, err := c.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Fingerprint, &e.SourceURL, &e.Title, &e.Artist, &e.Thumbnail, &e.Location, &e.SizeBytes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan catalog entry: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	return c.db.Close()
}
