// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history records successful searches in a local SQLite database.
// Only the query and its catalog-wide item count are kept; result pages
// are never stored.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/book-search/internal/logger"
	"github.com/pdiddy/book-search/internal/search"
	"github.com/pdiddy/book-search/pkg/types"
)

const defaultLimit = 20

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Entry is one recorded search.
type Entry struct {
	ID         int64     `json:"id" yaml:"id"`
	Query      string    `json:"query" yaml:"query"`
	TotalItems int       `json:"total_items" yaml:"total_items"`
	SearchedAt time.Time `json:"searched_at" yaml:"searched_at"`
}

// Store manages the history database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path, creating parent directories
// and the schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS searches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			query TEXT NOT NULL,
			total_items INTEGER NOT NULL,
			searched_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_searches_searched_at ON searches(searched_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores one search.
func (s *Store) Record(ctx context.Context, query string, totalItems int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO searches (query, total_items, searched_at) VALUES (?, ?, ?)`,
		query, totalItems, s.now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("recording search: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. A non-positive limit
// selects the default of 20.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, total_items, searched_at FROM searches
		 ORDER BY searched_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var at string
		if err := rows.Scan(&e.ID, &e.Query, &e.TotalItems, &at); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		e.SearchedAt, err = time.Parse(timeLayout, at)
		if err != nil {
			return nil, fmt.Errorf("parsing searched_at %q: %w", at, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear deletes every entry and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM searches`)
	if err != nil {
		return 0, fmt.Errorf("clearing history: %w", err)
	}
	return res.RowsAffected()
}

// Observe returns a controller observer that records every successful
// first-page fetch. Recording errors are logged, not returned.
func (s *Store) Observe(ctx context.Context) func(search.State) {
	return func(st search.State) {
		if st.Change != search.ChangeResult || st.Status != types.StatusLoaded || st.Paging.CurrentPage != 1 {
			return
		}
		if err := s.Record(ctx, st.Query, st.TotalItems); err != nil {
			logger.For(ctx).WithError(err).Warn("could not record search history")
		}
	}
}
