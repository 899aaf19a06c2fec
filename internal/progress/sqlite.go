// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package progress

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/topic-explainer/pkg/types"
)

// SQLiteResults stores the status map in a SQLite database, one row per code.
type SQLiteResults struct {
	db   *sql.DB
	path string
}

// OpenSQLiteResults opens or creates the database at path and its schema.
func OpenSQLiteResults(path string) (*SQLiteResults, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating results directory: %w", err)
	}

	// Rollback journal: a closed database leaves no side files behind for
	// read-only openers to trip over.
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteResults{db: db, path: path}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// OpenSQLiteResultsReadOnly opens an existing database without creating
// the file, its schema, or journal files. Save on the result fails.
func OpenSQLiteResultsReadOnly(path string) (*SQLiteResults, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	return &SQLiteResults{db: db, path: path}, nil
}

func (s *SQLiteResults) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS results (
		code TEXT PRIMARY KEY,
		model TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('success', 'failed')),
		last_updated TEXT NOT NULL
	)`)
	return err
}

// Load reads every row into a map.
func (s *SQLiteResults) Load(ctx context.Context) (Results, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT code, model, status, last_updated FROM results`)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	r := Results{}
	for rows.Next() {
		var code, model, status, updated string
		if err := rows.Scan(&code, &model, &status, &updated); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		st, err := types.ParseStatus(status)
		if err != nil {
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, updated)
		if err != nil {
			return nil, fmt.Errorf("parsing last_updated for %s: %w", code, err)
		}
		r[code] = types.ResultRecord{Model: model, Status: st, LastUpdated: ts}
	}
	return r, rows.Err()
}

// Save replaces the table contents with r inside one transaction.
func (s *SQLiteResults) Save(ctx context.Context, r Results) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM results`); err != nil {
		return fmt.Errorf("clearing results: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO results (code, model, status, last_updated) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, code := range r.Codes() {
		rec := r[code]
		if !rec.Status.Valid() {
			continue
		}
		_, err := stmt.ExecContext(ctx, code, rec.Model, string(rec.Status),
			rec.LastUpdated.UTC().Format(time.RFC3339Nano))
		if err != nil {
			return fmt.Errorf("inserting result %s: %w", code, err)
		}
	}

	return tx.Commit()
}

// Location returns the database path.
func (s *SQLiteResults) Location() string { return s.path }

// Close releases the database connection.
func (s *SQLiteResults) Close() error {
	return s.db.Close()
}
