// Package sqlite persists diagnosis results in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cropcareai/backend/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	image_path TEXT NOT NULL,
	prediction TEXT NOT NULL,
	confidence REAL NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_results_created_at ON results(created_at DESC);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveResult inserts a diagnosis and returns it with its assigned id.
func (s *SQLiteStore) SaveResult(ctx context.Context, result store.Result) (store.Result, error) {
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO results (image_path, prediction, confidence, created_at) VALUES (?, ?, ?, ?)`,
		result.ImagePath, result.Prediction, result.Confidence, result.CreatedAt,
	)
	if err != nil {
		return store.Result{}, fmt.Errorf("insert result: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return store.Result{}, fmt.Errorf("get last insert id: %w", err)
	}

	result.ID = id
	return result, nil
}

// LatestResults returns the newest results, newest first.
func (s *SQLiteStore) LatestResults(ctx context.Context, limit int) ([]store.Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, image_path, prediction, confidence, created_at
		 FROM results ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var results []store.Result
	for rows.Next() {
		var r store.Result
		if err := rows.Scan(&r.ID, &r.ImagePath, &r.Prediction, &r.Confidence, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

// ResultByID fetches a single result.
func (s *SQLiteStore) ResultByID(ctx context.Context, id int64) (store.Result, error) {
	var r store.Result
	err := s.db.QueryRowContext(ctx,
		`SELECT id, image_path, prediction, confidence, created_at FROM results WHERE id = ?`, id,
	).Scan(&r.ID, &r.ImagePath, &r.Prediction, &r.Confidence, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Result{}, store.ErrNotFound
	}
	if err != nil {
		return store.Result{}, fmt.Errorf("query result %d: %w", id, err)
	}
	return r, nil
}
