package usage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	domusage "github.com/kailas-cloud/notesearch/internal/domain/usage"
)

const createTableSQL = `
	CREATE TABLE IF NOT EXISTS ai_daily_usage (
		user_id        TEXT    NOT NULL,
		usage_date     TEXT    NOT NULL,
		words_used     INTEGER NOT NULL DEFAULT 0,
		requests_count INTEGER NOT NULL DEFAULT 0,
		created_at     INTEGER NOT NULL,
		updated_at     INTEGER NOT NULL,
		PRIMARY KEY (user_id, usage_date)
	);
`

// SQLiteStore keeps usage rows in the ai_daily_usage table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at path.
func NewSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Get returns the row for key, or a zero Record when it does not exist.
func (s *SQLiteStore) Get(ctx context.Context, key domusage.Key) (domusage.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT words_used, requests_count, created_at, updated_at
		FROM ai_daily_usage WHERE user_id = ? AND usage_date = ?`,
		key.UserID, key.Date,
	)
	rec, err := scanRecord(key, row)
	if errors.Is(err, sql.ErrNoRows) {
		return domusage.Record{Key: key}, nil
	}
	if err != nil {
		return domusage.Record{}, fmt.Errorf("failed to get usage %s: %w", key, err)
	}
	return rec, nil
}

// Increment upserts the row, adding words and one request.
func (s *SQLiteStore) Increment(ctx context.Context, key domusage.Key, words int64, now time.Time) (domusage.Record, error) {
	ms := now.UnixMilli()
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO ai_daily_usage (user_id, usage_date, words_used, requests_count, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT(user_id, usage_date) DO UPDATE SET
			words_used     = words_used + excluded.words_used,
			requests_count = requests_count + 1,
			updated_at     = excluded.updated_at
		RETURNING words_used, requests_count, created_at, updated_at`,
		key.UserID, key.Date, words, ms, ms,
	)
	rec, err := scanRecord(key, row)
	if err != nil {
		return domusage.Record{}, fmt.Errorf("failed to increment usage %s: %w", key, err)
	}
	return rec, nil
}

// Reset deletes the row for key.
func (s *SQLiteStore) Reset(ctx context.Context, key domusage.Key) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM ai_daily_usage WHERE user_id = ? AND usage_date = ?`, key.UserID, key.Date,
	); err != nil {
		return fmt.Errorf("failed to reset usage %s: %w", key, err)
	}
	return nil
}

// Ping checks the database handle.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanRecord(key domusage.Key, row *sql.Row) (domusage.Record, error) {
	rec := domusage.Record{Key: key}
	var created, updated int64
	if err := row.Scan(&rec.WordsUsed, &rec.RequestsCount, &created, &updated); err != nil {
		return domusage.Record{}, err
	}
	rec.CreatedAt = time.UnixMilli(created).UTC()
	rec.UpdatedAt = time.UnixMilli(updated).UTC()
	return rec, nil
}
