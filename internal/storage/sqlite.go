package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gratitude_card/internal/models"

	_ "modernc.org/sqlite"
)

type SQLiteLog struct {
	path string
	db   *sql.DB
	now  func() time.Time
}

// OpenSQLiteLog opens the database file at path, creating it and the
// gratitude_log table when missing.
func OpenSQLiteLog(ctx context.Context, path string) (*SQLiteLog, error) {
	op := "internal/storage/sqlite.go OpenSQLiteLog"

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory in %s: %w", op, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database in %s: %w", op, err)
	}
	// one writer at a time keeps sqlite from returning SQLITE_BUSY
	db.SetMaxOpenConns(1)

	sl := &SQLiteLog{path: path, db: db, now: time.Now}
	if err := sl.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return sl, nil
}

func (sl *SQLiteLog) ensureSchema(ctx context.Context) error {
	op := "internal/storage/sqlite.go ensureSchema"

	sql_query := `
	CREATE TABLE IF NOT EXISTS gratitude_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		text TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS gratitude_log_created_at_idx
	ON gratitude_log (created_at DESC);
	`

	if _, err := sl.db.ExecContext(ctx, sql_query); err != nil {
		return fmt.Errorf("failed to create schema in %s: %w", op, err)
	}
	return nil
}

func (sl *SQLiteLog) Close() error {
	return sl.db.Close()
}

func (sl *SQLiteLog) Insert(ctx context.Context, text string) (models.GratitudeEntry, error) {
	op := "internal/storage/sqlite.go Insert"

	trimmed, err := cleanText(text)
	if err != nil {
		return models.GratitudeEntry{}, err
	}

	createdAt := sl.now().UTC()

	// created_at is stored as unix nanoseconds so ordering stays exact
	res, err := sl.db.ExecContext(ctx,
		`INSERT INTO gratitude_log (text, created_at) VALUES (?, ?)`,
		trimmed, createdAt.UnixNano(),
	)
	if err != nil {
		return models.GratitudeEntry{}, fmt.Errorf("Failure to insert entry in %s: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.GratitudeEntry{}, fmt.Errorf("Failure to read entry id in %s: %w", op, err)
	}

	return models.GratitudeEntry{ID: id, Text: trimmed, CreatedAt: createdAt}, nil
}

func (sl *SQLiteLog) Recent(ctx context.Context, limit int) ([]models.GratitudeEntry, error) {
	op := "internal/storage/sqlite.go Recent"

	rows, err := sl.db.QueryContext(ctx,
		`SELECT id, text, created_at FROM gratitude_log ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("Failure to get entries in %s: %w", op, err)
	}
	defer rows.Close()

	entries := []models.GratitudeEntry{}
	for rows.Next() {
		var entry models.GratitudeEntry
		var createdAt int64
		if err := rows.Scan(&entry.ID, &entry.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("Failure to Scan entries in %s: %w", op, err)
		}
		entry.CreatedAt = time.Unix(0, createdAt).UTC()
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Failure to read entries in %s: %w", op, err)
	}

	return entries, nil
}
