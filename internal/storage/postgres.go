package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"gratitude_card/internal/models"
)

type PostgresLog struct {
	pool *pgxpool.Pool
}

func NewPostgresLog(pool *pgxpool.Pool) *PostgresLog {
	return &PostgresLog{
		pool: pool,
	}
}

func (db_gl *PostgresLog) EnsureSchema(ctx context.Context) error {
	op := "internal/storage/postgres.go EnsureSchema"

	sql_query := `
	CREATE TABLE IF NOT EXISTS gratitude_log (
		id BIGSERIAL PRIMARY KEY,
		text TEXT NOT NULL CHECK (length(btrim(text)) > 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS gratitude_log_created_at_idx
	ON gratitude_log (created_at DESC);
	`

	if _, err := db_gl.pool.Exec(ctx, sql_query); err != nil {
		return fmt.Errorf("Failure to create schema in %s: %w", op, err)
	}

	return nil
}

func (db_gl *PostgresLog) Insert(ctx context.Context, text string) (models.GratitudeEntry, error) {
	op := "internal/storage/postgres.go Insert"

	trimmed, err := cleanText(text)
	if err != nil {
		return models.GratitudeEntry{}, err
	}

	sql_query := `
	INSERT INTO gratitude_log (text)
	VALUES ($1)
	RETURNING id, text, created_at;
	`

	entry := models.GratitudeEntry{}
	err = db_gl.pool.QueryRow(ctx, sql_query, trimmed).Scan(
		&entry.ID,
		&entry.Text,
		&entry.CreatedAt,
	)

	if err != nil {
		return models.GratitudeEntry{}, fmt.Errorf("Failure to insert entry in %s: %w", op, err)
	}

	return entry, nil
}

func (db_gl *PostgresLog) Recent(ctx context.Context, limit int) ([]models.GratitudeEntry, error) {
	op := "internal/storage/postgres.go Recent"

	sql_query := `
	SELECT id, text, created_at FROM gratitude_log
	ORDER BY created_at DESC, id DESC
	LIMIT $1;
	`

	rows, err := db_gl.pool.Query(ctx, sql_query, limit)

	if err != nil {
		return nil, fmt.Errorf("Failure to get entries in %s: %w", op, err)
	}
	defer rows.Close()
	entries := []models.GratitudeEntry{}

	for rows.Next() {
		entry := models.GratitudeEntry{}

		err := rows.Scan(
			&entry.ID,
			&entry.Text,
			&entry.CreatedAt,
		)

		if err != nil {
			return nil, fmt.Errorf("Failure to Scan entries in %s: %w", op, err)
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Failure to read entries in %s: %w", op, err)
	}

	return entries, nil
}
