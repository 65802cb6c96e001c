package storage

import (
	"context"
	"errors"
	"strings"

	"gratitude_card/internal/models"
)

// TableName is the gratitude log table shared by the SQL-backed stores.
const TableName = "gratitude_log"

var (
	ErrEmptyText        = errors.New("gratitude text is empty")
	ErrStoreUnavailable = errors.New("gratitude log is unavailable")
)

// GratitudeLog is the append-only store of gratitude entries. Recent returns
// at most limit entries, newest first.
type GratitudeLog interface {
	Insert(ctx context.Context, text string) (models.GratitudeEntry, error)
	Recent(ctx context.Context, limit int) ([]models.GratitudeEntry, error)
}

func cleanText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrEmptyText
	}
	return trimmed, nil
}
