package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"gratitude_card/internal/models"
)

// failingLog fails every call until healed.
type failingLog struct {
	mu      sync.Mutex
	err     error
	inserts int
	recents int
}

func (fl *failingLog) Insert(ctx context.Context, text string) (models.GratitudeEntry, error) {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	fl.inserts++
	if fl.err != nil {
		return models.GratitudeEntry{}, fl.err
	}
	return models.GratitudeEntry{ID: int64(fl.inserts), Text: text, CreatedAt: time.Now()}, nil
}

func (fl *failingLog) Recent(ctx context.Context, limit int) ([]models.GratitudeEntry, error) {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	fl.recents++
	if fl.err != nil {
		return nil, fl.err
	}
	return []models.GratitudeEntry{}, nil
}

var errBoom = errors.New("boom")
