package storage

import (
	"context"
	"sync"
	"time"

	"gratitude_card/internal/models"
)

// MemoryLog keeps entries in insertion order for the lifetime of the process.
// Entries carry no id; their position is their identity.
type MemoryLog struct {
	mu      sync.RWMutex
	entries []models.GratitudeEntry
	now     func() time.Time
}

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{now: time.Now}
}

func (ml *MemoryLog) Insert(ctx context.Context, text string) (models.GratitudeEntry, error) {
	trimmed, err := cleanText(text)
	if err != nil {
		return models.GratitudeEntry{}, err
	}

	ml.mu.Lock()
	defer ml.mu.Unlock()

	entry := models.GratitudeEntry{Text: trimmed, CreatedAt: ml.now()}
	ml.entries = append(ml.entries, entry)
	return entry, nil
}

func (ml *MemoryLog) Recent(ctx context.Context, limit int) ([]models.GratitudeEntry, error) {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	n := len(ml.entries)
	if limit < n {
		n = limit
	}
	if n < 0 {
		n = 0
	}

	out := make([]models.GratitudeEntry, 0, n)
	for i := len(ml.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, ml.entries[i])
	}
	return out, nil
}

// Len is the total number of entries ever inserted.
func (ml *MemoryLog) Len() int {
	ml.mu.RLock()
	defer ml.mu.RUnlock()
	return len(ml.entries)
}
