package models

import (
	"time"
)

// GratitudeEntry is one row of the gratitude log. ID is zero for entries kept
// only in memory.
type GratitudeEntry struct {
	ID        int64     `json:"id,omitempty" db:"id"`
	Text      string    `json:"text" db:"text"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
