package storage

import (
	"context"
	"fmt"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
	"gratitude_card/internal/models"
)

// SupabaseLog keeps the gratitude log in a Supabase table via PostgREST.
// The postgrest client does not take a context, so each call runs in its own
// goroutine and is abandoned when ctx ends first.
type SupabaseLog struct {
	client *supabase.Client
	table  string
}

func NewSupabaseLog(url, key string) (*SupabaseLog, error) {
	client, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to create Supabase client: %w", err)
	}

	return &SupabaseLog{client: client, table: TableName}, nil
}

type supabaseInsert struct {
	Text string `json:"text"`
}

func (sl *SupabaseLog) Insert(ctx context.Context, text string) (models.GratitudeEntry, error) {
	op := "internal/storage/supabase.go Insert"

	trimmed, err := cleanText(text)
	if err != nil {
		return models.GratitudeEntry{}, err
	}

	var rows []models.GratitudeEntry
	err = withContext(ctx, func() error {
		_, err := sl.client.From(sl.table).
			Insert([]supabaseInsert{{Text: trimmed}}, false, "", "representation", "").
			ExecuteTo(&rows)
		return err
	})
	if err != nil {
		return models.GratitudeEntry{}, fmt.Errorf("Failure to insert entry in %s: %w", op, err)
	}

	if len(rows) == 0 {
		return models.GratitudeEntry{}, fmt.Errorf("Failure to insert entry in %s: no row returned", op)
	}

	return rows[0], nil
}

func (sl *SupabaseLog) Recent(ctx context.Context, limit int) ([]models.GratitudeEntry, error) {
	op := "internal/storage/supabase.go Recent"

	entries := []models.GratitudeEntry{}
	err := withContext(ctx, func() error {
		_, err := sl.client.From(sl.table).
			Select("id,text,created_at", "", false).
			Order("created_at", &postgrest.OrderOpts{Ascending: false}).
			Limit(limit, "").
			ExecuteTo(&entries)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("Failure to get entries in %s: %w", op, err)
	}

	return entries, nil
}

// withContext waits for call or for ctx, whichever ends first. What call
// writes is only safe to read when withContext returns nil.
func withContext(ctx context.Context, call func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- call()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
