package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/peterbourgon/diskv/v3"
	"gratitude_card/internal/models"
)

var ErrInvalidSession = errors.New("invalid session id")

// OverrideStore keeps each visitor's custom quote on disk, one JSON file per
// session id.
type OverrideStore struct {
	d *diskv.Diskv
}

func NewOverrideStore(basePath string) *OverrideStore {
	return &OverrideStore{d: diskv.New(diskv.Options{
		BasePath:     basePath,
		Transform:    func(string) []string { return []string{} },
		CacheSizeMax: 256 * 1024,
	})}
}

// Load returns the saved override. A missing record is reported as
// (QuoteOverride{}, false, nil).
func (ovs *OverrideStore) Load(sessionID string) (models.QuoteOverride, bool, error) {
	op := "internal/storage/overrides.go Load"

	key, err := overrideKey(sessionID)
	if err != nil {
		return models.QuoteOverride{}, false, err
	}
	if !ovs.d.Has(key) {
		return models.QuoteOverride{}, false, nil
	}

	val, err := ovs.d.Read(key)
	if err != nil {
		return models.QuoteOverride{}, false, fmt.Errorf("Failure to read override in %s: %w", op, err)
	}

	var override models.QuoteOverride
	if err := json.Unmarshal(val, &override); err != nil {
		return models.QuoteOverride{}, false, fmt.Errorf("Failure to decode override in %s: %w", op, err)
	}

	return override, true, nil
}

func (ovs *OverrideStore) Save(sessionID string, override models.QuoteOverride) error {
	op := "internal/storage/overrides.go Save"

	key, err := overrideKey(sessionID)
	if err != nil {
		return err
	}

	data, err := json.Marshal(override)
	if err != nil {
		return fmt.Errorf("Failure to encode override in %s: %w", op, err)
	}

	if err := ovs.d.Write(key, data); err != nil {
		return fmt.Errorf("Failure to write override in %s: %w", op, err)
	}
	return nil
}

func (ovs *OverrideStore) Clear(sessionID string) error {
	op := "internal/storage/overrides.go Clear"

	key, err := overrideKey(sessionID)
	if err != nil {
		return err
	}

	if err := ovs.d.Erase(key); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("Failure to erase override in %s: %w", op, err)
	}
	return nil
}

// session ids are uuids; anything else could escape the base directory
func overrideKey(sessionID string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(sessionID))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidSession, sessionID)
	}
	return id.String() + ".json", nil
}
