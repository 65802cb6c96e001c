// Package card holds the state of one visitor's greeting card: the gratitude
// egg, the quote widget and the header line.
package card

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gratitude_card/internal/models"
	"gratitude_card/internal/storage"
)

type Stage string

const (
	StageEgg     Stage = "egg"
	StageCracked Stage = "cracked"
	StageChick   Stage = "chick"
)

const (
	NoticeNoStore    = "Database is not connected yet. Please try again later."
	NoticeSaveFailed = "Could not save your gratitude. Please try again."
)

var (
	ErrNotCracked     = errors.New("the egg has not been cracked")
	ErrNothingToHatch = errors.New("nothing to hatch")
	ErrNoStore        = errors.New("no gratitude log configured")
)

// HatchRecorder is told the outcome of every hatch attempt.
type HatchRecorder interface {
	RecordHatch(outcome string)
}

type FlowConfig struct {
	PageSize   int
	DisplayCap int
}

// Flow is the egg -> cracked -> chick state machine. It is not safe for
// concurrent use; Sessions serializes access per visitor.
type Flow struct {
	log      storage.GratitudeLog
	cfg      FlowConfig
	logger   *zap.Logger
	recorder HatchRecorder

	stage        Stage
	pending      string
	notice       string
	focusPending bool

	loading bool
	history []models.GratitudeEntry
}

// FlowView is a snapshot of the flow for rendering.
type FlowView struct {
	Stage      Stage                   `json:"stage"`
	Pending    string                  `json:"pending"`
	Notice     string                  `json:"notice,omitempty"`
	FocusInput bool                    `json:"focus_input"`
	Loading    bool                    `json:"loading"`
	History    []models.GratitudeEntry `json:"history"`
}

func (v FlowView) Empty() bool {
	return !v.Loading && len(v.History) == 0
}

// NewFlow creates a flow in the egg stage. log may be nil, in which case
// hatching reports NoticeNoStore.
func NewFlow(log storage.GratitudeLog, cfg FlowConfig, logger *zap.Logger, recorder HatchRecorder) *Flow {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	if cfg.DisplayCap <= 0 {
		cfg.DisplayCap = 12
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Flow{
		log:      log,
		cfg:      cfg,
		logger:   logger,
		recorder: recorder,
		stage:    StageEgg,
		loading:  true,
		history:  []models.GratitudeEntry{},
	}
}

func (f *Flow) Stage() Stage {
	return f.stage
}

func (f *Flow) Pending() string {
	return f.pending
}

func (f *Flow) Notice() string {
	return f.notice
}

func (f *Flow) Loading() bool {
	return f.loading
}

// Load fetches the initial history. A failed fetch leaves the history empty.
func (f *Flow) Load(ctx context.Context) {
	f.history = f.fetch(ctx)
	f.loading = false
}

// Crack moves egg -> cracked and asks the next view to focus the input. It
// reports whether the stage changed.
func (f *Flow) Crack() bool {
	if f.stage != StageEgg {
		return false
	}
	f.stage = StageCracked
	f.focusPending = true
	return true
}

// Type sets the pending text. The input only exists while the egg is
// cracked, so text typed in any other stage is dropped and Type reports false.
func (f *Flow) Type(text string) bool {
	if f.stage != StageCracked {
		return false
	}
	f.pending = text
	return true
}

// Hatch saves the pending text and moves cracked -> chick. On any error the
// stage and the pending text are left as they were.
func (f *Flow) Hatch(ctx context.Context) (models.GratitudeEntry, error) {
	if f.stage != StageCracked {
		return models.GratitudeEntry{}, ErrNotCracked
	}

	trimmed := strings.TrimSpace(f.pending)
	if trimmed == "" {
		f.record("empty")
		return models.GratitudeEntry{}, ErrNothingToHatch
	}

	if f.log == nil {
		f.notice = NoticeNoStore
		f.record("no_store")
		return models.GratitudeEntry{}, ErrNoStore
	}

	entry, err := f.log.Insert(ctx, trimmed)
	if err != nil {
		f.notice = NoticeSaveFailed
		f.record("failed")
		f.logger.Warn("failed to save gratitude", zap.String("op", "card.Flow.Hatch"), zap.Error(err))
		return models.GratitudeEntry{}, fmt.Errorf("save gratitude: %w", err)
	}

	f.history = f.fetch(ctx)
	f.loading = false
	f.pending = ""
	f.notice = ""
	f.stage = StageChick
	f.record("hatched")

	return entry, nil
}

// Reset returns to the egg stage. Saved entries are kept.
func (f *Flow) Reset() {
	f.stage = StageEgg
	f.pending = ""
	f.notice = ""
	f.focusPending = false
}

// View snapshots the flow. The focus request raised by Crack is consumed by
// the first view taken after it.
func (f *Flow) View() FlowView {
	shown := f.history
	if len(shown) > f.cfg.DisplayCap {
		shown = shown[:f.cfg.DisplayCap]
	}

	v := FlowView{
		Stage:      f.stage,
		Pending:    f.pending,
		Notice:     f.notice,
		FocusInput: f.focusPending && f.stage == StageCracked,
		Loading:    f.loading,
		History:    append([]models.GratitudeEntry(nil), shown...),
	}
	if v.History == nil {
		v.History = []models.GratitudeEntry{}
	}

	f.focusPending = false
	return v
}

func (f *Flow) fetch(ctx context.Context) []models.GratitudeEntry {
	if f.log == nil {
		return []models.GratitudeEntry{}
	}

	entries, err := f.log.Recent(ctx, f.cfg.PageSize)
	if err != nil {
		f.logger.Warn("failed to load gratitude history", zap.String("op", "card.Flow.fetch"), zap.Error(err))
		return []models.GratitudeEntry{}
	}
	if entries == nil {
		return []models.GratitudeEntry{}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries
}

func (f *Flow) record(outcome string) {
	if f.recorder != nil {
		f.recorder.RecordHatch(outcome)
	}
}
