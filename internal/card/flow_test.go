package card

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gratitude_card/internal/models"
	"gratitude_card/internal/storage"
)

// stubLog is a scriptable gratitude log.
type stubLog struct {
	entries   []models.GratitudeEntry
	insertErr error
	recentErr error
	inserts   int
	recents   int
	clock     time.Time
}

func (sl *stubLog) Insert(ctx context.Context, text string) (models.GratitudeEntry, error) {
	sl.inserts++
	if sl.insertErr != nil {
		return models.GratitudeEntry{}, sl.insertErr
	}
	sl.clock = sl.clock.Add(time.Minute)
	e := models.GratitudeEntry{ID: int64(len(sl.entries) + 1), Text: text, CreatedAt: sl.clock}
	sl.entries = append(sl.entries, e)
	return e, nil
}

func (sl *stubLog) Recent(ctx context.Context, limit int) ([]models.GratitudeEntry, error) {
	sl.recents++
	if sl.recentErr != nil {
		return nil, sl.recentErr
	}
	// deliberately oldest first; the flow must order them
	out := append([]models.GratitudeEntry(nil), sl.entries...)
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type countingRecorder map[string]int

func (cr countingRecorder) RecordHatch(outcome string) { cr[outcome]++ }

func newTestFlow(log storage.GratitudeLog, displayCap int) (*Flow, countingRecorder) {
	rec := countingRecorder{}
	return NewFlow(log, FlowConfig{PageSize: 50, DisplayCap: displayCap}, nil, rec), rec
}

func TestFlow_CrackOnlyFromEgg(t *testing.T) {
	f, _ := newTestFlow(&stubLog{}, 12)
	assert.Equal(t, StageEgg, f.Stage())

	assert.True(t, f.Crack())
	assert.Equal(t, StageCracked, f.Stage())

	assert.False(t, f.Crack())
	assert.Equal(t, StageCracked, f.Stage())

	f.Type("warm coffee")
	_, err := f.Hatch(context.Background())
	require.NoError(t, err)
	require.Equal(t, StageChick, f.Stage())

	assert.False(t, f.Crack())
	assert.Equal(t, StageChick, f.Stage())
}

func TestFlow_CrackRequestsFocusOnce(t *testing.T) {
	f, _ := newTestFlow(&stubLog{}, 12)

	assert.False(t, f.View().FocusInput)
	f.Crack()
	assert.True(t, f.View().FocusInput)
	assert.False(t, f.View().FocusInput)
}

func TestFlow_HatchScenario(t *testing.T) {
	log := &stubLog{}
	f, rec := newTestFlow(log, 12)
	f.Load(context.Background())

	f.Crack()
	f.Type("warm coffee")
	entry, err := f.Hatch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "warm coffee", entry.Text)
	assert.Equal(t, StageChick, f.Stage())
	assert.Empty(t, f.Pending())

	view := f.View()
	require.NotEmpty(t, view.History)
	assert.Equal(t, "warm coffee", view.History[0].Text)
	assert.Equal(t, 1, rec["hatched"])
	assert.Equal(t, 2, log.recents, "initial load plus the refresh after hatching")
}

func TestFlow_HatchTrimsText(t *testing.T) {
	log := &stubLog{}
	f, _ := newTestFlow(log, 12)
	f.Crack()
	f.Type("   a kind nurse \t")

	entry, err := f.Hatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a kind nurse", entry.Text)
	assert.Equal(t, "a kind nurse", log.entries[0].Text)
}

func TestFlow_HatchBlankIsNoop(t *testing.T) {
	for _, text := range []string{"", " ", "   ", "\t\n "} {
		t.Run(fmt.Sprintf("%q", text), func(t *testing.T) {
			log := &stubLog{}
			f, rec := newTestFlow(log, 12)
			f.Load(context.Background())
			f.Crack()
			f.Type(text)

			_, err := f.Hatch(context.Background())

			assert.ErrorIs(t, err, ErrNothingToHatch)
			assert.Equal(t, StageCracked, f.Stage())
			assert.Equal(t, text, f.Pending())
			assert.Empty(t, f.View().History)
			assert.Zero(t, log.inserts)
			assert.Equal(t, 1, rec["empty"])
		})
	}
}

func TestFlow_HatchRequiresCrackedEgg(t *testing.T) {
	log := &stubLog{}
	f, _ := newTestFlow(log, 12)
	f.Type("warm coffee")

	_, err := f.Hatch(context.Background())

	assert.ErrorIs(t, err, ErrNotCracked)
	assert.Equal(t, StageEgg, f.Stage())
	assert.Zero(t, log.inserts)
}

func TestFlow_TypeOutsideCrackedIsDropped(t *testing.T) {
	log := &stubLog{}
	f, _ := newTestFlow(log, 12)

	assert.False(t, f.Type("early"))
	f.Crack()
	assert.Empty(t, f.Pending(), "text sent before the crack does not pre-fill the input")

	require.True(t, f.Type("a"))
	_, err := f.Hatch(context.Background())
	require.NoError(t, err)

	assert.False(t, f.Type("b"))
	_, err = f.Hatch(context.Background())

	assert.ErrorIs(t, err, ErrNotCracked)
	assert.Equal(t, StageChick, f.Stage())
	assert.Empty(t, f.Pending())
	assert.Equal(t, 1, log.inserts)
}

func TestFlow_HatchWriteFailureKeepsState(t *testing.T) {
	boom := errors.New("insert rejected")
	log := &stubLog{insertErr: boom}
	f, rec := newTestFlow(log, 12)
	f.Load(context.Background())
	f.Crack()
	f.Type("warm coffee")

	_, err := f.Hatch(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StageCracked, f.Stage())
	assert.Equal(t, "warm coffee", f.Pending())
	assert.Equal(t, NoticeSaveFailed, f.Notice())
	assert.Equal(t, 1, rec["failed"])
	assert.Equal(t, 1, log.recents, "no refresh after a failed write")

	// the user retries by hatching again
	log.insertErr = nil
	_, err = f.Hatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StageChick, f.Stage())
	assert.Empty(t, f.Notice())
}

func TestFlow_HatchWithoutStore(t *testing.T) {
	f, rec := newTestFlow(nil, 12)
	f.Load(context.Background())
	f.Crack()
	f.Type("warm coffee")

	_, err := f.Hatch(context.Background())

	assert.ErrorIs(t, err, ErrNoStore)
	assert.Equal(t, StageCracked, f.Stage())
	assert.Equal(t, NoticeNoStore, f.Notice())
	assert.Equal(t, "warm coffee", f.Pending())
	assert.Equal(t, 1, rec["no_store"])
}

func TestFlow_RefreshFailureEmptiesHistory(t *testing.T) {
	log := &stubLog{}
	f, _ := newTestFlow(log, 12)
	f.Load(context.Background())
	f.Crack()
	f.Type("first")
	_, err := f.Hatch(context.Background())
	require.NoError(t, err)
	require.Len(t, f.View().History, 1)

	f.Reset()
	f.Crack()
	f.Type("second")
	log.recentErr = errors.New("select rejected")
	_, err = f.Hatch(context.Background())

	require.NoError(t, err, "the write succeeded")
	assert.Equal(t, StageChick, f.Stage())
	assert.Empty(t, f.View().History)
}

func TestFlow_LoadFailureDegradesToEmpty(t *testing.T) {
	log := &stubLog{recentErr: errors.New("select rejected")}
	f, _ := newTestFlow(log, 12)
	assert.True(t, f.Loading())
	assert.True(t, f.View().Loading)
	assert.False(t, f.View().Empty())

	f.Load(context.Background())

	view := f.View()
	assert.False(t, view.Loading)
	assert.True(t, view.Empty())
	assert.Empty(t, view.Notice)
}

func TestFlow_ResetFromAnyStage(t *testing.T) {
	log := &stubLog{}
	f, _ := newTestFlow(log, 12)

	f.Type("draft")
	f.Reset()
	assert.Equal(t, StageEgg, f.Stage())
	assert.Empty(t, f.Pending())

	f.Crack()
	f.Type("draft")
	f.Reset()
	assert.Equal(t, StageEgg, f.Stage())
	assert.Empty(t, f.Pending())

	f.Crack()
	f.Type("kept")
	_, err := f.Hatch(context.Background())
	require.NoError(t, err)
	f.Reset()
	assert.Equal(t, StageEgg, f.Stage())
	assert.Len(t, f.View().History, 1, "reset never removes entries")
	assert.Len(t, log.entries, 1)
}

func TestFlow_ResetClearsNotice(t *testing.T) {
	f, _ := newTestFlow(&stubLog{insertErr: errors.New("down")}, 12)
	f.Crack()
	f.Type("warm coffee")
	_, _ = f.Hatch(context.Background())
	require.NotEmpty(t, f.Notice())

	f.Reset()
	assert.Empty(t, f.Notice())
}

func TestFlow_HistoryOrderedAndCapped(t *testing.T) {
	for _, displayCap := range []int{12, 6} {
		t.Run(fmt.Sprintf("cap %d", displayCap), func(t *testing.T) {
			log := &stubLog{}
			for i := 0; i < 30; i++ {
				_, err := log.Insert(context.Background(), fmt.Sprintf("note %d", i))
				require.NoError(t, err)
			}
			f, _ := newTestFlow(log, displayCap)
			f.Load(context.Background())

			view := f.View()
			require.Len(t, view.History, displayCap)
			assert.Equal(t, "note 29", view.History[0].Text)
			for i := 1; i < len(view.History); i++ {
				assert.True(t, view.History[i-1].CreatedAt.After(view.History[i].CreatedAt))
			}
			assert.Len(t, log.entries, 30, "the store is never truncated")
		})
	}
}

func TestFlow_ViewDoesNotAliasHistory(t *testing.T) {
	log := &stubLog{}
	_, _ = log.Insert(context.Background(), "original")
	f, _ := newTestFlow(log, 12)
	f.Load(context.Background())

	view := f.View()
	view.History[0].Text = "changed"

	assert.Equal(t, "original", f.View().History[0].Text)
}
