package card

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gratitude_card/internal/models"
)

type memOverrides struct {
	saved   map[string]models.QuoteOverride
	loadErr error
}

func newMemOverrides() *memOverrides {
	return &memOverrides{saved: map[string]models.QuoteOverride{}}
}

func (mo *memOverrides) Load(id string) (models.QuoteOverride, bool, error) {
	if mo.loadErr != nil {
		return models.QuoteOverride{}, false, mo.loadErr
	}
	o, ok := mo.saved[id]
	return o, ok, nil
}

func (mo *memOverrides) Save(id string, o models.QuoteOverride) error {
	mo.saved[id] = o
	return nil
}

func (mo *memOverrides) Clear(id string) error {
	delete(mo.saved, id)
	return nil
}

func TestQuoteSelector_NextNeverRepeats(t *testing.T) {
	qs := NewQuoteSelector(DefaultQuotes, rand.New(rand.NewSource(1)), "s", nil)

	prev := qs.Index()
	seen := map[int]bool{prev: true}
	for i := 0; i < 1000; i++ {
		next := qs.Next()
		require.NotEqual(t, prev, next)
		require.GreaterOrEqual(t, next, 0)
		require.Less(t, next, len(DefaultQuotes))
		seen[next] = true
		prev = next
	}
	assert.Len(t, seen, len(DefaultQuotes), "every quote is reachable")
}

func TestQuoteSelector_TwoQuotesAlternate(t *testing.T) {
	quotes := []models.Quote{{Text: "a"}, {Text: "b"}}
	qs := NewQuoteSelector(quotes, rand.New(rand.NewSource(7)), "s", nil)

	first := qs.Index()
	assert.Equal(t, 1-first, qs.Next())
	assert.Equal(t, first, qs.Next())
}

func TestQuoteSelector_SingleQuoteStays(t *testing.T) {
	quotes := []models.Quote{{Text: "only", By: "me"}}
	qs := NewQuoteSelector(quotes, rand.New(rand.NewSource(1)), "s", nil)

	assert.Equal(t, 0, qs.Next())
	assert.Equal(t, "only", qs.Current().Text)
}

func TestQuoteSelector_Override(t *testing.T) {
	store := newMemOverrides()
	qs := NewQuoteSelector(DefaultQuotes, rand.New(rand.NewSource(3)), "s", store)

	require.NoError(t, qs.Save("  Steady hands.  ", "A friend"))
	assert.Equal(t, models.Quote{Text: "Steady hands.", By: "A friend"}, qs.Current())
	assert.Contains(t, store.saved, "s")

	qs.Next()
	assert.Equal(t, "Steady hands.", qs.Current().Text, "override wins over cycling")

	require.NoError(t, qs.Clear())
	assert.Equal(t, DefaultQuotes[qs.Index()], qs.Current())
	assert.NotContains(t, store.saved, "s")
}

func TestQuoteSelector_BlankOverrideFallsBack(t *testing.T) {
	store := newMemOverrides()
	qs := NewQuoteSelector(DefaultQuotes, rand.New(rand.NewSource(3)), "s", store)

	require.NoError(t, qs.Save("   ", "Someone"))
	assert.Equal(t, DefaultQuotes[qs.Index()], qs.Current())
	assert.NotContains(t, store.saved, "s")
}

func TestQuoteSelector_BlankAuthorKeepsDefault(t *testing.T) {
	qs := NewQuoteSelector(DefaultQuotes, rand.New(rand.NewSource(3)), "s", nil)

	require.NoError(t, qs.Save("Mine", " "))
	assert.Equal(t, DefaultQuotes[qs.Index()].By, qs.Current().By)
}

func TestQuoteSelector_LoadsSavedOverride(t *testing.T) {
	store := newMemOverrides()
	store.saved["s"] = models.QuoteOverride{Text: "Remembered", Author: "Me"}

	qs := NewQuoteSelector(DefaultQuotes, rand.New(rand.NewSource(3)), "s", store)

	assert.Equal(t, "Remembered", qs.Current().Text)
}

func TestQuoteSelector_UnreadableOverrideIsIgnored(t *testing.T) {
	store := newMemOverrides()
	store.loadErr = errors.New("disk gone")

	qs := NewQuoteSelector(DefaultQuotes, rand.New(rand.NewSource(3)), "s", store)

	assert.Equal(t, DefaultQuotes[qs.Index()], qs.Current())
}

func TestLoadQuotes(t *testing.T) {
	t.Run("empty path uses defaults", func(t *testing.T) {
		quotes, err := LoadQuotes("")
		require.NoError(t, err)
		assert.Equal(t, DefaultQuotes, quotes)
	})

	t.Run("yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "quotes.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
- text: "Joy can grow even in the toughest shifts."
  by: "Unknown"
- text: "   "
  by: "dropped"
- text: "Att leva är att förändras."
  by: "Selma Lagerlöf"
`), 0600))

		quotes, err := LoadQuotes(path)
		require.NoError(t, err)
		require.Len(t, quotes, 2)
		assert.Equal(t, "Selma Lagerlöf", quotes[1].By)
	})

	t.Run("no usable quotes", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "quotes.yaml")
		require.NoError(t, os.WriteFile(path, []byte("[]"), 0600))

		_, err := LoadQuotes(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadQuotes(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestQuoteDir(t *testing.T) {
	assert.Equal(t, "rtl", DefaultQuotes[1].Dir())
	assert.Equal(t, "ltr", DefaultQuotes[0].Dir())
	assert.Equal(t, "ltr", DefaultQuotes[2].Dir())
}
