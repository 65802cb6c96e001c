package card

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"gratitude_card/internal/models"
)

var DefaultQuotes = []models.Quote{
	{Text: "When we are no longer able to change a situation, we are challenged to change ourselves.", By: "Viktor E. Frankl"},
	{Text: "إِنَّ مَعَ العُسْرِ يُسْرًا.", By: "علي بن أبي طالب"},
	{Text: "Allt stort som skedde i världen skedde först i någon människas fantasi.", By: "Astrid Lindgren"},
	{Text: "In the middle of difficulty lies opportunity.", By: "Albert Einstein"},
	{Text: "كلُّ ما في الحياةِ عظيمٌ يبدأُ صغيرًا.", By: "جبران خليل جبران"},
	{Text: "Vägen till helighet går genom vardagen.", By: "Dag Hammarskjöld"},
	{Text: "The wound is the place where the Light enters you.", By: "Jalal al-Din Rumi"},
	{Text: "إنَّ اللهَ إذا أحبَّ عبدًا ابتلاه.", By: "الحسن البصري"},
	{Text: "Att leva är att förändras.", By: "Selma Lagerlöf"},
	{Text: "Nothing in life is to be feared, it is only to be understood.", By: "Marie Curie"},
}

// LoadQuotes reads a YAML list of {text, by} records. An empty path yields
// DefaultQuotes.
func LoadQuotes(path string) ([]models.Quote, error) {
	if path == "" {
		return DefaultQuotes, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read quotes file: %w", err)
	}

	var quotes []models.Quote
	if err := yaml.Unmarshal(data, &quotes); err != nil {
		return nil, fmt.Errorf("failed to parse quotes file %s: %w", path, err)
	}

	kept := quotes[:0]
	for _, q := range quotes {
		if strings.TrimSpace(q.Text) != "" {
			kept = append(kept, q)
		}
	}
	if len(kept) == 0 {
		return nil, errors.New("quotes file has no quotes")
	}

	return kept, nil
}

// OverrideStore persists a visitor's custom quote.
type OverrideStore interface {
	Load(sessionID string) (models.QuoteOverride, bool, error)
	Save(sessionID string, override models.QuoteOverride) error
	Clear(sessionID string) error
}

// QuoteSelector picks the quote shown on one visitor's card.
type QuoteSelector struct {
	quotes   []models.Quote
	index    int
	rnd      *rand.Rand
	override models.QuoteOverride

	sessionID string
	store     OverrideStore
}

// NewQuoteSelector starts at a random quote. store may be nil, which disables
// custom quotes being remembered across restarts.
func NewQuoteSelector(quotes []models.Quote, rnd *rand.Rand, sessionID string, store OverrideStore) *QuoteSelector {
	if len(quotes) == 0 {
		quotes = DefaultQuotes
	}

	qs := &QuoteSelector{
		quotes:    quotes,
		index:     rnd.Intn(len(quotes)),
		rnd:       rnd,
		sessionID: sessionID,
		store:     store,
	}

	// an unreadable override is treated as no override
	if store != nil {
		if o, found, err := store.Load(sessionID); err == nil && found {
			qs.override = o
		}
	}

	return qs
}

func (qs *QuoteSelector) Index() int {
	return qs.index
}

// Next moves to a different random quote. It draws from the other n-1 slots,
// so it never lands on the current index.
func (qs *QuoteSelector) Next() int {
	n := len(qs.quotes)
	if n <= 1 {
		return qs.index
	}

	next := qs.rnd.Intn(n - 1)
	if next >= qs.index {
		next++
	}
	qs.index = next
	return next
}

// Current returns the custom quote when one is set and the indexed quote
// otherwise. A custom quote without an author keeps the default author.
func (qs *QuoteSelector) Current() models.Quote {
	def := qs.quotes[qs.index]
	if qs.override.IsBlank() {
		return def
	}

	q := models.Quote{Text: strings.TrimSpace(qs.override.Text), By: def.By}
	if author := strings.TrimSpace(qs.override.Author); author != "" {
		q.By = author
	}
	return q
}

func (qs *QuoteSelector) Override() models.QuoteOverride {
	return qs.override
}

// Save sets the custom quote. A blank text behaves like Clear.
func (qs *QuoteSelector) Save(text, author string) error {
	o := models.QuoteOverride{Text: text, Author: author}
	if o.IsBlank() {
		return qs.Clear()
	}

	qs.override = o
	if qs.store == nil {
		return nil
	}
	if err := qs.store.Save(qs.sessionID, o); err != nil {
		return fmt.Errorf("save custom quote: %w", err)
	}
	return nil
}

func (qs *QuoteSelector) Clear() error {
	qs.override = models.QuoteOverride{}
	if qs.store == nil {
		return nil
	}
	if err := qs.store.Clear(qs.sessionID); err != nil {
		return fmt.Errorf("clear custom quote: %w", err)
	}
	return nil
}
