package card

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gratitude_card/internal/models"
	"gratitude_card/internal/storage"
)

// Card is one visitor's card. Its fields are only touched inside Sessions.Do.
type Card struct {
	mu       sync.Mutex
	ID       string
	Flow     *Flow
	Quotes   *QuoteSelector
	lastSeen time.Time
}

// CardView is everything needed to render a card.
type CardView struct {
	Header   Header               `json:"header"`
	Quote    models.Quote         `json:"quote"`
	QuoteDir string               `json:"quote_dir"`
	Override models.QuoteOverride `json:"override"`
	Flow     FlowView             `json:"flow"`
}

func (c *Card) View(recipient Recipient, now time.Time) CardView {
	q := c.Quotes.Current()
	return CardView{
		Header:   recipient.Header(now),
		Quote:    q,
		QuoteDir: q.Dir(),
		Override: c.Quotes.Override(),
		Flow:     c.Flow.View(),
	}
}

type SessionsConfig struct {
	Flow   FlowConfig
	Quotes []models.Quote
	TTL    time.Duration
	// MaxCards bounds the live cards; the least recently seen card makes
	// room for a new one.
	MaxCards int
}

// Sessions hands out one Card per visitor and runs that visitor's events one
// at a time.
type Sessions struct {
	log       storage.GratitudeLog
	overrides OverrideStore
	cfg       SessionsConfig
	logger    *zap.Logger
	recorder  HatchRecorder

	now     func() time.Time
	newRand func() *rand.Rand

	mu        sync.Mutex
	cards     map[string]*Card
	lastSweep time.Time
}

func NewSessions(log storage.GratitudeLog, overrides OverrideStore, cfg SessionsConfig, logger *zap.Logger, recorder HatchRecorder) *Sessions {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.MaxCards <= 0 {
		cfg.MaxCards = 10000
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Sessions{
		log:       log,
		overrides: overrides,
		cfg:       cfg,
		logger:    logger,
		recorder:  recorder,
		now:       time.Now,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
		cards: make(map[string]*Card),
	}
}

// Do runs fn against the card for id, creating a card (and a new id) when id
// is unknown. A new card loads its history before fn runs. It returns the id
// the caller should keep.
func (s *Sessions) Do(ctx context.Context, id string, fn func(c *Card) error) (string, error) {
	c := s.acquire(id)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Flow.Loading() {
		c.Flow.Load(ctx)
	}

	return c.ID, fn(c)
}

// Len is the number of live cards.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cards)
}

func (s *Sessions) acquire(id string) *Card {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	if c, ok := s.cards[id]; ok {
		c.lastSeen = now
		return c
	}

	// keep a well-formed id the visitor already has, so their saved quote
	// survives a restart
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}

	if len(s.cards) >= s.cfg.MaxCards {
		s.evictOldest()
	}

	c := &Card{
		ID:       id,
		Flow:     NewFlow(s.log, s.cfg.Flow, s.logger, s.recorder),
		Quotes:   NewQuoteSelector(s.cfg.Quotes, s.newRand(), id, s.overrides),
		lastSeen: now,
	}
	s.cards[id] = c

	s.logger.Debug("card session created", zap.String("session", id))
	return c
}

// sweep drops cards idle for longer than the TTL. It runs at most once a
// minute.
func (s *Sessions) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < time.Minute {
		return
	}
	s.lastSweep = now

	for id, c := range s.cards {
		if now.Sub(c.lastSeen) > s.cfg.TTL {
			delete(s.cards, id)
		}
	}
}

func (s *Sessions) evictOldest() {
	var oldestID string
	var oldest time.Time
	for id, c := range s.cards {
		if oldestID == "" || c.lastSeen.Before(oldest) {
			oldestID, oldest = id, c.lastSeen
		}
	}
	if oldestID != "" {
		delete(s.cards, oldestID)
		s.logger.Debug("card session evicted", zap.String("session", oldestID))
	}
}
