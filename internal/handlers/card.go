package handlers

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gratitude_card/internal/card"
)

//go:embed templates/card.html
var templateFS embed.FS

const sessionCookie = "gratitude_session"

var cardTemplate = template.Must(template.New("card.html").Funcs(template.FuncMap{
	"formatTime": func(t time.Time) string {
		return t.Local().Format("Jan 02, 2006 15:04")
	},
	"stageGlyph": func(s card.Stage) string {
		switch s {
		case card.StageCracked:
			return "🥚💥"
		case card.StageChick:
			return "🐥"
		default:
			return "🥚"
		}
	},
}).ParseFS(templateFS, "templates/card.html"))

// CardHandler serves the server-rendered card. Every form post redirects
// back to the card.
type CardHandler struct {
	sessions  *card.Sessions
	recipient card.Recipient
	logger    *zap.Logger
	now       func() time.Time
}

func NewCardHandler(sessions *card.Sessions, recipient card.Recipient, logger *zap.Logger) *CardHandler {
	return &CardHandler{
		sessions:  sessions,
		recipient: recipient,
		logger:    logger,
		now:       time.Now,
	}
}

type cardPage struct {
	Recipient string
	Card      card.CardView
}

func (ch *CardHandler) HandleCard(w http.ResponseWriter, r *http.Request) {
	op := "handlers.HandleCard"

	var view card.CardView
	ok := ch.withCard(w, r, op, func(c *card.Card) error {
		view = c.View(ch.recipient, ch.now())
		return nil
	})
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := cardTemplate.Execute(&buf, cardPage{Recipient: ch.recipient.Name, Card: view}); err != nil {
		ch.logger.Error("failed to render card", zap.String("op", op), zap.Error(err))
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		ch.logger.Debug("failed to write card", zap.String("op", op), zap.Error(err))
	}
}

func (ch *CardHandler) HandleCrack(w http.ResponseWriter, r *http.Request) {
	ch.act(w, r, "handlers.HandleCrack", func(ctx context.Context, c *card.Card) error {
		c.Flow.Crack()
		return nil
	})
}

func (ch *CardHandler) HandleHatch(w http.ResponseWriter, r *http.Request) {
	op := "handlers.HandleHatch"

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	text := r.PostFormValue("gratitude")
	if utf8.RuneCountInString(text) > maxGratitudeLen {
		http.Error(w, "Gratitude is too long", http.StatusBadRequest)
		return
	}

	ch.act(w, r, op, func(ctx context.Context, c *card.Card) error {
		c.Flow.Type(text)
		_, err := c.Flow.Hatch(ctx)
		// the flow keeps its own notice; the redirect shows it
		if err != nil && !errors.Is(err, card.ErrNothingToHatch) && !errors.Is(err, card.ErrNotCracked) {
			ch.logger.Info("hatch refused", zap.String("op", op), zap.Error(err))
		}
		return nil
	})
}

func (ch *CardHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ch.act(w, r, "handlers.HandleReset", func(ctx context.Context, c *card.Card) error {
		c.Flow.Reset()
		return nil
	})
}

func (ch *CardHandler) HandleNextQuote(w http.ResponseWriter, r *http.Request) {
	ch.act(w, r, "handlers.HandleNextQuote", func(ctx context.Context, c *card.Card) error {
		c.Quotes.Next()
		return nil
	})
}

func (ch *CardHandler) HandleSaveQuote(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	text, author := r.PostFormValue("text"), r.PostFormValue("author")
	if utf8.RuneCountInString(text) > maxQuoteLen || utf8.RuneCountInString(author) > maxAuthorLen {
		http.Error(w, "Quote is too long", http.StatusBadRequest)
		return
	}

	ch.act(w, r, "handlers.HandleSaveQuote", func(ctx context.Context, c *card.Card) error {
		return c.Quotes.Save(text, author)
	})
}

func (ch *CardHandler) HandleClearQuote(w http.ResponseWriter, r *http.Request) {
	ch.act(w, r, "handlers.HandleClearQuote", func(ctx context.Context, c *card.Card) error {
		return c.Quotes.Clear()
	})
}

// act runs one event against the visitor's card and redirects to the card.
func (ch *CardHandler) act(w http.ResponseWriter, r *http.Request, op string, fn func(ctx context.Context, c *card.Card) error) {
	ok := ch.withCard(w, r, op, func(c *card.Card) error {
		return fn(r.Context(), c)
	})
	if !ok {
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// withCard runs fn on the visitor's card and refreshes the session cookie.
// It writes the error response itself and reports whether fn succeeded.
func (ch *CardHandler) withCard(w http.ResponseWriter, r *http.Request, op string, fn func(c *card.Card) error) bool {
	id, err := ch.sessions.Do(r.Context(), sessionID(r), fn)
	setSessionCookie(w, r, id)

	if err != nil {
		ch.logger.Error("card event failed", zap.String("op", op), zap.Error(err))
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return false
	}
	return true
}

func sessionID(r *http.Request) string {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, id string) {
	if id == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
