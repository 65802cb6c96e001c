package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gratitude_card/internal/card"
	"gratitude_card/internal/models"
)

const (
	maxGratitudeLen = 500
	maxQuoteLen     = 500
	maxAuthorLen    = 120
)

type hatchRequest struct {
	Text string `json:"text" validate:"max=500"`
}

type quoteRequest struct {
	Text   string `json:"text" validate:"max=500"`
	Author string `json:"author" validate:"max=120"`
}

type hatchResponse struct {
	Hatched bool                   `json:"hatched"`
	Entry   *models.GratitudeEntry `json:"entry,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Card    card.CardView          `json:"card"`
}

// APIHandler exposes the card as JSON for script clients.
type APIHandler struct {
	sessions  *card.Sessions
	recipient card.Recipient
	validate  *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

func NewAPIHandler(sessions *card.Sessions, recipient card.Recipient, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		sessions:  sessions,
		recipient: recipient,
		validate:  newValidator(),
		logger:    logger,
		now:       time.Now,
	}
}

func (ah *APIHandler) HandleGetCard(w http.ResponseWriter, r *http.Request) {
	ah.run(w, r, "handlers.api.HandleGetCard", func(c *card.Card) error { return nil })
}

func (ah *APIHandler) HandleCrack(w http.ResponseWriter, r *http.Request) {
	ah.run(w, r, "handlers.api.HandleCrack", func(c *card.Card) error {
		c.Flow.Crack()
		return nil
	})
}

func (ah *APIHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	ah.run(w, r, "handlers.api.HandleReset", func(c *card.Card) error {
		c.Flow.Reset()
		return nil
	})
}

func (ah *APIHandler) HandleNextQuote(w http.ResponseWriter, r *http.Request) {
	ah.run(w, r, "handlers.api.HandleNextQuote", func(c *card.Card) error {
		c.Quotes.Next()
		return nil
	})
}

func (ah *APIHandler) HandleSaveQuote(w http.ResponseWriter, r *http.Request) {
	op := "handlers.api.HandleSaveQuote"

	var req quoteRequest
	if !ah.decode(w, r, op, &req) {
		return
	}

	ah.run(w, r, op, func(c *card.Card) error {
		return c.Quotes.Save(req.Text, req.Author)
	})
}

func (ah *APIHandler) HandleClearQuote(w http.ResponseWriter, r *http.Request) {
	ah.run(w, r, "handlers.api.HandleClearQuote", func(c *card.Card) error {
		return c.Quotes.Clear()
	})
}

// HandleHatch answers 200 for a hatch and for blank text (a no-op), 409 when
// the egg is not cracked, 503 without a store and 502 when the write fails.
func (ah *APIHandler) HandleHatch(w http.ResponseWriter, r *http.Request) {
	op := "handlers.api.HandleHatch"

	var req hatchRequest
	if !ah.decode(w, r, op, &req) {
		return
	}

	var resp hatchResponse
	status := http.StatusOK

	id, err := ah.sessions.Do(r.Context(), sessionID(r), func(c *card.Card) error {
		c.Flow.Type(req.Text)
		entry, err := c.Flow.Hatch(r.Context())

		switch {
		case err == nil:
			resp.Hatched = true
			resp.Entry = &entry
		case errors.Is(err, card.ErrNothingToHatch):
		case errors.Is(err, card.ErrNotCracked):
			status = http.StatusConflict
			resp.Error = "Crack the egg first."
		case errors.Is(err, card.ErrNoStore):
			status = http.StatusServiceUnavailable
			resp.Error = c.Flow.Notice()
		default:
			ah.logger.Info("hatch refused", zap.String("op", op), zap.Error(err))
			status = http.StatusBadGateway
			resp.Error = c.Flow.Notice()
		}

		resp.Card = c.View(ah.recipient, ah.now())
		return nil
	})
	setSessionCookie(w, r, id)

	if err != nil {
		ah.logger.Error("card event failed", zap.String("op", op), zap.Error(err))
		writeJSON(w, ah.logger, http.StatusInternalServerError, map[string]string{"error": "Internal error"})
		return
	}

	writeJSON(w, ah.logger, status, resp)
}

func (ah *APIHandler) run(w http.ResponseWriter, r *http.Request, op string, fn func(c *card.Card) error) {
	var view card.CardView
	id, err := ah.sessions.Do(r.Context(), sessionID(r), func(c *card.Card) error {
		if err := fn(c); err != nil {
			return err
		}
		view = c.View(ah.recipient, ah.now())
		return nil
	})
	setSessionCookie(w, r, id)

	if err != nil {
		ah.logger.Error("card event failed", zap.String("op", op), zap.Error(err))
		writeJSON(w, ah.logger, http.StatusInternalServerError, map[string]string{"error": "Internal error"})
		return
	}

	writeJSON(w, ah.logger, http.StatusOK, view)
}

func (ah *APIHandler) decode(w http.ResponseWriter, r *http.Request, op string, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 16*1024)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		ah.logger.Debug("decode error", zap.String("op", op), zap.Error(err))
		writeJSON(w, ah.logger, http.StatusBadRequest, map[string]string{"error": "Couldnt decode json. Wrong request."})
		return false
	}

	if err := ah.validate.Struct(dst); err != nil {
		writeJSON(w, ah.logger, http.StatusUnprocessableEntity, map[string]string{"error": validationMessage(err)})
		return false
	}
	return true
}

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Field() + " must be at most " + verrs[0].Param() + " characters"
	}
	return "invalid request"
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Debug("failed to encode response", zap.Error(err))
	}
}
