package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"
	"gratitude_card/internal/storage"
)

const (
	defaultEntriesLimit = 12
	maxEntriesLimit     = 50
)

// GratitudeHandler reads the shared gratitude log directly.
type GratitudeHandler struct {
	log    storage.GratitudeLog
	logger *zap.Logger
}

func NewGratitudeHandler(log storage.GratitudeLog, logger *zap.Logger) *GratitudeHandler {
	return &GratitudeHandler{log: log, logger: logger}
}

func (gh *GratitudeHandler) HandleGetEntries(w http.ResponseWriter, r *http.Request) {
	op := "internal/handlers/gratitude.go HandleGetEntries"

	limit := defaultEntriesLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 1 || l > maxEntriesLimit {
			writeJSON(w, gh.logger, http.StatusBadRequest, map[string]string{
				"error": "limit must be a number between 1 and 50",
			})
			return
		}
		limit = l
	}

	entries, err := gh.log.Recent(r.Context(), limit)
	if err != nil {
		gh.logger.Warn("Couldnt get entries", zap.String("op", op), zap.Error(err))
		writeJSON(w, gh.logger, http.StatusBadGateway, map[string]string{"error": "Couldnt get entries."})
		return
	}

	writeJSON(w, gh.logger, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   entries,
	})
}
