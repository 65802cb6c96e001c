package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"gratitude_card/internal/card"
	"gratitude_card/internal/metrics"
	"gratitude_card/internal/storage"
)

type RouterDeps struct {
	Sessions  *card.Sessions
	Log       storage.GratitudeLog
	Recipient card.Recipient
	Metrics   *metrics.Collector
	StaticDir string
	Logger    *zap.Logger

	// RequestTimeout bounds every request, including its store calls.
	RequestTimeout time.Duration
}

func NewRouter(deps RouterDeps) http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(Logger(deps.Logger))
	router.Use(Metrics(deps.Metrics))
	if deps.RequestTimeout > 0 {
		router.Use(chimiddleware.Timeout(deps.RequestTimeout))
	}

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, deps.Logger, http.StatusOK, map[string]string{"status": "healthy"})
	})
	router.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	if deps.StaticDir != "" {
		router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(deps.StaticDir))))
	}

	cardHandler := NewCardHandler(deps.Sessions, deps.Recipient, deps.Logger)
	router.Get("/", cardHandler.HandleCard)
	router.Post("/egg/crack", cardHandler.HandleCrack)
	router.Post("/egg/hatch", cardHandler.HandleHatch)
	router.Post("/egg/reset", cardHandler.HandleReset)
	router.Post("/quote/next", cardHandler.HandleNextQuote)
	router.Post("/quote/custom", cardHandler.HandleSaveQuote)
	router.Post("/quote/custom/clear", cardHandler.HandleClearQuote)

	router.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000"},
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}))

		api := NewAPIHandler(deps.Sessions, deps.Recipient, deps.Logger)
		r.Get("/card", api.HandleGetCard)
		r.Post("/crack", api.HandleCrack)
		r.Post("/hatch", api.HandleHatch)
		r.Post("/reset", api.HandleReset)
		r.Post("/quote/next", api.HandleNextQuote)
		r.Post("/quote/custom", api.HandleSaveQuote)
		r.Delete("/quote/custom", api.HandleClearQuote)

		r.Get("/gratitude", NewGratitudeHandler(deps.Log, deps.Logger).HandleGetEntries)
	})

	return router
}
