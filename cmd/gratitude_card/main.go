package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gratitude_card/internal/card"
	"gratitude_card/internal/config"
	"gratitude_card/internal/handlers"
	"gratitude_card/internal/logger"
	"gratitude_card/internal/metrics"
	"gratitude_card/internal/storage"
)

func main() {
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration: ", err)
	}

	zapLogger, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatal("unable to build logger: ", err)
	}

	// run has released the store by the time it returns
	if err := run(cfg, zapLogger); err != nil {
		zapLogger.Error("gratitude card stopped", zap.Error(err))
		_ = zapLogger.Sync()
		os.Exit(1)
	}
	_ = zapLogger.Sync()
}

func run(cfg *config.Config, zapLogger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector()

	gratitudeLog, closeLog, err := openLog(ctx, cfg, zapLogger)
	if err != nil {
		return err
	}
	defer closeLog()
	gratitudeLog = storage.NewInstrumentedLog(gratitudeLog, collector)

	quotes, err := card.LoadQuotes(cfg.QuotesFile)
	if err != nil {
		return err
	}
	zapLogger.Info("loaded quotes", zap.Int("count", len(quotes)))

	sessions := card.NewSessions(
		gratitudeLog,
		storage.NewOverrideStore(cfg.OverrideDir),
		card.SessionsConfig{
			Flow: card.FlowConfig{
				PageSize:   cfg.HistoryPageSize,
				DisplayCap: cfg.HistoryDisplayCap,
			},
			Quotes:   quotes,
			TTL:      cfg.SessionTTL,
			MaxCards: cfg.MaxCards,
		},
		zapLogger.Named("card"),
		collector,
	)

	router := handlers.NewRouter(handlers.RouterDeps{
		Sessions:       sessions,
		Log:            gratitudeLog,
		Recipient:      card.Recipient{Name: cfg.Recipient, Birthday: cfg.Birthday},
		Metrics:        collector,
		StaticDir:      cfg.StaticDir,
		Logger:         zapLogger.Named("http"),
		RequestTimeout: cfg.StoreTimeout,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zapLogger.Info("starting server",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("store", cfg.StoreDriver),
			zap.String("env", cfg.Env),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("Fail Listen and Serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		zapLogger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openLog connects the configured gratitude log. Remote logs sit behind a
// circuit breaker.
func openLog(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) (storage.GratitudeLog, func(), error) {
	op := "cmd/gratitude_card/main.go openLog"
	noop := func() {}

	breaker := storage.BreakerConfig{
		Name:                cfg.StoreDriver,
		ConsecutiveFailures: uint32(cfg.BreakerFailures),
		OpenTimeout:         cfg.BreakerOpenTimeout,
	}

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		connectCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
		defer cancel()

		pool, err := pgxpool.New(connectCtx, cfg.PostgresDSN)
		if err != nil {
			return nil, noop, fmt.Errorf("Failure to connect to db in %s: %w", op, err)
		}
		if err := pool.Ping(connectCtx); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("Failure to ping db in %s: %w", op, err)
		}

		pgLog := storage.NewPostgresLog(pool)
		if err := pgLog.EnsureSchema(connectCtx); err != nil {
			pool.Close()
			return nil, noop, err
		}
		zapLogger.Info("connected to db successfully", zap.String("driver", cfg.StoreDriver))
		return storage.NewBreakerLog(pgLog, breaker, zapLogger), pool.Close, nil

	case config.DriverSupabase:
		sbLog, err := storage.NewSupabaseLog(cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			return nil, noop, err
		}
		zapLogger.Info("using supabase gratitude log", zap.String("url", cfg.SupabaseURL))
		return storage.NewBreakerLog(sbLog, breaker, zapLogger), noop, nil

	case config.DriverSQLite:
		sqLog, err := storage.OpenSQLiteLog(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		zapLogger.Info("opened sqlite gratitude log", zap.String("path", cfg.SQLitePath))
		return sqLog, func() {
			if err := sqLog.Close(); err != nil {
				zapLogger.Warn("failed to close sqlite", zap.Error(err))
			}
		}, nil

	default:
		zapLogger.Warn("using in-memory gratitude log; entries are lost on restart")
		return storage.NewMemoryLog(), noop, nil
	}
}
