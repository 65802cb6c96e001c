package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"gratitude_card/internal/models"
)

// BreakerConfig controls when a remote gratitude log is considered down.
type BreakerConfig struct {
	Name                string
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:                name,
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
	}
}

// BreakerLog fails fast with ErrStoreUnavailable while the wrapped log keeps
// failing.
type BreakerLog struct {
	next GratitudeLog
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerLog(next GratitudeLog, cfg BreakerConfig, log *zap.Logger) *BreakerLog {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// a blank entry or a cancelled caller says nothing about the store
			return err == nil ||
				errors.Is(err, ErrEmptyText) ||
				errors.Is(err, context.Canceled)
		},
	})

	return &BreakerLog{next: next, cb: cb}
}

func (bl *BreakerLog) Insert(ctx context.Context, text string) (models.GratitudeEntry, error) {
	res, err := bl.cb.Execute(func() (interface{}, error) {
		return bl.next.Insert(ctx, text)
	})
	if err != nil {
		return models.GratitudeEntry{}, bl.wrap(err)
	}
	return res.(models.GratitudeEntry), nil
}

func (bl *BreakerLog) Recent(ctx context.Context, limit int) ([]models.GratitudeEntry, error) {
	res, err := bl.cb.Execute(func() (interface{}, error) {
		return bl.next.Recent(ctx, limit)
	})
	if err != nil {
		return nil, bl.wrap(err)
	}
	return res.([]models.GratitudeEntry), nil
}

func (bl *BreakerLog) State() gobreaker.State {
	return bl.cb.State()
}

func (bl *BreakerLog) wrap(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}
