package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds a JSON logger for production and a console logger otherwise.
func New(env string) (*zap.Logger, error) {
	var log *zap.Logger
	var err error

	switch env {
	case "production":
		log, err = zap.NewProduction()
	default:
		log, err = zap.NewDevelopment()
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log.Named("gratitude_card"), nil
}
