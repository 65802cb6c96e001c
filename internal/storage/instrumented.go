package storage

import (
	"context"
	"time"

	"gratitude_card/internal/models"
)

// OperationRecorder receives one call per gratitude log operation.
type OperationRecorder interface {
	RecordStoreOperation(operation string, err error, took time.Duration)
}

// InstrumentedLog reports every call on the wrapped log to a recorder.
type InstrumentedLog struct {
	next     GratitudeLog
	recorder OperationRecorder
}

func NewInstrumentedLog(next GratitudeLog, recorder OperationRecorder) *InstrumentedLog {
	return &InstrumentedLog{next: next, recorder: recorder}
}

func (il *InstrumentedLog) Insert(ctx context.Context, text string) (models.GratitudeEntry, error) {
	start := time.Now()
	entry, err := il.next.Insert(ctx, text)
	il.recorder.RecordStoreOperation("insert", err, time.Since(start))
	return entry, err
}

func (il *InstrumentedLog) Recent(ctx context.Context, limit int) ([]models.GratitudeEntry, error) {
	start := time.Now()
	entries, err := il.next.Recent(ctx, limit)
	il.recorder.RecordStoreOperation("recent", err, time.Since(start))
	return entries, err
}
