package telemetry

import (
	"context"
	"time"
)

// Recorder keeps an append-only history of applied metric updates.
type Recorder interface {
	Record(ctx context.Context, u *Update) error
	Recent(ctx context.Context, module, limit int) ([]Update, error)
	Close() error
}

// Repository is the storage behind a Recorder.
type Repository interface {
	Record(u *Update) error
	Recent(ctx context.Context, module, limit int) ([]Update, error)
	Close() error
}

// Update is one row of history.
type Update struct {
	ReceivedAt time.Time
	Module     int
	Name       string
	// Timestamp is the time the node reported for the value.
	Timestamp time.Time
	Kind      string
	Value     string
}
