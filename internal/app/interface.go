package app

import (
	"context"

	"codeberg.org/mutker/vcmclient/internal/config"
	"codeberg.org/mutker/vcmclient/internal/datalog"
	"codeberg.org/mutker/vcmclient/internal/session"
)

// Transport is the part of the MQTT client the controller drives.
type Transport interface {
	Subscribe(ctx context.Context, filters ...string) error
	Unsubscribe(ctx context.Context, filters ...string) error
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Status is what the dashboard header shows.
type Status struct {
	Session session.Snapshot
	Logging datalog.State
	Show    config.ShowLevel
}
