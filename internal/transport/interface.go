package transport

import (
	"time"

	"codeberg.org/mutker/vcmclient/internal/sparkplug"
)

type EventKind int

const (
	// EventMessage carries a received Sparkplug message, or Err when it
	// could not be decoded.
	EventMessage EventKind = iota
	// EventConnected is sent after every (re)connect.
	EventConnected
	// EventConnectionLost carries the reason in Err.
	EventConnectionLost
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventConnectionLost:
		return "connection_lost"
	default:
		return "message"
	}
}

// Event is handed from the MQTT client goroutine to the consumer.
type Event struct {
	Kind       EventKind
	RawTopic   string
	Topic      sparkplug.Topic
	Payload    *sparkplug.Payload
	Err        error
	ReceivedAt time.Time
}

type Config struct {
	Broker   string
	Port     int
	ClientID string
	// HostID names the host application state topic.
	HostID string
	// Timeout bounds connect, subscribe and publish round trips.
	Timeout time.Duration
	// QueueSize is the capacity of the event channel.
	QueueSize int
	// Quiesce is how long Close lets in-flight work finish.
	Quiesce time.Duration
}
