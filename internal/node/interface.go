package node

import "context"

const (
	// CommsVersion is the communications protocol version this client speaks.
	CommsVersion = 2

	MinDACVoltage = 0.0
	MaxDACVoltage = 1.0

	// AllDACs and RandomVoltage are the literal operator inputs accepted in
	// place of a DAC index and a voltage.
	AllDACs       = "all"
	RandomVoltage = "random"
)

// Publisher sends an encoded payload to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// DACSetting is one validated DAC output request.
type DACSetting struct {
	Index   int
	Voltage float64
}
