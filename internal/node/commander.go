package node

import (
	"context"
	"math/rand/v2"
	"time"

	"codeberg.org/mutker/vcmclient/internal/errors"
	"codeberg.org/mutker/vcmclient/internal/logger"
	"codeberg.org/mutker/vcmclient/internal/metrics"
	"codeberg.org/mutker/vcmclient/internal/session"
	"codeberg.org/mutker/vcmclient/internal/sparkplug"
)

// Commander turns operator actions into Sparkplug command messages for the
// module selected in the session.
type Commander struct {
	pub   Publisher
	sess  *session.State
	group string
	draw  func() float64
	now   func() time.Time
}

type Option func(*Commander)

// WithRand replaces the source of random DAC voltages.
func WithRand(draw func() float64) Option {
	return func(c *Commander) { c.draw = draw }
}

// WithClock replaces the payload timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Commander) { c.now = now }
}

func New(pub Publisher, sess *session.State, group string, opts ...Option) *Commander {
	c := &Commander{
		pub:   pub,
		sess:  sess,
		group: group,
		draw:  rand.Float64,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetDAC validates the request and sends a DCMD to the test bench. It
// returns the settings that were sent.
func (c *Commander) SetDAC(ctx context.Context, index, voltage string) ([]DACSetting, error) {
	settings, err := ParseDAC(index, voltage, c.draw)
	if err != nil {
		return nil, err
	}

	if err := c.ready(); err != nil {
		return nil, err
	}

	ms := make([]sparkplug.Metric, len(settings))
	for i, s := range settings {
		ms[i] = sparkplug.Metric{
			Name:     metrics.DAC(s.Index),
			DataType: sparkplug.Float,
			Value:    float32(s.Voltage),
		}
	}

	topic := sparkplug.Topic{
		Group:  c.group,
		Type:   sparkplug.DeviceCommand,
		Node:   c.sess.NodeID(),
		Device: session.DeviceID,
	}
	if err := c.send(ctx, topic, ms...); err != nil {
		return nil, err
	}

	logger.Debug().
		Str("topic", topic.String()).
		Int("count", len(settings)).
		Msg("DAC command sent")

	return settings, nil
}

// Reboot asks the selected module to restart.
func (c *Commander) Reboot(ctx context.Context) error {
	if err := c.ready(); err != nil {
		return err
	}
	return c.nodeControl(ctx, metrics.NodeControlReboot)
}

// Rebirth asks the selected module to republish its birth certificates.
// It is allowed before any birth has been seen.
func (c *Commander) Rebirth(ctx context.Context) error {
	return c.nodeControl(ctx, metrics.NodeControlRebirth)
}

func (c *Commander) nodeControl(ctx context.Context, name string) error {
	topic := sparkplug.Topic{
		Group: c.group,
		Type:  sparkplug.NodeCommand,
		Node:  c.sess.NodeID(),
	}
	err := c.send(ctx, topic, sparkplug.Metric{
		Name:     name,
		DataType: sparkplug.Boolean,
		Value:    true,
	})
	if err != nil {
		return err
	}

	logger.Debug().Str("topic", topic.String()).Str("metric", name).Msg("Node command sent")
	return nil
}

func (c *Commander) ready() error {
	if c.sess.CanCommand() {
		return nil
	}

	errFactory := errors.New()
	snap := c.sess.Snapshot()
	if !snap.Alive {
		return errFactory.WithData(ErrModuleOffline, snap.NodeID)
	}
	return errFactory.WithData(ErrIncompatibleVersion, snap.NodeID)
}

func (c *Commander) send(ctx context.Context, topic sparkplug.Topic, ms ...sparkplug.Metric) error {
	errFactory := errors.New()

	payload := sparkplug.NewPayload(c.now(), c.sess.NextSeq(), ms...)
	b, err := sparkplug.Encode(payload)
	if err != nil {
		return errFactory.Wrap(ErrEncode, err)
	}

	if err := c.pub.Publish(ctx, topic.String(), b); err != nil {
		return errFactory.Wrap(ErrPublish, err)
	}
	return nil
}
