package transport

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"codeberg.org/mutker/vcmclient/internal/errors"
	"codeberg.org/mutker/vcmclient/internal/logger"
	"codeberg.org/mutker/vcmclient/internal/sparkplug"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultQueueSize = 256
	defaultQuiesce   = 250 * time.Millisecond

	qos = 0
)

// Client is a paho MQTT client that decodes Sparkplug messages and hands
// them to a single consumer through Events.
type Client struct {
	cfg    Config
	client mqtt.Client
	events chan Event
	done   chan struct{}
	now    func() time.Time

	mu        sync.Mutex
	filters   map[string]struct{}
	closeOnce sync.Once
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Quiesce <= 0 {
		cfg.Quiesce = defaultQuiesce
	}
	if cfg.ClientID == "" {
		cfg.ClientID = fmt.Sprintf("%s-%d", cfg.HostID, time.Now().UnixNano())
	}

	c := &Client{
		cfg:     cfg,
		events:  make(chan Event, cfg.QueueSize),
		done:    make(chan struct{}),
		now:     time.Now,
		filters: make(map[string]struct{}),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port))
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(cfg.Timeout)
	opts.SetOrderMatters(true)
	opts.SetWill(c.stateTopic(), sparkplug.StateOffline, 1, true)
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)

	c.client = mqtt.NewClient(opts)
	return c
}

// Events delivers received messages and connection changes in order.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Done is closed when Close starts.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) IsConnected() bool {
	return c.client.IsConnectionOpen()
}

// Connect dials the broker. Subscriptions made before or after Connect are
// restored on every reconnect.
func (c *Client) Connect(ctx context.Context) error {
	if c.closed() {
		return errors.New().New(ErrClosed)
	}

	logger.Info().
		Str("broker", c.cfg.Broker).
		Int("port", c.cfg.Port).
		Str("client_id", c.cfg.ClientID).
		Msg("Connecting to broker")

	if err := c.wait(ctx, c.client.Connect()); err != nil {
		return errors.New().Wrap(ErrConnect, err)
	}
	return nil
}

func (c *Client) Subscribe(ctx context.Context, filters ...string) error {
	if c.closed() {
		return errors.New().New(ErrClosed)
	}

	c.mu.Lock()
	for _, f := range filters {
		c.filters[f] = struct{}{}
	}
	c.mu.Unlock()

	if !c.client.IsConnectionOpen() {
		// onConnect subscribes once the connection is up.
		return nil
	}

	if err := c.subscribe(ctx, filters); err != nil {
		return errors.New().Wrap(ErrSubscribe, err)
	}
	return nil
}

func (c *Client) Unsubscribe(ctx context.Context, filters ...string) error {
	if c.closed() {
		return errors.New().New(ErrClosed)
	}

	c.mu.Lock()
	for _, f := range filters {
		delete(c.filters, f)
	}
	c.mu.Unlock()

	if !c.client.IsConnectionOpen() || len(filters) == 0 {
		return nil
	}

	if err := c.wait(ctx, c.client.Unsubscribe(filters...)); err != nil {
		return errors.New().Wrap(ErrUnsubscribe, err)
	}
	return nil
}

func (c *Client) Publish(ctx context.Context, topic string, payload []byte) error {
	if c.closed() {
		return errors.New().New(ErrClosed)
	}

	if err := c.wait(ctx, c.client.Publish(topic, qos, false, payload)); err != nil {
		return errors.New().Wrap(ErrPublish, err)
	}
	return nil
}

// Close announces the host offline and disconnects. Pending handoffs are
// released without delivering.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)

		if c.client.IsConnectionOpen() {
			t := c.client.Publish(c.stateTopic(), 1, true, sparkplug.StateOffline)
			t.WaitTimeout(c.cfg.Quiesce)
		}
		c.client.Disconnect(uint(c.cfg.Quiesce / time.Millisecond))

		logger.Info().Msg("Disconnected from broker")
	})
}

func (c *Client) onConnect(client mqtt.Client) {
	logger.Info().Str("broker", c.cfg.Broker).Msg("Connected to broker")

	t := client.Publish(c.stateTopic(), 1, true, sparkplug.StateOnline)
	if !t.WaitTimeout(c.cfg.Timeout) || t.Error() != nil {
		logger.Warn().Err(t.Error()).Msg("Failed to publish host state")
	}

	c.mu.Lock()
	filters := make([]string, 0, len(c.filters))
	for f := range c.filters {
		filters = append(filters, f)
	}
	c.mu.Unlock()

	if len(filters) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
		defer cancel()
		if err := c.subscribe(ctx, filters); err != nil {
			logger.Error().Err(err).Strs("filters", filters).Msg("Failed to restore subscriptions")
		}
	}

	c.deliver(Event{Kind: EventConnected, ReceivedAt: c.now()})
}

func (c *Client) onConnectionLost(_ mqtt.Client, err error) {
	logger.Warn().Err(err).Msg("Connection to broker lost")
	c.deliver(Event{Kind: EventConnectionLost, Err: err, ReceivedAt: c.now()})
}

func (c *Client) onMessage(_ mqtt.Client, msg mqtt.Message) {
	ev, ok := c.decode(msg.Topic(), msg.Payload())
	if !ok {
		return
	}
	c.deliver(ev)
}

// decode builds the event for a received message. Host state messages are
// not of interest to the consumer.
func (c *Client) decode(topic string, payload []byte) (Event, bool) {
	if strings.HasPrefix(topic, sparkplug.StateTopic("")) {
		return Event{}, false
	}

	ev := Event{Kind: EventMessage, RawTopic: topic, ReceivedAt: c.now()}

	t, err := sparkplug.ParseTopic(topic)
	if err != nil {
		ev.Err = err
		return ev, true
	}
	ev.Topic = t

	p, err := sparkplug.Decode(payload)
	if err != nil {
		ev.Err = err
		return ev, true
	}
	ev.Payload = p

	return ev, true
}

// deliver blocks until the consumer has room or the client is closing.
func (c *Client) deliver(ev Event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func (c *Client) subscribe(ctx context.Context, filters []string) error {
	subs := make(map[string]byte, len(filters))
	for _, f := range filters {
		subs[f] = qos
	}
	if err := c.wait(ctx, c.client.SubscribeMultiple(subs, c.onMessage)); err != nil {
		return err
	}
	logger.Debug().Strs("filters", filters).Msg("Subscribed")
	return nil
}

func (c *Client) wait(ctx context.Context, t mqtt.Token) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	select {
	case <-t.Done():
		return t.Error()
	case <-ctx.Done():
		return errors.New().Wrap(ErrTimeout, ctx.Err())
	case <-c.done:
		return errors.New().New(ErrClosed)
	}
}

func (c *Client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Client) stateTopic() string {
	return sparkplug.StateTopic(c.cfg.HostID)
}
