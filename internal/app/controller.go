package app

import (
	"context"
	"fmt"
	"time"

	"codeberg.org/mutker/vcmclient/internal/config"
	"codeberg.org/mutker/vcmclient/internal/datalog"
	"codeberg.org/mutker/vcmclient/internal/display"
	"codeberg.org/mutker/vcmclient/internal/errors"
	"codeberg.org/mutker/vcmclient/internal/logger"
	"codeberg.org/mutker/vcmclient/internal/metrics"
	"codeberg.org/mutker/vcmclient/internal/node"
	"codeberg.org/mutker/vcmclient/internal/observability"
	"codeberg.org/mutker/vcmclient/internal/session"
	"codeberg.org/mutker/vcmclient/internal/sparkplug"
	"codeberg.org/mutker/vcmclient/internal/telemetry"
	"codeberg.org/mutker/vcmclient/internal/transport"
)

// Controller owns the session, the metric store and the diagnostics log.
// Every method except the read-only accessors must be called from the
// single goroutine that drains transport events.
type Controller struct {
	transport Transport
	group     string

	sess    *session.State
	store   *metrics.Store
	diag    *display.Diagnostics
	report  *display.Reporter
	cmd     *node.Commander
	datalog *datalog.Logger
	history telemetry.Recorder
	obs     *observability.Metrics
	now     func() time.Time
	guard   func(module int) error

	historyFailed bool
}

type Option func(*Controller)

// WithDataLog sets the CSV logger updates are appended to.
func WithDataLog(l *datalog.Logger) Option {
	return func(c *Controller) { c.datalog = l }
}

// WithHistory sets the recorder every applied update is written to.
func WithHistory(r telemetry.Recorder) Option {
	return func(c *Controller) { c.history = r }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(c *Controller) { c.obs = m }
}

func WithDiagnostics(d *display.Diagnostics) Option {
	return func(c *Controller) { c.diag = d }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithModuleGuard sets a check run before switching modules. A non-nil
// error keeps the current module.
func WithModuleGuard(fn func(module int) error) Option {
	return func(c *Controller) { c.guard = fn }
}

// WithCommandOptions passes options through to the command layer.
func WithCommandOptions(opts ...node.Option) Option {
	return func(c *Controller) { c.cmd = node.New(c.transport, c.sess, c.group, opts...) }
}

// New creates a controller for cfg.Module in cfg.Group. Nothing is
// subscribed until Start is called.
func New(t Transport, cfg *config.Config, opts ...Option) *Controller {
	c := &Controller{
		transport: t,
		group:     cfg.Group,
		sess:      session.New(cfg.Module),
		store:     metrics.NewDefaultStore(),
		now:       time.Now,
	}
	c.cmd = node.New(t, c.sess, c.group)

	for _, opt := range opts {
		opt(c)
	}

	if c.diag == nil {
		c.diag = display.NewDiagnostics(display.DefaultCapacity)
	}
	if c.obs == nil {
		c.obs = observability.New()
	}
	c.report = display.NewReporter(c.diag, cfg.Show)

	c.store.Subscribe(c.onUpdate)

	return c
}

func (c *Controller) Store() *metrics.Store {
	return c.store
}

func (c *Controller) Diagnostics() *display.Diagnostics {
	return c.diag
}

func (c *Controller) Session() session.Snapshot {
	return c.sess.Snapshot()
}

func (c *Controller) Status() Status {
	st := Status{
		Session: c.sess.Snapshot(),
		Show:    c.report.Show(),
	}
	if c.datalog != nil {
		st.Logging = c.datalog.State()
	}
	return st
}

func (c *Controller) SetShow(show config.ShowLevel) {
	c.report.SetShow(show)
}

// Filters returns the subscriptions for the selected module.
func (c *Controller) Filters() []string {
	return sparkplug.NodeFilters(c.group, c.sess.NodeID())
}

// Start subscribes to the selected module. The rebirth request follows the
// connected event.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.transport.Subscribe(ctx, c.Filters()...); err != nil {
		return err
	}
	c.diag.Infof("Watching module %d (%s)", c.sess.Module(), c.sess.NodeID())
	return nil
}

// Run handles events until ctx is done or events is closed. after, when
// non-nil, is called once per handled event.
func (c *Controller) Run(ctx context.Context, events <-chan transport.Event, after func(transport.Event)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			c.Handle(ctx, ev)
			if after != nil {
				after(ev)
			}
		}
	}
}

// Handle applies one transport event.
func (c *Controller) Handle(ctx context.Context, ev transport.Event) {
	start := time.Now()
	defer func() {
		c.obs.ObserveHandle(time.Since(start).Seconds())
	}()

	switch ev.Kind {
	case transport.EventConnected:
		c.diag.Info("Connected to broker")
		if err := c.cmd.Rebirth(ctx); err != nil {
			c.commandFailed("rebirth", err)
			return
		}
		c.obs.CommandResult("rebirth", nil)
	case transport.EventConnectionLost:
		c.diag.Errorf("Connection lost: %v", ev.Err)
	case transport.EventMessage:
		c.handleMessage(ev)
	}
}

func (c *Controller) handleMessage(ev transport.Event) {
	if ev.Err != nil {
		c.obs.DecodeError()
		c.report.Error(fmt.Sprintf("%s: %v", ev.RawTopic, ev.Err))
		return
	}

	if ev.Topic.Group != c.group || ev.Topic.Node != c.sess.NodeID() {
		logger.Debug().Str("topic", ev.RawTopic).Msg("Ignoring message for another module")
		return
	}

	c.obs.MessageReceived(string(ev.Topic.Type))
	c.report.Topic(ev.RawTopic)

	switch ev.Topic.Type {
	case sparkplug.NodeBirth:
		c.handleBirth(ev)
	case sparkplug.NodeDeath:
		c.handleDeath(ev)
	case sparkplug.NodeData, sparkplug.DeviceData:
		c.applyMetrics(ev, false)
	case sparkplug.DeviceBirth:
		c.applyMetrics(ev, true)
		c.report.Notice(fmt.Sprintf("Device %s online", ev.Topic.Device))
	case sparkplug.DeviceDeath:
		c.report.Notice(fmt.Sprintf("Device %s offline", ev.Topic.Device))
	case sparkplug.NodeCommand, sparkplug.DeviceCommand:
		// our own commands, echoed back by the subscription
	}
}

func (c *Controller) handleBirth(ev transport.Event) {
	p := ev.Payload

	bdSeq, hasBdSeq := metricInt(p, metrics.BdSeq)
	version, hasVersion := metricInt(p, metrics.CommsVersion)
	compatible := hasVersion && version == node.CommsVersion

	c.sess.Birth(uint64(bdSeq), hasBdSeq, compatible)
	c.obs.SetModuleState(true, compatible)
	c.applyMetrics(ev, true)
	c.setModuleStatus(sparkplug.StateOnline, c.timestamp(p, nil, ev.ReceivedAt))

	if !compatible {
		reported := "none"
		if hasVersion {
			reported = fmt.Sprint(version)
		}
		err := errors.New().WithData(errors.ErrIncompatibleVersion,
			fmt.Sprintf("%s reports %s, need %d", c.sess.NodeID(), reported, node.CommsVersion))
		c.report.Error(err.Error())
		logger.Warn().Str("node", c.sess.NodeID()).Str("version", reported).Msg("Incompatible module")
		return
	}

	c.report.Notice(fmt.Sprintf("Module %s online (bdSeq %d)", c.sess.NodeID(), bdSeq))
}

func (c *Controller) handleDeath(ev transport.Event) {
	bdSeq, hasBdSeq := metricInt(ev.Payload, metrics.BdSeq)

	if !c.sess.Death(uint64(bdSeq), hasBdSeq) {
		last, _ := c.sess.LastBdSeq()
		c.report.Notice(fmt.Sprintf("Ignoring stale death of %s (bdSeq %d, current %d)",
			c.sess.NodeID(), bdSeq, last))
		return
	}

	snap := c.sess.Snapshot()
	c.obs.SetModuleState(false, snap.Compatible)
	c.setModuleStatus(sparkplug.StateOffline, c.timestamp(ev.Payload, nil, ev.ReceivedAt))
	c.report.Notice(fmt.Sprintf("Module %s offline", c.sess.NodeID()))
}

// applyMetrics writes every metric of the payload to the store. Births
// also teach the session their aliases.
func (c *Controller) applyMetrics(ev transport.Event, birth bool) {
	if ev.Payload == nil {
		return
	}
	for i := range ev.Payload.Metrics {
		m := &ev.Payload.Metrics[i]

		name := m.Name
		if birth && name != "" {
			if m.HasAlias {
				c.sess.LearnAlias(m.Alias, name)
			}
			if m.DataType != sparkplug.Unknown {
				c.sess.LearnType(name, m.DataType)
			}
		}
		if name == "" && m.HasAlias {
			resolved, ok := c.sess.ResolveAlias(m.Alias)
			if !ok {
				c.report.Error(errors.New().WithData(ErrUnknownAlias,
					fmt.Sprintf("%d on %s", m.Alias, ev.RawTopic)).Error())
				continue
			}
			name = resolved
		}
		if m.IsNull || m.Value == nil {
			continue
		}
		if m.DataType == sparkplug.Unknown {
			if dt, ok := c.sess.DataType(name); ok {
				m.DataType = dt
				m.Value = sparkplug.Coerce(m.Value, dt)
			}
		}

		v, err := metrics.ValueOf(m.Value)
		if err != nil {
			c.report.Error(errors.New().WithData(ErrBadMetric, name).Error())
			continue
		}

		changed, err := c.store.Update(name, c.timestamp(ev.Payload, m, ev.ReceivedAt), v)
		if err != nil {
			c.obs.UnknownMetric()
			c.report.Error(fmt.Sprintf("Unknown metric %q on %s", name, ev.RawTopic))
			continue
		}

		c.obs.MetricUpdated()
		got, _ := c.store.Get(name)
		c.report.Metric(got, changed)
	}
}

func (c *Controller) setModuleStatus(status string, ts time.Time) {
	if _, err := c.store.Update(metrics.ModuleStatus, ts, metrics.Text(status)); err != nil {
		logger.Error().Err(err).Msg("Failed to update module status")
	}
}

// timestamp picks the metric timestamp, then the payload timestamp, then
// the time the message was received.
func (c *Controller) timestamp(p *sparkplug.Payload, m *sparkplug.Metric, received time.Time) time.Time {
	if m != nil && m.Timestamp != 0 {
		return m.Time()
	}
	if p != nil && p.Timestamp != 0 {
		return p.Time()
	}
	if !received.IsZero() {
		return received
	}
	return c.now()
}

// onUpdate fans a store update out to the CSV log and the history.
func (c *Controller) onUpdate(m metrics.Metric, _ bool) {
	module := c.sess.Module()

	if c.datalog != nil {
		err := c.datalog.Record(module, m)
		if c.datalog.State() == datalog.On || err != nil {
			c.obs.LogResult(err)
		}
		if err != nil {
			var coded errors.Error
			if errors.As(err, &coded) {
				logger.ErrorWithCode(coded).Int("module", module).Msg("Data logging stopped")
			}
			c.diag.Error(err.Error())
			c.diag.Info(c.datalog.State().Label())
		}
	}

	if c.history != nil {
		err := c.history.Record(context.Background(), &telemetry.Update{
			ReceivedAt: c.now(),
			Module:     module,
			Name:       m.Name,
			Timestamp:  m.Timestamp,
			Kind:       m.Value.Kind.String(),
			Value:      m.Value.String(),
		})
		switch {
		case err != nil && !c.historyFailed:
			c.historyFailed = true
			c.diag.Errorf("History recording failed: %v", err)
		case err != nil:
			logger.Debug().Err(err).Msg("History recording failed")
		default:
			c.historyFailed = false
		}
	}
}

// SetDAC sends a DAC command. Failures are reported as diagnostics and
// returned.
func (c *Controller) SetDAC(ctx context.Context, index, voltage string) error {
	settings, err := c.cmd.SetDAC(ctx, index, voltage)
	if err != nil {
		c.commandFailed("dac", err)
		return err
	}
	c.obs.CommandResult("dac", nil)

	if len(settings) == 1 {
		c.diag.Infof("Set DAC%d to %.3f V", settings[0].Index, settings[0].Voltage)
	} else {
		c.diag.Infof("Set %d DACs", len(settings))
	}
	return nil
}

func (c *Controller) Reboot(ctx context.Context) error {
	if err := c.cmd.Reboot(ctx); err != nil {
		c.commandFailed("reboot", err)
		return err
	}
	c.obs.CommandResult("reboot", nil)
	c.diag.Infof("Reboot requested for %s", c.sess.NodeID())
	return nil
}

func (c *Controller) Rebirth(ctx context.Context) error {
	if err := c.cmd.Rebirth(ctx); err != nil {
		c.commandFailed("rebirth", err)
		return err
	}
	c.obs.CommandResult("rebirth", nil)
	c.diag.Infof("Rebirth requested for %s", c.sess.NodeID())
	return nil
}

// ChangeModule switches to the module named by input, resubscribes and
// asks the new module for its birth certificates.
func (c *Controller) ChangeModule(ctx context.Context, input string) error {
	module, err := node.ParseModule(input)
	if err != nil {
		c.diag.Error(err.Error())
		return err
	}
	if c.guard != nil {
		if err := c.guard(module); err != nil {
			c.diag.Error(err.Error())
			return err
		}
	}

	old := c.Filters()
	c.sess.SetModule(module)
	c.store.Reset()
	c.obs.SetModuleState(false, false)

	if err := c.transport.Unsubscribe(ctx, old...); err != nil {
		c.diag.Errorf("Unsubscribe failed: %v", err)
	}
	if err := c.transport.Subscribe(ctx, c.Filters()...); err != nil {
		c.diag.Errorf("Subscribe failed: %v", err)
		return err
	}
	c.diag.Infof("Switched to module %d (%s)", module, c.sess.NodeID())

	return c.Rebirth(ctx)
}

// ToggleLogging flips CSV logging and returns the new state.
func (c *Controller) ToggleLogging() (datalog.State, error) {
	if c.datalog == nil {
		err := errors.New().WithMessage(errors.ErrLogIO, "data logging is not configured")
		c.diag.Error(err.Error())
		return datalog.Off, err
	}

	state, err := c.datalog.Toggle()
	if err != nil {
		c.diag.Error(err.Error())
		return state, err
	}

	if state == datalog.On {
		c.diag.Infof("Logging to %s", c.datalog.Path())
	} else {
		c.diag.Info("Logging stopped")
	}
	return state, nil
}

func (c *Controller) commandFailed(command string, err error) {
	c.obs.CommandResult(command, err)
	c.diag.Error(err.Error())
	logger.Debug().Err(err).Str("command", command).Msg("Command failed")
}

// metricInt returns the integer value of the named metric in p.
func metricInt(p *sparkplug.Payload, name string) (int64, bool) {
	if p == nil {
		return 0, false
	}
	m, ok := p.Metric(name)
	if !ok || m.IsNull || m.Value == nil {
		return 0, false
	}
	v, err := metrics.ValueOf(m.Value)
	if err != nil {
		return 0, false
	}
	return v.Int()
}
