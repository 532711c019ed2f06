package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"codeberg.org/mutker/vcmclient/internal/app"
	"codeberg.org/mutker/vcmclient/internal/config"
	"codeberg.org/mutker/vcmclient/internal/datalog"
	"codeberg.org/mutker/vcmclient/internal/display"
	"codeberg.org/mutker/vcmclient/internal/errors"
	"codeberg.org/mutker/vcmclient/internal/logger"
	"codeberg.org/mutker/vcmclient/internal/observability"
	"codeberg.org/mutker/vcmclient/internal/pid"
	"codeberg.org/mutker/vcmclient/internal/telemetry"
	"codeberg.org/mutker/vcmclient/internal/transport"
)

const (
	queueSize       = 256
	quiesce         = 250 * time.Millisecond
	shutdownTimeout = 3 * time.Second
)

// mode selects how a session is set up. Exclusive modes can drive the
// module and hold its PID file; watching is read-only and may run next to
// a dashboard on the same module.
type mode struct {
	headless  bool
	exclusive bool
}

var (
	dashboardMode = mode{exclusive: true}
	watchMode     = mode{headless: true}
	commandMode   = mode{headless: true, exclusive: true}
)

// clientRuntime is everything one client session owns, in start order.
type clientRuntime struct {
	cfg         *config.Config
	logFile     *os.File
	guard       *pid.Guard
	datalog     *datalog.Logger
	history     telemetry.Recorder
	metrics     *observability.Metrics
	metricsDone <-chan struct{}
	client      *transport.Client
	ctrl        *app.Controller
}

// initLogger sends application logs to --log-file, or to stderr for
// headless commands. The dashboard discards them otherwise so they never
// draw over the terminal UI.
func initLogger(cfg *config.Config, headless bool) (*os.File, error) {
	var out io.Writer
	var f *os.File

	switch {
	case cfg.LogFile != "":
		var err error
		f, err = os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, errors.New().Wrap(errors.ErrInitFailed, err)
		}
		out = f
	case headless:
		out = os.Stderr
	}

	logger.Init(string(cfg.LogLevel), out, logger.IsService())
	logger.Debug().Msg("Config loaded")
	return f, nil
}

// setup builds a connected session for cfg.Module. Failures here are
// startup failures and end the process.
func setup(ctx context.Context, cfg *config.Config, m mode) (_ *clientRuntime, err error) {
	errFactory := errors.New()
	rt := &clientRuntime{cfg: cfg}
	defer func() {
		if err != nil {
			rt.close()
		}
	}()

	if rt.logFile, err = initLogger(cfg, m.headless); err != nil {
		return nil, err
	}

	if rt.guard, err = acquireGuard(m, "", cfg.Module); err != nil {
		return nil, err
	}

	diag := display.NewDiagnostics(display.DefaultCapacity)

	var logErr error
	rt.datalog, logErr = datalog.New(cfg.LogDir, cfg.Log)
	if logErr != nil {
		diag.Error(logErr.Error())
		logger.Warn().Err(logErr).Msg("Data logging disabled")
	}

	rt.history, err = telemetry.NewService(telemetry.DefaultConfig(cfg.HistoryDB), logger.Default())
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrInitFailed, err)
	}

	rt.metrics = observability.New()
	if cfg.MetricsAddr != "" {
		if _, rt.metricsDone, err = observability.Serve(ctx, cfg.MetricsAddr, rt.metrics); err != nil {
			return nil, errFactory.Wrap(errors.ErrInitFailed, err)
		}
	}

	rt.client = transport.New(transport.Config{
		Broker:    cfg.Broker,
		Port:      cfg.Port,
		ClientID:  fmt.Sprintf("%s-%d", cfg.HostID, os.Getpid()),
		HostID:    cfg.HostID,
		Timeout:   cfg.Timeout,
		QueueSize: queueSize,
		Quiesce:   quiesce,
	})

	opts := []app.Option{
		app.WithDiagnostics(diag),
		app.WithDataLog(rt.datalog),
		app.WithHistory(rt.history),
		app.WithMetrics(rt.metrics),
	}
	if rt.guard != nil {
		opts = append(opts, app.WithModuleGuard(rt.guard.Switch))
	}
	rt.ctrl = app.New(rt.client, cfg, opts...)

	if err = rt.ctrl.Start(ctx); err != nil {
		return nil, err
	}
	if err = rt.client.Connect(ctx); err != nil {
		return nil, err
	}

	return rt, nil
}

// acquireGuard takes the PID file of module in dir for exclusive modes.
// Read-only modes get no guard.
func acquireGuard(m mode, dir string, module int) (*pid.Guard, error) {
	if !m.exclusive {
		return nil, nil
	}

	g := pid.NewGuard(dir)
	if err := g.Switch(module); err != nil {
		return nil, err
	}
	return g, nil
}

// close tears the session down in reverse order. Each step is bounded so a
// stuck broker cannot hold the process.
func (rt *clientRuntime) close() {
	if rt.client != nil {
		rt.client.Close()
	}

	if rt.datalog != nil {
		if err := rt.datalog.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close data log")
		}
	}

	if rt.history != nil {
		if err := rt.history.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close history")
		}
	}

	if rt.metricsDone != nil {
		select {
		case <-rt.metricsDone:
		case <-time.After(shutdownTimeout):
			logger.Warn().Msg("Metrics server did not stop in time")
		}
	}

	if rt.guard != nil {
		if err := rt.guard.Release(); err != nil {
			logger.Error().Err(err).Msg("Failed to remove PID file")
		}
	}

	logger.Info().Msg("Exiting...")

	if rt.logFile != nil {
		rt.logFile.Close()
	}
}

// awaitReady handles events until ready reports true or the configured
// timeout passes.
func (rt *clientRuntime) awaitReady(ctx context.Context, ready func(app.Status) bool) error {
	waitCtx, cancel := context.WithTimeout(ctx, rt.cfg.Timeout)
	defer cancel()

	for !ready(rt.ctrl.Status()) {
		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.New().WithData(errors.ErrTimeout,
				fmt.Sprintf("no birth from %s within %s", rt.ctrl.Session().NodeID, rt.cfg.Timeout))
		case ev := <-rt.client.Events():
			rt.ctrl.Handle(ctx, ev)
		}
	}

	return nil
}
