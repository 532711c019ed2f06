package main

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"codeberg.org/mutker/vcmclient/internal/app"
	"codeberg.org/mutker/vcmclient/internal/display"
	"codeberg.org/mutker/vcmclient/internal/errors"
	"codeberg.org/mutker/vcmclient/internal/logger"
	"codeberg.org/mutker/vcmclient/internal/telemetry"
	"codeberg.org/mutker/vcmclient/internal/transport"
	"codeberg.org/mutker/vcmclient/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

const defaultHistoryLimit = 50

// runDashboard starts the interactive dashboard.
func (c *cli) runDashboard(ctx context.Context) error {
	rt, err := setup(ctx, c.cfg, dashboardMode)
	if err != nil {
		return err
	}
	defer rt.close()

	p := tea.NewProgram(tui.NewModel(ctx, rt.ctrl, rt.client.Events()), tea.WithAltScreen())

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		return errors.New().Wrap(errors.ErrInitFailed, err)
	}
	return nil
}

func (c *cli) newWatchCmd() *cobra.Command {
	var showTable bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print diagnostics for the selected module without the dashboard",
		Long: `Subscribe to the selected module and print diagnostics as messages arrive.

The --show level decides how much of each message is printed. With --table
the full metric table is printed after every message. Watching is read-only,
so it can run next to a dashboard or command on the same module.

Examples:
  vcmclient watch --module 2 --show changed
  vcmclient watch --table --log`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runWatch(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), showTable)
		},
	}
	cmd.Flags().BoolVar(&showTable, "table", false, "Print the metric table after every message")

	return cmd
}

func (c *cli) runWatch(ctx context.Context, out, errOut io.Writer, showTable bool) error {
	rt, err := setup(ctx, c.cfg, watchMode)
	if err != nil {
		return err
	}
	defer rt.close()

	p := newDiagPrinter(rt.ctrl.Diagnostics(), out, errOut)
	p.flush()

	return rt.ctrl.Run(ctx, rt.client.Events(), func(ev transport.Event) {
		p.flush()
		if showTable && ev.Kind == transport.EventMessage && ev.Err == nil {
			fmt.Fprintln(out, display.Render(rt.ctrl.Store().All()))
		}
	})
}

func (c *cli) newDACCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dac <index|all> <voltage|random>",
		Short: "Set one or all test bench DAC outputs",
		Long: `Wait for the selected module's birth, then set a DAC on its test bench.

The index is 0-11 or "all"; the voltage is 0.0-1.0 or "random". With "all"
and "random" every DAC gets its own random voltage.

Examples:
  vcmclient dac 3 0.5
  vcmclient dac all random --module 1`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runOneShot(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), isAlive, func(ctx context.Context, ctrl *app.Controller) error {
				return ctrl.SetDAC(ctx, args[0], args[1])
			})
		},
	}
}

func (c *cli) newRebootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reboot",
		Short: "Reboot the selected module",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runOneShot(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), isAlive, func(ctx context.Context, ctrl *app.Controller) error {
				return ctrl.Reboot(ctx)
			})
		},
	}
}

func (c *cli) newRebirthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebirth",
		Short: "Ask the selected module to republish its birth certificates",
		Long: `Connect, request a rebirth and wait for the module's birth.

A rebirth is requested on every connect, so this command succeeds once the
module answers with a birth certificate.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runOneShot(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), isAlive, func(_ context.Context, ctrl *app.Controller) error {
				snap := ctrl.Session()
				fmt.Fprintf(cmd.OutOrStdout(), "%s online (bdSeq %d, compatible %t)\n", snap.NodeID, snap.BdSeq, snap.Compatible)
				return nil
			})
		},
	}
}

func isAlive(st app.Status) bool {
	return st.Session.Alive
}

// runOneShot connects, waits for ready, runs action and disconnects. The
// command layer itself rejects incompatible modules.
func (c *cli) runOneShot(
	ctx context.Context,
	out, errOut io.Writer,
	ready func(app.Status) bool,
	action func(context.Context, *app.Controller) error,
) error {
	rt, err := setup(ctx, c.cfg, commandMode)
	if err != nil {
		return err
	}
	defer rt.close()

	p := newDiagPrinter(rt.ctrl.Diagnostics(), out, errOut)
	defer p.flush()

	if err := rt.awaitReady(ctx, ready); err != nil {
		return err
	}
	return action(ctx, rt.ctrl)
}

func (c *cli) newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recent metric updates recorded in the history database",
		Long: `Print the most recent updates for the selected module from --history-db.

Examples:
  vcmclient history --history-db vcm.db --module 3 --limit 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runHistory(cmd.Context(), cmd.OutOrStdout(), limit)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", defaultHistoryLimit, "Number of updates to print")

	return cmd
}

func (c *cli) runHistory(ctx context.Context, out io.Writer, limit int) error {
	errFactory := errors.New()

	if c.cfg.HistoryDB == "" {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "--history-db is required")
	}

	logFile, err := initLogger(c.cfg, true)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}

	rec, err := telemetry.NewService(telemetry.DefaultConfig(c.cfg.HistoryDB), logger.Default())
	if err != nil {
		return err
	}
	defer rec.Close()

	updates, err := rec.Recent(ctx, c.cfg.Module, limit)
	if err != nil {
		return err
	}

	for _, u := range updates {
		fmt.Fprintf(out, "%s  %-36s %s\n", u.Timestamp.Format(display.TimestampLayout), u.Name, u.Value)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "vcmclient %s\n", version)
			fmt.Fprintf(out, "commit: %s\n", commit)
			fmt.Fprintf(out, "built: %s\n", date)
			fmt.Fprintf(out, "go: %s\n", runtime.Version())
		},
	}
}

// diagPrinter writes diagnostics added since the last flush. Errors go to
// errOut.
type diagPrinter struct {
	diag    *display.Diagnostics
	out     io.Writer
	errOut  io.Writer
	version uint64
}

func newDiagPrinter(d *display.Diagnostics, out, errOut io.Writer) *diagPrinter {
	return &diagPrinter{diag: d, out: out, errOut: errOut}
}

func (p *diagPrinter) flush() {
	v := p.diag.Version()
	n := int(v - p.version)
	p.version = v
	if n <= 0 {
		return
	}

	for _, e := range p.diag.Recent(n) {
		w := p.out
		if e.Severity == display.SeverityError {
			w = p.errOut
		}
		fmt.Fprintln(w, display.Format(e))
	}
}
