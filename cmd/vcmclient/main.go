package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codeberg.org/mutker/vcmclient/internal/config"
	"codeberg.org/mutker/vcmclient/internal/logger"
	"github.com/spf13/cobra"
)

// Version information set via ldflags at build time
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	go handleSignals(cancel)

	err := newRootCmd().ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, "vcmclient:", err)
		os.Exit(1)
	}
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

// cli carries the loaded configuration to subcommands.
type cli struct {
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "vcmclient",
		Short: "Test client for VCM modules over MQTT/Sparkplug-B",
		Long: `Interactive test client for VCM hardware modules.

Shows the metrics a module publishes, sends DAC voltages to its test bench,
triggers reboots and rebirths, and logs received data to a dated CSV file.

Examples:
  vcmclient --module 3
  vcmclient watch --show changed
  vcmclient dac all random`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			c.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runDashboard(cmd.Context())
		},
	}

	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		c.newWatchCmd(),
		c.newDACCmd(),
		c.newRebootCmd(),
		c.newRebirthCmd(),
		c.newHistoryCmd(),
		newVersionCmd(),
	)

	return root
}
