// Command machine-sensor infers whether machines are running from the
// magnetic field fluctuation seen by HMC5883L sensors behind a TCA9548A
// I2C multiplexer, and reports each machine's status to a collector or
// logs raw samples.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/sweeney/machine-sensor/internal/config"
	"github.com/sweeney/machine-sensor/internal/logging"
)

type options struct {
	configPath string
	debug      bool
	mode       string
	httpAddr   string
	simulate   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	root := &cobra.Command{
		Use:           "machine-sensor",
		Short:         "Report machine running state from magnetometer readings",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, &opts)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runDaemon(ctx, cfg)
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to YAML config file")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&opts.simulate, "simulate", false, "Use simulated sensors instead of the I2C bus")
	root.Flags().StringVar(&opts.mode, "mode", "", `Override mode ("status" or "logging")`)
	root.Flags().StringVar(&opts.httpAddr, "http", "", "Override HTTP status address")

	root.AddCommand(newScanCmd(&opts))
	root.AddCommand(newReadCmd(&opts))
	return root
}

// loadConfig reads the config file, applies flag overrides and installs
// the logger.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if f := flags.Lookup("mode"); f != nil && f.Changed {
		cfg.Mode = opts.mode
	}
	if f := flags.Lookup("http"); f != nil && f.Changed {
		cfg.HTTPAddr = opts.httpAddr
	}
	if opts.simulate {
		cfg.Simulate = true
	}
	if opts.debug {
		cfg.LogLevel = logging.LevelDebug
	}

	if err := logging.Configure(cfg.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newScanCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "List devices responding on each mux channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			hw, err := openHardware(cfg)
			if err != nil {
				return err
			}
			defer hw.Close()
			return scanChannels(cmd.Context(), hw, cmd.OutOrStdout())
		},
	}
}

func newReadCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "read",
		Short: "Print one sample per configured machine and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			hw, err := openHardware(cfg)
			if err != nil {
				return err
			}
			defer hw.Close()
			return readOnce(cmd.Context(), cfg, hw, cmd.OutOrStdout())
		},
	}
}

