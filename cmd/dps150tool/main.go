// cmd/dps150tool/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/svenk123/dps150tool/internal/config"
	"github.com/svenk123/dps150tool/internal/logging"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	device     string
	verbose    bool
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var g globalFlags
	var a actions

	cmd := &cobra.Command{
		Use:   "dps150tool",
		Short: "Control and query a DPS-150 bench power supply",
		Long: `dps150tool talks to a DPS-150 power supply over its USB serial port.

Without a sub-command it runs once: open the port, bring the session up,
apply setters, print the requested readings, then disconnect.`,
		Example: `  dps150tool -d /dev/ttyACM0 -u 5 -i 0.5 -o 1
  dps150tool -U -I -P
  dps150tool -V`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return a.bind(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.Logging)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			return runOnce(cmd, cfg, a, log)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "YAML config file")
	pf.StringVarP(&g.device, "device", "d", config.DefaultPort, "serial device")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "debug logging with frame hex dumps")

	a.register(cmd.Flags())

	cmd.AddCommand(
		watchCmd(&g),
		versionCmd(),
	)

	return cmd
}

// loadConfig reads the optional config file, applies command line
// overrides, then normalizes and validates.
func loadConfig(cmd *cobra.Command, g globalFlags) (*config.Config, error) {
	cfg := &config.Config{}
	if g.configPath != "" {
		loaded, err := config.Load(g.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("device") || cfg.Device.Port == "" {
		cfg.Device.Port = g.device
	}
	if g.verbose {
		cfg.Logging.Level = "debug"
	}

	config.Normalize(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dps150tool %s (%s)\n", version, commit)
		},
	}
}

// flagBool validates a 0|1 flag.
func flagBool(name string, v int) (bool, error) {
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, fmt.Errorf("-%s must be 0 or 1, got %d", name, v)
}

// closeSession releases the session and logs, never fails the command.
func closeSession(log *zap.Logger, closeFn func() error) {
	if err := closeFn(); err != nil {
		log.Warn("close failed", zap.Error(err))
	}
}
