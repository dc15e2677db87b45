// Command blinkmon watches and verifies the goblink firmware from the host.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/itohio/goblink/pkg/config"
	"github.com/itohio/goblink/pkg/logging"
	"github.com/itohio/goblink/pkg/monitor"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// options holds the persistent flags and the configuration they resolve to.
type options struct {
	configPath string
	port       string
	mock       bool
	logLevel   string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "blinkmon",
		Short:        "Monitor and verify the goblink LED smoke test",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "config.yaml", "Configuration file path")
	flags.StringVarP(&opts.port, "port", "p", "", "Serial port override (e.g. /dev/ttyACM0, COM3 or auto)")
	flags.BoolVar(&opts.mock, "mock", false, "Use a simulated board instead of the serial port")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	root.AddCommand(
		newPortsCmd(),
		newMonitorCmd(opts),
		newVerifyCmd(opts),
		newRunCmd(opts),
		newConfigCmd(opts),
	)

	return root
}

// load reads the configuration, applies flag overrides and installs logging.
func (o *options) load() error {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if o.port != "" {
		cfg.Serial.Port = o.port
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(cfg.Log.Format)
	if err != nil {
		return err
	}
	logging.Init(os.Stderr, logging.Options{Level: level, Format: format})

	o.cfg = cfg
	return nil
}

// device returns the console source and the blink interval it is expected to
// produce.
func (o *options) device() (monitor.Device, time.Duration, error) {
	if o.mock {
		return monitor.NewMock(&o.cfg.Mock), o.cfg.Mock.Interval, nil
	}

	port := o.cfg.Serial.Port
	if port == "auto" {
		ports, err := monitor.Ports()
		if err != nil {
			return nil, 0, err
		}
		port, err = monitor.DetectPort(ports)
		if err != nil {
			return nil, 0, err
		}
	}

	return monitor.New(port, o.cfg.Serial.BaudRate, monitor.DefaultBufferSize), o.cfg.Blink.Interval, nil
}
