package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/itohio/goblink/pkg/blink"
	"github.com/itohio/goblink/pkg/hal"
	"github.com/itohio/goblink/pkg/hal/periphio"
	"github.com/itohio/goblink/pkg/hal/sim"
	"github.com/itohio/goblink/pkg/monitor"
	"github.com/itohio/goblink/pkg/verify"
)

func newPortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := monitor.Ports()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(ports) == 0 {
				fmt.Fprintln(w, "no serial ports found")
				return nil
			}
			for _, p := range ports {
				mark := " "
				if p.IsEspressif() {
					mark = "*"
				}
				if p.IsUSB {
					fmt.Fprintf(w, "%s %-20s %s:%s %s\n", mark, p.Name, p.VID, p.PID, p.Description)
				} else {
					fmt.Fprintf(w, "%s %-20s %s\n", mark, p.Name, p.Description)
				}
			}
			return nil
		},
	}
}

func newMonitorCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Stream console events until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			dev, _, err := opts.device()
			if err != nil {
				return err
			}
			chain, err := openChain(dev)
			if err != nil {
				return err
			}
			defer chain.Close()

			return printEvents(ctx, cmd.OutOrStdout(), chain.events)
		},
	}
}

func printEvents(ctx context.Context, w io.Writer, events <-chan monitor.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			fmt.Fprintf(w, "%s %-10s %s\n", ev.Timestamp.Format("15:04:05.000"), ev.Kind, ev.Raw)
		}
	}
}

func newVerifyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Observe the board and check the blink contract",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			dev, interval, err := opts.device()
			if err != nil {
				return err
			}

			report, err := observe(ctx, dev, interval, opts)
			if err != nil {
				return err
			}

			printReport(cmd.OutOrStdout(), report, opts.cfg.Verify.MinTransitions)
			if !report.Passed(opts.cfg.Verify.MinTransitions) {
				return fmt.Errorf("verification failed")
			}
			return nil
		},
	}
}

// drainTimeout bounds the wait for the event chain to drain after Close.
var drainTimeout = 2 * time.Second

// observe runs a checker over the device's events for the configured duration.
func observe(ctx context.Context, dev monitor.Device, interval time.Duration, opts *options) (verify.Report, error) {
	checker := verify.New(opts.cfg.Verify, interval)
	checker.OnViolation(func(v verify.Violation) {
		slog.Warn("violation", "kind", v.Kind, "detail", v.Detail)
	})

	chain, err := openChain(dev)
	if err != nil {
		return verify.Report{}, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		checker.ProcessEvents(chain.events)
	}()

	ctx, cancel := context.WithTimeout(ctx, opts.cfg.Verify.Duration)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-done:
			break loop
		case now := <-ticker.C:
			checker.CheckStall(now)
		}
	}

	chain.Close()
	select {
	case <-done:
	case <-time.After(drainTimeout):
		slog.Warn("console did not drain, reporting events seen so far")
	}

	return checker.Report(), nil
}

func printReport(w io.Writer, r verify.Report, minTransitions int) {
	fmt.Fprintf(w, "boots:         %d\n", r.Boots)
	fmt.Fprintf(w, "transitions:   %d (need %d)\n", r.Transitions, minTransitions)
	fmt.Fprintf(w, "mean interval: %s\n", r.MeanInterval)
	fmt.Fprintf(w, "jitter:        %s\n", r.Jitter)
	for _, v := range r.Violations {
		fmt.Fprintf(w, "violation:     %s\n", v)
	}
	if r.Passed(minTransitions) {
		fmt.Fprintln(w, "result:        PASS")
	} else {
		fmt.Fprintln(w, "result:        FAIL")
	}
}

func newRunCmd(opts *options) *cobra.Command {
	var (
		pin    string
		useSim bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the blinker on host GPIO (never returns)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if pin == "" {
				pin = opts.cfg.Blink.Pin
			}

			var backend hal.Backend
			if useSim {
				backend = sim.New(0)
			} else {
				b, err := periphio.New()
				if err != nil {
					return fatal(err)
				}
				backend = b
			}

			return fatal(runBlinker(backend, pin, opts.cfg.Blink.Interval))
		},
	}

	cmd.Flags().StringVar(&pin, "pin", "", "GPIO pin name override (e.g. GPIO17)")
	cmd.Flags().BoolVar(&useSim, "sim", false, "Drive a simulated chip instead of host GPIO")

	return cmd
}

// runBlinker mirrors the firmware start-up on the host. It returns only on error.
func runBlinker(backend hal.Backend, pinName string, interval time.Duration) error {
	slog.Info(blink.MsgBoot, "target", backend.Name(), "interval", interval)

	p, err := hal.Take(backend)
	if err != nil {
		return err
	}
	pin, err := p.Pin(pinName)
	if err != nil {
		return err
	}
	led, err := hal.Output(pin)
	if err != nil {
		return err
	}
	slog.Info(blink.MsgConfigured, "led", led.Name())

	return blink.New(led, blink.WithInterval(interval), blink.WithLogger(slog.Default())).Run()
}

// fatal logs err the way the firmware does before the process exits.
func fatal(err error) error {
	slog.Error(blink.MsgFatal, "err", err)
	return err
}

func newConfigCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config [file]",
		Short: "Write the effective configuration to a YAML file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configPath
			if len(args) == 1 {
				path = args[0]
			}
			if err := opts.cfg.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration written to %s\n", path)
			return nil
		},
	}
}
