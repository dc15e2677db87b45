// Package blink implements the two-state LED loop used as a boot-time smoke test.
package blink

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/itohio/goblink/pkg/delay"
	"github.com/itohio/goblink/pkg/hal"
)

// DefaultInterval is the time the LED spends in each state.
const DefaultInterval = 500 * time.Millisecond

// Console messages. The host monitor classifies lines by them.
const (
	MsgBoot       = "goblink-scaffold"
	MsgConfigured = "LED configured"
	MsgOn         = "LED ON"
	MsgOff        = "LED OFF"
	MsgFatal      = "fatal"
)

// Output is the LED the blinker drives.
type Output interface {
	SetHigh() error
	SetLow() error
	Name() string
}

var _ Output = (*hal.PinDriver)(nil)

// Blinker alternates an output between high and low with a fixed interval.
type Blinker struct {
	led      Output
	interval time.Duration
	delay    delay.Delayer
	log      *slog.Logger
	cycle    uint32
}

// Option configures a Blinker.
type Option func(*Blinker)

// WithInterval sets the time spent in each state. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(b *Blinker) {
		if d > 0 {
			b.interval = d
		}
	}
}

// WithDelayer sets the delay primitive.
func WithDelayer(d delay.Delayer) Option {
	return func(b *Blinker) {
		if d != nil {
			b.delay = d
		}
	}
}

// WithLogger sets the logger transitions are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(b *Blinker) {
		if l != nil {
			b.log = l
		}
	}
}

// New creates a Blinker driving led.
func New(led Output, opts ...Option) *Blinker {
	b := &Blinker{
		led:      led,
		interval: DefaultInterval,
		delay:    delay.Cooperative{},
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Interval returns the configured interval.
func (b *Blinker) Interval() time.Duration {
	return b.interval
}

// Cycles returns the number of started cycles.
func (b *Blinker) Cycles() uint32 {
	return b.cycle
}

// Run blinks forever. It returns only when a pin write fails.
func (b *Blinker) Run() error {
	for {
		if err := b.Cycle(); err != nil {
			return err
		}
	}
}

// Cycle drives the LED high, waits, drives it low and waits again.
func (b *Blinker) Cycle() error {
	b.cycle++

	if err := b.led.SetHigh(); err != nil {
		return fmt.Errorf("cycle %d: %w", b.cycle, err)
	}
	b.log.Info(MsgOn, "led", b.led.Name(), "cycle", b.cycle)
	b.delay.Delay(b.interval)

	if err := b.led.SetLow(); err != nil {
		return fmt.Errorf("cycle %d: %w", b.cycle, err)
	}
	b.log.Info(MsgOff, "led", b.led.Name(), "cycle", b.cycle)
	b.delay.Delay(b.interval)

	return nil
}
