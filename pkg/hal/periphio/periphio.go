//go:build !tinygo

// Package periphio binds the hal package to Linux host GPIO via periph.io.
package periphio

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/itohio/goblink/pkg/hal"
)

// Backend drives GPIO pins registered with periph.io.
type Backend struct {
	lookup func(name string) gpio.PinIO
}

var _ hal.Backend = (*Backend)(nil)

// New initializes the periph.io host drivers and returns a backend.
func New() (*Backend, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	return newBackend(gpioreg.ByName), nil
}

func newBackend(lookup func(name string) gpio.PinIO) *Backend {
	return &Backend{lookup: lookup}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "periph.io"
}

// ConfigureOutput configures the named pin (e.g. GPIO17) as an output driven low.
func (b *Backend) ConfigureOutput(name string) (hal.OutputPin, error) {
	p := b.lookup(name)
	if p == nil {
		return nil, fmt.Errorf("unknown pin %q", name)
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("failed to configure %s: %w", name, err)
	}
	return &outputPin{name: name, pin: p}, nil
}

type outputPin struct {
	name string
	pin  gpio.PinIO
}

func (p *outputPin) Name() string { return p.name }

func (p *outputPin) Set(level hal.Level) error {
	l := gpio.Low
	if level == hal.High {
		l = gpio.High
	}
	return p.pin.Out(l)
}
