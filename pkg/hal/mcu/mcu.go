//go:build tinygo

// Package mcu binds the hal package to TinyGo's machine package.
package mcu

import (
	"fmt"
	"machine"
	"strconv"
	"strings"

	"github.com/itohio/goblink/pkg/hal"
)

// Backend drives the microcontroller's GPIO pins.
type Backend struct{}

var _ hal.Backend = Backend{}

// Name returns the backend name.
func (Backend) Name() string {
	return "mcu"
}

// ConfigureOutput configures the GPIO<n> pin as a push-pull output.
func (Backend) ConfigureOutput(name string) (hal.OutputPin, error) {
	p, err := lookup(name)
	if err != nil {
		return nil, err
	}
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &outputPin{name: name, pin: p}, nil
}

func lookup(name string) (machine.Pin, error) {
	num, ok := strings.CutPrefix(strings.ToUpper(name), "GPIO")
	if !ok {
		return machine.NoPin, fmt.Errorf("invalid pin name %q: expected GPIO<n>", name)
	}
	n, err := strconv.ParseUint(num, 10, 8)
	if err != nil {
		return machine.NoPin, fmt.Errorf("invalid pin number in %q: %w", name, err)
	}
	return machine.Pin(n), nil
}

type outputPin struct {
	name string
	pin  machine.Pin
}

func (p *outputPin) Name() string { return p.name }

// Set never fails on real GPIO; the error is part of the hal contract.
func (p *outputPin) Set(level hal.Level) error {
	p.pin.Set(bool(level))
	return nil
}
