package main

import (
	"fmt"
	"log/slog"

	"github.com/itohio/goblink/pkg/monitor"
)

// eventChain tracks the device and decoder for graceful shutdown.
type eventChain struct {
	device monitor.Device
	events <-chan monitor.Event
}

func openChain(dev monitor.Device) (*eventChain, error) {
	if err := dev.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	slog.Info("connected", "device", fmt.Sprintf("%T", dev))

	return &eventChain{
		device: dev,
		events: monitor.NewDecoder(monitor.DefaultBufferSize)(dev.Lines()),
	}, nil
}

// Close closes the device. Its lines channel closes, which in turn closes
// the events channel once the decoder drains.
func (c *eventChain) Close() {
	if c == nil || c.device == nil {
		return
	}
	if err := c.device.Close(); err != nil {
		slog.Warn("error closing device", "err", err)
	}
}
