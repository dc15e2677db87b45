//go:build tinygo && esp32c3

package main

import (
	"context"
	"log/slog"

	"github.com/itohio/goblink/pkg/delay"
)

const (
	TARGET = "esp32c3"

	// ESP32-C3-DevKitM-1 onboard LED
	LED_PIN = "GPIO8"

	// USB-Serial-JTAG enumerates after reset; without this the banner is lost.
	USB_CONSOLE_SETTLE_MS = 1000
)

func initRuntime() {
	delay.Ms(USB_CONSOLE_SETTLE_MS)
}

// The ESP32-C3 runtime keeps its own watchdogs fed while goroutines sleep.
func startWatchdog(_ context.Context, log *slog.Logger) {
	log.Debug("watchdog managed by runtime")
}
