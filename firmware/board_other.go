//go:build tinygo && !esp32c3 && !rp2040 && !rp2350

package main

import (
	"context"
	"log/slog"

	"github.com/itohio/goblink/pkg/delay"
)

const (
	TARGET = "generic"

	// Raw machine.Pin number of the LED; edit for the board
	LED_PIN = "GPIO13"
)

func initRuntime() {
	delay.Ms(BOOT_SETTLE_MS)
}

func startWatchdog(_ context.Context, log *slog.Logger) {
	log.Debug("no hardware watchdog configured")
}
