//go:build tinygo && (rp2040 || rp2350)

package main

import (
	"context"
	"log/slog"
	"machine"
	"time"

	"github.com/itohio/goblink/pkg/delay"
	"github.com/itohio/goblink/pkg/watchdog"
)

const (
	TARGET = "rp2"

	// Pico onboard LED
	LED_PIN = "GPIO25"
)

func initRuntime() {
	delay.Ms(BOOT_SETTLE_MS)
}

func startWatchdog(ctx context.Context, log *slog.Logger) {
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: WATCHDOG_TIMEOUT_MS})
	if err != nil {
		fatal(log, err)
	}
	if err := machine.Watchdog.Start(); err != nil {
		fatal(log, err)
	}

	f := watchdog.New(machine.Watchdog, WATCHDOG_FEED_MS*time.Millisecond)
	go f.Run(ctx)

	log.Info("watchdog started", "timeout", WATCHDOG_TIMEOUT_MS*time.Millisecond)
}
