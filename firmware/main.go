//go:build tinygo

//go:generate tinygo flash -target=esp32c3 -monitor

package main

import (
	"context"
	"log/slog"
	"machine"
	"time"

	"github.com/itohio/goblink/pkg/blink"
	"github.com/itohio/goblink/pkg/delay"
	"github.com/itohio/goblink/pkg/hal"
	"github.com/itohio/goblink/pkg/hal/mcu"
	"github.com/itohio/goblink/pkg/logging"
)

func main() {
	// Must run before anything touches the console or peripherals.
	initRuntime()

	log := logging.Init(machine.Serial, logging.Options{
		Level:    slog.LevelInfo,
		Format:   logging.FormatText,
		OmitTime: true,
	})

	log.Info(blink.MsgBoot, "target", TARGET, "interval", BLINK_INTERVAL_MS*time.Millisecond)

	p, err := hal.Take(mcu.Backend{})
	if err != nil {
		fatal(log, err)
	}

	pin, err := p.Pin(LED_PIN)
	if err != nil {
		fatal(log, err)
	}

	led, err := hal.Output(pin)
	if err != nil {
		fatal(log, err)
	}

	log.Info(blink.MsgConfigured, "led", led.Name())

	startWatchdog(context.Background(), log)

	b := blink.New(led,
		blink.WithInterval(BLINK_INTERVAL_MS*time.Millisecond),
		blink.WithDelayer(delay.Cooperative{}),
		blink.WithLogger(log),
	)

	// Run only returns on a pin failure.
	fatal(log, b.Run())
}

// fatal reports err and halts. The watchdog resets the chip.
func fatal(log *slog.Logger, err error) {
	log.Error(blink.MsgFatal, "err", err)
	panic(err)
}
