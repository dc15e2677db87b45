//go:build tinygo

package main

const (
	// Blink configuration
	BLINK_INTERVAL_MS = 500 // Time the LED spends in each state

	// Watchdog configuration
	WATCHDOG_TIMEOUT_MS = 2000 // Reset if not fed within this time
	WATCHDOG_FEED_MS    = 500  // Feed period, well inside the timeout

	// Time given to the console to come up before the banner is printed
	BOOT_SETTLE_MS = 100
)
