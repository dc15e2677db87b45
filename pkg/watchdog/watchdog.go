// Package watchdog feeds a hardware watchdog from a background goroutine.
package watchdog

import (
	"context"
	"sync/atomic"
	"time"
)

// Watchdog is a hardware watchdog that must be updated periodically.
type Watchdog interface {
	Update()
}

// Feeder periodically updates a watchdog.
type Feeder struct {
	wd     Watchdog
	period time.Duration
	feeds  atomic.Uint32
}

// New creates a Feeder updating wd every period.
func New(wd Watchdog, period time.Duration) *Feeder {
	if period <= 0 {
		period = 500 * time.Millisecond
	}
	return &Feeder{wd: wd, period: period}
}

// Run feeds the watchdog immediately and then every period until ctx is done.
func (f *Feeder) Run(ctx context.Context) {
	f.feed()

	ticker := time.NewTicker(f.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.feed()
		}
	}
}

// Feeds returns how many times the watchdog was updated.
func (f *Feeder) Feeds() uint32 {
	return f.feeds.Load()
}

func (f *Feeder) feed() {
	f.wd.Update()
	f.feeds.Add(1)
}
