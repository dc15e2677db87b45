package monitor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/itohio/goblink/pkg/blink"
	"github.com/itohio/goblink/pkg/config"
	"github.com/itohio/goblink/pkg/hal"
	"github.com/itohio/goblink/pkg/hal/sim"
	"github.com/itohio/goblink/pkg/logging"
)

// Mock simulates a board running the blink firmware. It runs the real blink
// loop on a simulated chip and exposes its console.
type Mock struct {
	cfg *config.MockConfig

	lines     chan Line
	done      chan struct{}
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool

	boots int
	chip  *sim.Backend
}

// NewMock creates a new simulated board.
func NewMock(cfg *config.MockConfig) *Mock {
	if cfg == nil {
		cfg = &config.MockConfig{
			Pin:      "GPIO8",
			Interval: blink.DefaultInterval,
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:       cfg,
		lines:     make(chan Line, DefaultBufferSize),
		done:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		connected: false,
	}
}

// Connect powers the simulated board on.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}
	if m.ctx.Err() != nil {
		return fmt.Errorf("device closed")
	}

	m.connected = true

	pr, pw := io.Pipe()
	go m.runBoard(pw)
	go func() {
		defer close(m.done)
		defer close(m.lines)
		// Drain until the board closes the pipe so its writes never block.
		scan(context.Background(), pr, m.lines)
	}()

	return nil
}

// Close powers the simulated board off and waits for its console to drain.
func (m *Mock) Close() error {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return nil
	}
	m.cancel()
	m.connected = false
	m.mu.Unlock()

	<-m.done
	return nil
}

// Lines returns the console lines of the simulated board.
func (m *Mock) Lines() <-chan Line {
	return m.lines
}

// IsConnected returns whether the board is powered.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// Boots returns how many times the simulated board booted.
func (m *Mock) Boots() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.boots
}

// Chip returns the simulated chip of the current boot.
func (m *Mock) Chip() *sim.Backend {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.chip
}

// runBoard boots the firmware and, if configured, reboots it after a fault
// the way a watchdog reset would.
func (m *Mock) runBoard(w *io.PipeWriter) {
	defer w.Close()

	for {
		err := m.boot(w)
		if m.ctx.Err() != nil {
			return
		}
		slog.Debug("simulated board faulted", "err", err)

		if !m.cfg.Reboot {
			// Halted until powered off.
			<-m.ctx.Done()
			return
		}

		select {
		case <-m.ctx.Done():
			return
		case <-time.After(m.cfg.Interval):
		}
	}
}

// boot mirrors the firmware start-up sequence on a fresh simulated chip.
func (m *Mock) boot(w io.Writer) error {
	chip := sim.New(m.cfg.FailAfter)

	m.mu.Lock()
	m.boots++
	m.chip = chip
	m.mu.Unlock()

	log := logging.New(w, logging.Options{Level: slog.LevelInfo, OmitTime: true})
	log.Info(blink.MsgBoot, "target", chip.Name(), "interval", m.cfg.Interval)

	err := m.blink(chip, log)
	if m.ctx.Err() != nil {
		// Powered off; a dead board prints nothing.
		return err
	}
	log.Error(blink.MsgFatal, "err", err)
	return err
}

func (m *Mock) blink(chip *sim.Backend, log *slog.Logger) error {
	var s hal.Singleton
	p, err := s.Take(chip)
	if err != nil {
		return err
	}
	pin, err := p.Pin(m.cfg.Pin)
	if err != nil {
		return err
	}
	led, err := hal.Output(pin)
	if err != nil {
		return err
	}
	log.Info(blink.MsgConfigured, "led", led.Name())

	b := blink.New(&poweredOutput{Output: led, ctx: m.ctx},
		blink.WithInterval(m.cfg.Interval),
		blink.WithDelayer(ctxDelayer{ctx: m.ctx}),
		blink.WithLogger(log),
	)
	return b.Run()
}

// poweredOutput fails every write once the board is powered off.
type poweredOutput struct {
	blink.Output
	ctx context.Context
}

func (o *poweredOutput) SetHigh() error {
	if err := o.ctx.Err(); err != nil {
		return err
	}
	return o.Output.SetHigh()
}

func (o *poweredOutput) SetLow() error {
	if err := o.ctx.Err(); err != nil {
		return err
	}
	return o.Output.SetLow()
}

// ctxDelayer sleeps like delay.Cooperative but wakes up on power-off.
type ctxDelayer struct {
	ctx context.Context
}

func (d ctxDelayer) Delay(dur time.Duration) {
	t := time.NewTimer(dur)
	defer t.Stop()

	select {
	case <-d.ctx.Done():
	case <-t.C:
	}
}
