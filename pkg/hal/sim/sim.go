// Package sim provides a simulated chip for running the blinker without hardware.
package sim

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/itohio/goblink/pkg/hal"
)

var (
	// ErrHalted is returned by writes after the chip has been halted.
	ErrHalted = errors.New("chip halted")
	// ErrInjected is returned by the write configured with FailAfter.
	ErrInjected = errors.New("injected write failure")
)

// Transition is a single recorded pin write.
type Transition struct {
	Time  time.Time
	Level hal.Level
}

// Backend simulates a chip with an unlimited number of GPIO pins.
type Backend struct {
	mu          sync.RWMutex
	transitions map[string][]Transition
	writes      int
	failAfter   int
	halted      bool
	now         func() time.Time
}

var _ hal.Backend = (*Backend)(nil)

// New creates a simulated chip. A positive failAfter makes the write after
// failAfter successful writes fail with ErrInjected.
func New(failAfter int) *Backend {
	return &Backend{
		transitions: make(map[string][]Transition),
		failAfter:   failAfter,
		now:         time.Now,
	}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "sim"
}

// ConfigureOutput configures a simulated output pin.
func (b *Backend) ConfigureOutput(name string) (hal.OutputPin, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.halted {
		return nil, ErrHalted
	}
	if _, ok := b.transitions[name]; ok {
		return nil, fmt.Errorf("%s already configured", name)
	}
	b.transitions[name] = make([]Transition, 0)

	return &pin{name: name, b: b}, nil
}

// Halt makes every subsequent write fail with ErrHalted.
func (b *Backend) Halt() {
	b.mu.Lock()
	b.halted = true
	b.mu.Unlock()
}

// Transitions returns a copy of the writes recorded for the named pin.
func (b *Backend) Transitions(name string) []Transition {
	b.mu.RLock()
	defer b.mu.RUnlock()

	src := b.transitions[name]
	out := make([]Transition, len(src))
	copy(out, src)
	return out
}

// Writes returns the number of successful writes across all pins.
func (b *Backend) Writes() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.writes
}

func (b *Backend) write(name string, level hal.Level) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.halted {
		return ErrHalted
	}
	if b.failAfter > 0 && b.writes >= b.failAfter {
		return ErrInjected
	}

	b.writes++
	b.transitions[name] = append(b.transitions[name], Transition{Time: b.now(), Level: level})
	return nil
}

type pin struct {
	name string
	b    *Backend
}

func (p *pin) Name() string { return p.name }

func (p *pin) Set(level hal.Level) error {
	return p.b.write(p.name, level)
}
