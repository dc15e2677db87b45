// Package hal models exclusive ownership of a chip's peripherals and the
// single digital output the blinker drives.
package hal

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	// ErrPeripheralsTaken is returned when the peripheral set was already acquired.
	ErrPeripheralsTaken = errors.New("peripherals already taken")
	// ErrPinTaken is returned when a pin was already moved out of the peripheral set.
	ErrPinTaken = errors.New("pin already taken")
)

// Level is a digital pin level.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "high"
	}
	return "low"
}

// OutputPin is a pin configured as a digital output by a Backend.
type OutputPin interface {
	Set(level Level) error
	Name() string
}

// Backend provides access to the hardware (real or simulated).
type Backend interface {
	Name() string
	ConfigureOutput(name string) (OutputPin, error)
}

// Singleton is a take-once cell guarding a chip's peripheral set.
type Singleton struct {
	taken atomic.Bool
}

// Take acquires the peripheral set. Only the first call succeeds.
func (s *Singleton) Take(b Backend) (*Peripherals, error) {
	if b == nil {
		return nil, fmt.Errorf("nil backend")
	}
	if !s.taken.CompareAndSwap(false, true) {
		return nil, ErrPeripheralsTaken
	}
	return &Peripherals{
		backend: b,
		claimed: make(map[string]bool),
	}, nil
}

// Taken reports whether the peripheral set was acquired.
func (s *Singleton) Taken() bool {
	return s.taken.Load()
}

// chip is the process-wide peripheral singleton.
var chip Singleton

// Take acquires the process-wide peripheral set. It succeeds exactly once per
// process; any further attempt returns ErrPeripheralsTaken.
func Take(b Backend) (*Peripherals, error) {
	return chip.Take(b)
}

// Peripherals is the exclusively owned set of onboard interfaces.
type Peripherals struct {
	backend Backend

	mu      sync.Mutex
	claimed map[string]bool
}

// Backend returns the name of the backend serving this peripheral set.
func (p *Peripherals) Backend() string {
	return p.backend.Name()
}

// Pin moves the named pin out of the peripheral set.
func (p *Peripherals) Pin(name string) (*Pin, error) {
	if name == "" {
		return nil, fmt.Errorf("empty pin name")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.claimed[name] {
		return nil, fmt.Errorf("%s: %w", name, ErrPinTaken)
	}
	p.claimed[name] = true

	return &Pin{name: name, backend: p.backend}, nil
}

// Pin is an unconfigured pin handle. It can be consumed by exactly one driver.
type Pin struct {
	name     string
	backend  Backend
	consumed atomic.Bool
}

// Name returns the pin name.
func (p *Pin) Name() string {
	return p.name
}
