package hal

import "fmt"

// PinDriver drives a pin configured as a digital output.
type PinDriver struct {
	pin   OutputPin
	level Level
}

// Output consumes the pin, configures it as a digital output and drives it low.
func Output(pin *Pin) (*PinDriver, error) {
	if pin == nil {
		return nil, fmt.Errorf("nil pin")
	}
	if !pin.consumed.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("%s: %w", pin.name, ErrPinTaken)
	}

	out, err := pin.backend.ConfigureOutput(pin.name)
	if err != nil {
		pin.consumed.Store(false)
		return nil, fmt.Errorf("failed to configure %s as output: %w", pin.name, err)
	}

	d := &PinDriver{pin: out}
	if err := d.set(Low); err != nil {
		return nil, err
	}
	return d, nil
}

// Name returns the name of the driven pin.
func (d *PinDriver) Name() string {
	return d.pin.Name()
}

// SetHigh drives the pin high.
func (d *PinDriver) SetHigh() error {
	return d.set(High)
}

// SetLow drives the pin low.
func (d *PinDriver) SetLow() error {
	return d.set(Low)
}

// Toggle inverts the last written level.
func (d *PinDriver) Toggle() error {
	return d.set(!d.level)
}

// IsSetHigh reports whether the last successful write was High.
func (d *PinDriver) IsSetHigh() bool {
	return d.level == High
}

func (d *PinDriver) set(level Level) error {
	if err := d.pin.Set(level); err != nil {
		return fmt.Errorf("failed to set %s %s: %w", d.pin.Name(), level, err)
	}
	d.level = level
	return nil
}
