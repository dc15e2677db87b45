//go:build !tinygo

package periphio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/itohio/goblink/pkg/hal"
)

func fakeLookup(pins ...*gpiotest.Pin) func(string) gpio.PinIO {
	return func(name string) gpio.PinIO {
		for _, p := range pins {
			if p.N == name {
				return p
			}
		}
		return nil
	}
}

func TestConfigureOutput(t *testing.T) {
	fake := &gpiotest.Pin{N: "GPIO17", Num: 17, L: gpio.High}
	b := newBackend(fakeLookup(fake))
	assert.Equal(t, "periph.io", b.Name())

	p, err := b.ConfigureOutput("GPIO17")
	require.NoError(t, err)
	assert.Equal(t, "GPIO17", p.Name())
	assert.Equal(t, gpio.Low, fake.Read(), "configured output starts low")

	require.NoError(t, p.Set(hal.High))
	assert.Equal(t, gpio.High, fake.Read())
	require.NoError(t, p.Set(hal.Low))
	assert.Equal(t, gpio.Low, fake.Read())
}

func TestConfigureOutput_UnknownPin(t *testing.T) {
	b := newBackend(fakeLookup())
	_, err := b.ConfigureOutput("GPIO99")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "GPIO99")
}

func TestBackend_WithPeripherals(t *testing.T) {
	fake := &gpiotest.Pin{N: "GPIO17", Num: 17}
	var s hal.Singleton
	p, err := s.Take(newBackend(fakeLookup(fake)))
	require.NoError(t, err)

	pin, err := p.Pin("GPIO17")
	require.NoError(t, err)
	led, err := hal.Output(pin)
	require.NoError(t, err)

	require.NoError(t, led.SetHigh())
	assert.Equal(t, gpio.High, fake.Read())
}
