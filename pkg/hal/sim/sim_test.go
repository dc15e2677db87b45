package sim

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/goblink/pkg/hal"
)

func TestNew(t *testing.T) {
	b := New(0)
	assert.Equal(t, "sim", b.Name())
	assert.Equal(t, 0, b.Writes())
	assert.Empty(t, b.Transitions("GPIO8"))
}

func TestConfigureOutput_Twice(t *testing.T) {
	b := New(0)
	_, err := b.ConfigureOutput("GPIO8")
	require.NoError(t, err)

	_, err = b.ConfigureOutput("GPIO8")
	assert.Error(t, err)
}

func TestRecordsTransitions(t *testing.T) {
	b := New(0)
	base := time.Unix(1000, 0)
	tick := 0
	b.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	p, err := b.ConfigureOutput("GPIO8")
	require.NoError(t, err)
	require.NoError(t, p.Set(hal.High))
	require.NoError(t, p.Set(hal.Low))

	tr := b.Transitions("GPIO8")
	require.Len(t, tr, 2)
	assert.Equal(t, hal.High, tr[0].Level)
	assert.Equal(t, base.Add(time.Second), tr[0].Time)
	assert.Equal(t, hal.Low, tr[1].Level)
	assert.Equal(t, base.Add(2*time.Second), tr[1].Time)
	assert.Equal(t, 2, b.Writes())

	// Returned slice is a copy.
	tr[0].Level = hal.Low
	assert.Equal(t, hal.High, b.Transitions("GPIO8")[0].Level)
}

func TestFailAfter(t *testing.T) {
	b := New(3)
	p, err := b.ConfigureOutput("GPIO8")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, p.Set(hal.Level(i%2 == 0)))
	}
	assert.ErrorIs(t, p.Set(hal.High), ErrInjected)
	assert.Equal(t, 3, b.Writes())
}

func TestHalt(t *testing.T) {
	b := New(0)
	p, err := b.ConfigureOutput("GPIO8")
	require.NoError(t, err)

	b.Halt()
	assert.ErrorIs(t, p.Set(hal.High), ErrHalted)
	_, err = b.ConfigureOutput("GPIO9")
	assert.ErrorIs(t, err, ErrHalted)
}

func TestConcurrentReaders(t *testing.T) {
	b := New(0)
	p, err := b.ConfigureOutput("GPIO8")
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = p.Set(hal.Level(i%2 == 0))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = b.Transitions("GPIO8")
			_ = b.Writes()
		}
	}()
	wg.Wait()

	assert.Equal(t, 100, b.Writes())
}
