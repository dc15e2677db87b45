package delay

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCooperative_Delay(t *testing.T) {
	start := time.Now()
	Cooperative{}.Delay(20 * time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestMs(t *testing.T) {
	start := time.Now()
	Ms(15)
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

// TestCooperative_Yields checks that other goroutines make progress while a
// delay is in progress.
func TestCooperative_Yields(t *testing.T) {
	var ticks atomic.Int32
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				ticks.Add(1)
				time.Sleep(time.Millisecond)
			}
		}
	}()

	Cooperative{}.Delay(50 * time.Millisecond)
	close(stop)

	assert.Greater(t, ticks.Load(), int32(5))
}

func TestRecorder_Ungated(t *testing.T) {
	r := NewRecorder(false)
	r.Delay(time.Second)
	r.Delay(2 * time.Second)

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, r.Delays())
	r.Release() // no-op when ungated
}

func TestRecorder_Gated(t *testing.T) {
	r := NewRecorder(true)

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Delay(time.Second)
	}()

	select {
	case <-r.Calls():
	case <-time.After(time.Second):
		t.Fatal("Delay was not entered")
	}

	select {
	case <-done:
		t.Fatal("gated Delay returned before Release")
	case <-time.After(20 * time.Millisecond):
	}

	r.Release()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Delay did not return after Release")
	}

	require.Len(t, r.Delays(), 1)
}
