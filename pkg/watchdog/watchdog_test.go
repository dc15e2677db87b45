package watchdog

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeWatchdog struct {
	updates atomic.Int32
}

func (w *fakeWatchdog) Update() { w.updates.Add(1) }

func TestNew_DefaultPeriod(t *testing.T) {
	f := New(&fakeWatchdog{}, 0)
	assert.Equal(t, 500*time.Millisecond, f.period)
}

func TestFeeder_FeedsUntilCancelled(t *testing.T) {
	wd := &fakeWatchdog{}
	f := New(wd, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.Run(ctx)
	}()

	assert.Eventually(t, func() bool { return wd.updates.Load() >= 5 }, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("feeder did not stop after cancel")
	}

	stopped := wd.updates.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, wd.updates.Load(), "no feeds after stop")
	assert.Equal(t, uint32(stopped), f.Feeds())
}

func TestFeeder_FeedsImmediately(t *testing.T) {
	wd := &fakeWatchdog{}
	f := New(wd, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.Run(ctx)
	}()

	assert.Eventually(t, func() bool { return wd.updates.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	<-done
}
