// Package delay provides cooperative delays that suspend the calling goroutine
// instead of spinning, so the scheduler keeps servicing background work.
package delay

import (
	"sync"
	"time"
)

// Delayer suspends the caller for a duration.
type Delayer interface {
	Delay(d time.Duration)
}

// Cooperative parks the calling goroutine in the scheduler for the duration.
type Cooperative struct{}

var _ Delayer = Cooperative{}

// Delay suspends the calling goroutine for d.
func (Cooperative) Delay(d time.Duration) {
	time.Sleep(d)
}

// Ms suspends the calling goroutine for ms milliseconds.
func Ms(ms uint32) {
	Cooperative{}.Delay(time.Duration(ms) * time.Millisecond)
}

// Recorder records requested delays without sleeping. When gated, every
// Delay call blocks until Release is called once.
type Recorder struct {
	mu     sync.Mutex
	delays []time.Duration
	gate   chan struct{}
	calls  chan struct{}
}

var _ Delayer = (*Recorder)(nil)

// NewRecorder creates a Recorder. A gated recorder blocks each Delay call
// until released; Calls signals each blocked call.
func NewRecorder(gated bool) *Recorder {
	r := &Recorder{
		delays: make([]time.Duration, 0),
		calls:  make(chan struct{}, 1024),
	}
	if gated {
		r.gate = make(chan struct{})
	}
	return r
}

// Delay records d and, if gated, waits for Release.
func (r *Recorder) Delay(d time.Duration) {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()

	select {
	case r.calls <- struct{}{}:
	default:
	}

	if r.gate != nil {
		<-r.gate
	}
}

// Release unblocks one pending Delay call.
func (r *Recorder) Release() {
	if r.gate != nil {
		r.gate <- struct{}{}
	}
}

// Calls is signalled every time Delay is entered.
func (r *Recorder) Calls() <-chan struct{} {
	return r.calls
}

// Delays returns a copy of the recorded durations.
func (r *Recorder) Delays() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]time.Duration, len(r.delays))
	copy(out, r.delays)
	return out
}
