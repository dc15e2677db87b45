// Package verify checks a console event stream against the blink contract:
// strict alternation, fixed interval, a single boot and a loop that never stops.
package verify

import (
	"fmt"
	"sync"
	"time"

	"github.com/chewxy/math32"

	"github.com/itohio/goblink/pkg/config"
	"github.com/itohio/goblink/pkg/monitor"
)

// ViolationKind identifies a broken property.
type ViolationKind int

const (
	RepeatedState ViolationKind = iota
	FirstStateLow
	IntervalOutOfRange
	Reboot
	Fault
	Stall
	CycleGap
)

func (k ViolationKind) String() string {
	switch k {
	case RepeatedState:
		return "repeated-state"
	case FirstStateLow:
		return "first-state-low"
	case IntervalOutOfRange:
		return "interval-out-of-range"
	case Reboot:
		return "reboot"
	case Fault:
		return "fault"
	case Stall:
		return "stall"
	case CycleGap:
		return "cycle-gap"
	}
	return "unknown"
}

// Violation is a single detected contract breach.
type Violation struct {
	Kind   ViolationKind
	At     time.Time
	Detail string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s at %s: %s", v.Kind, v.At.Format(time.RFC3339Nano), v.Detail)
}

// Report summarizes an observation.
type Report struct {
	Boots        int
	Transitions  int
	MeanInterval time.Duration
	Jitter       time.Duration // standard deviation of the intervals
	Violations   []Violation
}

// Passed reports whether no violation was found and at least minTransitions
// were observed.
func (r Report) Passed(minTransitions int) bool {
	return len(r.Violations) == 0 && r.Transitions >= minTransitions
}

// Checker consumes events and records violations.
type Checker struct {
	interval     time.Duration
	tolerance    time.Duration
	stallTimeout time.Duration

	mu          sync.RWMutex
	boots       int
	transitions int
	last        *monitor.Event // last transition since the latest boot
	lastSeen    time.Time      // last transition or boot; reference for stalls
	stalled     bool
	intervals   []float32 // milliseconds
	violations  []Violation

	callbacks []func(Violation)
	cbMu      sync.RWMutex
}

// New creates a Checker expecting transitions every interval.
func New(cfg config.VerifyConfig, interval time.Duration) *Checker {
	return &Checker{
		interval:     interval,
		tolerance:    cfg.Tolerance,
		stallTimeout: cfg.StallTimeout,
		intervals:    make([]float32, 0),
		violations:   make([]Violation, 0),
		callbacks:    make([]func(Violation), 0),
	}
}

// OnViolation registers a callback invoked for every violation.
func (c *Checker) OnViolation(cb func(Violation)) {
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.callbacks = append(c.callbacks, cb)
}

// ProcessEvents processes events until the channel closes.
func (c *Checker) ProcessEvents(in <-chan monitor.Event) {
	for ev := range in {
		c.Process(ev)
	}
}

// Process updates the checker with a single event.
func (c *Checker) Process(ev monitor.Event) {
	var found []Violation

	c.mu.Lock()
	switch {
	case ev.Kind == monitor.KindBoot:
		c.boots++
		if c.boots > 1 || c.transitions > 0 {
			found = append(found, Violation{Kind: Reboot, At: ev.Timestamp, Detail: fmt.Sprintf("boot #%d", c.boots)})
		}
		c.last = nil
		c.lastSeen = ev.Timestamp
		c.stalled = false

	case ev.Kind == monitor.KindFault:
		found = append(found, Violation{Kind: Fault, At: ev.Timestamp, Detail: describeFault(ev)})

	case ev.Kind.IsTransition():
		found = c.transition(ev)
	}
	c.mu.Unlock()

	c.emit(found)
}

// transition must be called with c.mu held.
func (c *Checker) transition(ev monitor.Event) []Violation {
	var found []Violation
	c.transitions++
	c.lastSeen = ev.Timestamp
	c.stalled = false

	if c.last == nil {
		// Attached mid-stream: the first transition is only a baseline.
		if c.boots > 0 && ev.Kind != monitor.KindLEDOn {
			found = append(found, Violation{Kind: FirstStateLow, At: ev.Timestamp, Detail: "first transition drove the LED low"})
		}
		e := ev
		c.last = &e
		return found
	}

	prev := *c.last
	if prev.Kind == ev.Kind {
		found = append(found, Violation{Kind: RepeatedState, At: ev.Timestamp, Detail: fmt.Sprintf("LED %s twice in a row", ev.Kind)})
	}

	dt := ev.Timestamp.Sub(prev.Timestamp)
	c.intervals = append(c.intervals, float32(dt.Seconds()*1000))
	if dt < c.interval-c.tolerance || dt > c.interval+c.tolerance {
		found = append(found, Violation{
			Kind:   IntervalOutOfRange,
			At:     ev.Timestamp,
			Detail: fmt.Sprintf("interval %s outside %s ± %s", dt, c.interval, c.tolerance),
		})
	}

	if gap := cycleGap(prev, ev); gap != "" {
		found = append(found, Violation{Kind: CycleGap, At: ev.Timestamp, Detail: gap})
	}

	e := ev
	c.last = &e
	return found
}

// CheckStall reports a stall if no transition arrived within interval plus
// the stall timeout. A stall is reported once until transitions resume.
func (c *Checker) CheckStall(now time.Time) bool {
	c.mu.Lock()
	if c.lastSeen.IsZero() || c.stalled {
		c.mu.Unlock()
		return c.stalled
	}

	idle := now.Sub(c.lastSeen)
	if idle <= c.interval+c.stallTimeout {
		c.mu.Unlock()
		return false
	}
	c.stalled = true
	v := Violation{Kind: Stall, At: now, Detail: fmt.Sprintf("no transition for %s", idle)}
	c.mu.Unlock()

	c.emit([]Violation{v})
	return true
}

// Report returns a summary of everything processed so far.
func (c *Checker) Report() Report {
	c.mu.RLock()
	defer c.mu.RUnlock()

	mean, stddev := stats(c.intervals)
	violations := make([]Violation, len(c.violations))
	copy(violations, c.violations)

	return Report{
		Boots:        c.boots,
		Transitions:  c.transitions,
		MeanInterval: msToDuration(mean),
		Jitter:       msToDuration(stddev),
		Violations:   violations,
	}
}

func (c *Checker) emit(found []Violation) {
	if len(found) == 0 {
		return
	}

	c.mu.Lock()
	c.violations = append(c.violations, found...)
	c.mu.Unlock()

	c.cbMu.RLock()
	callbacks := make([]func(Violation), len(c.callbacks))
	copy(callbacks, c.callbacks)
	c.cbMu.RUnlock()

	for _, v := range found {
		for _, cb := range callbacks {
			cb(v)
		}
	}
}

// cycleGap checks the cycle counter: OFF shares the cycle of the preceding
// ON and the next ON increments it.
func cycleGap(prev, cur monitor.Event) string {
	p, ok1 := prev.Cycle()
	n, ok2 := cur.Cycle()
	if !ok1 || !ok2 {
		return ""
	}

	want := p
	if cur.Kind == monitor.KindLEDOn {
		want = p + 1
	}
	if prev.Kind == cur.Kind || n == want {
		return ""
	}
	return fmt.Sprintf("cycle %d followed by %d, expected %d", p, n, want)
}

func describeFault(ev monitor.Event) string {
	if err, ok := ev.Attrs["err"]; ok {
		return fmt.Sprintf("%s: %s", ev.Msg, err)
	}
	return ev.Msg
}

// stats returns the mean and population standard deviation.
func stats(xs []float32) (mean, stddev float32) {
	if len(xs) == 0 {
		return 0, 0
	}

	var sum float32
	for _, x := range xs {
		sum += x
	}
	mean = sum / float32(len(xs))

	var sq float32
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	stddev = math32.Sqrt(sq / float32(len(xs)))

	return mean, stddev
}

func msToDuration(ms float32) time.Duration {
	return time.Duration(math32.Round(ms * 1000)) * time.Microsecond
}
