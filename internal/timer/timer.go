// internal/timer/timer.go
// Package timer provides the tick-driven lockout and hit-indicator timers.
//
// Timers are ticked by the sampling producer and started and queried by the
// detector, so all state is atomic.
package timer

import (
	"sync/atomic"
	"time"

	"github.com/ColonelBlimp/lasertag/internal/log"
)

// TickRate is the sampling tick rate in Hz.
const TickRate = 100000

// TickPeriod is the duration of one tick.
const TickPeriod = time.Second / TickRate

const (
	// DefaultLockout keeps the detector quiet for one hit's worth of signal.
	DefaultLockout = 500 * time.Millisecond
	// DefaultHitIndicator is how long the hit LED stays on.
	DefaultHitIndicator = 500 * time.Millisecond
)

// Ticks converts d to a tick count, rounding down.
func Ticks(d time.Duration) uint32 {
	if d <= 0 {
		return 0
	}
	return uint32(d / TickPeriod)
}

// Timer counts down a fixed number of ticks after Start.
//
// A gated timer ignores Start until Enable is called; the hit indicator is
// gated so it can be switched off during play.
type Timer struct {
	name     string
	duration uint32
	gated    bool

	remaining atomic.Uint32
	enabled   atomic.Bool
	onChange  atomic.Pointer[func(on bool)]
}

// New creates a timer that runs for d once started.
func New(name string, d time.Duration, gated bool) *Timer {
	return &Timer{name: name, duration: Ticks(d), gated: gated}
}

// NewLockout creates the detector lockout timer.
func NewLockout(d time.Duration) *Timer {
	return New("lockout", d, false)
}

// NewHitIndicator creates the hit-LED timer. It starts disabled.
func NewHitIndicator(d time.Duration) *Timer {
	return New("hit indicator", d, true)
}

// Name returns the timer name.
func (t *Timer) Name() string { return t.name }

// Duration returns the run length in ticks.
func (t *Timer) Duration() uint32 { return t.duration }

// OnChange sets a function called when the timer turns on or off. It runs on
// the goroutine that called Start or Tick.
func (t *Timer) OnChange(fn func(on bool)) {
	if fn == nil {
		t.onChange.Store(nil)
		return
	}
	t.onChange.Store(&fn)
}

func (t *Timer) notify(on bool) {
	if fn := t.onChange.Load(); fn != nil {
		(*fn)(on)
	}
}

// Enable allows Start to run a gated timer.
func (t *Timer) Enable() { t.enabled.Store(true) }

// Disable blocks Start on a gated timer. A running timer finishes its count.
func (t *Timer) Disable() { t.enabled.Store(false) }

// Enabled reports whether Start will run the timer.
func (t *Timer) Enabled() bool { return !t.gated || t.enabled.Load() }

// Start (re)starts the countdown. Starting a running timer restarts it.
func (t *Timer) Start() {
	if !t.Enabled() {
		log.Debugf("timer: %s start ignored while disabled", t.name)
		return
	}
	if t.duration == 0 {
		return
	}
	if t.remaining.Swap(t.duration) == 0 {
		t.notify(true)
	}
}

// Running reports whether the countdown is in progress.
func (t *Timer) Running() bool { return t.remaining.Load() > 0 }

// Remaining returns the ticks left.
func (t *Timer) Remaining() uint32 { return t.remaining.Load() }

// Tick advances the countdown by one tick.
func (t *Timer) Tick() {
	for {
		r := t.remaining.Load()
		if r == 0 {
			return
		}
		if t.remaining.CompareAndSwap(r, r-1) {
			if r == 1 {
				t.notify(false)
			}
			return
		}
	}
}

// Reset stops the timer without notifying.
func (t *Timer) Reset() {
	t.remaining.Store(0)
}
