// internal/isr/isr.go
// Package isr is the sampling tick: every tick advances the timers and
// stores one ADC sample in the sample buffer.
package isr

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/ColonelBlimp/lasertag/internal/log"
	"github.com/ColonelBlimp/lasertag/internal/recovery"
	"github.com/ColonelBlimp/lasertag/internal/timer"
)

var (
	// ErrSinkRequired indicates a sample sink is required
	ErrSinkRequired = errors.New("sample sink is required")
	// ErrSourceRequired indicates Run needs a sample source
	ErrSourceRequired = errors.New("sample source is required")
)

// Sink receives one sample per tick.
type Sink interface {
	PushOverwrite(v uint16)
}

// Source yields samples; ok is false when it is exhausted.
type Source interface {
	Next() (uint16, bool)
}

// Ticker is advanced once per tick.
type Ticker interface {
	Tick()
}

// Handler runs the per-tick work.
type Handler struct {
	sink    Sink
	source  Source
	tickers []Ticker
	ticks   atomic.Uint64
}

// New creates a handler storing samples into sink. source may be nil when
// samples are supplied through Feed.
func New(sink Sink, source Source, tickers ...Ticker) (*Handler, error) {
	if sink == nil {
		return nil, ErrSinkRequired
	}
	return &Handler{sink: sink, source: source, tickers: tickers}, nil
}

// Feed performs one tick with an externally captured sample.
func (h *Handler) Feed(v uint16) {
	for _, t := range h.tickers {
		t.Tick()
	}
	h.sink.PushOverwrite(v)
	h.ticks.Add(1)
}

// Tick performs one tick with the next sample from the source. It returns
// false, without ticking, once the source is exhausted.
func (h *Handler) Tick() bool {
	if h.source == nil {
		return false
	}
	v, ok := h.source.Next()
	if !ok {
		return false
	}
	h.Feed(v)
	return true
}

// TickN performs up to n ticks and returns how many were performed.
func (h *Handler) TickN(n int) int {
	for i := range n {
		if !h.Tick() {
			return i
		}
	}
	return n
}

// Ticks returns the number of ticks performed.
func (h *Handler) Ticks() uint64 { return h.ticks.Load() }

// Run ticks in real time on its own goroutine until ctx is done or the
// source is exhausted. Each period the ticks due for that period are issued
// in one burst. The returned channel is closed when Run stops.
func (h *Handler) Run(ctx context.Context, period time.Duration) (<-chan struct{}, error) {
	if h.source == nil {
		return nil, ErrSourceRequired
	}
	perBurst := int(timer.Ticks(period))
	if perBurst < 1 {
		perBurst = 1
		period = timer.TickPeriod
	}

	done := make(chan struct{})
	recovery.Go("isr tick", func() {
		defer close(done)

		tk := time.NewTicker(period)
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				if h.TickN(perBurst) < perBurst {
					log.Debugf("isr: source exhausted after %d ticks", h.Ticks())
					return
				}
			}
		}
	})
	return done, nil
}

// Compile-time check that the timers satisfy Ticker.
var _ Ticker = (*timer.Timer)(nil)
