// internal/detector/detector.go
// Package detector drains the sample buffer through the filter bank and
// turns the per-channel power vector into hit events.
package detector

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/ColonelBlimp/lasertag/internal/filter"
	"github.com/ColonelBlimp/lasertag/internal/log"
)

// DefaultPowerRecomputeInterval is the number of filter cycles between full
// power recomputations. 2000 cycles is one output window.
const DefaultPowerRecomputeInterval = filter.OutputQueueSize

// DefaultSettleCycles covers the filter start-up transient, which otherwise
// ranks as a hit on a random channel within the first few cycles.
const DefaultSettleCycles = 100

// ADC scaling for 12-bit codes: 0 maps to -1, 4095 maps to +1.
const (
	ADCMax      = 4095
	adcHalfSpan = 2047.5
)

var (
	// ErrSampleSourceRequired indicates a sample source is required
	ErrSampleSourceRequired = errors.New("sample source is required")
	// ErrInvalidRecomputeInterval indicates the recompute interval must not be negative
	ErrInvalidRecomputeInterval = errors.New("power recompute interval must not be negative")
	// ErrInvalidSettleCycles indicates the settle period must not be negative
	ErrInvalidSettleCycles = errors.New("settle cycles must not be negative")
)

// SampleSource is the consumer side of the sample buffer.
type SampleSource interface {
	Elements() int
	Pop() (uint16, bool)
	PopUnguarded() (uint16, bool)
}

// Lockout suppresses detection while running.
type Lockout interface {
	Running() bool
	Start()
}

// HitIndicator is signalled on every hit.
type HitIndicator interface {
	Enable()
	Start()
}

// HitEvent describes a registered hit.
type HitEvent struct {
	Channel   int
	Frequency float64
	Power     float64
	Threshold float64
	Cycle     uint64
}

// HitCallback is invoked synchronously from RunOneCycle for each hit.
type HitCallback func(HitEvent)

// Config holds the driver settings.
type Config struct {
	HitDetector HitDetectorConfig
	// PowerRecomputeInterval forces a full power recomputation every N
	// filter cycles to bound floating-point drift. 0 disables it.
	PowerRecomputeInterval int
	// SettleCycles is the number of filter cycles after Init during which
	// no detection runs.
	SettleCycles int
	// Debug logs every power update.
	Debug bool
}

// DefaultConfig returns the driver defaults.
func DefaultConfig() Config {
	return Config{
		HitDetector:            DefaultHitDetectorConfig(),
		PowerRecomputeInterval: DefaultPowerRecomputeInterval,
		SettleCycles:           DefaultSettleCycles,
	}
}

// Detector consumes samples, runs the filter bank every DecimationFactor
// samples and checks for hits once the filters have settled and unless the
// lockout is running.
//
// RunOneCycle and the setters must be called from one goroutine. The
// callback may be swapped from any goroutine.
type Detector struct {
	cfg       Config
	src       SampleSource
	lockout   Lockout
	indicator HitIndicator

	bank *filter.Bank
	hits *HitDetector

	fed         int
	invocations uint64
	cycles      uint64

	callback atomic.Pointer[HitCallback]
}

// New creates a Detector. lockout and indicator may be nil.
func New(cfg Config, src SampleSource, lockout Lockout, indicator HitIndicator) (*Detector, error) {
	if src == nil {
		return nil, ErrSampleSourceRequired
	}
	if cfg.PowerRecomputeInterval < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRecomputeInterval, cfg.PowerRecomputeInterval)
	}
	if cfg.SettleCycles < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSettleCycles, cfg.SettleCycles)
	}
	if lockout == nil {
		lockout = noLockout{}
	}
	if indicator == nil {
		indicator = noIndicator{}
	}

	bank := filter.New()
	hits, err := NewHitDetector(cfg.HitDetector, bank)
	if err != nil {
		return nil, fmt.Errorf("creating hit detector: %w", err)
	}

	return &Detector{
		cfg:       cfg,
		src:       src,
		lockout:   lockout,
		indicator: indicator,
		bank:      bank,
		hits:      hits,
	}, nil
}

// Init clears the filter history, power vector, hit record and counters.
// Sensitivity settings and the ignore mask survive.
func (d *Detector) Init() {
	d.bank.Reset()
	d.hits.Reset()
	d.fed = 0
	d.invocations = 0
	d.cycles = 0
}

// SetCallback sets the function called on each hit. nil removes it.
func (d *Detector) SetCallback(cb HitCallback) {
	if cb == nil {
		d.callback.Store(nil)
		return
	}
	d.callback.Store(&cb)
}

// ScaleADC maps a 12-bit ADC code onto [-1, 1].
func ScaleADC(raw uint16) float64 {
	return float64(raw)/adcHalfSpan - 1
}

// RunOneCycle drains the samples present at entry. Samples arriving during
// the call are left for the next one. Every DecimationFactor samples, counted
// across calls, the filter bank runs once and the hit detector is consulted.
//
// interruptsEnabled selects the locked Pop; pass false when the producer is
// known to be stopped.
func (d *Detector) RunOneCycle(interruptsEnabled bool) {
	d.invocations++

	n := d.src.Elements()
	for i := range n {
		var raw uint16
		var ok bool
		if interruptsEnabled {
			raw, ok = d.src.Pop()
		} else {
			raw, ok = d.src.PopUnguarded()
		}
		if !ok {
			log.Warnf("detector: sample buffer drained early (%d of %d)", i, n)
			return
		}

		d.bank.AddInput(ScaleADC(raw))
		d.fed++
		if d.fed == filter.DecimationFactor {
			d.fed = 0
			d.filterCycle()
		}
	}
}

func (d *Detector) filterCycle() {
	d.bank.RunFIR()
	d.cycles++

	force := d.cfg.PowerRecomputeInterval > 0 && d.cycles%uint64(d.cfg.PowerRecomputeInterval) == 0
	for ch := range filter.ChannelCount {
		d.bank.RunIIR(ch)
		d.bank.ComputePower(ch, force, d.cfg.Debug)
	}

	if d.cycles <= uint64(d.cfg.SettleCycles) || d.lockout.Running() {
		return
	}
	if !d.hits.Detect() {
		return
	}

	d.lockout.Start()
	d.indicator.Enable()
	d.indicator.Start()

	ch := d.hits.FrequencyOfLastHit()
	ev := HitEvent{
		Channel:   ch,
		Frequency: filter.Frequency(ch),
		Power:     d.bank.PowerValue(ch),
		Threshold: d.hits.Threshold(),
		Cycle:     d.cycles,
	}
	log.Infof("detector: hit by %.0f Hz (channel %d) at cycle %d", ev.Frequency, ch, d.cycles)
	if cb := d.callback.Load(); cb != nil {
		(*cb)(ev)
	}
}

// InvocationCount returns the number of RunOneCycle calls since Init.
func (d *Detector) InvocationCount() uint64 { return d.invocations }

// CycleCount returns the number of filter cycles since Init.
func (d *Detector) CycleCount() uint64 { return d.cycles }

// Bank returns the filter bank.
func (d *Detector) Bank() *filter.Bank { return d.bank }

// HitDetector returns the hit detector.
func (d *Detector) HitDetector() *HitDetector { return d.hits }

// HitDetected reports whether a hit was registered since the last ClearHit.
func (d *Detector) HitDetected() bool { return d.hits.HitDetected() }

// ClearHit clears the hit flag.
func (d *Detector) ClearHit() { d.hits.ClearHit() }

// FrequencyOfLastHit returns the channel of the most recent hit.
func (d *Detector) FrequencyOfLastHit() int { return d.hits.FrequencyOfLastHit() }

// HitCounts copies the per-channel hit counts into dst.
func (d *Detector) HitCounts(dst []uint32) int { return d.hits.HitCounts(dst) }

// PowerValues copies the power vector into dst.
func (d *Detector) PowerValues(dst []float64) int { return d.bank.PowerValues(dst) }

// NormalizedPowerValues copies the power vector divided by its maximum into
// dst and returns the index of the maximum.
func (d *Detector) NormalizedPowerValues(dst []float64) int {
	return d.bank.NormalizedPowerValues(dst)
}

// SetIgnoredFrequencies replaces the ignore mask.
func (d *Detector) SetIgnoredFrequencies(mask []bool) error {
	return d.hits.SetIgnoredFrequencies(mask)
}

// SetIgnoreAllHits suppresses all hits while set.
func (d *Detector) SetIgnoreAllHits(ignore bool) { d.hits.SetIgnoreAllHits(ignore) }

// SetFudgeFactorIndex selects a fudge factor from the table.
func (d *Detector) SetFudgeFactorIndex(i int) error { return d.hits.SetFudgeFactorIndex(i) }

// SetRankIndex chooses the reference position in the ranking.
func (d *Detector) SetRankIndex(i int) error { return d.hits.SetRankIndex(i) }

type noLockout struct{}

func (noLockout) Running() bool { return false }
func (noLockout) Start()        {}

type noIndicator struct{}

func (noIndicator) Enable() {}
func (noIndicator) Start()  {}
