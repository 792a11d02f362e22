// internal/signal/signal.go
// Package signal synthesises the receiver input for a sequence of shots:
// 12-bit ADC codes at the tick rate, with each shot a square-wave pulse at
// the shooter's carrier frequency.
package signal

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/ColonelBlimp/lasertag/internal/filter"
	"github.com/ColonelBlimp/lasertag/internal/timer"
)

const (
	// ADCMidScale is the code of a dark receiver.
	ADCMidScale = 2048
	// ADCMax is the largest 12-bit code.
	ADCMax = 4095

	adcHalfSpan = 2047.5
)

const (
	// DefaultPulse is the length of one shot.
	DefaultPulse = 200 * time.Millisecond
	// DefaultAmplitude is the swing of a shot as a fraction of half scale.
	DefaultAmplitude = 0.5
	// DefaultNoise is the peak dither in ADC codes. A dead-quiet input lets
	// filter ring-down rank as a hit long after the shot.
	DefaultNoise = 16
	// DefaultTail is the idle time appended after the last shot.
	DefaultTail = 500 * time.Millisecond
)

var (
	// ErrInvalidChannel indicates the shot channel is not a carrier
	ErrInvalidChannel = errors.New("channel out of range")
	// ErrInvalidAmplitude indicates the amplitude is outside (0, 1]
	ErrInvalidAmplitude = errors.New("amplitude must be in (0, 1]")
	// ErrInvalidNoise indicates the noise level is negative
	ErrInvalidNoise = errors.New("noise must not be negative")
	// ErrInvalidPulse indicates the pulse is shorter than one tick
	ErrInvalidPulse = errors.New("pulse must be at least one tick")
)

// Pair is one on/off period of the carrier, in ticks.
type Pair [2]uint32

// Shot is one trigger pull by the player transmitting on Channel, preceded
// by Gap of silence.
type Shot struct {
	Channel int
	Gap     time.Duration
}

// Frame returns the carrier on/off pairs of a pulse lasting pulseTicks. The
// last pair is truncated so the pairs add up to exactly pulseTicks.
func (s Shot) Frame(pulseTicks uint32) ([]Pair, error) {
	if s.Channel < 0 || s.Channel >= filter.ChannelCount {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannel, s.Channel)
	}
	half := uint32(filter.FrequencyTicks[s.Channel]) / 2

	pairs := make([]Pair, 0, pulseTicks/(2*half)+1)
	for left := pulseTicks; left > 0; {
		on := min(half, left)
		left -= on
		off := min(half, left)
		left -= off
		pairs = append(pairs, Pair{on, off})
	}
	return pairs, nil
}

// Config controls the synthesised waveform.
type Config struct {
	// Pulse is the length of each shot
	Pulse time.Duration
	// Amplitude is the carrier swing as a fraction of half scale
	Amplitude float64
	// Noise is the peak uniform dither in ADC codes
	Noise int
	// Tail is silence appended after the last shot
	Tail time.Duration
	// Seed makes the dither reproducible
	Seed uint64
}

// DefaultConfig returns a half-scale 200 ms pulse with light dither.
func DefaultConfig() Config {
	return Config{
		Pulse:     DefaultPulse,
		Amplitude: DefaultAmplitude,
		Noise:     DefaultNoise,
		Tail:      DefaultTail,
		Seed:      1,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error
	if timer.Ticks(c.Pulse) == 0 {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidPulse, c.Pulse))
	}
	if !(c.Amplitude > 0 && c.Amplitude <= 1) {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidAmplitude, c.Amplitude))
	}
	if c.Noise < 0 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidNoise, c.Noise))
	}
	return errors.Join(errs...)
}

type segment struct {
	idle  uint32 // ticks of silence before the pulse
	pairs []Pair
}

// Generator plays a shot sequence as ADC codes, one per Next call.
type Generator struct {
	cfg      Config
	rng      *rand.Rand
	segments []segment
	total    uint64

	onCode, offCode float64

	seg      int
	idleLeft uint32
	pair     int
	inPair   uint32
	emitted  uint64
}

// NewGenerator prepares the waveform for shots.
func NewGenerator(cfg Config, shots ...Shot) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pulse := timer.Ticks(cfg.Pulse)
	g := &Generator{
		cfg:     cfg,
		rng:     rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		onCode:  adcHalfSpan + cfg.Amplitude*adcHalfSpan,
		offCode: adcHalfSpan - cfg.Amplitude*adcHalfSpan,
	}
	for i, s := range shots {
		pairs, err := s.Frame(pulse)
		if err != nil {
			return nil, fmt.Errorf("shot %d: %w", i, err)
		}
		g.segments = append(g.segments, segment{idle: timer.Ticks(s.Gap), pairs: pairs})
		g.total += uint64(timer.Ticks(s.Gap)) + uint64(pulse)
	}
	if tail := timer.Ticks(cfg.Tail); tail > 0 || len(g.segments) == 0 {
		g.segments = append(g.segments, segment{idle: tail})
		g.total += uint64(tail)
	}
	g.rewind()
	return g, nil
}

func (g *Generator) rewind() {
	g.seg = 0
	g.pair = 0
	g.inPair = 0
	g.emitted = 0
	g.idleLeft = g.segments[0].idle
}

// Len returns the total number of samples the generator produces.
func (g *Generator) Len() uint64 { return g.total }

// Emitted returns the number of samples produced so far.
func (g *Generator) Emitted() uint64 { return g.emitted }

// Next returns the next ADC code. ok is false once the sequence is done.
func (g *Generator) Next() (code uint16, ok bool) {
	for g.seg < len(g.segments) {
		s := &g.segments[g.seg]
		if g.idleLeft > 0 {
			g.idleLeft--
			return g.emit(adcHalfSpan), true
		}
		if g.pair < len(s.pairs) {
			p := s.pairs[g.pair]
			level := g.offCode
			if g.inPair < p[0] {
				level = g.onCode
			}
			g.inPair++
			if g.inPair == p[0]+p[1] {
				g.inPair = 0
				g.pair++
			}
			return g.emit(level), true
		}
		g.seg++
		g.pair = 0
		if g.seg < len(g.segments) {
			g.idleLeft = g.segments[g.seg].idle
		}
	}
	return 0, false
}

// Fill writes up to len(dst) codes and returns how many were written.
func (g *Generator) Fill(dst []uint16) int {
	for i := range dst {
		c, ok := g.Next()
		if !ok {
			return i
		}
		dst[i] = c
	}
	return len(dst)
}

func (g *Generator) emit(level float64) uint16 {
	g.emitted++
	v := int(level + 0.5)
	if n := g.cfg.Noise; n > 0 {
		v += g.rng.IntN(2*n+1) - n
	}
	return uint16(min(max(v, 0), ADCMax))
}
