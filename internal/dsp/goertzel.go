// internal/dsp/goertzel.go
// Package dsp measures carrier levels directly on the input, independently
// of the IIR filter bank.
package dsp

import (
	"errors"
	"math"
)

var (
	// ErrInvalidBlockSize indicates block size must be positive
	ErrInvalidBlockSize = errors.New("block size must be positive")
	// ErrInvalidSampleRate indicates sample rate must be positive
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	// ErrInvalidFrequency indicates frequency must be positive and below Nyquist
	ErrInvalidFrequency = errors.New("target frequency must be positive and less than Nyquist frequency")
	// ErrInsufficientSamples indicates not enough samples for the configured block size
	ErrInsufficientSamples = errors.New("insufficient samples for block size")
)

// GoertzelConfig holds configuration for one Goertzel bin.
type GoertzelConfig struct {
	// TargetFrequency is the carrier to measure in Hz
	TargetFrequency float64
	// SampleRate is the input rate in Hz (the tick rate)
	SampleRate float64
	// BlockSize is the number of samples per measurement
	BlockSize int
}

// Goertzel computes the DFT magnitude of a single, possibly non-integer,
// frequency bin. The carriers are not bin-centred for any practical block
// size, so the bin index is kept fractional.
type Goertzel struct {
	config      GoertzelConfig
	coefficient float64 // 2 * cos(2π f / fs)
	normalizer  float64 // 2 / blockSize
}

// NewGoertzel creates a Goertzel bin for cfg.
func NewGoertzel(cfg GoertzelConfig) (*Goertzel, error) {
	if cfg.BlockSize <= 0 {
		return nil, ErrInvalidBlockSize
	}
	if cfg.SampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	if cfg.TargetFrequency <= 0 || cfg.TargetFrequency >= cfg.SampleRate/2 {
		return nil, ErrInvalidFrequency
	}

	omega := 2 * math.Pi * cfg.TargetFrequency / cfg.SampleRate
	return &Goertzel{
		config:      cfg,
		coefficient: 2 * math.Cos(omega),
		normalizer:  2 / float64(cfg.BlockSize),
	}, nil
}

// Magnitude returns the magnitude of the target frequency over the first
// BlockSize samples. A full-scale sine at the target frequency measures
// about 1.
func (g *Goertzel) Magnitude(samples []float64) (float64, error) {
	if len(samples) < g.config.BlockSize {
		return 0, ErrInsufficientSamples
	}

	var s0, s1, s2 float64
	coeff := g.coefficient
	for _, x := range samples[:g.config.BlockSize] {
		s0 = x + coeff*s1 - s2
		s2 = s1
		s1 = s0
	}

	power := s1*s1 + s2*s2 - coeff*s1*s2
	// Rounding can take a silent block slightly negative.
	if power < 0 {
		power = 0
	}
	return math.Sqrt(power) * g.normalizer, nil
}

// Config returns the configuration.
func (g *Goertzel) Config() GoertzelConfig {
	return g.config
}

// Coefficient returns the recurrence coefficient.
func (g *Goertzel) Coefficient() float64 {
	return g.coefficient
}

// BlockSize returns the configured block size
func (g *Goertzel) BlockSize() int {
	return g.config.BlockSize
}
