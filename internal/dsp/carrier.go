// internal/dsp/carrier.go
package dsp

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// CarrierMeter measures every carrier frequency over the same block.
type CarrierMeter struct {
	bins []*Goertzel
}

// NewCarrierMeter creates one Goertzel bin per frequency.
func NewCarrierMeter(frequencies []float64, sampleRate float64, blockSize int) (*CarrierMeter, error) {
	m := &CarrierMeter{bins: make([]*Goertzel, len(frequencies))}
	for i, f := range frequencies {
		g, err := NewGoertzel(GoertzelConfig{TargetFrequency: f, SampleRate: sampleRate, BlockSize: blockSize})
		if err != nil {
			return nil, fmt.Errorf("carrier %d (%.0f Hz): %w", i, f, err)
		}
		m.bins[i] = g
	}
	return m, nil
}

// Len returns the number of carriers.
func (m *CarrierMeter) Len() int { return len(m.bins) }

// Measure writes the magnitude of each carrier into dst and returns the
// index of the strongest one.
func (m *CarrierMeter) Measure(samples, dst []float64) (int, error) {
	if len(dst) < len(m.bins) {
		return 0, fmt.Errorf("need %d magnitudes, got room for %d", len(m.bins), len(dst))
	}
	for i, g := range m.bins {
		mag, err := g.Magnitude(samples)
		if err != nil {
			return 0, err
		}
		dst[i] = mag
	}
	if len(m.bins) == 0 {
		return 0, nil
	}
	return floats.MaxIdx(dst[:len(m.bins)]), nil
}
