// internal/filter/filter.go
// Package filter implements the decimating FIR/IIR filter bank and the
// per-channel sliding-window power estimate.
package filter

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/ColonelBlimp/lasertag/internal/log"
	"github.com/ColonelBlimp/lasertag/internal/queue"
)

// Bank is one FIR decimation stage shared by ChannelCount IIR resonators.
// A Bank is owned by a single goroutine.
type Bank struct {
	input  *queue.Queue[float64]                // raw scaled samples (FIR history)
	fir    *queue.Queue[float64]                // FIR output, shared by all channels
	state  [ChannelCount]*queue.Queue[float64] // IIR feedback history
	output [ChannelCount]*queue.Queue[float64] // IIR output, the power window

	power  [ChannelCount]float64
	oldest [ChannelCount]float64 // output[ch] element 0 at the last power update

	// Taps reversed so a dot product against an oldest-first window
	// multiplies coefficient k with sample newest-k.
	firTaps [FIRTapCount]float64
	bTaps   [ChannelCount][IIRBTapCount]float64
	aTaps   [ChannelCount][IIRATapCount]float64

	inputWindow [FIRTapCount]float64
	firWindow   [IIRBTapCount]float64
	stateWindow [IIRATapCount]float64
	outWindow   [OutputQueueSize]float64
}

// New allocates a bank and pre-fills every queue with zeros.
func New() *Bank {
	b := &Bank{
		input: queue.MustNew[float64](FIRTapCount, "xQueue"),
		fir:   queue.MustNew[float64](IIRBTapCount, "yQueue"),
	}
	for ch := range ChannelCount {
		b.state[ch] = queue.MustNew[float64](IIRATapCount, fmt.Sprintf("zQueue%d", ch))
		b.output[ch] = queue.MustNew[float64](OutputQueueSize, fmt.Sprintf("outputQueue%d", ch))
	}

	b.firTaps = FIRCoefficients
	slices.Reverse(b.firTaps[:])
	for ch := range ChannelCount {
		b.bTaps[ch] = IIRBCoefficients[ch]
		slices.Reverse(b.bTaps[ch][:])
		b.aTaps[ch] = IIRACoefficients[ch]
		slices.Reverse(b.aTaps[ch][:])
	}

	b.Reset()
	return b
}

// Reset zero-fills all history and clears the power vector.
func (b *Bank) Reset() {
	resetFilled(b.input)
	resetFilled(b.fir)
	for ch := range ChannelCount {
		resetFilled(b.state[ch])
		resetFilled(b.output[ch])
	}
	clear(b.power[:])
	clear(b.oldest[:])
}

func resetFilled(q *queue.Queue[float64]) {
	q.Reset()
	q.Fill(0)
}

// AddInput appends a scaled sample in [-1, 1] to the FIR history.
func (b *Bank) AddInput(x float64) {
	b.input.OverwritePush(x)
}

// RunFIR convolves the full input history with FIRCoefficients, pushes the
// result onto the shared FIR-output queue and returns it. Call it once per
// DecimationFactor inputs.
func (b *Bank) RunFIR() float64 {
	b.input.Window(b.inputWindow[:])
	y := floats.Dot(b.firTaps[:], b.inputWindow[:])
	b.fir.OverwritePush(y)
	return y
}

// RunIIR computes one output of channel ch:
//
//	y = sum(b[k] * fir[newest-k]) - sum(a[k] * iir[newest-k])
//
// and pushes y onto both the channel's state and output queues.
func (b *Bank) RunIIR(ch int) float64 {
	if !validChannel(ch) {
		log.Errorf("filter: RunIIR on invalid channel %d", ch)
		return 0
	}
	b.fir.Window(b.firWindow[:])
	b.state[ch].Window(b.stateWindow[:])
	y := floats.Dot(b.bTaps[ch][:], b.firWindow[:]) - floats.Dot(b.aTaps[ch][:], b.stateWindow[:])
	b.state[ch].OverwritePush(y)
	b.output[ch].OverwritePush(y)
	return y
}

// ComputePower updates and returns the power of channel ch. With force the
// power is the sum of squares of the whole output queue; otherwise it is
// updated in O(1) by removing the square of the value evicted by the last
// RunIIR and adding the square of the newest value.
func (b *Bank) ComputePower(ch int, force, debug bool) float64 {
	if !validChannel(ch) {
		log.Errorf("filter: ComputePower on invalid channel %d", ch)
		return 0
	}
	out := b.output[ch]

	var p float64
	if force {
		n := out.Window(b.outWindow[:])
		p = floats.Dot(b.outWindow[:n], b.outWindow[:n])
	} else {
		newest := out.Newest()
		p = b.power[ch] - b.oldest[ch]*b.oldest[ch] + newest*newest
	}

	if debug {
		log.Debugf("filter: channel %d power %.6g (force=%v, evicted=%.6g, newest=%.6g)",
			ch, p, force, b.oldest[ch], out.Newest())
	}

	b.oldest[ch] = out.Oldest()
	b.power[ch] = p
	return p
}

// PowerValue returns the last computed power of channel ch.
func (b *Bank) PowerValue(ch int) float64 {
	if !validChannel(ch) {
		return 0
	}
	return b.power[ch]
}

// SetPowerValue overrides the power of channel ch. Used to drive the hit
// detector with known vectors.
func (b *Bank) SetPowerValue(ch int, v float64) {
	if !validChannel(ch) {
		log.Errorf("filter: SetPowerValue on invalid channel %d", ch)
		return
	}
	b.power[ch] = v
}

// PowerValues copies the power vector into dst and returns the number of
// values copied.
func (b *Bank) PowerValues(dst []float64) int {
	return copy(dst, b.power[:])
}

// NormalizedPowerValues copies the power vector into dst divided by its
// maximum and returns the index of the maximum. If the maximum is not
// positive the values are left undivided and 0 is returned.
func (b *Bank) NormalizedPowerValues(dst []float64) int {
	n := b.PowerValues(dst)
	if n == 0 {
		return 0
	}
	vals := dst[:n]
	idx := floats.MaxIdx(vals)
	maxPower := vals[idx]
	if !(maxPower > 0) {
		return 0
	}
	floats.Scale(1/maxPower, vals)
	return idx
}

// InputQueue returns the FIR history queue.
func (b *Bank) InputQueue() *queue.Queue[float64] { return b.input }

// FIRQueue returns the shared FIR-output queue.
func (b *Bank) FIRQueue() *queue.Queue[float64] { return b.fir }

// StateQueue returns the IIR feedback queue of channel ch, or nil.
func (b *Bank) StateQueue(ch int) *queue.Queue[float64] {
	if !validChannel(ch) {
		return nil
	}
	return b.state[ch]
}

// OutputQueue returns the IIR output queue of channel ch, or nil.
func (b *Bank) OutputQueue(ch int) *queue.Queue[float64] {
	if !validChannel(ch) {
		return nil
	}
	return b.output[ch]
}

// ChannelCount returns the number of IIR channels.
func (b *Bank) ChannelCount() int { return ChannelCount }

// DecimationFactor returns the number of inputs per filter cycle.
func (b *Bank) DecimationFactor() int { return DecimationFactor }

func validChannel(ch int) bool {
	return ch >= 0 && ch < ChannelCount
}
