// internal/filter/frequencies.go
package filter

// Pipeline dimensions. The tap counts are load-bearing: each queue is sized
// so a convolution reads exactly its table.
const (
	// ChannelCount is the number of carrier frequencies (one IIR per player).
	ChannelCount = 10
	// DecimationFactor is the number of inputs consumed per FIR/IIR cycle.
	DecimationFactor = 10
	// FIRTapCount is the length of FIRCoefficients and the input queue.
	FIRTapCount = 81
	// IIRBTapCount is the numerator length and the FIR-output queue size.
	IIRBTapCount = 11
	// IIRATapCount is the denominator length and the IIR state queue size.
	IIRATapCount = 10
	// OutputQueueSize is the power window, in decimated samples (200 ms).
	OutputQueueSize = 2000

	// InputSampleRate is the tick rate the coefficient tables were designed for.
	InputSampleRate = 100000.0
	// DecimatedSampleRate is the rate seen by the IIR stage.
	DecimatedSampleRate = InputSampleRate / DecimationFactor
)

// FrequencyTicks holds the carrier period of each channel in 100 kHz ticks.
var FrequencyTicks = [ChannelCount]uint16{68, 58, 50, 44, 38, 34, 30, 28, 26, 24}

// Frequency returns the carrier frequency of channel ch in Hz, or 0 if ch is
// not a channel.
func Frequency(ch int) float64 {
	if ch < 0 || ch >= ChannelCount {
		return 0
	}
	return InputSampleRate / float64(FrequencyTicks[ch])
}

// Frequencies returns the carrier frequency of every channel in Hz.
func Frequencies() [ChannelCount]float64 {
	var f [ChannelCount]float64
	for ch := range f {
		f[ch] = Frequency(ch)
	}
	return f
}
