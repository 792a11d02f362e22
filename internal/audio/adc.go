// internal/audio/adc.go
package audio

import "math"

// ADC code range of the receiver front end.
const (
	ADCMax      = 4095
	adcHalfSpan = 2047.5
)

// FloatToADC maps a normalized sample in [-1, 1] onto a 12-bit ADC code.
// Out-of-range values clip and NaN reads as mid scale.
func FloatToADC(f float32) uint16 {
	if math.IsNaN(float64(f)) {
		return 2048
	}
	v := math.Round((float64(f) + 1) * adcHalfSpan)
	return uint16(min(max(v, 0), ADCMax))
}

// ADCToPCM maps an ADC code onto a signed PCM sample of the given bit depth.
func ADCToPCM(code uint16, bitDepth int) int {
	shift := bitDepth - 12
	v := int(code) - 2048
	if shift >= 0 {
		return v << shift
	}
	return v >> -shift
}

// PCMToADC maps a signed PCM sample of the given bit depth onto an ADC code.
func PCMToADC(v, bitDepth int) uint16 {
	shift := bitDepth - 12
	if shift >= 0 {
		v >>= shift
	} else {
		v <<= -shift
	}
	return uint16(min(max(v+2048, 0), ADCMax))
}
