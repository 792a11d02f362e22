// internal/audio/wav.go
package audio

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVBitDepth is the PCM depth written by WAVSink.
const WAVBitDepth = 16

// wavPCMFormat is the WAVE_FORMAT_PCM tag.
const wavPCMFormat = 1

var (
	// ErrInvalidWAV indicates the file is not a readable WAV file
	ErrInvalidWAV = errors.New("not a valid WAV file")
	// ErrSinkClosed indicates a write after Close
	ErrSinkClosed = errors.New("WAV sink closed")
)

// WAVSource reads the first channel of a PCM WAV file as ADC codes.
type WAVSource struct {
	file     *os.File
	dec      *wav.Decoder
	buf      *audio.IntBuffer
	pos      int
	n        int
	channels int
	bitDepth int
	err      error
	read     uint64
}

// OpenWAV opens path for reading. bufferFrames sets how many frames are
// decoded per read.
func OpenWAV(path string, bufferFrames int) (*WAVSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrInvalidWAV)
	}
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: read header: %w", path, err)
	}

	channels := max(int(dec.NumChans), 1)
	if bufferFrames < 1 {
		bufferFrames = 1
	}
	return &WAVSource{
		file: f,
		dec:  dec,
		buf: &audio.IntBuffer{
			Format: dec.Format(),
			Data:   make([]int, bufferFrames*channels),
		},
		channels: channels,
		bitDepth: int(dec.BitDepth),
	}, nil
}

// SampleRate returns the file's sample rate.
func (s *WAVSource) SampleRate() int { return int(s.dec.SampleRate) }

// Channels returns the file's channel count.
func (s *WAVSource) Channels() int { return s.channels }

// BitDepth returns the file's PCM bit depth.
func (s *WAVSource) BitDepth() int { return s.bitDepth }

// Read returns the number of frames read so far.
func (s *WAVSource) Read() uint64 { return s.read }

// Next returns the next frame's first channel as an ADC code. ok is false at
// end of file or on a decode error; see Err.
func (s *WAVSource) Next() (uint16, bool) {
	if s.pos >= s.n {
		if s.err != nil {
			return 0, false
		}
		s.buf.Data = s.buf.Data[:cap(s.buf.Data)]
		n, err := s.dec.PCMBuffer(s.buf)
		if err != nil {
			s.err = err
			return 0, false
		}
		if n == 0 {
			return 0, false
		}
		s.n = n - n%s.channels
		s.pos = 0
		if s.n == 0 {
			return 0, false
		}
	}

	v := s.buf.Data[s.pos]
	s.pos += s.channels
	s.read++
	return PCMToADC(v, s.bitDepth), true
}

// Err returns the decode error that ended reading, if any.
func (s *WAVSource) Err() error { return s.err }

// Close closes the file.
func (s *WAVSource) Close() error {
	return s.file.Close()
}

// WAVSink writes ADC codes as a mono 16-bit PCM WAV file.
type WAVSink struct {
	file    *os.File
	enc     *wav.Encoder
	buf     *audio.IntBuffer
	written uint64
	closed  bool
}

// CreateWAV creates path and writes a header for sampleRate.
func CreateWAV(path string, sampleRate int) (*WAVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	return &WAVSink{
		file: f,
		enc:  wav.NewEncoder(f, sampleRate, WAVBitDepth, 1, wavPCMFormat),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
			SourceBitDepth: WAVBitDepth,
		},
	}, nil
}

// Write appends codes to the file.
func (s *WAVSink) Write(codes []uint16) error {
	if s.closed {
		return ErrSinkClosed
	}
	if cap(s.buf.Data) < len(codes) {
		s.buf.Data = make([]int, len(codes))
	}
	s.buf.Data = s.buf.Data[:len(codes)]
	for i, c := range codes {
		s.buf.Data[i] = ADCToPCM(c, WAVBitDepth)
	}
	if err := s.enc.Write(s.buf); err != nil {
		return fmt.Errorf("write WAV: %w", err)
	}
	s.written += uint64(len(codes))
	return nil
}

// Written returns the number of samples written.
func (s *WAVSink) Written() uint64 { return s.written }

// Close finalises the header and closes the file.
func (s *WAVSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.enc.Close(); err != nil {
		_ = s.file.Close()
		return fmt.Errorf("finalise WAV: %w", err)
	}
	return s.file.Close()
}
