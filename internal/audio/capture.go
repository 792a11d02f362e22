// internal/audio/capture.go
package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"github.com/ColonelBlimp/lasertag/internal/log"
	"github.com/ColonelBlimp/lasertag/internal/recovery"
)

var (
	// ErrNotInitialized indicates Init has not been called
	ErrNotInitialized = errors.New("audio capture not initialized")
	// ErrAlreadyRunning indicates Start was called twice
	ErrAlreadyRunning = errors.New("audio capture already running")
	// ErrNotRunning indicates Stop was called without Start
	ErrNotRunning = errors.New("audio capture not running")
)

// Config holds audio capture configuration
type Config struct {
	DeviceIndex int    // -1 for default device
	SampleRate  uint32 // requested rate; the backend resamples if the device differs
	BufferSize  uint32 // frames per callback
}

// DefaultConfig captures mono at the tick rate the filter bank expects.
func DefaultConfig() Config {
	return Config{
		DeviceIndex: -1,
		SampleRate:  100000,
		BufferSize:  1000,
	}
}

// SampleCallback is called from the audio thread with each period of
// samples converted to ADC codes. The slice is reused; it must not be
// retained. Must be non-blocking and fast.
type SampleCallback func(codes []uint16)

// Capture uses a sound-card input as the receiver ADC.
type Capture struct {
	config Config
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	mu     sync.Mutex

	running     atomic.Bool
	callbackPtr atomic.Pointer[SampleCallback]
	frames      atomic.Uint64

	codes []uint16 // only touched on the audio thread
}

// New creates a new audio capture instance
func New(cfg Config) *Capture {
	return &Capture{config: cfg}
}

// SetCallback sets the function receiving captured codes. nil clears it.
// Safe to call while running.
func (c *Capture) SetCallback(cb SampleCallback) {
	if cb == nil {
		c.callbackPtr.Store(nil)
		return
	}
	c.callbackPtr.Store(&cb)
}

// Init initializes the audio backend
func (c *Capture) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		log.Debugf("audio: %s", message)
	})
	if err != nil {
		return fmt.Errorf("init audio context: %w", err)
	}
	c.ctx = ctx
	return nil
}

// ListDevices returns available capture devices
func (c *Capture) ListDevices() ([]malgo.DeviceInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listDevicesLocked()
}

func (c *Capture) listDevicesLocked() ([]malgo.DeviceInfo, error) {
	if c.ctx == nil {
		return nil, ErrNotInitialized
	}
	infos, err := c.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	return infos, nil
}

// Start begins capture. Capture stops when ctx is done.
func (c *Capture) Start(ctx context.Context) error {
	if c.running.Load() {
		return ErrAlreadyRunning
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ctx == nil {
		return ErrNotInitialized
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.SampleRate = c.config.SampleRate
	deviceConfig.PeriodSizeInFrames = c.config.BufferSize
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = 1

	if c.config.DeviceIndex >= 0 {
		devices, err := c.listDevicesLocked()
		if err != nil {
			return err
		}
		if c.config.DeviceIndex >= len(devices) {
			return fmt.Errorf("device index %d out of range (have %d devices)",
				c.config.DeviceIndex, len(devices))
		}
		deviceConfig.Capture.DeviceID = devices[c.config.DeviceIndex].ID.Pointer()
	}

	device, err := malgo.InitDevice(c.ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: c.onRecvFrames,
	})
	if err != nil {
		return fmt.Errorf("init device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("start device: %w", err)
	}
	log.Infof("audio: capturing at %d Hz (device rate %d Hz)", c.config.SampleRate, device.SampleRate())

	c.device = device
	c.running.Store(true)

	go func() {
		<-ctx.Done()
		_ = c.Stop()
	}()
	return nil
}

func (c *Capture) onRecvFrames(_, input []byte, frameCount uint32) {
	defer recovery.HandlePanicFunc(func(any) {
		log.Errorf("audio: capture callback panicked after %d frames", c.frames.Load())
	})
	if len(input) == 0 {
		return
	}

	c.codes = bytesToCodes(input, c.codes)
	c.frames.Add(uint64(frameCount))
	if cb := c.callbackPtr.Load(); cb != nil {
		(*cb)(c.codes)
	}
}

// Frames returns the number of frames captured.
func (c *Capture) Frames() uint64 { return c.frames.Load() }

// Stop stops audio capture
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running.Load() {
		return ErrNotRunning
	}
	c.stopLocked()
	return nil
}

func (c *Capture) stopLocked() {
	if c.device != nil {
		_ = c.device.Stop()
		c.device.Uninit()
		c.device = nil
	}
	c.running.Store(false)
}

// Close releases all audio resources
func (c *Capture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running.Load() {
		c.stopLocked()
	}
	if c.ctx != nil {
		if err := c.ctx.Uninit(); err != nil {
			return fmt.Errorf("uninit context: %w", err)
		}
		c.ctx.Free()
		c.ctx = nil
	}
	return nil
}

// IsRunning returns true if capture is active
func (c *Capture) IsRunning() bool {
	return c.running.Load()
}

// bytesToCodes converts little-endian float32 frames to ADC codes, reusing dst.
func bytesToCodes(data []byte, dst []uint16) []uint16 {
	n := len(data) / 4
	if cap(dst) < n {
		dst = make([]uint16, n)
	}
	dst = dst[:n]
	for i := range dst {
		dst[i] = FloatToADC(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
	}
	return dst
}
