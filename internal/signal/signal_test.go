package signal

import (
	"errors"
	"testing"
	"time"

	"github.com/ColonelBlimp/lasertag/internal/filter"
)

func quietConfig() Config {
	cfg := DefaultConfig()
	cfg.Noise = 0
	cfg.Tail = 0
	return cfg
}

func TestShotFrame(t *testing.T) {
	for ch := range filter.ChannelCount {
		pairs, err := Shot{Channel: ch}.Frame(20000)
		if err != nil {
			t.Fatalf("channel %d: Frame failed: %v", ch, err)
		}
		half := uint32(filter.FrequencyTicks[ch]) / 2

		var sum uint32
		for i, p := range pairs {
			sum += p[0] + p[1]
			if i < len(pairs)-1 && (p[0] != half || p[1] != half) {
				t.Errorf("channel %d pair %d = %v, want [%d %d]", ch, i, p, half, half)
			}
		}
		if sum != 20000 {
			t.Errorf("channel %d: frame covers %d ticks, want 20000", ch, sum)
		}
	}

	if _, err := (Shot{Channel: filter.ChannelCount}).Frame(100); !errors.Is(err, ErrInvalidChannel) {
		t.Errorf("Frame(invalid channel) error = %v, want %v", err, ErrInvalidChannel)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{"default", func(*Config) {}, nil},
		{"zero pulse", func(c *Config) { c.Pulse = 0 }, ErrInvalidPulse},
		{"zero amplitude", func(c *Config) { c.Amplitude = 0 }, ErrInvalidAmplitude},
		{"amplitude above one", func(c *Config) { c.Amplitude = 1.5 }, ErrInvalidAmplitude},
		{"negative noise", func(c *Config) { c.Noise = -1 }, ErrInvalidNoise},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerator_Waveform(t *testing.T) {
	cfg := quietConfig()
	cfg.Pulse = time.Millisecond // 100 ticks
	g, err := NewGenerator(cfg, Shot{Channel: 2, Gap: 50 * time.Microsecond})
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	if g.Len() != 105 {
		t.Fatalf("Len() = %d, want 105", g.Len())
	}

	codes := make([]uint16, 200)
	n := g.Fill(codes)
	if n != 105 {
		t.Fatalf("Fill() = %d, want 105", n)
	}
	for i := 0; i < 5; i++ {
		if codes[i] != ADCMidScale {
			t.Errorf("gap code %d = %d, want %d", i, codes[i], ADCMidScale)
		}
	}
	// Channel 2: 50-tick period, 25 ticks high then 25 low.
	pulse := codes[5:n]
	for i, c := range pulse {
		want := uint16(1024)
		if (i/25)%2 == 0 {
			want = 3071
		}
		if c != want {
			t.Fatalf("pulse code %d = %d, want %d", i, c, want)
		}
	}
	if _, ok := g.Next(); ok {
		t.Error("Next() ok after the sequence ended")
	}
	if g.Emitted() != g.Len() {
		t.Errorf("Emitted() = %d, want %d", g.Emitted(), g.Len())
	}
}

func TestGenerator_Tail(t *testing.T) {
	cfg := quietConfig()
	cfg.Tail = time.Millisecond
	g, err := NewGenerator(cfg)
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	count := 0
	for {
		c, ok := g.Next()
		if !ok {
			break
		}
		if c != ADCMidScale {
			t.Fatalf("tail code = %d, want %d", c, ADCMidScale)
		}
		count++
	}
	if count != 100 {
		t.Errorf("tail produced %d codes, want 100", count)
	}
}

func TestGenerator_NoiseBoundedAndReproducible(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tail = 10 * time.Millisecond
	shots := []Shot{{Channel: 9, Gap: time.Millisecond}}

	a, err := NewGenerator(cfg, shots...)
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	b, _ := NewGenerator(cfg, shots...)

	for {
		ca, oka := a.Next()
		cb, okb := b.Next()
		if oka != okb {
			t.Fatal("generators with the same seed differ in length")
		}
		if !oka {
			break
		}
		if ca != cb {
			t.Fatalf("same seed produced %d and %d", ca, cb)
		}
		if ca > ADCMax {
			t.Fatalf("code %d above ADCMax", ca)
		}
	}

	// Idle samples stay within the dither band.
	c, _ := NewGenerator(cfg)
	for i := 0; i < 1000; i++ {
		v, _ := c.Next()
		if d := int(v) - ADCMidScale; d < -DefaultNoise || d > DefaultNoise {
			t.Fatalf("idle code %d outside ±%d of mid scale", v, DefaultNoise)
		}
	}
}

func TestGenerator_FullScaleClamped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Amplitude = 1
	cfg.Noise = 50
	g, err := NewGenerator(cfg, Shot{Channel: 0})
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	buf := make([]uint16, 1000)
	g.Fill(buf)
	for i, c := range buf {
		if c > ADCMax {
			t.Fatalf("code %d = %d above ADCMax", i, c)
		}
	}
}

func TestNewGenerator_InvalidShot(t *testing.T) {
	_, err := NewGenerator(DefaultConfig(), Shot{Channel: 1}, Shot{Channel: -1})
	if !errors.Is(err, ErrInvalidChannel) {
		t.Errorf("error = %v, want %v", err, ErrInvalidChannel)
	}
}
