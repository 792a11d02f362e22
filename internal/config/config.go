// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/ColonelBlimp/lasertag/internal/log"
)

// ChannelCount is the number of carrier frequencies the receiver separates.
const ChannelCount = 10

const (
	AppName       = "lasertag"
	ConfigType    = "yaml"
	DefaultConfig = `# Laser Tag Receiver Configuration

# Input
device_index: -1            # Capture device for 'listen', -1 for default device
sample_rate: 100000         # Capture rate in Hz; the filters are designed for 100000
buffer_size: 1000           # Capture frames per callback
buffer_capacity: 32768      # Sample buffer slots between producer and detector

# Hit detection
fudge_factors: [5, 10, 15, 20, 25, 35, 50, 75, 100, 200]
fudge_factor_index: 4       # Entry of fudge_factors in use (25)
rank_index: 4               # Position in the sorted power vector used as reference (0-9)
ignored_frequencies: []     # Channels (0-9) that never register a hit, e.g. your own team
power_recompute_interval: 2000  # Filter cycles between full power recomputations, 0 = never
settle_cycles: 100          # Filter cycles after start with detection off

# Timers
lockout_ms: 500             # Detector lockout after a hit
hit_indicator_ms: 500       # Hit LED on-time
detector_interval_ticks: 1000   # Sampling ticks between detector runs

# Simulation
pulse_ms: 200               # Length of one shot
amplitude: 0.5              # Shot swing as a fraction of ADC half scale (0-1]
noise: 16                   # Peak dither in ADC codes

# Output
log_level: "info"           # debug, info, warn, error
debug: false                # Log every power update (very verbose)
`
)

// Settings holds all application configuration
type Settings struct {
	// Input
	DeviceIndex    int `mapstructure:"device_index"`
	SampleRate     int `mapstructure:"sample_rate"`
	BufferSize     int `mapstructure:"buffer_size"`
	BufferCapacity int `mapstructure:"buffer_capacity"`

	// Hit detection
	FudgeFactors           []float64 `mapstructure:"fudge_factors"`
	FudgeFactorIndex       int       `mapstructure:"fudge_factor_index"`
	RankIndex              int       `mapstructure:"rank_index"`
	IgnoredFrequencies     []int     `mapstructure:"ignored_frequencies"`
	PowerRecomputeInterval int       `mapstructure:"power_recompute_interval"`
	SettleCycles           int       `mapstructure:"settle_cycles"`

	// Timers
	LockoutMs             int `mapstructure:"lockout_ms"`
	HitIndicatorMs        int `mapstructure:"hit_indicator_ms"`
	DetectorIntervalTicks int `mapstructure:"detector_interval_ticks"`

	// Simulation
	PulseMs   int     `mapstructure:"pulse_ms"`
	Amplitude float64 `mapstructure:"amplitude"`
	Noise     int     `mapstructure:"noise"`

	// Output
	LogLevel string `mapstructure:"log_level"`
	Debug    bool   `mapstructure:"debug"`
}

// Init initializes Viper with defaults and config file.
// Config file search order: current directory, then ~/.config/lasertag/
func Init() error {
	viper.SetDefault("device_index", -1)
	viper.SetDefault("sample_rate", 100000)
	viper.SetDefault("buffer_size", 1000)
	viper.SetDefault("buffer_capacity", 32768)
	viper.SetDefault("fudge_factors", []float64{5, 10, 15, 20, 25, 35, 50, 75, 100, 200})
	viper.SetDefault("fudge_factor_index", 4)
	viper.SetDefault("rank_index", 4)
	viper.SetDefault("ignored_frequencies", []int{})
	viper.SetDefault("power_recompute_interval", 2000)
	viper.SetDefault("settle_cycles", 100)
	viper.SetDefault("lockout_ms", 500)
	viper.SetDefault("hit_indicator_ms", 500)
	viper.SetDefault("detector_interval_ticks", 1000)
	viper.SetDefault("pulse_ms", 200)
	viper.SetDefault("amplitude", 0.5)
	viper.SetDefault("noise", 16)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("debug", false)

	viper.SetConfigType(ConfigType)

	// Priority order: current directory first, then XDG config
	viper.AddConfigPath(".")

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	viper.AddConfigPath(filepath.Join(configDir, AppName))

	// Try .config.yaml first (hidden file), then config.yaml
	viper.SetConfigName(".config")
	if err = viper.ReadInConfig(); err != nil {
		viper.SetConfigName("config")
		err = viper.ReadInConfig()
	}

	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("read config: %w", err)
		}
		xdgConfigPath := filepath.Join(configDir, AppName)
		if err = ensureConfigExists(xdgConfigPath); err != nil {
			return err
		}
		log.Infof("config: wrote default configuration to %s", xdgConfigPath)
		if err = viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	return nil
}

func ensureConfigExists(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err = os.MkdirAll(configPath, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		if err = os.WriteFile(configFile, []byte(DefaultConfig), 0644); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
	}
	return nil
}

// Get returns the current settings
func Get() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &s, nil
}

// Validate checks that all settings are within acceptable ranges
func (s *Settings) Validate() error {
	var errs []error

	// Input
	if s.DeviceIndex < -1 {
		errs = append(errs, fmt.Errorf("device_index must be -1 or a device number, got %d", s.DeviceIndex))
	}
	if s.SampleRate < 8000 || s.SampleRate > 384000 {
		errs = append(errs, fmt.Errorf("sample_rate must be between 8000 and 384000 Hz, got %d", s.SampleRate))
	}
	if s.BufferSize < 64 || s.BufferSize > 16384 {
		errs = append(errs, fmt.Errorf("buffer_size must be between 64 and 16384, got %d", s.BufferSize))
	}
	if s.BufferCapacity < 1024 || s.BufferCapacity > 1<<22 {
		errs = append(errs, fmt.Errorf("buffer_capacity must be between 1024 and %d, got %d", 1<<22, s.BufferCapacity))
	}

	// Hit detection
	if len(s.FudgeFactors) == 0 {
		errs = append(errs, errors.New("fudge_factors must not be empty"))
	}
	for i, f := range s.FudgeFactors {
		if f < 0 {
			errs = append(errs, fmt.Errorf("fudge_factors[%d] must not be negative, got %v", i, f))
		}
	}
	if s.FudgeFactorIndex < 0 || s.FudgeFactorIndex >= len(s.FudgeFactors) {
		errs = append(errs, fmt.Errorf("fudge_factor_index must index fudge_factors (0-%d), got %d", len(s.FudgeFactors)-1, s.FudgeFactorIndex))
	}
	if s.RankIndex < 0 || s.RankIndex >= ChannelCount {
		errs = append(errs, fmt.Errorf("rank_index must be between 0 and %d, got %d", ChannelCount-1, s.RankIndex))
	}
	for _, ch := range s.IgnoredFrequencies {
		if ch < 0 || ch >= ChannelCount {
			errs = append(errs, fmt.Errorf("ignored_frequencies entries must be between 0 and %d, got %d", ChannelCount-1, ch))
		}
	}
	if s.PowerRecomputeInterval < 0 {
		errs = append(errs, fmt.Errorf("power_recompute_interval must not be negative, got %d", s.PowerRecomputeInterval))
	}
	if s.SettleCycles < 0 {
		errs = append(errs, fmt.Errorf("settle_cycles must not be negative, got %d", s.SettleCycles))
	}

	// Timers
	if s.LockoutMs < 0 || s.LockoutMs > 10000 {
		errs = append(errs, fmt.Errorf("lockout_ms must be between 0 and 10000, got %d", s.LockoutMs))
	}
	if s.HitIndicatorMs < 0 || s.HitIndicatorMs > 10000 {
		errs = append(errs, fmt.Errorf("hit_indicator_ms must be between 0 and 10000, got %d", s.HitIndicatorMs))
	}
	if s.DetectorIntervalTicks < 1 || s.DetectorIntervalTicks > s.BufferCapacity {
		errs = append(errs, fmt.Errorf("detector_interval_ticks must be between 1 and buffer_capacity (%d), got %d", s.BufferCapacity, s.DetectorIntervalTicks))
	}

	// Simulation
	if s.PulseMs < 1 || s.PulseMs > 10000 {
		errs = append(errs, fmt.Errorf("pulse_ms must be between 1 and 10000, got %d", s.PulseMs))
	}
	if !(s.Amplitude > 0 && s.Amplitude <= 1) {
		errs = append(errs, fmt.Errorf("amplitude must be in (0, 1], got %v", s.Amplitude))
	}
	if s.Noise < 0 || s.Noise > 2048 {
		errs = append(errs, fmt.Errorf("noise must be between 0 and 2048, got %d", s.Noise))
	}

	// Output
	if _, ok := log.ParseLevel(s.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", s.LogLevel))
	}

	return errors.Join(errs...)
}

// IgnoreMask converts IgnoredFrequencies to a per-channel mask.
func (s *Settings) IgnoreMask() []bool {
	mask := make([]bool, ChannelCount)
	for _, ch := range s.IgnoredFrequencies {
		if ch >= 0 && ch < ChannelCount {
			mask[ch] = true
		}
	}
	return mask
}

// Lockout returns the detector lockout duration.
func (s *Settings) Lockout() time.Duration {
	return time.Duration(s.LockoutMs) * time.Millisecond
}

// HitIndicator returns the hit LED on-time.
func (s *Settings) HitIndicator() time.Duration {
	return time.Duration(s.HitIndicatorMs) * time.Millisecond
}

// Pulse returns the length of one simulated shot.
func (s *Settings) Pulse() time.Duration {
	return time.Duration(s.PulseMs) * time.Millisecond
}
