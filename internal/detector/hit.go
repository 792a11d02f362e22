// internal/detector/hit.go
package detector

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/ColonelBlimp/lasertag/internal/filter"
	"github.com/ColonelBlimp/lasertag/internal/log"
)

// ChannelCount is the number of frequencies the detector ranks.
const ChannelCount = filter.ChannelCount

const (
	// DefaultRankIndex selects the reference value from the ascending ranking.
	DefaultRankIndex = 4
	// DefaultFudgeFactorIndex selects 25 from DefaultFudgeFactors.
	DefaultFudgeFactorIndex = 4
)

var (
	// ErrPowerSourceRequired indicates a power source is required
	ErrPowerSourceRequired = errors.New("power source is required")
	// ErrNoFudgeFactors indicates the fudge factor table is empty
	ErrNoFudgeFactors = errors.New("fudge factor table must not be empty")
	// ErrInvalidFudgeFactor indicates a fudge factor must be finite and non-negative
	ErrInvalidFudgeFactor = errors.New("fudge factor must be finite and non-negative")
	// ErrInvalidFudgeFactorIndex indicates the index is outside the fudge factor table
	ErrInvalidFudgeFactorIndex = errors.New("fudge factor index out of range")
	// ErrInvalidRankIndex indicates the rank index is outside [0, ChannelCount)
	ErrInvalidRankIndex = errors.New("rank index out of range")
	// ErrInvalidIgnoreMask indicates the ignore mask has the wrong length
	ErrInvalidIgnoreMask = errors.New("ignore mask length must equal channel count")
)

// DefaultFudgeFactors is the sensitivity table selectable by index; higher
// factors demand a stronger peak over the reference.
func DefaultFudgeFactors() []float64 {
	return []float64{5, 10, 15, 20, 25, 35, 50, 75, 100, 200}
}

// PowerSource provides the current per-channel power vector.
type PowerSource interface {
	PowerValues(dst []float64) int
}

// HitDetectorConfig holds the sensitivity settings of the hit detector.
type HitDetectorConfig struct {
	// FudgeFactors is the table SetFudgeFactorIndex selects from (from config: fudge_factors)
	FudgeFactors []float64
	// FudgeFactorIndex is the initial table entry (from config: fudge_factor_index)
	FudgeFactorIndex int
	// RankIndex is the position in the ascending ranking used as the
	// reference power (from config: rank_index)
	RankIndex int
	// IgnoredFrequencies marks channels that never register hits (from config: ignored_frequencies)
	IgnoredFrequencies []int
}

// DefaultHitDetectorConfig returns the settings the coefficient tables were tuned with.
func DefaultHitDetectorConfig() HitDetectorConfig {
	return HitDetectorConfig{
		FudgeFactors:     DefaultFudgeFactors(),
		FudgeFactorIndex: DefaultFudgeFactorIndex,
		RankIndex:        DefaultRankIndex,
	}
}

type rankedPower struct {
	value   float64
	channel int
}

// HitDetector decides whether the power vector holds a significant peak.
//
// The vector is ranked ascending, the value at RankIndex times the fudge
// factor becomes the threshold, and the strongest non-ignored channel above
// the threshold is the hit. Equal powers rank the lower channel higher.
type HitDetector struct {
	src PowerSource

	fudgeFactors     []float64
	fudgeFactorIndex int
	fudgeFactor      float64
	rankIndex        int

	ignored   [ChannelCount]bool
	ignoreAll bool

	power     [ChannelCount]float64
	ranked    [ChannelCount]rankedPower
	threshold float64

	hitDetected bool
	lastHit     int
	hitCounts   [ChannelCount]uint32
}

// NewHitDetector creates a hit detector reading power from src.
func NewHitDetector(cfg HitDetectorConfig, src PowerSource) (*HitDetector, error) {
	if src == nil {
		return nil, ErrPowerSourceRequired
	}
	if len(cfg.FudgeFactors) == 0 {
		return nil, ErrNoFudgeFactors
	}
	for _, f := range cfg.FudgeFactors {
		if !validFudgeFactor(f) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFudgeFactor, f)
		}
	}
	if cfg.FudgeFactorIndex < 0 || cfg.FudgeFactorIndex >= len(cfg.FudgeFactors) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFudgeFactorIndex, cfg.FudgeFactorIndex)
	}
	if cfg.RankIndex < 0 || cfg.RankIndex >= ChannelCount {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRankIndex, cfg.RankIndex)
	}

	h := &HitDetector{
		src:              src,
		fudgeFactors:     slices.Clone(cfg.FudgeFactors),
		fudgeFactorIndex: cfg.FudgeFactorIndex,
		fudgeFactor:      cfg.FudgeFactors[cfg.FudgeFactorIndex],
		rankIndex:        cfg.RankIndex,
	}
	for _, ch := range cfg.IgnoredFrequencies {
		if ch < 0 || ch >= ChannelCount {
			return nil, fmt.Errorf("ignored frequency %d: %w", ch, ErrInvalidIgnoreMask)
		}
		h.ignored[ch] = true
	}
	return h, nil
}

func validFudgeFactor(f float64) bool {
	return f >= 0 && !math.IsInf(f, 1)
}

// Reset clears the hit record and counters. Sensitivity and the ignore mask
// are kept.
func (h *HitDetector) Reset() {
	h.hitDetected = false
	h.lastHit = 0
	h.threshold = 0
	clear(h.hitCounts[:])
}

// Detect runs one detection pass and reports whether this pass registered a
// hit. A hit sets the sticky flag, records the channel and bumps its counter.
func (h *HitDetector) Detect() bool {
	h.src.PowerValues(h.power[:])
	for ch, v := range h.power {
		h.ranked[ch] = rankedPower{value: sanitizePower(v), channel: ch}
	}
	slices.SortFunc(h.ranked[:], func(a, b rankedPower) int {
		if c := cmp.Compare(a.value, b.value); c != 0 {
			return c
		}
		return cmp.Compare(b.channel, a.channel)
	})

	h.threshold = h.ranked[h.rankIndex].value * h.fudgeFactor
	if h.ignoreAll {
		return false
	}

	for i := ChannelCount - 1; i >= 0; i-- {
		r := h.ranked[i]
		if h.ignored[r.channel] {
			continue
		}
		if r.value > h.threshold {
			h.hitDetected = true
			h.lastHit = r.channel
			h.hitCounts[r.channel]++
			log.Debugf("detector: hit on channel %d (power %.6g > threshold %.6g)", r.channel, r.value, h.threshold)
			return true
		}
	}
	return false
}

// sanitizePower ranks malformed values as zero so they never exceed a threshold.
func sanitizePower(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// HitDetected reports whether a hit was registered since the last ClearHit.
func (h *HitDetector) HitDetected() bool { return h.hitDetected }

// ClearHit clears the sticky hit flag.
func (h *HitDetector) ClearHit() { h.hitDetected = false }

// FrequencyOfLastHit returns the channel of the most recent hit.
func (h *HitDetector) FrequencyOfLastHit() int { return h.lastHit }

// HitCounts copies the cumulative per-channel hit counts into dst.
func (h *HitDetector) HitCounts(dst []uint32) int {
	return copy(dst, h.hitCounts[:])
}

// Threshold returns the threshold computed by the last Detect.
func (h *HitDetector) Threshold() float64 { return h.threshold }

// FudgeFactor returns the multiplier currently applied to the reference power.
func (h *HitDetector) FudgeFactor() float64 { return h.fudgeFactor }

// FudgeFactorIndex returns the selected table entry, or -1 after SetFudgeFactor.
func (h *HitDetector) FudgeFactorIndex() int { return h.fudgeFactorIndex }

// RankIndex returns the ranking position used as the reference power.
func (h *HitDetector) RankIndex() int { return h.rankIndex }

// SetFudgeFactorIndex selects a fudge factor from the table.
func (h *HitDetector) SetFudgeFactorIndex(i int) error {
	if i < 0 || i >= len(h.fudgeFactors) {
		return fmt.Errorf("%w: %d", ErrInvalidFudgeFactorIndex, i)
	}
	h.fudgeFactorIndex = i
	h.fudgeFactor = h.fudgeFactors[i]
	return nil
}

// SetFudgeFactor sets the multiplier directly, bypassing the table.
func (h *HitDetector) SetFudgeFactor(f float64) error {
	if !validFudgeFactor(f) {
		return fmt.Errorf("%w: %v", ErrInvalidFudgeFactor, f)
	}
	h.fudgeFactorIndex = -1
	h.fudgeFactor = f
	return nil
}

// SetRankIndex chooses which ranked power is the reference. 0 compares
// against the weakest channel, ChannelCount-1 against the strongest.
func (h *HitDetector) SetRankIndex(i int) error {
	if i < 0 || i >= ChannelCount {
		return fmt.Errorf("%w: %d", ErrInvalidRankIndex, i)
	}
	h.rankIndex = i
	return nil
}

// SetIgnoredFrequencies replaces the ignore mask. mask[ch] true means
// channel ch never registers a hit.
func (h *HitDetector) SetIgnoredFrequencies(mask []bool) error {
	if len(mask) != ChannelCount {
		return fmt.Errorf("%w: got %d", ErrInvalidIgnoreMask, len(mask))
	}
	copy(h.ignored[:], mask)
	return nil
}

// IgnoredFrequencies returns a copy of the ignore mask.
func (h *HitDetector) IgnoredFrequencies() []bool {
	return slices.Clone(h.ignored[:])
}

// SetIgnoreAllHits suppresses every hit while set (invincibility).
func (h *HitDetector) SetIgnoreAllHits(ignore bool) { h.ignoreAll = ignore }
