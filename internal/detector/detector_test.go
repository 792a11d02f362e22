package detector

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/ColonelBlimp/lasertag/internal/buffer"
	"github.com/ColonelBlimp/lasertag/internal/filter"
)

// fakeLockout runs forever once started.
type fakeLockout struct {
	running bool
	starts  int
}

func (l *fakeLockout) Running() bool { return l.running }
func (l *fakeLockout) Start()        { l.running = true; l.starts++ }

type fakeIndicator struct {
	enables, starts int
}

func (i *fakeIndicator) Enable() { i.enables++ }
func (i *fakeIndicator) Start()  { i.starts++ }

// toneCodes returns n ADC codes of a half-scale square wave on channel ch.
func toneCodes(ch, n int) []uint16 {
	half := int(filter.FrequencyTicks[ch]) / 2
	codes := make([]uint16, n)
	for i := range codes {
		if (i/half)%2 == 0 {
			codes[i] = 2048 + 1024
		} else {
			codes[i] = 2048 - 1024
		}
	}
	return codes
}

func newTestDetector(t *testing.T, cfg Config, buf *buffer.Buffer, lockout Lockout, indicator HitIndicator) *Detector {
	t.Helper()
	d, err := New(cfg, buf, lockout, indicator)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return d
}

// feed pushes codes in batches of the given sizes (cycled) and runs the
// detector after each batch.
func feed(d *Detector, buf *buffer.Buffer, codes []uint16, batches ...int) {
	if len(batches) == 0 {
		batches = []int{1000}
	}
	for i, b := 0, 0; i < len(codes); b++ {
		n := min(batches[b%len(batches)], len(codes)-i)
		for _, c := range codes[i : i+n] {
			buf.PushOverwrite(c)
		}
		i += n
		d.RunOneCycle(true)
	}
}

func TestNew_Validation(t *testing.T) {
	buf := buffer.New(16)

	if _, err := New(DefaultConfig(), nil, nil, nil); !errors.Is(err, ErrSampleSourceRequired) {
		t.Errorf("New(nil source) error = %v, want %v", err, ErrSampleSourceRequired)
	}

	cfg := DefaultConfig()
	cfg.PowerRecomputeInterval = -1
	if _, err := New(cfg, buf, nil, nil); !errors.Is(err, ErrInvalidRecomputeInterval) {
		t.Errorf("error = %v, want %v", err, ErrInvalidRecomputeInterval)
	}

	cfg = DefaultConfig()
	cfg.SettleCycles = -1
	if _, err := New(cfg, buf, nil, nil); !errors.Is(err, ErrInvalidSettleCycles) {
		t.Errorf("error = %v, want %v", err, ErrInvalidSettleCycles)
	}

	cfg = DefaultConfig()
	cfg.HitDetector.RankIndex = 42
	if _, err := New(cfg, buf, nil, nil); !errors.Is(err, ErrInvalidRankIndex) {
		t.Errorf("error = %v, want wrapped %v", err, ErrInvalidRankIndex)
	}
}

func TestScaleADC(t *testing.T) {
	tests := []struct {
		raw  uint16
		want float64
	}{
		{0, -1},
		{ADCMax, 1},
		{2048, 0.5 / 2047.5},
	}
	for _, tt := range tests {
		if got := ScaleADC(tt.raw); math.Abs(got-tt.want) > 1e-15 {
			t.Errorf("ScaleADC(%d) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestRunOneCycle_DecimationBoundary(t *testing.T) {
	buf := buffer.New(64)
	d := newTestDetector(t, DefaultConfig(), buf, nil, nil)

	for range filter.DecimationFactor - 1 {
		buf.PushOverwrite(2048)
	}
	d.RunOneCycle(true)
	if d.CycleCount() != 0 {
		t.Fatalf("CycleCount() = %d after %d samples, want 0", d.CycleCount(), filter.DecimationFactor-1)
	}

	buf.PushOverwrite(2048)
	d.RunOneCycle(true)
	if d.CycleCount() != 1 {
		t.Errorf("CycleCount() = %d after %d samples, want 1", d.CycleCount(), filter.DecimationFactor)
	}
	if d.InvocationCount() != 2 {
		t.Errorf("InvocationCount() = %d, want 2", d.InvocationCount())
	}
}

func TestRunOneCycle_BatchSizesNeverSkipCycles(t *testing.T) {
	tests := []struct {
		name    string
		batches []int
	}{
		{"single samples", []int{1}},
		{"primes", []int{3, 7, 11, 13}},
		{"uneven", []int{9, 1, 25, 4, 0, 17}},
		{"large", []int{4096}},
	}

	const samples = 5000
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := buffer.New(buffer.DefaultCapacity)
			d := newTestDetector(t, DefaultConfig(), buf, nil, nil)
			feed(d, buf, toneCodes(3, samples), tt.batches...)

			if d.CycleCount() != samples/filter.DecimationFactor {
				t.Errorf("CycleCount() = %d, want %d", d.CycleCount(), samples/filter.DecimationFactor)
			}
			if buf.Elements() != 0 {
				t.Errorf("%d samples left in buffer", buf.Elements())
			}
		})
	}
}

func TestRunOneCycle_SameResultRegardlessOfBatching(t *testing.T) {
	codes := toneCodes(6, 8000)
	var powers [2][ChannelCount]float64
	for i, batches := range [][]int{{8000}, {3, 17, 250}} {
		buf := buffer.New(buffer.DefaultCapacity)
		d := newTestDetector(t, DefaultConfig(), buf, nil, nil)
		feed(d, buf, codes, batches...)
		d.PowerValues(powers[i][:])
	}
	if powers[0] != powers[1] {
		t.Errorf("power differs with batching:\n%v\n%v", powers[0], powers[1])
	}
}

// snapshotSource pushes extra samples the first time it is popped, the way
// the sampling tick keeps producing while the detector runs.
type snapshotSource struct {
	*buffer.Buffer
	extra  int
	pushed bool
}

func (s *snapshotSource) Pop() (uint16, bool) {
	if !s.pushed {
		s.pushed = true
		for range s.extra {
			s.PushOverwrite(2048)
		}
	}
	return s.Buffer.Pop()
}

func TestRunOneCycle_DrainsSnapshotOnly(t *testing.T) {
	src := &snapshotSource{Buffer: buffer.New(128), extra: 7}
	for range 20 {
		src.PushOverwrite(2048)
	}
	d, err := New(DefaultConfig(), src, nil, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	d.RunOneCycle(true)
	if src.Elements() != 7 {
		t.Errorf("Elements() = %d after cycle, want the 7 samples pushed during it", src.Elements())
	}
	if d.CycleCount() != 2 {
		t.Errorf("CycleCount() = %d, want 2", d.CycleCount())
	}
}

func TestRunOneCycle_Unguarded(t *testing.T) {
	buf := buffer.New(64)
	d := newTestDetector(t, DefaultConfig(), buf, nil, nil)
	for range 30 {
		buf.PushOverwrite(2048)
	}
	d.RunOneCycle(false)
	if d.CycleCount() != 3 || buf.Elements() != 0 {
		t.Errorf("CycleCount()=%d Elements()=%d, want 3 and 0", d.CycleCount(), buf.Elements())
	}
}

func TestSyntheticShot_ReportsCarrierChannel(t *testing.T) {
	for ch := range ChannelCount {
		t.Run(formatHz(filter.Frequency(ch)), func(t *testing.T) {
			buf := buffer.New(buffer.DefaultCapacity)
			lockout := &fakeLockout{}
			indicator := &fakeIndicator{}
			d := newTestDetector(t, DefaultConfig(), buf, lockout, indicator)

			var events []HitEvent
			d.SetCallback(func(ev HitEvent) { events = append(events, ev) })

			feed(d, buf, toneCodes(ch, 20000))

			if !d.HitDetected() {
				t.Fatal("no hit detected")
			}
			if d.FrequencyOfLastHit() != ch {
				t.Errorf("FrequencyOfLastHit() = %d, want %d", d.FrequencyOfLastHit(), ch)
			}
			if len(events) != 1 {
				t.Fatalf("got %d hit events, want 1 (lockout holds after the first)", len(events))
			}
			ev := events[0]
			if ev.Channel != ch || ev.Frequency != filter.Frequency(ch) {
				t.Errorf("event = %+v, want channel %d", ev, ch)
			}
			if ev.Cycle <= DefaultSettleCycles {
				t.Errorf("hit at cycle %d inside the settle period", ev.Cycle)
			}
			if !(ev.Power > ev.Threshold) {
				t.Errorf("event power %v not above threshold %v", ev.Power, ev.Threshold)
			}
			if lockout.starts != 1 || indicator.enables != 1 || indicator.starts != 1 {
				t.Errorf("lockout starts=%d indicator enables=%d starts=%d, want 1 each",
					lockout.starts, indicator.enables, indicator.starts)
			}

			counts := make([]uint32, ChannelCount)
			d.HitCounts(counts)
			if counts[ch] != 1 {
				t.Errorf("HitCounts()[%d] = %d, want 1", ch, counts[ch])
			}
		})
	}
}

func TestLockoutSuppressesDetection(t *testing.T) {
	buf := buffer.New(buffer.DefaultCapacity)
	lockout := &fakeLockout{running: true}
	d := newTestDetector(t, DefaultConfig(), buf, lockout, nil)

	feed(d, buf, toneCodes(4, 20000))

	if d.HitDetected() {
		t.Error("hit detected while lockout running")
	}
	if lockout.starts != 0 {
		t.Errorf("lockout started %d times, want 0", lockout.starts)
	}
	// Filtering continues under lockout.
	if d.CycleCount() != 2000 || d.Bank().PowerValue(4) == 0 {
		t.Errorf("CycleCount()=%d power=%v, filtering stalled under lockout", d.CycleCount(), d.Bank().PowerValue(4))
	}
}

func TestSettlePeriod(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SettleCycles = 1000
	buf := buffer.New(buffer.DefaultCapacity)
	d := newTestDetector(t, cfg, buf, &fakeLockout{}, nil)

	feed(d, buf, toneCodes(2, 10000))
	if d.HitDetected() {
		t.Fatal("hit detected inside the settle period")
	}
	feed(d, buf, toneCodes(2, 100))
	if !d.HitDetected() || d.FrequencyOfLastHit() != 2 {
		t.Errorf("hit=%v channel=%d after settling, want channel 2", d.HitDetected(), d.FrequencyOfLastHit())
	}
}

func TestIgnoreAllHits(t *testing.T) {
	buf := buffer.New(buffer.DefaultCapacity)
	lockout := &fakeLockout{}
	d := newTestDetector(t, DefaultConfig(), buf, lockout, nil)
	d.SetIgnoreAllHits(true)

	feed(d, buf, toneCodes(5, 20000))
	if d.HitDetected() || lockout.starts != 0 {
		t.Error("hit registered while ignoring all hits")
	}
}

func TestIgnoredFrequency(t *testing.T) {
	buf := buffer.New(buffer.DefaultCapacity)
	d := newTestDetector(t, DefaultConfig(), buf, &fakeLockout{}, nil)
	if err := d.SetIgnoredFrequencies(mask(7)); err != nil {
		t.Fatalf("SetIgnoredFrequencies failed: %v", err)
	}

	feed(d, buf, toneCodes(7, 20000))
	if d.HitDetected() {
		t.Errorf("hit on channel %d while the only carrier is ignored", d.FrequencyOfLastHit())
	}
}

func TestPowerRecomputeInterval(t *testing.T) {
	codes := toneCodes(1, 45000)

	var got [3][ChannelCount]float64
	for i, interval := range []int{0, 1, DefaultPowerRecomputeInterval} {
		cfg := DefaultConfig()
		cfg.PowerRecomputeInterval = interval
		buf := buffer.New(buffer.DefaultCapacity)
		d := newTestDetector(t, cfg, buf, nil, nil)
		feed(d, buf, codes)
		d.PowerValues(got[i][:])
	}

	for ch := range ChannelCount {
		exact := got[1][ch]
		for _, p := range []float64{got[0][ch], got[2][ch]} {
			if math.Abs(p-exact) > 1e-9*math.Max(1, exact) {
				t.Errorf("channel %d: power %v drifted from recomputed %v", ch, p, exact)
			}
		}
	}
}

func TestInit_ResetsState(t *testing.T) {
	buf := buffer.New(buffer.DefaultCapacity)
	d := newTestDetector(t, DefaultConfig(), buf, &fakeLockout{}, nil)
	if err := d.SetRankIndex(3); err != nil {
		t.Fatalf("SetRankIndex failed: %v", err)
	}
	feed(d, buf, toneCodes(0, 20000))
	if !d.HitDetected() {
		t.Fatal("no hit before Init")
	}

	d.Init()
	if d.HitDetected() || d.CycleCount() != 0 || d.InvocationCount() != 0 {
		t.Error("Init did not reset hit flag and counters")
	}
	power := make([]float64, ChannelCount)
	d.PowerValues(power)
	for ch, p := range power {
		if p != 0 {
			t.Errorf("channel %d power %v after Init", ch, p)
		}
	}
	if d.HitDetector().RankIndex() != 3 {
		t.Error("Init reset sensitivity settings")
	}
}

func TestSetCallback_Nil(t *testing.T) {
	buf := buffer.New(buffer.DefaultCapacity)
	d := newTestDetector(t, DefaultConfig(), buf, &fakeLockout{}, nil)
	called := false
	d.SetCallback(func(HitEvent) { called = true })
	d.SetCallback(nil)

	feed(d, buf, toneCodes(8, 20000))
	if !d.HitDetected() {
		t.Fatal("no hit detected")
	}
	if called {
		t.Error("removed callback was invoked")
	}
}

func formatHz(f float64) string {
	return fmt.Sprintf("%.0fHz", f)
}
