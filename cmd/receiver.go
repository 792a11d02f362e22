// cmd/receiver.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ColonelBlimp/lasertag/internal/buffer"
	"github.com/ColonelBlimp/lasertag/internal/config"
	"github.com/ColonelBlimp/lasertag/internal/detector"
	"github.com/ColonelBlimp/lasertag/internal/filter"
	"github.com/ColonelBlimp/lasertag/internal/isr"
	"github.com/ColonelBlimp/lasertag/internal/log"
	"github.com/ColonelBlimp/lasertag/internal/timer"
)

// receiver wires the sampling tick, the sample buffer and the detector the
// way the target board runs them.
type receiver struct {
	settings  *config.Settings
	out       io.Writer
	buf       *buffer.Buffer
	lockout   *timer.Timer
	indicator *timer.Timer
	isr       *isr.Handler
	det       *detector.Detector

	// hits is only touched from the goroutine calling the detector
	hits []detector.HitEvent
}

// detectorConfig maps the settings onto the detector configuration.
func detectorConfig(s *config.Settings) detector.Config {
	return detector.Config{
		HitDetector: detector.HitDetectorConfig{
			FudgeFactors:       s.FudgeFactors,
			FudgeFactorIndex:   s.FudgeFactorIndex,
			RankIndex:          s.RankIndex,
			IgnoredFrequencies: s.IgnoredFrequencies,
		},
		PowerRecomputeInterval: s.PowerRecomputeInterval,
		SettleCycles:           s.SettleCycles,
		Debug:                  s.Debug,
	}
}

// newReceiver builds the pipeline. source may be nil when samples are
// pushed through feed.
func newReceiver(s *config.Settings, source isr.Source, out io.Writer) (*receiver, error) {
	r := &receiver{
		settings:  s,
		out:       out,
		buf:       buffer.New(s.BufferCapacity),
		lockout:   timer.NewLockout(s.Lockout()),
		indicator: timer.NewHitIndicator(s.HitIndicator()),
	}
	r.indicator.Enable()
	r.indicator.OnChange(func(on bool) {
		if on {
			log.Debugf("hit indicator on")
		} else {
			log.Debugf("hit indicator off")
		}
	})
	r.lockout.OnChange(func(on bool) {
		if !on {
			log.Debugf("lockout expired")
		}
	})

	h, err := isr.New(r.buf, source, r.lockout, r.indicator)
	if err != nil {
		return nil, fmt.Errorf("sampling tick: %w", err)
	}
	r.isr = h

	det, err := detector.New(detectorConfig(s), r.buf, r.lockout, r.indicator)
	if err != nil {
		return nil, fmt.Errorf("detector: %w", err)
	}
	det.SetCallback(r.onHit)
	r.det = det
	return r, nil
}

func (r *receiver) onHit(ev detector.HitEvent) {
	r.hits = append(r.hits, ev)
	at := time.Duration(ev.Cycle*filter.DecimationFactor) * timer.TickPeriod
	fmt.Fprintf(r.out, "HIT  %-8s channel %d  %5.0f Hz  power %.4g  threshold %.4g\n",
		at.Round(time.Millisecond), ev.Channel, ev.Frequency, ev.Power, ev.Threshold)
}

// runOffline ticks the source dry, running the detector every
// DetectorIntervalTicks ticks as the main loop would.
func (r *receiver) runOffline() {
	interval := r.settings.DetectorIntervalTicks
	for {
		n := r.isr.TickN(interval)
		r.det.RunOneCycle(false)
		if n < interval {
			return
		}
	}
}

// runRealtime ticks the source at the tick rate on its own goroutine while
// the detector polls the buffer, until the source is exhausted or ctx is done.
func (r *receiver) runRealtime(ctx context.Context) error {
	period := time.Duration(r.settings.DetectorIntervalTicks) * timer.TickPeriod
	done, err := r.isr.Run(ctx, period)
	if err != nil {
		return err
	}
	r.poll(ctx, done, period)
	return nil
}

// poll runs the detector every period until stop is closed or ctx is done,
// then drains what is left.
func (r *receiver) poll(ctx context.Context, stop <-chan struct{}, period time.Duration) {
	tk := time.NewTicker(period)
	defer tk.Stop()
	for {
		select {
		case <-ctx.Done():
			r.det.RunOneCycle(true)
			return
		case <-stop:
			r.det.RunOneCycle(true)
			return
		case <-tk.C:
			r.det.RunOneCycle(true)
		}
	}
}

// feed pushes externally captured codes through the sampling tick.
func (r *receiver) feed(codes []uint16) {
	for _, c := range codes {
		r.isr.Feed(c)
	}
}

// printSummary writes the run statistics.
func (r *receiver) printSummary() {
	elapsed := time.Duration(r.isr.Ticks()) * timer.TickPeriod
	fmt.Fprintf(r.out, "\n%d samples (%s), %d filter cycles, %d detector runs\n",
		r.isr.Ticks(), elapsed.Round(time.Millisecond), r.det.CycleCount(), r.det.InvocationCount())
	fmt.Fprintf(r.out, "buffer: high water %d of %d, %d overwritten\n",
		r.buf.HighWater(), r.buf.Capacity(), r.buf.Overwrites())

	counts := make([]uint32, filter.ChannelCount)
	r.det.HitCounts(counts)
	fmt.Fprintf(r.out, "hits: %d\n", len(r.hits))
	for ch, n := range counts {
		if n > 0 {
			fmt.Fprintf(r.out, "  channel %d (%5.0f Hz): %d\n", ch, filter.Frequency(ch), n)
		}
	}
}
