// cmd/simulate.go
package cmd

import (
	"context"
	"fmt"
	"os"
	ossignal "os/signal"
	"time"

	"github.com/ColonelBlimp/lasertag/internal/audio"
	"github.com/ColonelBlimp/lasertag/internal/config"
	"github.com/ColonelBlimp/lasertag/internal/filter"
	"github.com/ColonelBlimp/lasertag/internal/signal"
	"github.com/ColonelBlimp/lasertag/internal/timer"
	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Fire synthesised shots at the receiver",
	Long: `Synthesises one shot per requested channel, separated by --gap of
silence, and runs them through the receiver. The detected channel of every
shot is compared with the channel that fired it.`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().IntSliceP("shots", "s", nil, "channels to fire, in order (default all channels)")
	simulateCmd.Flags().Duration("gap", 500*time.Millisecond, "silence before each shot")
	simulateCmd.Flags().Uint64("seed", 1, "dither seed")
	simulateCmd.Flags().StringP("out", "o", "", "also write the waveform to this WAV file")
	simulateCmd.Flags().Bool("realtime", false, "tick at the real sample rate instead of as fast as possible")
	rootCmd.AddCommand(simulateCmd)
}

// simulation describes one simulate run.
type simulation struct {
	shots    []signal.Shot
	cfg      signal.Config
	out      string
	realtime bool
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	sim, err := simulationFromFlags(cmd, s)
	if err != nil {
		return err
	}

	ctx, stop := ossignal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	return sim.run(ctx, s, cmd)
}

func simulationFromFlags(cmd *cobra.Command, s *config.Settings) (*simulation, error) {
	channels, _ := cmd.Flags().GetIntSlice("shots")
	gap, _ := cmd.Flags().GetDuration("gap")
	seed, _ := cmd.Flags().GetUint64("seed")
	out, _ := cmd.Flags().GetString("out")
	realtime, _ := cmd.Flags().GetBool("realtime")

	if len(channels) == 0 {
		for ch := range filter.ChannelCount {
			channels = append(channels, ch)
		}
	}
	if gap < 0 {
		return nil, fmt.Errorf("gap must not be negative, got %v", gap)
	}

	sim := &simulation{
		cfg: signal.Config{
			Pulse:     s.Pulse(),
			Amplitude: s.Amplitude,
			Noise:     s.Noise,
			Tail:      signal.DefaultTail,
			Seed:      seed,
		},
		out:      out,
		realtime: realtime,
	}
	for _, ch := range channels {
		sim.shots = append(sim.shots, signal.Shot{Channel: ch, Gap: gap})
	}
	return sim, nil
}

func (sim *simulation) run(ctx context.Context, s *config.Settings, cmd *cobra.Command) error {
	gen, err := signal.NewGenerator(sim.cfg, sim.shots...)
	if err != nil {
		return fmt.Errorf("signal: %w", err)
	}

	if sim.out != "" {
		if err := writeWaveform(sim.out, sim.cfg, sim.shots); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", sim.out)
	}

	r, err := newReceiver(s, gen, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	if sim.realtime {
		if err := r.runRealtime(ctx); err != nil {
			return err
		}
	} else {
		r.runOffline()
	}
	r.printSummary()
	sim.printScore(cmd, r)
	return nil
}

// printScore pairs each hit with the shot whose pulse it fell in.
func (sim *simulation) printScore(cmd *cobra.Command, r *receiver) {
	pulse := uint64(timer.Ticks(sim.cfg.Pulse))
	var start uint64
	correct, missed := 0, 0
	for _, shot := range sim.shots {
		start += uint64(timer.Ticks(shot.Gap))
		end := start + pulse
		found := false
		for _, ev := range r.hits {
			tick := ev.Cycle * filter.DecimationFactor
			if tick >= start && tick <= end+uint64(filter.OutputQueueSize*filter.DecimationFactor) {
				found = ev.Channel == shot.Channel
				break
			}
		}
		if found {
			correct++
		} else {
			missed++
		}
		start = end
	}
	fmt.Fprintf(cmd.OutOrStdout(), "shots: %d fired, %d detected on the right channel, %d missed or misread\n",
		len(sim.shots), correct, missed)
}

// writeWaveform renders the shot sequence into a WAV file at the tick rate.
func writeWaveform(path string, cfg signal.Config, shots []signal.Shot) error {
	gen, err := signal.NewGenerator(cfg, shots...)
	if err != nil {
		return fmt.Errorf("signal: %w", err)
	}
	sink, err := audio.CreateWAV(path, timer.TickRate)
	if err != nil {
		return err
	}

	chunk := make([]uint16, 4096)
	for {
		n := gen.Fill(chunk)
		if n == 0 {
			break
		}
		if err := sink.Write(chunk[:n]); err != nil {
			_ = sink.Close()
			return err
		}
	}
	return sink.Close()
}
