// cmd/response.go
package cmd

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/ColonelBlimp/lasertag/internal/buffer"
	"github.com/ColonelBlimp/lasertag/internal/config"
	"github.com/ColonelBlimp/lasertag/internal/detector"
	"github.com/ColonelBlimp/lasertag/internal/dsp"
	"github.com/ColonelBlimp/lasertag/internal/filter"
	"github.com/ColonelBlimp/lasertag/internal/signal"
	"github.com/ColonelBlimp/lasertag/internal/timer"
	"github.com/spf13/cobra"
)

var responseCmd = &cobra.Command{
	Use:   "response",
	Short: "Print the filter bank's response to each carrier",
	Long: `Plays a clean pulse on every carrier in turn and prints the power each
channel measured, normalised to the strongest channel. A healthy bank has
its peak on the diagonal. The input column is the strongest carrier a
Goertzel meter finds in the raw samples.`,
	Args: cobra.NoArgs,
	RunE: runResponse,
}

func init() {
	responseCmd.Flags().Bool("db", false, "print powers in dB relative to the peak")
	rootCmd.AddCommand(responseCmd)
}

func runResponse(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	db, _ := cmd.Flags().GetBool("db")

	resp, err := measureResponse(s)
	if err != nil {
		return err
	}
	return resp.print(cmd.OutOrStdout(), db)
}

// response holds, per transmitted carrier, the normalised power vector of
// the filter bank at the end of one pulse and the strongest channel seen by
// the bank and by a Goertzel meter on the raw input.
type response struct {
	rows       [][]float64
	peaks      []int
	inputPeaks []int
}

func measureResponse(s *config.Settings) (*response, error) {
	cfg := signal.Config{Pulse: s.Pulse(), Amplitude: s.Amplitude, Seed: 1}
	pulse := int(timer.Ticks(cfg.Pulse))
	freqs := filter.Frequencies()
	meter, err := dsp.NewCarrierMeter(freqs[:], filter.InputSampleRate, pulse)
	if err != nil {
		return nil, fmt.Errorf("carrier meter: %w", err)
	}

	resp := &response{
		rows:       make([][]float64, filter.ChannelCount),
		peaks:      make([]int, filter.ChannelCount),
		inputPeaks: make([]int, filter.ChannelCount),
	}
	codes := make([]uint16, s.DetectorIntervalTicks)
	input := make([]float64, 0, pulse)
	mags := make([]float64, meter.Len())

	for tx := range filter.ChannelCount {
		gen, err := signal.NewGenerator(cfg, signal.Shot{Channel: tx})
		if err != nil {
			return nil, fmt.Errorf("signal: %w", err)
		}
		buf := buffer.New(s.BufferCapacity)
		det, err := detector.New(detectorConfig(s), buf, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("detector: %w", err)
		}
		det.SetIgnoreAllHits(true)

		input = input[:0]
		for {
			n := gen.Fill(codes)
			for _, c := range codes[:n] {
				buf.PushOverwrite(c)
				input = append(input, detector.ScaleADC(c))
			}
			det.RunOneCycle(false)
			if n < len(codes) {
				break
			}
		}

		resp.rows[tx] = make([]float64, filter.ChannelCount)
		resp.peaks[tx] = det.NormalizedPowerValues(resp.rows[tx])
		if resp.inputPeaks[tx], err = meter.Measure(input, mags); err != nil {
			return nil, fmt.Errorf("carrier %d: %w", tx, err)
		}
	}
	return resp, nil
}

func (r *response) print(out io.Writer, db bool) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "tx \\ rx\t")
	for ch := range filter.ChannelCount {
		fmt.Fprintf(tw, "%.0f\t", filter.Frequency(ch))
	}
	fmt.Fprintln(tw, "peak\tinput\t")

	for tx, row := range r.rows {
		fmt.Fprintf(tw, "%.0f Hz\t", filter.Frequency(tx))
		for _, v := range row {
			if db {
				fmt.Fprintf(tw, "%.1f\t", 10*math.Log10(v))
			} else {
				fmt.Fprintf(tw, "%.3f\t", v)
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t\n", peakMark(r.peaks[tx], tx), peakMark(r.inputPeaks[tx], tx))
	}
	return tw.Flush()
}

// peakMark flags a peak off the diagonal.
func peakMark(peak, tx int) string {
	if peak != tx {
		return fmt.Sprintf("%d !", peak)
	}
	return fmt.Sprint(peak)
}
