// cmd/replay.go
package cmd

import (
	"fmt"

	"github.com/ColonelBlimp/lasertag/internal/audio"
	"github.com/ColonelBlimp/lasertag/internal/log"
	"github.com/ColonelBlimp/lasertag/internal/timer"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <file.wav>",
	Short: "Run a recorded WAV file through the receiver",
	Long: `Plays a PCM WAV file through the receiver as if its samples had come
from the ADC. Only the first channel is used. The filters are designed for
100 kHz, so files recorded at another rate are refused unless --force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().Bool("force", false, "replay files whose sample rate does not match the tick rate")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	force, _ := cmd.Flags().GetBool("force")

	src, err := audio.OpenWAV(args[0], s.BufferSize)
	if err != nil {
		return err
	}
	defer src.Close()

	if rate := src.SampleRate(); rate != timer.TickRate {
		if !force {
			return fmt.Errorf("%s: sample rate %d Hz, want %d Hz", args[0], rate, timer.TickRate)
		}
		log.Warnf("replay: %s is %d Hz, carriers will be detected on the wrong channels", args[0], rate)
	}
	log.Infof("replay: %s, %d channel(s), %d-bit", args[0], src.Channels(), src.BitDepth())

	r, err := newReceiver(s, src, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	r.runOffline()
	if err := src.Err(); err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	r.printSummary()
	return nil
}
