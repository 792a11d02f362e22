// cmd/listen.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/ColonelBlimp/lasertag/internal/audio"
	"github.com/ColonelBlimp/lasertag/internal/config"
	"github.com/ColonelBlimp/lasertag/internal/log"
	"github.com/ColonelBlimp/lasertag/internal/timer"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Detect hits on a live sound-card input",
	Long: `Uses a sound-card input as the receiver ADC. The photodiode front end
is expected on the first input channel. Runs until interrupted or until
--duration has elapsed.`,
	Args: cobra.NoArgs,
	RunE: runListen,
}

func init() {
	listenCmd.Flags().IntP("device", "d", -1, "audio device index (-1 for default)")
	listenCmd.Flags().Duration("duration", 0, "stop after this long (0 runs until interrupted)")
	listenCmd.Flags().Bool("list", false, "list capture devices and exit")
	viper.BindPFlag("device_index", listenCmd.Flags().Lookup("device"))
	rootCmd.AddCommand(listenCmd)
}

func runListen(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	list, _ := cmd.Flags().GetBool("list")
	duration, _ := cmd.Flags().GetDuration("duration")

	capture := audio.New(captureConfig(s))
	if err := capture.Init(); err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	defer func() {
		if err := capture.Close(); err != nil {
			log.Warnf("audio: close: %v", err)
		}
	}()

	if list {
		return listDevices(cmd, capture)
	}
	if s.SampleRate != timer.TickRate {
		log.Warnf("listen: sample_rate %d Hz differs from the %d Hz the filters expect", s.SampleRate, timer.TickRate)
	}

	r, err := newReceiver(s, nil, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	capture.SetCallback(r.feed)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	if err := capture.Start(ctx); err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "listening, press Ctrl+C to stop")

	r.poll(ctx, nil, time.Duration(s.DetectorIntervalTicks)*timer.TickPeriod)

	if err := capture.Stop(); err != nil && !errors.Is(err, audio.ErrNotRunning) {
		log.Warnf("audio: stop: %v", err)
	}
	log.Debugf("listen: %d frames captured", capture.Frames())
	r.printSummary()
	return nil
}

func captureConfig(s *config.Settings) audio.Config {
	return audio.Config{
		DeviceIndex: s.DeviceIndex,
		SampleRate:  uint32(s.SampleRate),
		BufferSize:  uint32(s.BufferSize),
	}
}

func listDevices(cmd *cobra.Command, capture *audio.Capture) error {
	devices, err := capture.ListDevices()
	if err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	for i, d := range devices {
		def := ""
		if d.IsDefault != 0 {
			def = " (default)"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%2d: %s%s\n", i, d.Name(), def)
	}
	return nil
}
