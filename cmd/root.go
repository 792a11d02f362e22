// cmd/root.go
package cmd

import (
	"fmt"
	"os"

	"github.com/ColonelBlimp/lasertag/internal/config"
	"github.com/ColonelBlimp/lasertag/internal/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "lasertag",
	Short: "IR laser tag receiver and hit detector",
	Long: `A laser tag receiver that separates ten IR carrier frequencies with a
bank of band-pass filters and registers a hit when one carrier clearly
dominates the others.

Samples come from a synthesised shot sequence (simulate), a recorded WAV
file (replay) or a sound-card input (listen).`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags (override config file)
	rootCmd.PersistentFlags().IntP("fudge-index", "F", 4, "sensitivity table entry (higher is less sensitive)")
	rootCmd.PersistentFlags().IntP("rank", "r", 4, "rank of the reference power (0-9)")
	rootCmd.PersistentFlags().IntSliceP("ignore", "i", nil, "channels that never register a hit")
	rootCmd.PersistentFlags().IntP("lockout", "l", 500, "lockout after a hit in ms")
	rootCmd.PersistentFlags().StringP("log-level", "L", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolP("debug", "D", false, "log every power update")

	bindFlags()
}

// bindFlags binds the global flags to their config keys.
func bindFlags() {
	flags := rootCmd.PersistentFlags()
	viper.BindPFlag("fudge_factor_index", flags.Lookup("fudge-index"))
	viper.BindPFlag("rank_index", flags.Lookup("rank"))
	viper.BindPFlag("ignored_frequencies", flags.Lookup("ignore"))
	viper.BindPFlag("lockout_ms", flags.Lookup("lockout"))
	viper.BindPFlag("log_level", flags.Lookup("log-level"))
	viper.BindPFlag("debug", flags.Lookup("debug"))
}

func initConfig() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
}

// loadSettings reads and validates the configuration and applies the log level.
func loadSettings() (*config.Settings, error) {
	s, err := config.Get()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	level, _ := log.ParseLevel(s.LogLevel)
	log.SetLevel(level)
	return s, nil
}
