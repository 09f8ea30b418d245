package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/franz/soundscape-inventory/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "ssinv",
		Short: "Soundscape Inventory - solar reference and recording inventory for field audio",
		Long: `ssinv builds the inventory of an acoustic monitoring campaign.

Stage 1 (sunref) computes sunrise, sunset and solar noon for every day of a
year at the monitoring site. Stage 2 (scan) walks the audio directory,
parses recorder id and start time from each WAV filename, reads the audio
header and assigns every recording a solar slot such as sunrise_-120 or
sunset_0. Results are written as flat CSV tables.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./"+config.DefaultPath+")")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")

	// Bind flags to viper
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	// Defaults and SSINV_* overrides; the file itself is read by the
	// commands that need it so that 'config init' works without one
	config.Bind(viper.GetViper())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
