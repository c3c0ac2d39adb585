// Package cmd implements the CLI commands for golfcastd.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/golfcast/golfcast/internal/version"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "golfcastd",
	Short:   "Golf broadcast capture and auto-cut daemon",
	Version: version.Short(),
	Long: `golfcastd captures golfer and simulator video, auto-cuts the program
feed between them on swing detection, records both sources, and exports
overlaid swing clips.

It exposes a thin read-only HTTP status surface (devices, recording
state, auto-cut state) plus Prometheus metrics; the GUI and relay layer
are separate non-goals this daemon does not implement.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: config.yaml searched in ., ./configs, /etc/golfcast, $HOME/.golfcast)")
}
