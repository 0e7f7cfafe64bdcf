// Package cli implements the greenpoint command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/greenpoint-eco/greenpoint/internal/daemon"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "greenpoint",
	Short: "Eco-aware prompt coaching with team leaderboards",
	Long: `GreenPoint scores every prompt for its estimated energy cost, coaches
users toward concise prompts and turns the result into XP, achievements and
a shared team leaderboard.

Run 'greenpoint serve' to start the API the web client talks to.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: $GREENPOINT_HOME/config.toml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the config named by --config, or the default path.
func loadConfig() (daemon.Config, error) {
	path := configPath
	if path == "" {
		path = daemon.ConfigPath()
	}
	cfg, err := daemon.LoadConfig(path)
	if err != nil {
		return daemon.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
