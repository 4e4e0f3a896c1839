// Package cmd implements the tomatod CLI: the daemon itself plus thin
// control commands that talk to it over the control socket.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/tomatod/internal/client"
	"github.com/fakeyudi/tomatod/internal/config"
)

// cfg holds the loaded configuration, populated in PersistentPreRunE.
var cfg config.Config

// socketFlag overrides the configured control socket path.
var socketFlag string

var rootCmd = &cobra.Command{
	Use:   "tomatod",
	Short: "A Pomodoro timer daemon with socket control and status-bar export",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if socketFlag != "" {
			cfg.SocketPath = socketFlag
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&socketFlag, "socket", "", "control socket path (overrides config)")
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetConfig returns the loaded configuration for use by subcommands.
func GetConfig() config.Config {
	return cfg
}

// newClient returns a control client for the configured socket.
func newClient() *client.Client {
	return client.New(cfg.SocketPath)
}
