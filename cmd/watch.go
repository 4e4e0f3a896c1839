package cmd

import (
	"errors"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/tomatod/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the timer live in a full-screen view",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !term.IsTerminal(os.Stdout.Fd()) {
			return errors.New("watch needs an interactive terminal; use `tomatod status --json` for scripts")
		}
		return tui.Run(newClient(), cfg.ExportPath)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
