package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/tomatod/internal/render"
)

func secondsDuration(s int) time.Duration {
	return time.Duration(s) * time.Second
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show detailed daemon and timer state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := newClient().Info()
		if err != nil {
			return err
		}

		cmd.Printf("Status: %s\n", info.Status)
		cmd.Printf("Phase: %s\n", info.CurrentPhase)
		cmd.Printf("Remaining: %s\n", render.FormatRemaining(secondsDuration(info.RemainingSeconds)))
		cmd.Printf("Completed sessions: %d\n", info.CompletedWorkSessions)
		if info.Label != "" {
			cmd.Printf("Label: %s\n", info.Label)
		}
		cmd.Printf("Workflow: %s\n", info.Workflow)
		cmd.Printf("Last updated: %s\n", info.LastUpdatedAt)
		cmd.Printf("Daemon uptime: %s\n", render.FormatRemaining(secondsDuration(info.UptimeSeconds)))
		cmd.Printf("Daemon instance: %s\n", info.InstanceID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
