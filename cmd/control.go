package cmd

import (
	"github.com/spf13/cobra"
)

// simpleCommand builds a cobra command that forwards a single verb to
// the daemon and prints the resulting status line.
func simpleCommand(verb, short string) *cobra.Command {
	return &cobra.Command{
		Use:   verb,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newClient().Command(verb, "")
			if err != nil {
				return err
			}
			cmd.Println(p.Text)
			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(
		simpleCommand("stop", "Stop the timer and return to idle"),
		simpleCommand("pause", "Pause the running timer"),
		simpleCommand("resume", "Resume a paused timer"),
		simpleCommand("skip", "Skip to the next phase"),
	)
}
