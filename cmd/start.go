package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start [label]",
	Short: "Start a new Pomodoro cycle",
	Long:  "Start a new Pomodoro cycle, optionally labelled with what you are working on.",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		label := strings.Join(args, " ")
		p, err := newClient().Command("start", label)
		if err != nil {
			return err
		}
		cmd.Println(p.Text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
