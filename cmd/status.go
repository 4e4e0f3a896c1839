package cmd

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/tomatod/internal/client"
	"github.com/fakeyudi/tomatod/internal/render"
)

var statusJSONFlag bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current timer status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newClient().Status()
		if err != nil {
			if !errors.Is(err, client.ErrDaemonNotRunning) {
				return err
			}
			if !statusJSONFlag {
				return err
			}
			// Status bars poll this command blindly; give them a
			// well-formed error payload instead of a broken exec.
			p = render.Error(err.Error())
		}

		if statusJSONFlag {
			data, err := json.Marshal(p)
			if err != nil {
				return err
			}
			cmd.Println(string(data))
			return nil
		}
		cmd.Println(p.Text)
		if p.Tooltip != "" {
			cmd.Println(p.Tooltip)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSONFlag, "json", false, "emit the raw status-bar payload")
	rootCmd.AddCommand(statusCmd)
}
