package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/tomatod/internal/daemon"
	"github.com/fakeyudi/tomatod/internal/server"
	"github.com/fakeyudi/tomatod/internal/store"
	"github.com/fakeyudi/tomatod/internal/workflow"
)

var daemonWorkflowFlag string

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the timer daemon in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		lib, err := workflow.NewLibrary()
		if err != nil {
			return fmt.Errorf("loading workflows: %w", err)
		}
		name := cfg.DefaultWorkflow
		if daemonWorkflowFlag != "" {
			name = daemonWorkflowFlag
		}
		wf, err := lib.Get(name)
		if err != nil {
			return err
		}

		st, err := store.NewStateStore()
		if err != nil {
			return fmt.Errorf("opening state store: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		d := daemon.New(cfg, wf, st, logger)
		if err := d.Run(ctx); err != nil {
			if errors.Is(err, server.ErrEndpointInUse) {
				return fmt.Errorf("another tomatod daemon is already running: %w", err)
			}
			return err
		}
		return nil
	},
}

func init() {
	daemonCmd.Flags().StringVarP(&daemonWorkflowFlag, "workflow", "w", "", "workflow to run (default from config)")
	rootCmd.AddCommand(daemonCmd)
}
