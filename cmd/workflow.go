package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/tomatod/internal/workflow"
)

var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Manage named workflows",
}

var workflowListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all defined workflows",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := workflow.NewLibrary()
		if err != nil {
			return err
		}
		for _, w := range lib.List() {
			repeat := "repeating"
			if !w.Repeat {
				repeat = "one-shot"
			}
			cmd.Printf("%s: work %s, break %s, long break %s every %d sessions (%s)\n",
				w.Name, w.WorkDuration, w.BreakDuration, w.LongBreakDuration,
				w.LongBreakInterval, repeat)
		}
		return nil
	},
}

var (
	addWork      time.Duration
	addBreak     time.Duration
	addLongBreak time.Duration
	addInterval  int
	addOneShot   bool
)

var workflowAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Define a new workflow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := workflow.NewLibrary()
		if err != nil {
			return err
		}
		w := workflow.Workflow{
			Name:              args[0],
			WorkDuration:      addWork,
			BreakDuration:     addBreak,
			LongBreakDuration: addLongBreak,
			LongBreakInterval: addInterval,
			Repeat:            !addOneShot,
		}
		if err := lib.Add(w); err != nil {
			return err
		}
		cmd.Printf("Workflow %q added.\n", w.Name)
		return nil
	},
}

var workflowRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a workflow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := workflow.NewLibrary()
		if err != nil {
			return err
		}
		if err := lib.Remove(args[0]); err != nil {
			return err
		}
		cmd.Printf("Workflow %q removed.\n", args[0])
		return nil
	},
}

func init() {
	workflowAddCmd.Flags().DurationVar(&addWork, "work", 25*time.Minute, "work phase duration")
	workflowAddCmd.Flags().DurationVar(&addBreak, "break", 5*time.Minute, "short break duration")
	workflowAddCmd.Flags().DurationVar(&addLongBreak, "long-break", 15*time.Minute, "long break duration")
	workflowAddCmd.Flags().IntVar(&addInterval, "interval", 4, "work sessions before a long break")
	workflowAddCmd.Flags().BoolVar(&addOneShot, "one-shot", false, "complete after the first long break instead of repeating")

	workflowCmd.AddCommand(workflowListCmd, workflowAddCmd, workflowRemoveCmd)
	rootCmd.AddCommand(workflowCmd)
}
