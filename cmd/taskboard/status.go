package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

var (
	flagStatusKind string
	flagDoneKind   string
)

var statusCmd = &cobra.Command{
	Use:   "status <task-id> <status>",
	Short: "Change a task's status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setStatus(cmd, args[0], types.Status(args[1]), flagStatusKind)
	},
}

var doneCmd = &cobra.Command{
	Use:   "done <task-id>",
	Short: "Mark a task completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setStatus(cmd, args[0], types.StatusCompleted, flagDoneKind)
	},
}

func init() {
	statusCmd.Flags().StringVar(&flagStatusKind, "kind", "", "disambiguate the task's collection")
	doneCmd.Flags().StringVar(&flagDoneKind, "kind", "", "disambiguate the task's collection")
}

// setStatus routes a status-only update through the board session.
func setStatus(cmd *cobra.Command, id string, status types.Status, kind string) error {
	if !status.IsValid() {
		return fmt.Errorf("unknown status %q", status)
	}

	session, done, err := openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer done()

	task, err := findTask(cmd.Context(), session, id, kind)
	if err != nil {
		return err
	}
	if err := session.SetStatus(cmd.Context(), task.Key(), status); err != nil {
		return err
	}

	fmt.Printf("%s is now %s\n", task.Key(), status)
	return nil
}
