package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagDeleteKind string

var deleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a task",
	Long:  `Delete removes a task from its home collection. Deleting a parent task removes its subtasks as well.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, done, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		task, err := findTask(cmd.Context(), session, args[0], flagDeleteKind)
		if err != nil {
			return err
		}
		if err := session.RequestDelete(cmd.Context(), task.Key()); err != nil {
			return err
		}

		fmt.Printf("Deleted %s\n", task.Key())
		return nil
	},
}

func init() {
	deleteCmd.Flags().StringVar(&flagDeleteKind, "kind", "", "disambiguate the task's collection")
}
