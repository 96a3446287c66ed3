package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagExpandKind string

var expandCmd = &cobra.Command{
	Use:   "expand <task-id>",
	Short: "Show the subtasks of a task",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, done, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		task, err := findTask(cmd.Context(), session, args[0], flagExpandKind)
		if err != nil {
			return err
		}

		subtasks, err := session.ToggleExpand(cmd.Context(), task.Key())
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(subtasks)
		}
		if len(subtasks) == 0 {
			fmt.Printf("%s has no subtasks\n", task.ID)
			return nil
		}
		fmt.Printf("%s (%d subtasks)\n", task.Title, len(subtasks))
		for i := range subtasks {
			fmt.Println("  " + taskLine(session, &subtasks[i]))
		}
		return nil
	},
	Args: cobra.ExactArgs(1),
}

func init() {
	expandCmd.Flags().StringVar(&flagExpandKind, "kind", "", "disambiguate the task's collection")
}
