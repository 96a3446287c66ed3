package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/taskboard/internal/router"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// Update flags.
var (
	flagUpdateKind     string
	flagUpdateTitle    string
	flagUpdateDesc     string
	flagUpdateStatus   string
	flagUpdatePriority int
	flagUpdateDue      string
	flagUpdateAssignee string
	flagUpdateTags     []string
	flagUpdateCollabs  []string
)

var updateCmd = &cobra.Command{
	Use:   "update <task-id>",
	Short: "Edit a task",
	Long: `Update applies the changed flags as a patch to the task, optimistically
in the local board, and routes the edit to the task's home collection. Only
flags you pass are changed; --due "" clears the deadline.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, done, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		task, err := findTask(cmd.Context(), session, args[0], flagUpdateKind)
		if err != nil {
			return err
		}

		var patch types.TaskPatch
		if cmd.Flags().Changed("title") {
			patch.Title = &flagUpdateTitle
		}
		if cmd.Flags().Changed("description") {
			patch.Description = &flagUpdateDesc
		}
		if cmd.Flags().Changed("status") {
			status := types.Status(flagUpdateStatus)
			if !status.IsValid() {
				return fmt.Errorf("unknown status %q", flagUpdateStatus)
			}
			patch.Status = &status
		}
		if cmd.Flags().Changed("priority") {
			patch.Priority = &flagUpdatePriority
		}
		if cmd.Flags().Changed("due") {
			if flagUpdateDue == "" {
				patch.ClearDueDate = true
			} else {
				due, err := router.ParseDueDate(flagUpdateDue)
				if err != nil {
					return err
				}
				patch.DueDate = due
			}
		}
		if cmd.Flags().Changed("assignee") {
			patch.AssigneeID = &flagUpdateAssignee
		}
		if cmd.Flags().Changed("tag") {
			patch.Tags = &flagUpdateTags
		}
		if cmd.Flags().Changed("collaborator") {
			patch.CollaboratorIDs = &flagUpdateCollabs
		}
		if patch.IsZero() {
			return fmt.Errorf("nothing to update; pass at least one field flag")
		}

		if err := session.SubmitEdit(cmd.Context(), task.Key(), patch); err != nil {
			return err
		}

		fmt.Printf("Updated %s\n", task.Key())
		return nil
	},
}

func init() {
	updateCmd.Flags().StringVar(&flagUpdateKind, "kind", "", "disambiguate the task's collection")
	updateCmd.Flags().StringVar(&flagUpdateTitle, "title", "", "new title")
	updateCmd.Flags().StringVar(&flagUpdateDesc, "description", "", "new description")
	updateCmd.Flags().StringVar(&flagUpdateStatus, "status", "", "new status")
	updateCmd.Flags().IntVar(&flagUpdatePriority, "priority", 0, "new priority (1-10)")
	updateCmd.Flags().StringVar(&flagUpdateDue, "due", "", "new due date; empty clears it")
	updateCmd.Flags().StringVar(&flagUpdateAssignee, "assignee", "", "new assignee user id")
	updateCmd.Flags().StringArrayVar(&flagUpdateTags, "tag", nil, "replacement tag list (repeatable)")
	updateCmd.Flags().StringArrayVar(&flagUpdateCollabs, "collaborator", nil, "replacement collaborator list (repeatable)")
}
