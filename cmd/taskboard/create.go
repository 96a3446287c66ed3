package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/taskboard/internal/router"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// Create flags.
var (
	flagCreateProject  string
	flagCreateParent   string
	flagCreateDesc     string
	flagCreateStatus   string
	flagCreatePriority int
	flagCreateDue      string
	flagCreateAssignee string
	flagCreateTags     []string
	flagCreateCollabs  []string
)

var createCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a task",
	Long: `Create a task in the collection implied by the scope flags:
--project alone creates a project task, --project with --parent a project
subtask, --parent alone a standalone subtask, and neither a standalone task
owned by the acting user.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, done, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		due, err := router.ParseDueDate(flagCreateDue)
		if err != nil {
			return err
		}

		payload := types.Task{
			Title:           args[0],
			Description:     flagCreateDesc,
			Status:          types.StatusToDo,
			Priority:        flagCreatePriority,
			DueDate:         due,
			Tags:            flagCreateTags,
			AssigneeID:      flagCreateAssignee,
			CollaboratorIDs: flagCreateCollabs,
			Provenance:      createScope(),
		}
		if flagCreateStatus != "" {
			status := types.Status(flagCreateStatus)
			if !status.IsValid() {
				return fmt.Errorf("unknown status %q", flagCreateStatus)
			}
			payload.Status = status
		}
		if payload.AssigneeID == "" {
			payload.AssigneeID = session.Actor()
		}

		created, err := session.Create(cmd.Context(), payload)
		if err != nil {
			return err
		}

		if flagJSON {
			return printJSON(created)
		}
		fmt.Printf("Created %s %s\n", created.Provenance.Kind, created.ID)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&flagCreateProject, "project", "", "project id (project-scoped tasks)")
	createCmd.Flags().StringVar(&flagCreateParent, "parent", "", "parent task id (subtasks)")
	createCmd.Flags().StringVar(&flagCreateDesc, "description", "", "task description")
	createCmd.Flags().StringVar(&flagCreateStatus, "status", "", "initial status (default to-do)")
	createCmd.Flags().IntVar(&flagCreatePriority, "priority", types.PriorityDefault, "priority (1-10)")
	createCmd.Flags().StringVar(&flagCreateDue, "due", "", "due date (e.g. 2026-10-01)")
	createCmd.Flags().StringVar(&flagCreateAssignee, "assignee", "", "assignee user id (default: acting user)")
	createCmd.Flags().StringArrayVar(&flagCreateTags, "tag", nil, "tag (repeatable)")
	createCmd.Flags().StringArrayVar(&flagCreateCollabs, "collaborator", nil, "collaborator user id (repeatable)")
}

// createScope derives the provenance from the scope flags.
func createScope() types.Provenance {
	switch {
	case flagCreateProject != "" && flagCreateParent != "":
		return types.Provenance{Kind: types.KindProjectSubtask, ProjectID: flagCreateProject, ParentTaskID: flagCreateParent}
	case flagCreateProject != "":
		return types.Provenance{Kind: types.KindProjectTask, ProjectID: flagCreateProject}
	case flagCreateParent != "":
		return types.Provenance{Kind: types.KindStandaloneSubtask, ParentTaskID: flagCreateParent}
	default:
		return types.Provenance{Kind: types.KindStandaloneTask}
	}
}
