package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/taskboard/internal/board"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// filterFlags holds the view-filter flags. Each command that offers
// filtering registers its own instance.
type filterFlags struct {
	status   string
	priority int
	project  string
	search   string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.status, "status", "", "filter by status (to-do, in-progress, completed, blocked)")
	cmd.Flags().IntVar(&f.priority, "priority", 0, "filter by priority (1-10)")
	cmd.Flags().StringVar(&f.project, "project", "", "filter by project id")
	cmd.Flags().StringVar(&f.search, "search", "", "free-text filter over title, description, project name")
}

// build translates the flags into a board filter, validating the status
// value.
func (f *filterFlags) build(cmd *cobra.Command) (board.Filter, error) {
	out := board.Filter{Text: f.search}
	if f.status != "" {
		status := types.Status(f.status)
		if !status.IsValid() {
			return board.Filter{}, fmt.Errorf("unknown status %q", f.status)
		}
		out.Status = &status
	}
	if cmd.Flags().Changed("priority") {
		p := f.priority
		out.Priority = &p
	}
	if f.project != "" {
		p := f.project
		out.ProjectID = &p
	}
	return out, nil
}

var listFilters filterFlags

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks grouped by project",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, done, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		filter, err := listFilters.build(cmd)
		if err != nil {
			return err
		}

		view := session.ProjectedView(filter)
		if flagJSON {
			return printJSON(view)
		}

		if view.Total == 0 {
			fmt.Println("No tasks match.")
			return nil
		}
		for _, g := range view.Groups {
			fmt.Printf("%s (%d)\n", g.Label, len(g.Tasks))
			for _, t := range g.Tasks {
				fmt.Println("  " + taskLine(session, t))
			}
		}
		return nil
	},
}

func init() {
	listFilters.register(listCmd)
}
