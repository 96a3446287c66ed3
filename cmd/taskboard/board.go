package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/taskboard/internal/board"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// Board column headers, in fixed column order. Blocked and completed share
// the last column.
var columnOrder = []struct {
	title    string
	statuses []types.Status
	paint    *color.Color
}{
	{"TO DO", []types.Status{types.StatusToDo}, color.New(color.FgCyan, color.Bold)},
	{"IN PROGRESS", []types.Status{types.StatusInProgress}, color.New(color.FgYellow, color.Bold)},
	{"BLOCKED / DONE", []types.Status{types.StatusBlocked, types.StatusCompleted}, color.New(color.FgGreen, color.Bold)},
}

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show the board columns",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, done, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		filter, err := boardFilters.build(cmd)
		if err != nil {
			return err
		}
		tasks := session.Tasks(filter)

		if flagJSON {
			return printJSON(tasks)
		}

		blocked := color.New(color.FgRed)
		for _, col := range columnOrder {
			col.paint.Println(col.title)
			empty := true
			for _, t := range tasks {
				if !containsStatus(col.statuses, t.Status) {
					continue
				}
				empty = false
				line := "  " + taskLine(session, t) + "  (" + session.ProjectName(board.GroupKey(t)) + ")"
				if t.Status == types.StatusBlocked {
					blocked.Println(line)
				} else {
					fmt.Println(line)
				}
			}
			if empty {
				fmt.Println("  -")
			}
			fmt.Println()
		}
		return nil
	},
}

var boardFilters filterFlags

func init() {
	boardFilters.register(boardCmd)
}

func containsStatus(list []types.Status, s types.Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
