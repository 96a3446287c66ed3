package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagDemo bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the taskboard data directory",
	Long: `Initialize creates the data directory and the SQLite database. With
--demo the database is seeded with example users, projects, and tasks.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := attachBackend()
		if err != nil {
			return err
		}
		defer backend.Close()

		if flagDemo {
			if err := backend.Seed(cmd.Context()); err != nil {
				return fmt.Errorf("seed demo data: %w", err)
			}
		}

		fmt.Println("Taskboard initialized successfully")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&flagDemo, "demo", false, "seed example data")
}
