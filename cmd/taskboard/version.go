package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/taskboard/pkg/taskboard"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("taskboard v" + taskboard.Version)
	},
}
