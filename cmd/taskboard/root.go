// Root command for the taskboard CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/taskboard/internal/paths"
	"github.com/mesh-intelligence/taskboard/pkg/taskboard"
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagActor     string
	flagJSON      bool
)

// Values loaded from config.yaml by PersistentPreRunE so all subcommands
// can use them.
var (
	configDataDir string
	configActor   string
)

var rootCmd = &cobra.Command{
	Use:     "taskboard",
	Short:   "Taskboard is a local-first task board",
	Version: taskboard.Version,
	Long: `Taskboard merges project tasks, project subtasks, standalone tasks, and
standalone subtasks into one board, and routes every change back to the
collection it came from.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}

		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}

		configDataDir = cfg.GetString(cfgKeyDataDir)
		configActor = cfg.GetString(cfgKeyActor)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default: $(CWD)/.taskboard-db)")
	rootCmd.PersistentFlags().StringVar(&flagActor, "actor", "", "acting user id (default: config.yaml actor)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(expandCmd)
}

// resolveDataDir returns the data directory path following the precedence:
// --data-dir flag > config.yaml data_dir > TASKBOARD_DATA_DIR env > default.
func resolveDataDir() (string, error) {
	return paths.ResolveDataDir(flagDataDir, configDataDir)
}

// resolveConfigDir returns the configuration directory following the
// precedence: --config-dir flag > TASKBOARD_CONFIG_DIR env > default.
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}

// resolveActor returns the acting user id: --actor flag > config.yaml.
func resolveActor() string {
	if flagActor != "" {
		return flagActor
	}
	return configActor
}
