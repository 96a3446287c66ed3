// Package paths resolves configuration and data directory locations for
// the taskboard CLI.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// CWD-relative directory names used when no override is active.
const (
	DefaultConfigDirName = ".taskboard"
	DefaultDataDirName   = ".taskboard-db"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "TASKBOARD_CONFIG_DIR"
	EnvDataDir   = "TASKBOARD_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/taskboard (fallback ~/.config/taskboard)
// macOS:   ~/Library/Application Support/taskboard
// Windows: %APPDATA%/taskboard
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "taskboard"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "taskboard"), nil
	default:
		// macOS and Windows use os.UserConfigDir which returns
		// ~/Library/Application Support on macOS and %APPDATA% on Windows.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "taskboard"), nil
	}
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > TASKBOARD_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > configYAMLValue > TASKBOARD_DATA_DIR env > $(CWD)/.taskboard-db.
//
// The CWD-relative default keeps each working directory's board separate,
// the same way a per-repository tracker behaves.
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}
