// ABOUTME: Centralized path resolution for clenv files and directories
// ABOUTME: Respects the CLENV_HOME environment variable for isolation

package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// IndexFileName is the profile index kept directly in the home directory
	IndexFileName = ".clenv-config-index.json"
	// StateDirName holds preferences, event logs and backups
	StateDirName = ".clenv"
)

// YesFlag is set by the global -y/--yes flag to skip confirmation prompts
var YesFlag bool

// MustClenvHome returns the directory that holds the clearml profile files.
// Checks CLENV_HOME env var first, falls back to the user's home directory.
// Panics if CLENV_HOME is set but invalid (whitespace-only or relative path).
// Panics if home directory cannot be determined.
func MustClenvHome() string {
	if home := os.Getenv("CLENV_HOME"); home != "" {
		home = strings.TrimSpace(home)
		if home == "" {
			panic("CLENV_HOME is set but contains only whitespace")
		}
		if !filepath.IsAbs(home) {
			panic("CLENV_HOME must be an absolute path: " + home)
		}
		return home
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic("cannot determine home directory: " + err.Error())
	}
	return homeDir
}

// IndexPath returns the profile index location for homeDir
func IndexPath(homeDir string) string {
	return filepath.Join(homeDir, IndexFileName)
}

// StateDir returns <home>/.clenv
func StateDir(homeDir string) string {
	return filepath.Join(homeDir, StateDirName)
}

// EventsLogPath returns the JSONL file operation log
func EventsLogPath(homeDir string) string {
	return filepath.Join(StateDir(homeDir), "events", "operations.log")
}

// BackupDir returns where profile backups are written
func BackupDir(homeDir string) string {
	return filepath.Join(StateDir(homeDir), "backups")
}

// GlobalConfigPath returns the preferences file
func GlobalConfigPath(homeDir string) string {
	return filepath.Join(StateDir(homeDir), "config.json")
}
