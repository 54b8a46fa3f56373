// ABOUTME: Root command and CLI initialization for clenv
// ABOUTME: Sets up cobra command structure, global flags, logging and event tracking
package commands

import (
	"fmt"
	"path/filepath"

	"github.com/davidsonoda/clenv/internal/config"
	"github.com/davidsonoda/clenv/internal/events"
	"github.com/davidsonoda/clenv/internal/logging"
	"github.com/davidsonoda/clenv/internal/ui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	homeDir   string
	verbose   bool
	logFormat string

	prefs = config.DefaultConfig()
)

var rootCmd = &cobra.Command{
	Use:   "clenv",
	Short: "Manage ClearML configuration profiles",
	Long: `clenv keeps several ClearML configurations side by side and switches
between them.

The active profile is always ~/clearml.conf, the file ClearML reads. Every
other profile is stored as ~/clearml-<name>.conf until it is checked out.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version for the root command
func SetVersion(version string) {
	rootCmd.Version = version
}

func init() {
	ui.SetupHelpTemplate(rootCmd)

	rootCmd.PersistentFlags().StringVar(&homeDir, "home-dir", "", "Directory holding the ClearML profiles (default $CLENV_HOME or your home directory)")
	rootCmd.PersistentFlags().BoolVarP(&config.YesFlag, "yes", "y", false, "Skip all prompts, use defaults")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Print debug logs to stderr")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatAuto, "Debug log format: auto, console or json")
}

// setup runs before every command
func setup(cmd *cobra.Command, args []string) error {
	level := ""
	if verbose {
		level = "debug"
	}
	if err := logging.Init(logging.Config{Format: logFormat, Level: level}); err != nil {
		return err
	}

	home, err := resolveHomeDir(homeDir)
	if err != nil {
		return err
	}
	homeDir = home

	cfg, err := config.Load(homeDir)
	if err != nil {
		return fmt.Errorf("failed to load preferences: %w", err)
	}
	prefs = cfg

	events.ConfigureGlobalTracker(homeDir, !prefs.Preferences.DisableEvents)

	log.Debug().
		Str("command", cmd.CommandPath()).
		Str("home", homeDir).
		Bool("events", !prefs.Preferences.DisableEvents).
		Msg("starting")
	return nil
}

// resolveHomeDir returns flag as an absolute path, or the CLENV_HOME/user
// home default when flag is empty
func resolveHomeDir(flag string) (home string, err error) {
	if flag == "" {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%v", r)
			}
		}()
		return config.MustClenvHome(), nil
	}
	return filepath.Abs(flag)
}
