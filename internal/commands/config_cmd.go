// ABOUTME: Config subcommands for managing ClearML configuration profiles
// ABOUTME: Implements list, checkout, create, del, rename, reinit, show and get
package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/davidsonoda/clenv/internal/breadcrumb"
	"github.com/davidsonoda/clenv/internal/config"
	"github.com/davidsonoda/clenv/internal/hocon"
	"github.com/davidsonoda/clenv/internal/profile"
	"github.com/davidsonoda/clenv/internal/ui"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	listShowPath  bool
	createBase    string
	reinitSection string
	reinitFile    string
	showRaw       bool
	getProfile    string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage config files",
	Long: `Profiles are complete ClearML configuration files.

The active profile lives at clearml.conf where ClearML expects it; the
others are kept next to it as clearml-<name>.conf. The first time clenv
sees an unnamed clearml.conf it asks for a name for it.`,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all config profiles",
	Args:  cobra.NoArgs,
	RunE:  runConfigList,
}

var configCheckoutCmd = &cobra.Command{
	Use:   "checkout <name>",
	Short: "Checkout another profile",
	Long: `Make a stored profile the active one.

The current clearml.conf is stored as clearml-<current>.conf and the chosen
profile is moved to clearml.conf. If anything fails midway the files are
moved back.

Use "-" as the name to switch back to the previously active profile.`,
	Example: `  clenv config checkout staging
  clenv config checkout -`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigCheckout,
}

var configCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new profile",
	Long:  `Create a new profile as a copy of the active profile, or of --base.`,
	Example: `  # Copy the active profile
  clenv config create staging

  # Copy another stored profile
  clenv config create gpu --base staging`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigCreate,
}

var configDeleteCmd = &cobra.Command{
	Use:   "del <name>",
	Short: "Delete a profile",
	Long: `Delete a stored profile and its file. The active profile cannot be deleted.

A copy of the file is kept in ~/.clenv/backups. Prompts for confirmation
unless -y is used.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigDelete,
}

var configRenameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Rename a profile",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigRename,
}

var configReinitCmd = &cobra.Command{
	Use:   "reinit <name>",
	Short: "Reinitialize the api section of the config file",
	Long: `Replace one section of a profile, by default the api section, with the
same section from a pasted configuration.

Paste the configuration shown by the ClearML web app ("Create new
credentials") and finish with an empty line, or pass it with --file.`,
	Example: `  clenv config reinit default
  clenv config reinit staging --file credentials.conf
  clenv config reinit staging --section sdk --file sdk.conf`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigReinit,
}

var configShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show the content of a profile",
	Long:  `Print a profile's configuration file. Without a name the active profile is shown.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one configuration value",
	Long:  `Print the value of a dotted key, for example api.api_server, from the active profile or from --profile.`,
	Example: `  clenv config get api.web_server
  clenv config get sdk.aws.s3.region -p staging`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configCheckoutCmd)
	configCmd.AddCommand(configCreateCmd)
	configCmd.AddCommand(configDeleteCmd)
	configCmd.AddCommand(configRenameCmd)
	configCmd.AddCommand(configReinitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)

	configListCmd.Flags().BoolVarP(&listShowPath, "showpath", "v", false, "Show config file path for the profile")
	configCreateCmd.Flags().StringVarP(&createBase, "base", "b", "", "Base profile name (default: the active profile)")
	configReinitCmd.Flags().StringVar(&reinitSection, "section", "api", "Section to replace")
	configReinitCmd.Flags().StringVar(&reinitFile, "file", "", "Read the configuration from a file instead of stdin")
	configShowCmd.Flags().BoolVar(&showRaw, "raw", false, "Print the file without formatting")
	configGetCmd.Flags().StringVarP(&getProfile, "profile", "p", "", "Profile to read (default: the active profile)")

	configCheckoutCmd.ValidArgsFunction = completeProfileNames
	configDeleteCmd.ValidArgsFunction = completeProfileNames
	configShowCmd.ValidArgsFunction = completeProfileNames
	configReinitCmd.ValidArgsFunction = completeProfileNames
}

// openProfiles reconciles the index with the home directory and names the
// untitled profile if there is one
func openProfiles() (*profile.Service, error) {
	svc, err := profile.Open(profile.Options{
		HomeDir:     homeDir,
		IndexPath:   config.IndexPath(homeDir),
		BackupDir:   config.BackupDir(homeDir),
		DefaultName: prefs.Preferences.DefaultProfileName,
	})
	if err != nil {
		return nil, err
	}

	named, err := svc.EnsureInitialized(func(suggested string) (string, error) {
		return ui.PromptString("Please input a profile name", suggested)
	})
	if err != nil {
		return nil, err
	}
	if named {
		active, _ := svc.Index().Active()
		ui.PrintSuccess(fmt.Sprintf("Profile %s initialized", active.Name))
	}
	return svc, nil
}

func runConfigList(cmd *cobra.Command, args []string) error {
	svc, err := openProfiles()
	if err != nil {
		return err
	}

	entries := svc.List()
	if len(entries) == 0 {
		ui.PrintInfo(fmt.Sprintf("No ClearML config files found in %s", homeDir))
		return nil
	}

	for _, e := range entries {
		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderProfile(e.Name, e.FilePath, e.Active, listShowPath))
	}
	return nil
}

func runConfigCheckout(cmd *cobra.Command, args []string) error {
	name := args[0]
	svc, err := openProfiles()
	if err != nil {
		return err
	}

	stateDir := config.StateDir(homeDir)
	if name == "-" {
		if name, err = breadcrumb.Previous(stateDir); err != nil {
			return err
		}
	}

	previous, hadActive := svc.Index().Active()
	if err := svc.Checkout(name); err != nil {
		return err
	}
	if hadActive {
		if err := breadcrumb.Record(stateDir, previous.Name); err != nil {
			log.Warn().Err(err).Msg("could not record previous profile")
		}
	}
	ui.PrintSuccess(fmt.Sprintf("Profile %q is now active", name))
	return nil
}

func runConfigCreate(cmd *cobra.Command, args []string) error {
	name := args[0]
	svc, err := openProfiles()
	if err != nil {
		return err
	}

	if err := svc.Create(name, createBase); err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Profile %s created", name))
	return nil
}

func runConfigDelete(cmd *cobra.Command, args []string) error {
	name := args[0]
	svc, err := openProfiles()
	if err != nil {
		return err
	}

	// Report a missing or active profile before asking
	if _, err := svc.Index().Get(name); err != nil {
		return err
	}
	if svc.Index().IsActive(name) {
		return &profile.ProfileError{Name: name, Err: profile.ErrActiveProfile}
	}

	confirmed, err := ui.ConfirmYesNo(fmt.Sprintf("Delete profile %s?", name))
	if err != nil {
		return err
	}
	if !confirmed {
		ui.PrintInfo("Cancelled")
		return nil
	}

	if err := svc.Delete(name); err != nil {
		return err
	}
	if err := breadcrumb.Remove(config.StateDir(homeDir), name); err != nil {
		log.Warn().Err(err).Msg("could not update previous profile")
	}
	ui.PrintSuccess(fmt.Sprintf("Profile %s deleted", name))
	if backups, err := svc.Index().Backups(name); err != nil {
		log.Warn().Err(err).Msg("could not list backups")
	} else if len(backups) > 0 {
		ui.PrintMuted("Backup saved to " + backups[len(backups)-1])
	}
	return nil
}

func runConfigRename(cmd *cobra.Command, args []string) error {
	oldName, newName := args[0], args[1]
	svc, err := openProfiles()
	if err != nil {
		return err
	}

	if err := svc.Rename(oldName, newName); err != nil {
		return err
	}
	if err := breadcrumb.Rename(config.StateDir(homeDir), oldName, newName); err != nil {
		log.Warn().Err(err).Msg("could not update previous profile")
	}
	ui.PrintSuccess(fmt.Sprintf("Profile %s renamed to %s", oldName, newName))
	return nil
}

func runConfigReinit(cmd *cobra.Command, args []string) error {
	name := args[0]
	svc, err := openProfiles()
	if err != nil {
		return err
	}
	if _, err := svc.Index().Get(name); err != nil {
		return err
	}

	raw, err := readSectionConfig()
	if err != nil {
		return err
	}

	if err := svc.Reinit(name, reinitSection, raw); err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Profile %s: %s section reinitialized", name, reinitSection))
	return nil
}

func readSectionConfig() (string, error) {
	if reinitFile != "" {
		data, err := os.ReadFile(reinitFile)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", reinitFile, err)
		}
		return string(data), nil
	}

	ui.PrintInfo("Please paste your multi-line configuration and press Enter:")
	raw, err := ui.ReadMultiline()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(raw) == "" {
		return "", errors.New("no configuration given")
	}
	return raw, nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	name := ""
	if len(args) == 1 {
		name = args[0]
	}

	svc, err := openProfiles()
	if err != nil {
		return err
	}

	content, p, err := svc.Show(name)
	if err != nil {
		return err
	}

	title := p.Name
	if svc.Index().IsActive(p.Name) {
		title += " [active]"
	}
	fmt.Fprint(cmd.OutOrStdout(), ui.RenderConfig(title, content, showRaw))
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	svc, err := openProfiles()
	if err != nil {
		return err
	}

	value, err := svc.Value(getProfile, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hocon.FormatValue(value))
	return nil
}

// completeProfileNames offers profile names without touching the index file
func completeProfileNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	home, err := resolveHomeDir(homeDir)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	scan, err := profile.Scan(profile.NewLayout(home))
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var names []string
	for _, p := range scan.NonActive {
		if strings.HasPrefix(p.Name, toComplete) {
			names = append(names, p.Name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
