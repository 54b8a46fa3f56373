// ABOUTME: User subcommands for privately hosted ClearML servers
// ABOUTME: genpass writes a username and bcrypt cipher password for the server admin
package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/davidsonoda/clenv/internal/events"
	"github.com/davidsonoda/clenv/internal/hocon"
	"github.com/davidsonoda/clenv/internal/password"
	"github.com/davidsonoda/clenv/internal/profile"
	"github.com/davidsonoda/clenv/internal/ui"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Privately hosted clearml server user helper tools",
}

var userGenpassCmd = &cobra.Command{
	Use:   "genpass <username> [password]",
	Short: "Generate a user password",
	Long: `Hash a password with bcrypt and save it with the username to
~/clearml-server-<username>.conf, ready to send to the server admin.

Passwords need at least 8 characters, including a number, an upper case
letter and a lower case letter. Without a password argument you are
prompted for one.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runUserGenpass,
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userGenpassCmd)
}

func runUserGenpass(cmd *cobra.Command, args []string) error {
	username := args[0]
	if err := profile.ValidateName(username); err != nil {
		return fmt.Errorf("invalid username %q", username)
	}

	var plain string
	if len(args) == 2 {
		plain = args[1]
	} else {
		var err error
		plain, err = ui.PromptPassword("Create a password for the user")
		if err != nil {
			return err
		}
	}

	creds, err := password.NewCredentials(username, plain)
	if err != nil {
		return err
	}

	content := hocon.Serialize(hocon.FromMap(map[string]any{
		"username": creds.Username,
		"password": creds.Password,
	}))

	name := "server-" + username
	path := filepath.Join(homeDir, fmt.Sprintf("%s-%s%s", profile.FilePrefix, name, profile.FileExt))
	err = events.GlobalTracker().RecordFileWrite("user genpass", path, name, func() error {
		return os.WriteFile(path, []byte(content), 0600)
	})
	if err != nil {
		return &profile.FileError{Op: profile.OpWrite, Path: path, Err: err}
	}

	data, err := json.MarshalIndent(creds, "", "    ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	ui.PrintSuccess(fmt.Sprintf("User name and cipher password config saved to %s, please send the config file to server admin", path))
	return nil
}
