// ABOUTME: Entry point for the clenv CLI tool
// ABOUTME: Runs the root command and exits with a status matching the error kind
package main

import (
	"fmt"
	"os"

	"github.com/davidsonoda/clenv/internal/commands"
	"github.com/davidsonoda/clenv/internal/ui"
)

var version = "dev" // Injected at build time via -ldflags

func main() {
	commands.SetVersion(version)

	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.FormatError(err))
		os.Exit(commands.ExitCode(err))
	}
}
