// ABOUTME: Interactive prompt UI functions for user input
// ABOUTME: Handles confirmations, text and password prompts, and multi-line pastes
package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/davidsonoda/clenv/internal/config"
	"golang.org/x/term"
)

// ErrUserCancelled is returned when the user declines a confirmation
var ErrUserCancelled = errors.New("cancelled by user")

var (
	in     io.Reader = os.Stdin
	reader *bufio.Reader
)

// SetInput replaces the prompt input stream
func SetInput(r io.Reader) {
	in = r
	reader = nil
}

// bufferedInput keeps one reader per stream so consecutive prompts see all input
func bufferedInput() *bufio.Reader {
	if reader == nil {
		reader = bufio.NewReader(in)
	}
	return reader
}

// readLine returns the next line without its terminator. A final line
// without a newline is returned with a nil error.
func readLine() (string, error) {
	line, err := bufferedInput().ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	return strings.TrimRight(line, "\r\n"), err
}

// ConfirmYesNo prompts for Y/n confirmation
func ConfirmYesNo(prompt string) (bool, error) {
	if config.YesFlag {
		return true, nil
	}

	fmt.Fprintf(out, "%s [Y/n]: ", prompt)

	input, err := readLine()
	if err != nil {
		return false, err
	}

	input = strings.TrimSpace(strings.ToLower(input))
	return input == "" || input == "y" || input == "yes", nil
}

// PromptYesNo prompts for yes/no confirmation with configurable default
func PromptYesNo(prompt string, defaultYes bool) bool {
	if config.YesFlag {
		return defaultYes
	}

	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}
	fmt.Fprintf(out, "%s %s: ", prompt, hint)

	input, err := readLine()
	if err != nil {
		return defaultYes
	}

	input = strings.TrimSpace(strings.ToLower(input))
	if input == "" {
		return defaultYes
	}
	return input == "y" || input == "yes"
}

// PromptString asks for a line of text, returning defaultValue for an empty
// answer, at end of input, or when --yes is set
func PromptString(prompt, defaultValue string) (string, error) {
	if config.YesFlag {
		return defaultValue, nil
	}

	if defaultValue != "" {
		fmt.Fprintf(out, "%s [%s]: ", prompt, defaultValue)
	} else {
		fmt.Fprintf(out, "%s: ", prompt)
	}

	input, err := readLine()
	if err == io.EOF {
		return defaultValue, nil
	}
	if err != nil {
		return "", err
	}

	if input = strings.TrimSpace(input); input == "" {
		return defaultValue, nil
	}
	return input, nil
}

// PromptPassword asks for a secret. Input is hidden when reading from a terminal.
func PromptPassword(prompt string) (string, error) {
	fmt.Fprintf(out, "%s: ", prompt)

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return string(secret), nil
	}

	secret, err := readLine()
	if err != nil && err != io.EOF {
		return "", err
	}
	return secret, nil
}

// ReadMultiline reads lines until the first empty line or end of input and
// joins them with newlines
func ReadMultiline() (string, error) {
	var lines []string
	for {
		line, err := readLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if line == "" {
			break
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

// ValidateTypedConfirmation checks if input matches expected (case-insensitive)
func ValidateTypedConfirmation(input, expected string) bool {
	return strings.EqualFold(strings.TrimSpace(input), expected)
}
