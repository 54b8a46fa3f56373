// ABOUTME: Maps errors returned by commands to process exit codes
// ABOUTME: Each error kind from the profile core has its own status
package commands

import (
	"errors"

	"github.com/davidsonoda/clenv/internal/breadcrumb"
	"github.com/davidsonoda/clenv/internal/hocon"
	"github.com/davidsonoda/clenv/internal/profile"
)

// Exit codes for clenv
const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitNotFound      = 2
	ExitInvalidConfig = 3
	ExitConflict      = 4
	ExitFileError     = 5
	ExitSectionConfig = 6
)

// ExitCode returns the exit status for err
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Section errors wrap parse and file errors, so they are matched first
	if errors.Is(err, profile.ErrInvalidSectionConfig) {
		return ExitSectionConfig
	}

	var fileErr *profile.FileError
	if errors.As(err, &fileErr) {
		return ExitFileError
	}

	switch {
	case errors.Is(err, profile.ErrProfileNotFound),
		errors.Is(err, profile.ErrNoActiveProfile),
		errors.Is(err, breadcrumb.ErrNoPrevious),
		errors.Is(err, hocon.ErrKeyNotFound):
		return ExitNotFound
	case errors.Is(err, hocon.ErrParse),
		errors.Is(err, profile.ErrCorruptProfile),
		errors.Is(err, profile.ErrConflict):
		return ExitInvalidConfig
	case errors.Is(err, profile.ErrAlreadyExists),
		errors.Is(err, profile.ErrAlreadyActive),
		errors.Is(err, profile.ErrActiveProfile),
		errors.Is(err, profile.ErrInvalidName):
		return ExitConflict
	}
	return ExitGeneralError
}
