// ABOUTME: Error kinds raised by the profile scanner and index
// ABOUTME: Sentinels for errors.Is plus structured types carrying the file or profile involved
package profile

import (
	"errors"
	"fmt"
)

var (
	ErrProfileNotFound      = errors.New("profile does not exist")
	ErrAlreadyExists        = errors.New("profile already exists")
	ErrAlreadyActive        = errors.New("profile is already active")
	ErrActiveProfile        = errors.New("only non-active profiles can be deleted")
	ErrInvalidName          = errors.New("invalid profile name")
	ErrNoActiveProfile      = errors.New("no active profile")
	ErrCorruptProfile       = errors.New("not a valid config file")
	ErrConflict             = errors.New("conflicting profile files")
	ErrInvalidSectionConfig = errors.New("invalid section config")
)

// File operations reported by FileError
const (
	OpRename = "rename"
	OpCopy   = "copy"
	OpDelete = "delete"
	OpWrite  = "write"
	OpBackup = "back up"
)

// ProfileError ties one of the profile sentinels to the profile it concerns
type ProfileError struct {
	Name string
	Err  error
}

func (e *ProfileError) Error() string {
	switch e.Err {
	case ErrProfileNotFound:
		return fmt.Sprintf("profile %s does not exist", e.Name)
	case ErrAlreadyExists:
		return fmt.Sprintf("profile %s already exists", e.Name)
	case ErrAlreadyActive:
		return fmt.Sprintf("profile %s is already active", e.Name)
	case ErrActiveProfile:
		return fmt.Sprintf("profile %s is active, only non-active profiles can be deleted", e.Name)
	case ErrInvalidName:
		return fmt.Sprintf("%q is not a valid profile name", e.Name)
	}
	return fmt.Sprintf("profile %s: %v", e.Name, e.Err)
}

func (e *ProfileError) Unwrap() error { return e.Err }

func notFound(name string) error {
	return &ProfileError{Name: name, Err: ErrProfileNotFound}
}

// CorruptProfileError reports a profile candidate that failed to parse.
// A single corrupt file aborts the whole scan.
type CorruptProfileError struct {
	File string
	Err  error
}

func (e *CorruptProfileError) Error() string {
	return fmt.Sprintf("not a valid config file: %s, check file content", e.File)
}

func (e *CorruptProfileError) Unwrap() error { return e.Err }

func (e *CorruptProfileError) Is(target error) bool { return target == ErrCorruptProfile }

// ConflictError reports a persisted active profile whose name is also taken
// by a named profile file on disk
type ConflictError struct {
	Name string
	File string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("active profile %s conflicts with %s, rename or remove that file", e.Name, e.File)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// FileError reports a failed filesystem operation on a profile file
type FileError struct {
	Op     string
	Path   string
	Target string // destination for rename and copy
	Err    error
}

func (e *FileError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("failed to %s %s to %s: %v", e.Op, e.Path, e.Target, e.Err)
	}
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// SectionConfigError reports a failed section replacement. Err keeps the
// underlying parse, lookup or I/O failure.
type SectionConfigError struct {
	Profile string
	Section string
	Err     error
}

func (e *SectionConfigError) Error() string {
	return fmt.Sprintf("invalid %s config for profile %s: %v", e.Section, e.Profile, e.Err)
}

func (e *SectionConfigError) Unwrap() error { return e.Err }

func (e *SectionConfigError) Is(target error) bool { return target == ErrInvalidSectionConfig }
