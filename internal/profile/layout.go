// ABOUTME: Profile file naming for the home directory
// ABOUTME: Maps profile names to clearml.conf / clearml-<name>.conf paths and back
package profile

import (
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// ActiveFileName is the bare filename ClearML reads; it holds the active profile
	ActiveFileName = "clearml.conf"
	// FilePrefix starts every named profile filename
	FilePrefix = "clearml"
	// FileExt is the extension of every profile file
	FileExt = ".conf"
	// Marker must appear in a filename for it to be considered a profile
	Marker = "clearml"
	// Untitled names the active profile found before the user has named it
	Untitled = "untitled"
)

var namedFilePattern = regexp.MustCompile(`^` + regexp.QuoteMeta(FilePrefix) + `-(.+)` + regexp.QuoteMeta(FileExt) + `$`)

// Profile is a named configuration file tracked by the index
type Profile struct {
	Name     string `json:"profile_name"`
	FilePath string `json:"file_path"`
}

// Layout locates profile files inside a single directory
type Layout struct {
	Dir string
}

// NewLayout returns the layout for profiles stored directly in dir
func NewLayout(dir string) Layout {
	return Layout{Dir: dir}
}

// ActivePath returns the path of the active profile slot
func (l Layout) ActivePath() string {
	return filepath.Join(l.Dir, ActiveFileName)
}

// NamedPath returns the path a non-active profile called name is stored at
func (l Layout) NamedPath(name string) string {
	return filepath.Join(l.Dir, FilePrefix+"-"+name+FileExt)
}

// IsCandidate reports whether a filename looks like it belongs to the profile family
func (l Layout) IsCandidate(fileName string) bool {
	return strings.HasSuffix(fileName, FileExt) && strings.Contains(fileName, Marker)
}

// Classify derives the profile name from a filename. The bare active filename
// always yields Untitled. ok is false for filenames matching neither form.
func (l Layout) Classify(fileName string) (name string, active bool, ok bool) {
	if fileName == ActiveFileName {
		return Untitled, true, true
	}
	m := namedFilePattern.FindStringSubmatch(fileName)
	if m == nil {
		return "", false, false
	}
	return m[1], false, true
}

// ValidateName rejects names that cannot be stored as clearml-<name>.conf or
// that collide with the reserved Untitled sentinel
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "",
		name == ".", name == "..",
		name == Untitled,
		strings.ContainsAny(name, `/\`+"\x00"),
		name != strings.TrimSpace(name):
		return &ProfileError{Name: name, Err: ErrInvalidName}
	}
	return nil
}
