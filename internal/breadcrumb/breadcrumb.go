// ABOUTME: Remembers which profile was active before the last checkout
// ABOUTME: Lets "config checkout -" switch back to it
package breadcrumb

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const filename = "last-checkout.json"

// ErrNoPrevious is returned when no earlier profile has been recorded
var ErrNoPrevious = errors.New("no previous profile to switch back to")

// Entry records a profile and when it stopped being active.
type Entry struct {
	Profile string    `json:"profile"`
	LeftAt  time.Time `json:"leftAt"`
}

// Load reads the breadcrumb from stateDir.
// ok is false if nothing has been recorded.
func Load(stateDir string) (entry Entry, ok bool, err error) {
	path := filepath.Join(stateDir, filename)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, false, fmt.Errorf("parsing %s: %w", path, err)
	}
	return entry, entry.Profile != "", nil
}

// Save writes the breadcrumb file atomically.
func Save(stateDir string, entry Entry) error {
	path := filepath.Join(stateDir, filename)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating breadcrumb directory: %w", err)
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("writing breadcrumb: %w", err)
	}
	return nil
}

// Record stores previous as the profile to return to.
func Record(stateDir, previous string) error {
	if previous == "" {
		return fmt.Errorf("breadcrumb: profile name must not be empty")
	}
	return Save(stateDir, Entry{Profile: previous, LeftAt: time.Now().UTC()})
}

// Previous returns the recorded profile name, or ErrNoPrevious.
func Previous(stateDir string) (string, error) {
	entry, ok, err := Load(stateDir)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNoPrevious
	}
	return entry.Profile, nil
}

// Remove forgets the breadcrumb if it references profileName.
func Remove(stateDir, profileName string) error {
	entry, ok, err := Load(stateDir)
	if err != nil {
		return fmt.Errorf("loading breadcrumb for removal: %w", err)
	}
	if !ok || entry.Profile != profileName {
		return nil
	}
	err = os.Remove(filepath.Join(stateDir, filename))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing breadcrumb file: %w", err)
	}
	return nil
}

// Rename follows a profile rename from oldName to newName.
func Rename(stateDir, oldName, newName string) error {
	entry, ok, err := Load(stateDir)
	if err != nil {
		return fmt.Errorf("loading breadcrumb for rename: %w", err)
	}
	if !ok || entry.Profile != oldName {
		return nil
	}
	entry.Profile = newName
	return Save(stateDir, entry)
}
