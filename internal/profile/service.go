// ABOUTME: Entry point used by commands: opens the index against the home
// ABOUTME: directory and exposes the profile operations
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/davidsonoda/clenv/internal/config"
	"github.com/davidsonoda/clenv/internal/hocon"
)

// DefaultName is suggested when the untitled profile is first named
const DefaultName = "default"

// Options locate the profiles and the index
type Options struct {
	HomeDir     string // directory holding clearml*.conf
	IndexPath   string // defaults to <HomeDir>/.clenv-config-index.json
	BackupDir   string // empty disables backups
	DefaultName string // suggested name for the untitled profile
}

// Entry is a listed profile
type Entry struct {
	Profile
	Active bool
}

// Service runs profile operations against a reconciled index
type Service struct {
	layout      Layout
	index       *Index
	defaultName string
}

// Open loads the index, scans the home directory, reconciles and persists.
// A scan or reconcile failure returns before the index file is written.
func Open(opts Options) (*Service, error) {
	if opts.HomeDir == "" {
		return nil, fmt.Errorf("home directory is required")
	}
	layout := NewLayout(opts.HomeDir)

	indexPath := opts.IndexPath
	if indexPath == "" {
		indexPath = config.IndexPath(opts.HomeDir)
	}

	index := NewIndex(indexPath, layout)
	index.SetBackupDir(opts.BackupDir)
	if err := index.Load(); err != nil {
		return nil, err
	}

	scan, err := Scan(layout)
	if err != nil {
		return nil, err
	}
	if err := index.Reconcile(scan); err != nil {
		return nil, err
	}
	if err := index.Save(); err != nil {
		return nil, err
	}

	defaultName := opts.DefaultName
	if defaultName == "" {
		defaultName = DefaultName
	}

	return &Service{layout: layout, index: index, defaultName: defaultName}, nil
}

// Index exposes the underlying index
func (s *Service) Index() *Index {
	return s.index
}

// Layout returns the profile file layout
func (s *Service) Layout() Layout {
	return s.layout
}

// SuggestedName is offered when naming the untitled profile
func (s *Service) SuggestedName() string {
	return s.defaultName
}

// EnsureInitialized names the untitled profile when there is one. ask is
// called once with the suggested name; an empty answer takes the suggestion.
// Reports whether a profile was named.
func (s *Service) EnsureInitialized(ask func(suggested string) (string, error)) (bool, error) {
	if s.index.IsInitialized() {
		return false, nil
	}

	name, err := ask(s.defaultName)
	if err != nil {
		return false, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = s.defaultName
	}

	if err := s.index.Initialize(name); err != nil {
		return false, err
	}
	return true, nil
}

// List returns the active profile first, then the stored ones
func (s *Service) List() []Entry {
	var entries []Entry
	if active, ok := s.index.Active(); ok {
		entries = append(entries, Entry{Profile: active, Active: true})
	}
	for _, p := range s.index.NonActive() {
		entries = append(entries, Entry{Profile: p})
	}
	return entries
}

// Checkout makes name the active profile
func (s *Service) Checkout(name string) error {
	return s.index.SwitchActive(name)
}

// Create copies base (the active profile when empty) to a new profile
func (s *Service) Create(name, base string) error {
	return s.index.Create(name, base)
}

// Delete removes a non-active profile
func (s *Service) Delete(name string) error {
	return s.index.Delete(name)
}

// Rename renames a profile
func (s *Service) Rename(oldName, newName string) error {
	return s.index.Rename(oldName, newName)
}

// Reinit replaces section of a profile from the HOCON fragment raw
func (s *Service) Reinit(name, section, raw string) error {
	return s.index.ReinitializeSection(name, section, raw)
}

// Resolve returns the named profile, or the active one when name is empty
func (s *Service) Resolve(name string) (Profile, error) {
	if name == "" {
		active, ok := s.index.Active()
		if !ok {
			return Profile{}, ErrNoActiveProfile
		}
		return active, nil
	}
	return s.index.Get(name)
}

// Show returns the raw content of a profile file
func (s *Service) Show(name string) (string, Profile, error) {
	p, err := s.Resolve(name)
	if err != nil {
		return "", Profile{}, err
	}
	data, err := os.ReadFile(p.FilePath)
	if err != nil {
		return "", p, fmt.Errorf("failed to read %s: %w", filepath.Base(p.FilePath), err)
	}
	return string(data), p, nil
}

// Value reads a dotted key from a profile
func (s *Service) Value(name, key string) (any, error) {
	p, err := s.Resolve(name)
	if err != nil {
		return nil, err
	}
	tree, err := hocon.Load(p.FilePath)
	if err != nil {
		return nil, err
	}
	return hocon.Get(tree, key)
}
