// ABOUTME: Persistent index of profiles and the operations that mutate it
// ABOUTME: Keeps ~/.clenv-config-index.json in step with the profile files on disk
package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/davidsonoda/clenv/internal/backup"
	"github.com/davidsonoda/clenv/internal/events"
	"github.com/davidsonoda/clenv/internal/hocon"
	"github.com/rs/zerolog/log"
)

// Operation names recorded with every file mutation
const (
	opCheckout = "config checkout"
	opCreate   = "config create"
	opRename   = "config rename"
	opDelete   = "config del"
	opReinit   = "config reinit"
)

// Profiles groups index entries by state
type Profiles struct {
	Active    []Profile `json:"active"`
	NonActive []Profile `json:"non_active"`
}

// Document is the persisted form of the index
type Document struct {
	Profiles Profiles `json:"profiles"`
}

// Clone returns a deep copy of the document
func (d Document) Clone() Document {
	return Document{Profiles: Profiles{
		Active:    append([]Profile{}, d.Profiles.Active...),
		NonActive: append([]Profile{}, d.Profiles.NonActive...),
	}}
}

func emptyDocument() Document {
	return Document{Profiles: Profiles{Active: []Profile{}, NonActive: []Profile{}}}
}

// Index holds the profile document and applies changes to it and to the
// profile files it describes. Every change is persisted before returning.
type Index struct {
	path      string
	layout    Layout
	backupDir string
	doc       Document
}

// NewIndex creates an empty index persisted at path for profiles in layout
func NewIndex(path string, layout Layout) *Index {
	return &Index{path: path, layout: layout, doc: emptyDocument()}
}

// SetBackupDir enables backups of profile files before delete and reinit
func (ix *Index) SetBackupDir(dir string) {
	ix.backupDir = dir
}

// Path returns the index file location
func (ix *Index) Path() string {
	return ix.path
}

// Document returns a copy of the current document
func (ix *Index) Document() Document {
	return ix.doc.Clone()
}

// Load reads the index file. A missing, empty or malformed file yields the
// empty document; only other read failures are errors.
func (ix *Index) Load() error {
	data, err := os.ReadFile(ix.path)
	if errors.Is(err, fs.ErrNotExist) {
		ix.doc = emptyDocument()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read index %s: %w", ix.path, err)
	}

	ix.doc = decodeDocument(ix.path, data)
	return nil
}

func decodeDocument(path string, data []byte) Document {
	if len(bytes.TrimSpace(data)) == 0 {
		return emptyDocument()
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Debug().Err(err).Str("index", path).Msg("ignoring malformed index")
		return emptyDocument()
	}
	if len(doc.Profiles.Active) > 1 {
		log.Debug().Str("index", path).Int("active", len(doc.Profiles.Active)).Msg("ignoring index with several active profiles")
		return emptyDocument()
	}
	if doc.Profiles.Active == nil {
		doc.Profiles.Active = []Profile{}
	}
	if doc.Profiles.NonActive == nil {
		doc.Profiles.NonActive = []Profile{}
	}
	return doc
}

// Save writes the document as indented JSON
func (ix *Index) Save() error {
	data, err := json.MarshalIndent(ix.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(ix.path), 0755); err != nil {
		return &FileError{Op: OpWrite, Path: ix.path, Err: err}
	}
	if err := os.WriteFile(ix.path, data, 0644); err != nil {
		return &FileError{Op: OpWrite, Path: ix.path, Err: err}
	}
	return nil
}

// Reconcile merges a scan into the document. It does not persist.
func (ix *Index) Reconcile(scan ScanResult) error {
	doc, err := mergeScan(ix.doc, scan)
	if err != nil {
		return err
	}
	ix.doc = doc
	log.Debug().
		Int("active", len(doc.Profiles.Active)).
		Int("non_active", len(doc.Profiles.NonActive)).
		Msg("reconciled index")
	return nil
}

// mergeScan takes membership from the scan and the active profile from the
// persisted document when it has one
func mergeScan(persisted Document, scan ScanResult) (Document, error) {
	merged := emptyDocument()
	merged.Profiles.NonActive = append(merged.Profiles.NonActive, scan.NonActive...)

	if len(persisted.Profiles.Active) > 0 {
		merged.Profiles.Active = append(merged.Profiles.Active, persisted.Profiles.Active...)
	} else {
		merged.Profiles.Active = append(merged.Profiles.Active, scan.Active...)
	}

	for _, a := range merged.Profiles.Active {
		for _, p := range merged.Profiles.NonActive {
			if p.Name == a.Name {
				return Document{}, &ConflictError{Name: a.Name, File: p.FilePath}
			}
		}
	}
	return merged, nil
}

// ListAll returns the active profile first, then the rest
func (ix *Index) ListAll() []Profile {
	all := make([]Profile, 0, len(ix.doc.Profiles.Active)+len(ix.doc.Profiles.NonActive))
	all = append(all, ix.doc.Profiles.Active...)
	return append(all, ix.doc.Profiles.NonActive...)
}

// Active returns the active profile, if any
func (ix *Index) Active() (Profile, bool) {
	if len(ix.doc.Profiles.Active) == 0 {
		return Profile{}, false
	}
	return ix.doc.Profiles.Active[0], true
}

// NonActive returns the stored, non-active profiles
func (ix *Index) NonActive() []Profile {
	return append([]Profile{}, ix.doc.Profiles.NonActive...)
}

// Get returns the named profile
func (ix *Index) Get(name string) (Profile, error) {
	for _, p := range ix.ListAll() {
		if p.Name == name {
			return p, nil
		}
	}
	return Profile{}, notFound(name)
}

// Has reports whether a profile called name exists
func (ix *Index) Has(name string) bool {
	_, err := ix.Get(name)
	return err == nil
}

// IsActive reports whether name is the active profile
func (ix *Index) IsActive(name string) bool {
	active, ok := ix.Active()
	return ok && active.Name == name
}

// IsInitialized is false while a profile still carries the Untitled name
func (ix *Index) IsInitialized() bool {
	return !ix.Has(Untitled)
}

// Initialize names the untitled active profile
func (ix *Index) Initialize(name string) error {
	return ix.Rename(Untitled, name)
}

// Rename gives a profile a new name. A stored profile's file moves with it;
// the active profile keeps clearml.conf.
func (ix *Index) Rename(oldName, newName string) error {
	current, err := ix.Get(oldName)
	if err != nil {
		return err
	}
	if err := ValidateName(newName); err != nil {
		return err
	}
	if ix.Has(newName) {
		return &ProfileError{Name: newName, Err: ErrAlreadyExists}
	}

	next := ix.doc.Clone()

	if ix.IsActive(oldName) {
		next.Profiles.Active[0].Name = newName
		if err := ix.commit(next, nil); err != nil {
			return err
		}
		log.Debug().Str("from", oldName).Str("to", newName).Msg("renamed active profile")
		return nil
	}

	dest := ix.layout.NamedPath(newName)
	if err := moveFile(opRename, current.FilePath, dest, newName); err != nil {
		return err
	}
	for i := range next.Profiles.NonActive {
		if next.Profiles.NonActive[i].Name == oldName {
			next.Profiles.NonActive[i] = Profile{Name: newName, FilePath: dest}
		}
	}

	err = ix.commit(next, func() {
		undoMove(opRename, dest, current.FilePath, oldName)
	})
	if err != nil {
		return err
	}
	log.Debug().Str("from", oldName).Str("to", newName).Str("file", dest).Msg("renamed profile")
	return nil
}

// SwitchActive makes a stored profile the active one. The incumbent is
// parked as clearml-<incumbent>.conf. Both renames are undone if either
// the second rename or persisting the index fails.
func (ix *Index) SwitchActive(name string) error {
	if ix.IsActive(name) {
		return &ProfileError{Name: name, Err: ErrAlreadyActive}
	}

	target, pos := Profile{}, -1
	for i, p := range ix.doc.Profiles.NonActive {
		if p.Name == name {
			target, pos = p, i
			break
		}
	}
	if pos < 0 {
		return notFound(name)
	}

	activePath := ix.layout.ActivePath()
	incumbent, hasIncumbent := ix.Active()
	parked := ""

	if hasIncumbent {
		parked = ix.layout.NamedPath(incumbent.Name)
		if err := moveFile(opCheckout, incumbent.FilePath, parked, incumbent.Name); err != nil {
			return err
		}
	}

	if err := moveFile(opCheckout, target.FilePath, activePath, name); err != nil {
		if hasIncumbent {
			undoMove(opCheckout, parked, incumbent.FilePath, incumbent.Name)
		}
		return err
	}

	next := ix.doc.Clone()
	next.Profiles.Active = []Profile{{Name: name, FilePath: activePath}}
	next.Profiles.NonActive = append(next.Profiles.NonActive[:pos], next.Profiles.NonActive[pos+1:]...)
	if hasIncumbent {
		next.Profiles.NonActive = append(next.Profiles.NonActive, Profile{Name: incumbent.Name, FilePath: parked})
	}

	err := ix.commit(next, func() {
		undoMove(opCheckout, activePath, target.FilePath, name)
		if hasIncumbent {
			undoMove(opCheckout, parked, incumbent.FilePath, incumbent.Name)
		}
	})
	if err != nil {
		return err
	}

	log.Debug().Str("profile", name).Str("previous", incumbent.Name).Msg("switched active profile")
	return nil
}

// Create copies base, or the active profile when base is empty, into a new
// stored profile
func (ix *Index) Create(name, base string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if ix.Has(name) {
		return &ProfileError{Name: name, Err: ErrAlreadyExists}
	}

	var source Profile
	if base == "" {
		active, ok := ix.Active()
		if !ok {
			return ErrNoActiveProfile
		}
		source = active
	} else {
		p, err := ix.Get(base)
		if err != nil {
			return err
		}
		source = p
	}

	dest := ix.layout.NamedPath(name)
	if err := copyFile(opCreate, source.FilePath, dest, name); err != nil {
		return err
	}

	next := ix.doc.Clone()
	next.Profiles.NonActive = append(next.Profiles.NonActive, Profile{Name: name, FilePath: dest})

	err := ix.commit(next, func() {
		if err := os.Remove(dest); err != nil {
			log.Warn().Err(err).Str("file", dest).Msg("could not remove new profile file")
		}
	})
	if err != nil {
		return err
	}

	log.Debug().Str("profile", name).Str("base", source.Name).Msg("created profile")
	return nil
}

// Delete removes a stored profile and its file. The active profile cannot be deleted.
func (ix *Index) Delete(name string) error {
	p, err := ix.Get(name)
	if err != nil {
		return err
	}
	if ix.IsActive(name) {
		return &ProfileError{Name: name, Err: ErrActiveProfile}
	}

	if err := ix.backupFile(name, p.FilePath); err != nil {
		return err
	}

	err = events.GlobalTracker().RecordFileWrite(opDelete, p.FilePath, name, func() error {
		return os.Remove(p.FilePath)
	})
	if err != nil {
		return &FileError{Op: OpDelete, Path: p.FilePath, Err: err}
	}

	next := ix.doc.Clone()
	kept := next.Profiles.NonActive[:0]
	for _, np := range next.Profiles.NonActive {
		if np.Name != name {
			kept = append(kept, np)
		}
	}
	next.Profiles.NonActive = kept

	if err := ix.commit(next, nil); err != nil {
		return err
	}

	log.Debug().Str("profile", name).Str("file", p.FilePath).Msg("deleted profile")
	return nil
}

// ReinitializeSection replaces one top-level section of a profile with the
// same section taken from raw, a HOCON fragment. The index is unchanged.
func (ix *Index) ReinitializeSection(name, section, raw string) error {
	p, err := ix.Get(name)
	if err != nil {
		return err
	}

	fail := func(err error) error {
		return &SectionConfigError{Profile: name, Section: section, Err: err}
	}

	tree, err := hocon.Load(p.FilePath)
	if err != nil {
		return fail(err)
	}
	fragment, err := hocon.Parse(raw)
	if err != nil {
		return fail(err)
	}
	value, err := hocon.Get(fragment, section)
	if err != nil {
		return fail(err)
	}
	replacement, ok := value.(hocon.Tree)
	if !ok {
		return fail(fmt.Errorf("%s is not a section", section))
	}

	if err := ix.backupFile(name, p.FilePath); err != nil {
		return fail(err)
	}

	data := []byte(hocon.Serialize(hocon.ReplaceSection(tree, section, replacement)))
	err = events.GlobalTracker().RecordFileWrite(opReinit, p.FilePath, name, func() error {
		return os.WriteFile(p.FilePath, data, 0644)
	})
	if err != nil {
		return fail(&FileError{Op: OpWrite, Path: p.FilePath, Err: err})
	}

	log.Debug().Str("profile", name).Str("section", section).Msg("reinitialized section")
	return nil
}

// commit installs next and persists it. On failure the previous document is
// restored and undo reverts the file changes already made.
func (ix *Index) commit(next Document, undo func()) error {
	prev := ix.doc
	ix.doc = next
	if err := ix.Save(); err != nil {
		ix.doc = prev
		if undo != nil {
			undo()
		}
		return err
	}
	return nil
}

func (ix *Index) backupFile(name, path string) error {
	if ix.backupDir == "" {
		return nil
	}
	backupPath, err := backup.SaveProfileBackup(ix.backupDir, name, path)
	if err != nil {
		return &FileError{Op: OpBackup, Path: path, Target: ix.backupDir, Err: err}
	}
	log.Debug().Str("profile", name).Str("backup", backupPath).Msg("backed up profile")
	return nil
}

// Backups lists the saved copies of a profile, oldest first. Nothing is
// listed when backups are disabled.
func (ix *Index) Backups(name string) ([]string, error) {
	if ix.backupDir == "" {
		return nil, nil
	}
	return backup.ListProfileBackups(ix.backupDir, name)
}

// moveFile renames from to to, refusing to replace an existing file
func moveFile(operation, from, to, profileName string) error {
	if _, err := os.Lstat(to); err == nil {
		return &FileError{Op: OpRename, Path: from, Target: to, Err: fs.ErrExist}
	}
	err := events.GlobalTracker().RecordFileMove(operation, from, to, profileName, func() error {
		return os.Rename(from, to)
	})
	if err != nil {
		return &FileError{Op: OpRename, Path: from, Target: to, Err: err}
	}
	return nil
}

func undoMove(operation, from, to, profileName string) {
	if err := moveFile(operation, from, to, profileName); err != nil {
		log.Warn().Err(err).Msg("could not undo profile file rename")
	}
}

// copyFile copies from to a new file to, keeping the source permission bits
func copyFile(operation, from, to, profileName string) error {
	err := events.GlobalTracker().RecordFileWrite(operation, to, profileName, func() error {
		src, err := os.Open(from)
		if err != nil {
			return err
		}
		defer src.Close()

		info, err := src.Stat()
		if err != nil {
			return err
		}

		dst, err := os.OpenFile(to, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
		if err != nil {
			return err
		}
		if _, err := io.Copy(dst, src); err != nil {
			dst.Close()
			os.Remove(to)
			return err
		}
		if err := dst.Close(); err != nil {
			os.Remove(to)
			return err
		}
		return nil
	})
	if err != nil {
		return &FileError{Op: OpCopy, Path: from, Target: to, Err: err}
	}
	return nil
}
