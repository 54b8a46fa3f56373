// ABOUTME: Event tracking system that records profile file operations made by
// ABOUTME: clenv commands, enabling audit trails and troubleshooting capabilities.
package events

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"time"
)

// Change types recorded for each operation
const (
	ChangeTypeCreate   = "create"
	ChangeTypeUpdate   = "update"
	ChangeTypeDelete   = "delete"
	ChangeTypeRename   = "rename"
	ChangeTypeNoChange = "no-change"
	ChangeTypeUnknown  = "unknown"
)

// FileOperation represents a single profile file modification event
type FileOperation struct {
	Timestamp  time.Time `json:"timestamp"`
	Operation  string    `json:"operation"`        // "config checkout", "config create", etc.
	File       string    `json:"file"`             // Absolute path
	Target     string    `json:"target,omitempty"` // Destination path for renames
	Profile    string    `json:"profile"`
	ChangeType string    `json:"changeType"`
	Before     *Snapshot `json:"before,omitempty"`
	After      *Snapshot `json:"after,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Snapshot represents the state of a file at a point in time
type Snapshot struct {
	Hash string `json:"hash"`
	Size int64  `json:"size"`
}

// EventWriter writes and queries file operation events
type EventWriter interface {
	Write(event *FileOperation) error
	Query(filters EventFilters) ([]*FileOperation, error)
}

// EventFilters for querying events
type EventFilters struct {
	File      string
	Operation string
	Profile   string
	Since     time.Time
	Limit     int
}

// Tracker records file operations
type Tracker struct {
	enabled bool
	writer  EventWriter
}

// NewTracker creates a new event tracker
func NewTracker(writer EventWriter, enabled bool) *Tracker {
	return &Tracker{
		enabled: enabled && writer != nil,
		writer:  writer,
	}
}

// SetEnabled enables or disables the tracker
func (t *Tracker) SetEnabled(enabled bool) {
	t.enabled = enabled && t.writer != nil
}

// IsEnabled returns whether the tracker is enabled
func (t *Tracker) IsEnabled() bool {
	return t.enabled
}

// RecordFileWrite wraps a write, copy or delete of a single file with event tracking
func (t *Tracker) RecordFileWrite(operation, file, profile string, fn func() error) error {
	if !t.enabled {
		return fn()
	}

	before := snapshot(file)
	err := fn()
	after := snapshot(file)

	t.record(&FileOperation{
		Timestamp:  time.Now(),
		Operation:  operation,
		File:       file,
		Profile:    profile,
		ChangeType: inferChangeType(before, after),
		Before:     before,
		After:      after,
	}, err)

	return err
}

// RecordFileMove wraps a rename of from to to with event tracking.
// Before is taken from the source, After from the destination.
func (t *Tracker) RecordFileMove(operation, from, to, profile string, fn func() error) error {
	if !t.enabled {
		return fn()
	}

	before := snapshot(from)
	err := fn()
	after := snapshot(to)

	changeType := ChangeTypeRename
	if err != nil {
		changeType = ChangeTypeUnknown
	}

	t.record(&FileOperation{
		Timestamp:  time.Now(),
		Operation:  operation,
		File:       from,
		Target:     to,
		Profile:    profile,
		ChangeType: changeType,
		Before:     before,
		After:      after,
	}, err)

	return err
}

func (t *Tracker) record(event *FileOperation, err error) {
	if err != nil {
		event.Error = err.Error()
	}
	// Event writing never fails the operation
	_ = t.writer.Write(event)
}

// snapshot creates a snapshot of a file's current state
func snapshot(path string) *Snapshot {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}

	hash, err := hashFile(path)
	if err != nil {
		return &Snapshot{Size: info.Size()}
	}

	return &Snapshot{
		Hash: hash,
		Size: info.Size(),
	}
}

// hashFile computes SHA-256 hash of a file
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// inferChangeType determines the type of change based on before/after snapshots
func inferChangeType(before, after *Snapshot) string {
	switch {
	case before == nil && after != nil:
		return ChangeTypeCreate
	case before != nil && after == nil:
		return ChangeTypeDelete
	case before != nil && after != nil:
		if before.Hash != after.Hash {
			return ChangeTypeUpdate
		}
		return ChangeTypeNoChange
	}
	return ChangeTypeUnknown
}
