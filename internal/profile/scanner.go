// ABOUTME: Discovers profile files in the home directory
// ABOUTME: Validates each candidate parses and classifies it as active or named
package profile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/davidsonoda/clenv/internal/hocon"
	"github.com/rs/zerolog/log"
)

// ScanResult is the set of profiles found on disk
type ScanResult struct {
	Active    []Profile
	NonActive []Profile
}

// Scan lists the layout's directory and returns every profile file in it.
// The scan never writes. A candidate that fails to parse aborts the scan
// with a CorruptProfileError so it cannot silently drop out of the index.
func Scan(layout Layout) (ScanResult, error) {
	entries, err := os.ReadDir(layout.Dir)
	if err != nil {
		return ScanResult{}, fmt.Errorf("failed to scan %s: %w", layout.Dir, err)
	}

	result := ScanResult{
		Active:    []Profile{},
		NonActive: []Profile{},
	}

	for _, entry := range entries {
		// Type() comes from the directory entry, so symlinks are not followed
		if !entry.Type().IsRegular() {
			continue
		}
		fileName := entry.Name()
		if !layout.IsCandidate(fileName) {
			continue
		}

		path := filepath.Join(layout.Dir, fileName)
		if _, err := hocon.Load(path); err != nil {
			return ScanResult{}, &CorruptProfileError{File: path, Err: err}
		}

		name, active, ok := layout.Classify(fileName)
		if !ok {
			log.Debug().Str("file", path).Msg("skipping file outside the profile naming scheme")
			continue
		}

		p := Profile{Name: name, FilePath: path}
		if active {
			result.Active = append(result.Active, p)
		} else {
			result.NonActive = append(result.NonActive, p)
		}
	}

	log.Debug().
		Str("dir", layout.Dir).
		Int("active", len(result.Active)).
		Int("non_active", len(result.NonActive)).
		Msg("scanned profiles")

	return result, nil
}
