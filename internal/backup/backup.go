// ABOUTME: Backup functionality for profile files
// ABOUTME: Copies a profile into <state>/backups/ before it is overwritten or deleted
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// timestampLayout sorts lexically in creation order
const timestampLayout = "20060102-150405.000000000"

// now is replaced in tests
var now = time.Now

// EnsureBackupDir creates the backup directory if it doesn't exist
func EnsureBackupDir(backupDir string) error {
	return os.MkdirAll(backupDir, 0755)
}

// SaveProfileBackup copies the profile file at profilePath into backupDir.
// Returns the path to the backup file.
func SaveProfileBackup(backupDir, profileName, profilePath string) (string, error) {
	if err := EnsureBackupDir(backupDir); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	backupFileName := fmt.Sprintf("%s-%s.conf", profileName, now().UTC().Format(timestampLayout))
	backupPath := filepath.Join(backupDir, backupFileName)

	src, err := os.Open(profilePath)
	if err != nil {
		return "", fmt.Errorf("failed to open profile file: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(backupPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(backupPath)
		return "", fmt.Errorf("failed to copy profile: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(backupPath)
		return "", fmt.Errorf("failed to write backup file: %w", err)
	}

	return backupPath, nil
}

// ListProfileBackups returns the backups of a profile, oldest first
func ListProfileBackups(backupDir, profileName string) ([]string, error) {
	entries, err := os.ReadDir(backupDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	prefix := profileName + "-"
	var backups []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".conf") {
			continue
		}
		// Guard against "dev" matching backups of "dev-old"
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".conf")
		if _, err := time.Parse(timestampLayout, stamp); err != nil {
			continue
		}
		backups = append(backups, filepath.Join(backupDir, name))
	}
	sort.Strings(backups)
	return backups, nil
}
