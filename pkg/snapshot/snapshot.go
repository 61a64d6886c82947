// Package snapshot makes best-effort backup copies of an index's on-disk
// file before a risky rebuild, so a failed bulk load can be rolled back by
// restoring the copy.
package snapshot

import (
	"fmt"
	"os"

	copy "github.com/otiai10/copy"
)

// Save copies the file at path to backupPath, overwriting whatever is
// already there.
func Save(path, backupPath string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("snapshot: source %s: %w", path, err)
	}
	return copy.Copy(path, backupPath)
}

// Restore copies backupPath back over path, undoing a failed rebuild.
func Restore(path, backupPath string) error {
	if _, err := os.Stat(backupPath); err != nil {
		return fmt.Errorf("snapshot: backup %s: %w", backupPath, err)
	}
	return copy.Copy(backupPath, path)
}
