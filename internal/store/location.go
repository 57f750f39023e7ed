package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the database file name inside the diary directory.
const FileName = "diary.db"

// legacyDir is the subdirectory older releases kept the database in.
const legacyDir = "diaries"

// PathIn returns the database path inside dir.
func PathIn(dir string) string {
	return filepath.Join(dir, FileName)
}

// LegacyPathIn returns where older releases kept the database for dir.
func LegacyPathIn(dir string) string {
	return filepath.Join(dir, legacyDir, FileName)
}

// Prepare creates dir if needed and moves a legacy database into place.
// It returns the database path and whether a migration happened.
func Prepare(dir string) (string, bool, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, fmt.Errorf("create diary directory %s: %w", dir, err)
	}
	migrated, err := MigrateLegacy(dir)
	if err != nil {
		return "", false, err
	}
	return PathIn(dir), migrated, nil
}

// MigrateLegacy relocates dir/diaries/diary.db to dir/diary.db when the new
// location does not exist yet, then removes the legacy directory if empty.
// It is a no-op once the new database exists.
func MigrateLegacy(dir string) (bool, error) {
	oldPath := LegacyPathIn(dir)
	newPath := PathIn(dir)

	if _, err := os.Stat(oldPath); err != nil {
		return false, nil
	}
	if _, err := os.Stat(newPath); err == nil {
		return false, nil
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		return false, fmt.Errorf("migrate database from %s to %s: %w", oldPath, newPath, err)
	}

	legacy := filepath.Join(dir, legacyDir)
	if entries, err := os.ReadDir(legacy); err == nil && len(entries) == 0 {
		os.Remove(legacy)
	}
	return true, nil
}

// LegacyPending reports whether a legacy database is waiting to be migrated.
func LegacyPending(dir string) bool {
	if _, err := os.Stat(LegacyPathIn(dir)); err != nil {
		return false
	}
	_, err := os.Stat(PathIn(dir))
	return os.IsNotExist(err)
}
