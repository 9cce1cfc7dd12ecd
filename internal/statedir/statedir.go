// Package statedir resolves the per-repository state directory.
//
// Watcher state (PID file, log, commit journal) lives under
// ~/.autosave/<repo-id>/ rather than inside the watched working tree, so the
// watcher never stages or commits its own bookkeeping.
package statedir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
)

// RepoID derives a stable short identifier for a working tree from the
// sha256 of its absolute path.
func RepoID(repoPath string) (string, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return "", fmt.Errorf("cannot resolve repo path: %w", err)
	}

	sum := sha256.Sum256([]byte(abs))
	return hex.EncodeToString(sum[:])[:12], nil
}

// Dir returns (and creates) the state directory for the given working tree.
func Dir(repoPath string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot get home directory: %w", err)
	}

	id, err := RepoID(repoPath)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(home, ".autosave", id)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("cannot create state directory: %w", err)
	}

	return dir, nil
}

// PIDFile returns the PID file path inside the state directory.
func PIDFile(stateDir string) string {
	return filepath.Join(stateDir, "watcher.pid")
}

// LogFile returns the log file path inside the state directory.
func LogFile(stateDir string) string {
	return filepath.Join(stateDir, "watcher.log")
}

// JournalFile returns the commit journal path inside the state directory.
func JournalFile(stateDir string) string {
	return filepath.Join(stateDir, "journal.db")
}

// LockFile returns the watcher lock path inside the state directory.
func LockFile(stateDir string) string {
	return filepath.Join(stateDir, "watcher.lock")
}
