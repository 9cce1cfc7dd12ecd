// Package lockfile guards against two watchers running on the same repository.
package lockfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrLocked is returned when another process already holds the watcher lock.
var ErrLocked = errors.New("watcher lock already held by another process")

// Info is the metadata stored in the lock file for diagnostics.
type Info struct {
	PID       int       `json:"pid"`
	Repo      string    `json:"repo"`
	Version   string    `json:"version"`
	StartedAt time.Time `json:"started_at"`
}

// Lock represents a held lock file.
type Lock struct {
	file *os.File
	path string
}

// Close releases the lock.
func (l *Lock) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Acquire takes an exclusive non-blocking lock on lockPath and records the
// holder's metadata in it. Returns ErrLocked if another live process holds it.
func Acquire(lockPath, repo, version string) (*Lock, error) {
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600) // #nosec G304 - path under the state dir
	if err != nil {
		return nil, fmt.Errorf("cannot open lock file: %w", err)
	}

	if err := flockExclusive(f); err != nil {
		_ = f.Close()
		if errors.Is(err, ErrLocked) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("cannot lock file: %w", err)
	}

	info := Info{
		PID:       os.Getpid(),
		Repo:      repo,
		Version:   version,
		StartedAt: time.Now().UTC(),
	}

	_ = f.Truncate(0)
	_, _ = f.Seek(0, 0)
	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(info)
	_ = f.Sync()

	return &Lock{file: f, path: lockPath}, nil
}

// IsProcessRunning reports whether a process with the given PID is alive.
func IsProcessRunning(pid int) bool {
	return isProcessRunning(pid)
}
