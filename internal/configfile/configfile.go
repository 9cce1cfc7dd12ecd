// Package configfile loads the per-repository autocommit configuration.
package configfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	ConfigDirName  = ".vscode"
	ConfigFileName = "autocommit.json"
)

// Config is the merged, fully-populated watcher configuration for one
// repository. It is read once at startup and never reloaded.
type Config struct {
	Enabled          bool    `json:"enabled"`
	DelaySeconds     float64 `json:"delay_seconds"`
	DebounceSeconds  float64 `json:"debounce_seconds"`
	CommitMessage    string  `json:"commit_message"`
	Branch           string  `json:"branch"`
	Push             bool    `json:"push"`
	IncludeUntracked bool    `json:"include_untracked"`
}

// fileConfig mirrors Config with pointer fields so that absent keys can be
// told apart from zero values during the merge.
type fileConfig struct {
	Enabled          *bool    `json:"enabled"`
	DelaySeconds     *float64 `json:"delay_seconds"`
	DebounceSeconds  *float64 `json:"debounce_seconds"`
	CommitMessage    *string  `json:"commit_message"`
	Branch           *string  `json:"branch"`
	Push             *bool    `json:"push"`
	IncludeUntracked *bool    `json:"include_untracked"`
}

// DefaultConfig returns the hard-coded default record.
func DefaultConfig() *Config {
	return &Config{
		Enabled:          true,
		DelaySeconds:     2,
		DebounceSeconds:  5,
		CommitMessage:    "autosave: update",
		Branch:           "main",
		Push:             true,
		IncludeUntracked: true,
	}
}

// ConfigPath returns the well-known config location inside a repository.
func ConfigPath(repoRoot string) string {
	return filepath.Join(repoRoot, ConfigDirName, ConfigFileName)
}

// Load reads the config file at its well-known location and merges present
// keys over the defaults. It always returns a usable, fully-populated config:
// a missing file yields the defaults silently, and any other read or parse
// failure yields the defaults along with an advisory error for the caller to
// report.
func Load(repoRoot string) (*Config, error) {
	return LoadFile(ConfigPath(repoRoot))
}

// LoadFile is Load with an explicit config file path.
func LoadFile(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath) // #nosec G304 - well-known path under the repo root
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading %s: %w", configPath, err)
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", configPath, err)
	}

	cfg.merge(&fc)
	return cfg, nil
}

// merge overrides only the keys actually present in the file.
func (c *Config) merge(f *fileConfig) {
	if f.Enabled != nil {
		c.Enabled = *f.Enabled
	}
	if f.DelaySeconds != nil {
		c.DelaySeconds = *f.DelaySeconds
	}
	if f.DebounceSeconds != nil {
		c.DebounceSeconds = *f.DebounceSeconds
	}
	if f.CommitMessage != nil {
		c.CommitMessage = *f.CommitMessage
	}
	if f.Branch != nil {
		c.Branch = *f.Branch
	}
	if f.Push != nil {
		c.Push = *f.Push
	}
	if f.IncludeUntracked != nil {
		c.IncludeUntracked = *f.IncludeUntracked
	}
}

// Delay returns the poll interval as a duration. delay_seconds may be
// fractional (e.g. 0.5 for half a second).
func (c *Config) Delay() time.Duration {
	return time.Duration(c.DelaySeconds * float64(time.Second))
}

// Debounce returns the minimum gap since the last successful commit.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceSeconds * float64(time.Second))
}
