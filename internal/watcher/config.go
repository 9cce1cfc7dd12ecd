package watcher

import (
	"time"

	"github.com/autosave-sh/autosave/internal/configfile"
)

// Config holds the resolved watch-loop settings for one repository.
type Config struct {
	// Poll behavior
	Delay    time.Duration
	Debounce time.Duration

	// Commit behavior
	MessagePrefix    string
	Branch           string
	Push             bool
	IncludeUntracked bool
}

// ConfigFrom resolves a loaded repository config into loop settings.
func ConfigFrom(fc *configfile.Config) Config {
	return Config{
		Delay:            fc.Delay(),
		Debounce:         fc.Debounce(),
		MessagePrefix:    fc.CommitMessage,
		Branch:           fc.Branch,
		Push:             fc.Push,
		IncludeUntracked: fc.IncludeUntracked,
	}
}
