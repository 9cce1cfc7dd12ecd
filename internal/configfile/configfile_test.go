package configfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, repoRoot, content string) {
	t.Helper()
	dir := filepath.Join(repoRoot, ConfigDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	repoRoot := t.TempDir()

	cfg, err := Load(repoRoot)
	if err != nil {
		t.Fatalf("missing file should be silent, got error: %v", err)
	}

	want := DefaultConfig()
	if *cfg != *want {
		t.Errorf("got %+v, want defaults %+v", cfg, want)
	}
}

func TestLoadOverridesOnlyPresentKeys(t *testing.T) {
	repoRoot := t.TempDir()
	writeConfig(t, repoRoot, `{"delay_seconds": 10, "push": false}`)

	cfg, err := Load(repoRoot)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DelaySeconds != 10 {
		t.Errorf("DelaySeconds = %v, want 10", cfg.DelaySeconds)
	}
	if cfg.Push {
		t.Error("Push should be overridden to false")
	}

	// Keys absent from the file keep their defaults.
	want := DefaultConfig()
	if cfg.Enabled != want.Enabled {
		t.Errorf("Enabled = %v, want default %v", cfg.Enabled, want.Enabled)
	}
	if cfg.DebounceSeconds != want.DebounceSeconds {
		t.Errorf("DebounceSeconds = %v, want default %v", cfg.DebounceSeconds, want.DebounceSeconds)
	}
	if cfg.CommitMessage != want.CommitMessage {
		t.Errorf("CommitMessage = %q, want default %q", cfg.CommitMessage, want.CommitMessage)
	}
	if cfg.Branch != want.Branch {
		t.Errorf("Branch = %q, want default %q", cfg.Branch, want.Branch)
	}
	if cfg.IncludeUntracked != want.IncludeUntracked {
		t.Errorf("IncludeUntracked = %v, want default %v", cfg.IncludeUntracked, want.IncludeUntracked)
	}
}

func TestLoadZeroValuesAreHonored(t *testing.T) {
	repoRoot := t.TempDir()
	writeConfig(t, repoRoot, `{"enabled": false, "debounce_seconds": 0, "commit_message": ""}`)

	cfg, err := Load(repoRoot)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Enabled {
		t.Error("explicit enabled:false should override the default")
	}
	if cfg.DebounceSeconds != 0 {
		t.Errorf("explicit debounce_seconds:0 should override, got %v", cfg.DebounceSeconds)
	}
	if cfg.CommitMessage != "" {
		t.Errorf("explicit empty commit_message should override, got %q", cfg.CommitMessage)
	}
}

func TestLoadMalformedFileReturnsDefaultsWithError(t *testing.T) {
	repoRoot := t.TempDir()
	writeConfig(t, repoRoot, `{not json`)

	cfg, err := Load(repoRoot)
	if err == nil {
		t.Error("malformed file should report an advisory error")
	}

	want := DefaultConfig()
	if *cfg != *want {
		t.Errorf("malformed file should fall back to defaults, got %+v", cfg)
	}
}

func TestFractionalDelay(t *testing.T) {
	repoRoot := t.TempDir()
	writeConfig(t, repoRoot, `{"delay_seconds": 0.01}`)

	cfg, err := Load(repoRoot)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := cfg.Delay(); got != 10*time.Millisecond {
		t.Errorf("Delay() = %v, want 10ms", got)
	}
}

func TestDefaultDurations(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Delay() != 2*time.Second {
		t.Errorf("default Delay() = %v, want 2s", cfg.Delay())
	}
	if cfg.Debounce() != 5*time.Second {
		t.Errorf("default Debounce() = %v, want 5s", cfg.Debounce())
	}
}
