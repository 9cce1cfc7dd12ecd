// Package gitops wraps the git command-line tool for the autocommit watcher.
package gitops

import (
	"context"
	"errors"
	"os/exec"
	"strings"
)

// Runner executes a single external command against a working directory,
// capturing combined stdout and stderr as text. A non-zero exit status is a
// normal return value, not an error: only a total invocation failure (e.g.
// the binary is missing) is converted into a synthetic failure status with
// the error text as output. Runner never returns a Go error, so callers
// decide per call site what a failure means.
type Runner interface {
	Run(ctx context.Context, dir string, name string, args ...string) (int, string)
}

// ExecRunner implements Runner using os/exec with argument-vector invocation.
// No shell is involved, so configured messages and branch names are passed
// through verbatim rather than interpolated into a command string.
type ExecRunner struct{}

// Run executes name with args in dir and returns (exit status, combined output).
func (ExecRunner) Run(ctx context.Context, dir string, name string, args ...string) (int, string) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	out, err := cmd.CombinedOutput()
	text := strings.TrimSpace(string(out))
	if err == nil {
		return 0, text
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), text
	}

	// Launch failure: synthesize a failing status carrying the error text.
	return 1, err.Error()
}
