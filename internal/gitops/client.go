package gitops

import (
	"context"
	"fmt"
	"strings"
)

// LogFunc receives one formatted line of command trace output.
type LogFunc func(format string, args ...interface{})

// Client runs git operations against a single working tree.
// Every command and its output is logged through the supplied LogFunc;
// that trace is the watcher's only observability surface.
type Client struct {
	dir    string
	runner Runner
	logf   LogFunc
}

// NewClient creates a Client bound to the given working tree.
// A nil runner defaults to ExecRunner; a nil logf discards trace output.
func NewClient(dir string, runner Runner, logf LogFunc) *Client {
	if runner == nil {
		runner = ExecRunner{}
	}
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	return &Client{dir: dir, runner: runner, logf: logf}
}

// Dir returns the working tree this client is bound to.
func (c *Client) Dir() string {
	return c.dir
}

func (c *Client) run(ctx context.Context, args ...string) (int, string) {
	c.logf("> git %s", strings.Join(args, " "))
	code, out := c.runner.Run(ctx, c.dir, "git", args...)
	if out != "" {
		c.logf("%s", out)
	}
	return code, out
}

// IsRepository reports whether the working tree is inside a git repository.
func (c *Client) IsRepository(ctx context.Context) bool {
	code, _ := c.runner.Run(ctx, c.dir, "git", "rev-parse", "--git-dir")
	return code == 0
}

// CurrentBranch returns the checked-out branch name.
func (c *Client) CurrentBranch(ctx context.Context) (string, error) {
	code, out := c.runner.Run(ctx, c.dir, "git", "branch", "--show-current")
	if code != 0 {
		return "", fmt.Errorf("git branch --show-current failed (status %d): %s", code, out)
	}
	return strings.TrimSpace(out), nil
}

// HasWorktreeChanges runs a porcelain status query and reports whether any
// output lines were produced. It fails soft: if the status command exits
// non-zero the failure is logged and "no changes" is reported, a
// conservative false-negative that never blocks the poll loop.
func (c *Client) HasWorktreeChanges(ctx context.Context) bool {
	code, out := c.run(ctx, "status", "--porcelain")
	if code != 0 {
		c.logf("git status failed (status %d): %s", code, out)
		return false
	}
	return strings.TrimSpace(out) != ""
}

// StageAll stages working-tree changes. With includeUntracked it stages
// everything (git add -A); without it only tracked files are staged
// (git add -u), leaving untracked files alone.
func (c *Client) StageAll(ctx context.Context, includeUntracked bool) error {
	mode := "-u"
	if includeUntracked {
		mode = "-A"
	}
	code, out := c.run(ctx, "add", mode)
	if code != 0 {
		return fmt.Errorf("git add %s failed (status %d): %s", mode, code, out)
	}
	return nil
}

// StagedFiles returns the paths currently staged for commit.
// An empty result after staging means there is nothing to commit (e.g. the
// working tree only contained ignored or unchanged content).
func (c *Client) StagedFiles(ctx context.Context) ([]string, error) {
	code, out := c.run(ctx, "diff", "--cached", "--name-only")
	if code != 0 {
		return nil, fmt.Errorf("git diff --cached failed (status %d): %s", code, out)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// Commit creates a commit with the given message.
func (c *Client) Commit(ctx context.Context, message string) error {
	code, out := c.run(ctx, "commit", "-m", message)
	if code != 0 {
		return fmt.Errorf("git commit failed (status %d): %s", code, out)
	}
	return nil
}

// Push pushes the configured branch to origin.
func (c *Client) Push(ctx context.Context, branch string) error {
	code, out := c.run(ctx, "push", "origin", branch)
	if code != 0 {
		return fmt.Errorf("git push failed (status %d): %s", code, out)
	}
	return nil
}
