// Package watcher implements the autocommit poll loop.
package watcher

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"
)

// Commit message timestamps are UTC ISO-8601 at second precision.
const timestampLayout = "2006-01-02T15:04:05Z"

// GitClient is the subset of git operations the loop needs.
// Satisfied by *gitops.Client; tests substitute fakes.
type GitClient interface {
	HasWorktreeChanges(ctx context.Context) bool
	StageAll(ctx context.Context, includeUntracked bool) error
	StagedFiles(ctx context.Context) ([]string, error)
	Commit(ctx context.Context, message string) error
	Push(ctx context.Context, branch string) error
}

// Recorder receives successful commits for bookkeeping. May be nil.
type Recorder interface {
	Record(ctx context.Context, message, branch string, pushed bool) error
}

// Watcher polls a working tree and commits accumulated changes.
//
// All loop state is explicit: lastCommitTime is only ever updated on commit
// success and only ever read to compute the debounce window. The clock is a
// field so tests can drive the loop deterministically.
type Watcher struct {
	cfg     Config
	git     GitClient
	log     *Logger
	journal Recorder

	now            func() time.Time
	lastCommitTime time.Time
}

// New creates a watcher. journal may be nil to disable bookkeeping.
func New(cfg Config, git GitClient, log *Logger, journal Recorder) *Watcher {
	return &Watcher{
		cfg:     cfg,
		git:     git,
		log:     log,
		journal: journal,
		now:     time.Now,
	}
}

// Run polls until the context is canceled or a termination signal arrives.
// The only error conditions are external; every failure inside an iteration
// is logged and abandoned until the next tick.
func (w *Watcher) Run(ctx context.Context) error {
	w.log.Log("Watcher started (delay: %v, debounce: %v, branch: %s, push: %v)",
		w.cfg.Delay, w.cfg.Debounce, w.cfg.Branch, w.cfg.Push)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, watcherSignals...)
	defer signal.Stop(sigChan)

	ticker := time.NewTicker(w.cfg.Delay)
	defer ticker.Stop()

	// First check happens immediately, not one delay in.
	w.tick(ctx)

	for {
		select {
		case <-ticker.C:
			if ctx.Err() != nil {
				return nil
			}
			w.tick(ctx)
		case sig := <-sigChan:
			if isReloadSignal(sig) {
				w.log.Log("Received reload signal, ignoring (watcher continues running)")
				continue
			}
			w.log.Log("Received signal %v, stopping watcher", sig)
			return nil
		case <-ctx.Done():
			w.log.Log("Context canceled, stopping watcher")
			return nil
		}
	}
}

// tick runs one poll iteration. No error escapes: failures at any stage log
// and fall through to the next iteration. A partially staged tree is left
// as-is for the next tick to re-evaluate.
func (w *Watcher) tick(ctx context.Context) {
	if !w.git.HasWorktreeChanges(ctx) {
		return
	}

	if elapsed := w.now().Sub(w.lastCommitTime); elapsed < w.cfg.Debounce {
		w.log.Log("Changes detected but debouncing (%v since last commit)", elapsed.Truncate(time.Millisecond))
		return
	}

	if err := w.git.StageAll(ctx, w.cfg.IncludeUntracked); err != nil {
		w.log.Log("Staging failed: %v", err)
		return
	}

	staged, err := w.git.StagedFiles(ctx)
	if err != nil {
		w.log.Log("Staged-change check failed: %v", err)
		return
	}
	if len(staged) == 0 {
		w.log.Log("Nothing staged to commit (skipping)")
		return
	}

	message := fmt.Sprintf("%s - %s", w.cfg.MessagePrefix, w.now().UTC().Format(timestampLayout))
	if err := w.git.Commit(ctx, message); err != nil {
		w.log.Log("Commit failed: %v", err)
		return
	}
	w.lastCommitTime = w.now()
	w.log.Log("Committed: %s", message)

	pushed := false
	if w.cfg.Push {
		if err := w.git.Push(ctx, w.cfg.Branch); err != nil {
			// Push failure never rolls back the commit or resets the
			// debounce window.
			w.log.Log("Push failed: %v", err)
		} else {
			pushed = true
			w.log.Log("Pushed to origin %s", w.cfg.Branch)
		}
	}

	if w.journal != nil {
		if err := w.journal.Record(ctx, message, w.cfg.Branch, pushed); err != nil {
			w.log.Log("Journal write failed: %v", err)
		}
	}
}
