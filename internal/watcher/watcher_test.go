package watcher

import (
	"context"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"
)

type fakeGit struct {
	changes   bool
	stageErr  error
	staged    []string
	stagedErr error
	commitErr error
	pushErr   error

	stageCalls  int
	stagedCalls int
	commitCalls int
	pushCalls   int

	lastStageUntracked bool
	lastCommitMsg      string
	lastPushBranch     string
}

func (f *fakeGit) HasWorktreeChanges(context.Context) bool { return f.changes }

func (f *fakeGit) StageAll(_ context.Context, includeUntracked bool) error {
	f.stageCalls++
	f.lastStageUntracked = includeUntracked
	return f.stageErr
}

func (f *fakeGit) StagedFiles(context.Context) ([]string, error) {
	f.stagedCalls++
	return f.staged, f.stagedErr
}

func (f *fakeGit) Commit(_ context.Context, message string) error {
	f.commitCalls++
	f.lastCommitMsg = message
	return f.commitErr
}

func (f *fakeGit) Push(_ context.Context, branch string) error {
	f.pushCalls++
	f.lastPushBranch = branch
	return f.pushErr
}

type fakeJournal struct {
	records []journalRecord
	err     error
}

type journalRecord struct {
	message string
	branch  string
	pushed  bool
}

func (f *fakeJournal) Record(_ context.Context, message, branch string, pushed bool) error {
	f.records = append(f.records, journalRecord{message, branch, pushed})
	return f.err
}

// fakeClock advances only when told to, so ticks are deterministic.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func testConfig() Config {
	return Config{
		Delay:            10 * time.Millisecond,
		Debounce:         0,
		MessagePrefix:    "autosave: update",
		Branch:           "main",
		Push:             false,
		IncludeUntracked: true,
	}
}

func newTestWatcher(cfg Config, git *fakeGit, journal Recorder) (*Watcher, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	w := New(cfg, git, NewLogger(io.Discard), journal)
	w.now = clock.now
	return w, clock
}

func TestTickNoChangesDoesNothing(t *testing.T) {
	git := &fakeGit{changes: false}
	w, _ := newTestWatcher(testConfig(), git, nil)

	w.tick(context.Background())

	if git.stageCalls != 0 || git.commitCalls != 0 || git.pushCalls != 0 {
		t.Errorf("clean tree should invoke nothing, got stage=%d commit=%d push=%d",
			git.stageCalls, git.commitCalls, git.pushCalls)
	}
}

func TestTickDebounceWindow(t *testing.T) {
	cfg := testConfig()
	cfg.Debounce = 5 * time.Second

	git := &fakeGit{changes: true, staged: []string{"a.go"}}
	w, clock := newTestWatcher(cfg, git, nil)

	// First commit establishes lastCommitTime.
	w.tick(context.Background())
	if git.commitCalls != 1 {
		t.Fatalf("first tick should commit, got %d commits", git.commitCalls)
	}

	// Inside the window, even just short of the boundary: no staging attempt.
	clock.advance(5*time.Second - time.Millisecond)
	w.tick(context.Background())
	if git.stageCalls != 1 {
		t.Errorf("tick inside debounce window should not stage, got %d stage calls", git.stageCalls)
	}

	// At the boundary the commit proceeds.
	clock.advance(time.Millisecond)
	w.tick(context.Background())
	if git.commitCalls != 2 {
		t.Errorf("tick at debounce boundary should commit, got %d commits", git.commitCalls)
	}
}

func TestTickStageFailureAbandonsIteration(t *testing.T) {
	git := &fakeGit{changes: true, stageErr: errors.New("index locked")}
	w, _ := newTestWatcher(testConfig(), git, nil)

	w.tick(context.Background())

	if git.stagedCalls != 0 || git.commitCalls != 0 {
		t.Error("stage failure should short-circuit the iteration")
	}
}

func TestTickNothingStagedSkipsCommit(t *testing.T) {
	git := &fakeGit{changes: true, staged: nil}
	w, _ := newTestWatcher(testConfig(), git, nil)

	w.tick(context.Background())

	if git.stageCalls != 1 {
		t.Errorf("staging should be attempted, got %d", git.stageCalls)
	}
	if git.commitCalls != 0 {
		t.Error("empty staged diff must never lead to a commit")
	}
}

func TestTickCommitMessageFormat(t *testing.T) {
	git := &fakeGit{changes: true, staged: []string{"a.go"}}
	w, _ := newTestWatcher(testConfig(), git, nil)

	w.tick(context.Background())

	pattern := `^autosave: update - \d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z$`
	if !regexp.MustCompile(pattern).MatchString(git.lastCommitMsg) {
		t.Errorf("commit message %q does not match %s", git.lastCommitMsg, pattern)
	}
	if git.lastCommitMsg != "autosave: update - 2025-06-01T12:00:00Z" {
		t.Errorf("commit message = %q", git.lastCommitMsg)
	}
}

func TestTickUpdatesLastCommitTimeOnSuccess(t *testing.T) {
	git := &fakeGit{changes: true, staged: []string{"a.go"}}
	w, clock := newTestWatcher(testConfig(), git, nil)

	w.tick(context.Background())

	if !w.lastCommitTime.Equal(clock.t) {
		t.Errorf("lastCommitTime = %v, want %v (the time after the commit returned)",
			w.lastCommitTime, clock.t)
	}
}

func TestTickCommitFailureKeepsLastCommitTime(t *testing.T) {
	git := &fakeGit{changes: true, staged: []string{"a.go"}, commitErr: errors.New("hook rejected")}
	w, _ := newTestWatcher(testConfig(), git, nil)

	w.tick(context.Background())

	if !w.lastCommitTime.IsZero() {
		t.Error("failed commit must not update lastCommitTime")
	}
	if git.pushCalls != 0 {
		t.Error("failed commit must not push")
	}
}

func TestTickPushTargetsConfiguredBranch(t *testing.T) {
	cfg := testConfig()
	cfg.Push = true
	cfg.Branch = "autosave"

	git := &fakeGit{changes: true, staged: []string{"a.go"}}
	w, _ := newTestWatcher(cfg, git, nil)

	w.tick(context.Background())

	if git.pushCalls != 1 {
		t.Fatalf("push should run once, got %d", git.pushCalls)
	}
	if git.lastPushBranch != "autosave" {
		t.Errorf("push branch = %q, want autosave", git.lastPushBranch)
	}
}

func TestTickPushFailureIsNonFatal(t *testing.T) {
	cfg := testConfig()
	cfg.Push = true

	journal := &fakeJournal{}
	git := &fakeGit{changes: true, staged: []string{"a.go"}, pushErr: errors.New("no remote")}
	w, clock := newTestWatcher(cfg, git, journal)

	w.tick(context.Background())

	if git.commitCalls != 1 {
		t.Fatalf("commit should have happened, got %d", git.commitCalls)
	}
	if !w.lastCommitTime.Equal(clock.t) {
		t.Error("push failure must not reset lastCommitTime")
	}
	if len(journal.records) != 1 || journal.records[0].pushed {
		t.Errorf("journal should record the commit as not pushed, got %+v", journal.records)
	}
}

func TestTickRecordsToJournal(t *testing.T) {
	cfg := testConfig()
	cfg.Push = true

	journal := &fakeJournal{}
	git := &fakeGit{changes: true, staged: []string{"a.go"}}
	w, _ := newTestWatcher(cfg, git, journal)

	w.tick(context.Background())

	if len(journal.records) != 1 {
		t.Fatalf("got %d journal records, want 1", len(journal.records))
	}
	rec := journal.records[0]
	if rec.message != git.lastCommitMsg {
		t.Errorf("journal message = %q, want %q", rec.message, git.lastCommitMsg)
	}
	if rec.branch != "main" || !rec.pushed {
		t.Errorf("journal record = %+v", rec)
	}
}

func TestTickJournalFailureDoesNotBlockLoop(t *testing.T) {
	journal := &fakeJournal{err: errors.New("disk full")}
	git := &fakeGit{changes: true, staged: []string{"a.go"}}
	w, clock := newTestWatcher(testConfig(), git, journal)

	w.tick(context.Background())

	if !w.lastCommitTime.Equal(clock.t) {
		t.Error("journal failure must not affect commit state")
	}
}

func TestTickStageModeFollowsIncludeUntracked(t *testing.T) {
	cfg := testConfig()
	cfg.IncludeUntracked = false

	git := &fakeGit{changes: true, staged: []string{"a.go"}}
	w, _ := newTestWatcher(cfg, git, nil)

	w.tick(context.Background())

	if git.lastStageUntracked {
		t.Error("include_untracked=false should stage tracked files only")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	git := &fakeGit{changes: false}
	w := New(testConfig(), git, NewLogger(io.Discard), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run should return nil on cancellation, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}
