// Package journal records successful autocommits in a SQLite database.
//
// The journal lives in the per-repository state directory, outside the
// watched working tree. It is strictly bookkeeping: every failure is
// reported to the caller for logging and must never block the watch loop.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/mod/semver"

	// SQLite driver
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS commits (
	id         TEXT PRIMARY KEY,
	message    TEXT NOT NULL,
	branch     TEXT NOT NULL,
	pushed     INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_commits_created_at ON commits(created_at);

CREATE TABLE IF NOT EXISTS metadata (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Entry is one recorded autocommit.
type Entry struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Branch    string    `json:"branch"`
	Pushed    bool      `json:"pushed"`
	CreatedAt time.Time `json:"created_at"`
}

// Journal is an open commit journal.
type Journal struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the journal at path and reconciles the
// stored app version with the running one. It returns a human-readable
// warning when the journal was written by a newer version of the tool.
func Open(path, version string) (*Journal, string, error) {
	// Use modernc.org/sqlite's _pragma syntax; WAL for concurrency with the
	// history command, busy_timeout instead of immediate lock failures,
	// _time_format=sqlite so DATETIME columns scan into time.Time.
	dbPath := path
	if path == ":memory:" {
		dbPath = "file::memory:?cache=shared"
	}
	connStr := dbPath
	if strings.Contains(dbPath, "?") {
		connStr += "&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	} else {
		connStr += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open journal: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("failed to ping journal: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("failed to initialize journal schema: %w", err)
	}

	j := &Journal{db: db, path: path}
	warning, err := j.reconcileVersion(version)
	if err != nil {
		_ = db.Close()
		return nil, "", err
	}

	return j, warning, nil
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Path returns the journal file path.
func (j *Journal) Path() string {
	return j.path
}

// reconcileVersion compares the stored tool version against the running one.
// An older stored version is upgraded silently; a newer one produces a
// warning but is not fatal.
func (j *Journal) reconcileVersion(version string) (string, error) {
	stored, err := j.GetMetadata(context.Background(), "autosave_version")
	if err != nil {
		return "", err
	}

	if stored == "" {
		return "", j.SetMetadata(context.Background(), "autosave_version", version)
	}

	var warning string
	if stored != version && semver.Compare("v"+version, "v"+stored) < 0 {
		warning = fmt.Sprintf("journal %s was written by a newer autosave (v%s, running v%s)",
			j.path, stored, version)
	}

	if err := j.SetMetadata(context.Background(), "autosave_version", version); err != nil {
		return warning, err
	}
	return warning, nil
}

// Record inserts a new journal entry for a successful commit.
func (j *Journal) Record(ctx context.Context, message, branch string, pushed bool) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO commits (id, message, branch, pushed, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), message, branch, pushed, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record commit: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, message, branch, pushed, created_at FROM commits ORDER BY created_at DESC, id LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query commits: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Message, &e.Branch, &e.Pushed, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan commit: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the total number of recorded commits.
func (j *Journal) Count(ctx context.Context) (int, error) {
	var count int
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM commits`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count commits: %w", err)
	}
	return count, nil
}

// GetMetadata returns the value for key, or "" when the key is absent.
func (j *Journal) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := j.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read metadata %s: %w", key, err)
	}
	return value, nil
}

// SetMetadata upserts a metadata key.
func (j *Journal) SetMetadata(ctx context.Context, key, value string) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata %s: %w", key, err)
	}
	return nil
}
