package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/autosave-sh/autosave/internal/config"
	"github.com/autosave-sh/autosave/internal/configfile"
	"github.com/autosave-sh/autosave/internal/gitops"
	"github.com/autosave-sh/autosave/internal/journal"
	"github.com/autosave-sh/autosave/internal/lockfile"
	"github.com/autosave-sh/autosave/internal/statedir"
	"github.com/autosave-sh/autosave/internal/watcher"
)

// foregroundEnv marks the re-exec'd child so it runs the loop directly
// instead of detaching again.
const foregroundEnv = "AUTOSAVE_WATCH_FOREGROUND"

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a repository and autocommit changes",
	Long: `Watch a git repository and commit local changes automatically.

The watcher will:
- Poll the worktree at a configurable interval (default: 2 seconds)
- Stage all changes when the tree is dirty
- Commit with a timestamped message once the debounce window has passed
- Push to origin if configured

Behavior is read once at startup from .vscode/autocommit.json inside the
repository; missing keys fall back to built-in defaults.

Use --detach to run in the background.
Use --stop to stop a background watcher.
Use --status to check whether one is running.`,
	Run: func(cmd *cobra.Command, args []string) {
		stop, _ := cmd.Flags().GetBool("stop")
		status, _ := cmd.Flags().GetBool("status")
		detach, _ := cmd.Flags().GetBool("detach")
		configPath, _ := cmd.Flags().GetString("config")
		logFile, _ := cmd.Flags().GetString("log")

		repo, err := resolveRepo()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		stateDir, err := statedir.Dir(repo)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		pidFile := statedir.PIDFile(stateDir)

		if status {
			showWatcherStatus(repo, stateDir)
			return
		}

		if stop {
			stopWatcher(pidFile)
			return
		}

		if isRunning, pid := isWatcherRunning(pidFile); isRunning {
			fmt.Fprintf(os.Stderr, "Error: watcher already running for %s (PID %d)\n", repo, pid)
			fmt.Fprintf(os.Stderr, "Use 'autosave watch --stop' to stop it first\n")
			os.Exit(1)
		}

		cfg, err := loadRepoConfig(repo, configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}

		if !cfg.Enabled {
			fmt.Printf("Autocommit is disabled for %s\n", repo)
			return
		}

		if cfg.Delay() <= 0 {
			fmt.Fprintf(os.Stderr, "Error: delay_seconds must be positive (got %v)\n", cfg.DelaySeconds)
			os.Exit(1)
		}

		git := gitops.NewClient(repo, nil, nil)
		if !git.IsRepository(context.Background()) {
			fmt.Fprintf(os.Stderr, "Error: %s is not a git repository\n", repo)
			fmt.Fprintf(os.Stderr, "Hint: run 'git init' to initialize a repository\n")
			os.Exit(1)
		}

		if detach && os.Getenv(foregroundEnv) != "1" {
			startWatcher(repo, configPath, logFile, stateDir, cfg)
			return
		}

		// Foreground: log to stdout unless we are the detached child,
		// which gets the rotating state-dir log.
		toFile := os.Getenv(foregroundEnv) == "1" || logFile != ""
		runWatchLoop(repo, cfg, stateDir, logFile, toFile)
	},
}

func init() {
	watchCmd.Flags().String("config", "", "Config file path (default: <repo>/.vscode/autocommit.json)")
	watchCmd.Flags().Bool("detach", false, "Run the watcher in the background")
	watchCmd.Flags().Bool("stop", false, "Stop a background watcher")
	watchCmd.Flags().Bool("status", false, "Show watcher status")
	watchCmd.Flags().String("log", "", "Log file path (default: state-dir watcher.log)")
	rootCmd.AddCommand(watchCmd)
}

func loadRepoConfig(repo, configPath string) (*configfile.Config, error) {
	if configPath != "" {
		return configfile.LoadFile(configPath)
	}
	return configfile.Load(repo)
}

func isWatcherRunning(pidFile string) (bool, int) {
	data, err := os.ReadFile(pidFile)
	if err != nil {
		return false, 0
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return false, 0
	}

	if !lockfile.IsProcessRunning(pid) {
		return false, 0
	}

	return true, pid
}

func showWatcherStatus(repo, stateDir string) {
	pidFile := statedir.PIDFile(stateDir)
	isRunning, pid := isWatcherRunning(pidFile)

	if jsonOutput {
		out := map[string]interface{}{
			"repo":    repo,
			"running": isRunning,
		}
		if isRunning {
			out["pid"] = pid
		}
		if info, err := os.Stat(pidFile); err == nil {
			out["started"] = info.ModTime().Format(time.RFC3339)
		}
		outputJSON(out)
		return
	}

	if isRunning {
		fmt.Printf("✓ Watcher is running for %s (PID %d)\n", repo, pid)

		if info, err := os.Stat(pidFile); err == nil {
			fmt.Printf("  Started: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))
		}

		logPath := statedir.LogFile(stateDir)
		if _, err := os.Stat(logPath); err == nil {
			fmt.Printf("  Log: %s\n", logPath)
		}
	} else {
		fmt.Printf("✗ Watcher is not running for %s\n", repo)
	}
}

func stopWatcher(pidFile string) {
	isRunning, pid := isWatcherRunning(pidFile)
	if !isRunning {
		fmt.Println("Watcher is not running")
		return
	}

	fmt.Printf("Stopping watcher (PID %d)...\n", pid)

	process, err := os.FindProcess(pid)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error finding process: %v\n", err)
		os.Exit(1)
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		fmt.Fprintf(os.Stderr, "Error sending SIGTERM: %v\n", err)
		os.Exit(1)
	}

	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		if isRunning, _ := isWatcherRunning(pidFile); !isRunning {
			fmt.Println("✓ Watcher stopped")
			return
		}
	}

	fmt.Fprintf(os.Stderr, "Warning: watcher did not stop after 5 seconds, killing\n")
	if err := process.Kill(); err != nil {
		fmt.Fprintf(os.Stderr, "Error killing process: %v\n", err)
	}
	os.Remove(pidFile)
	fmt.Println("✓ Watcher killed")
}

// startWatcher re-execs the binary detached from the terminal and waits for
// the child to confirm startup by writing its PID file.
func startWatcher(repo, configPath, logFile, stateDir string, cfg *configfile.Config) {
	exe, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot resolve executable path: %v\n", err)
		os.Exit(1)
	}

	args := []string{"watch", "--detach", "--repo", repo}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}
	if logFile != "" {
		args = append(args, "--log", logFile)
	}
	if noJournal {
		args = append(args, "--no-journal")
	}

	cmd := exec.Command(exe, args...)
	cmd.Env = append(os.Environ(), foregroundEnv+"=1")
	configureWatcherProcess(cmd)

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s: %v\n", os.DevNull, err)
		os.Exit(1)
	}
	defer devNull.Close()

	cmd.Stdin = devNull
	cmd.Stdout = devNull
	cmd.Stderr = devNull

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting watcher: %v\n", err)
		os.Exit(1)
	}

	expectedPID := cmd.Process.Pid

	if err := cmd.Process.Release(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to release process: %v\n", err)
	}

	pidFile := statedir.PIDFile(stateDir)
	for i := 0; i < 20; i++ {
		time.Sleep(100 * time.Millisecond)
		if data, err := os.ReadFile(pidFile); err == nil {
			if pid, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil && pid == expectedPID {
				fmt.Printf("✓ Watcher started for %s (PID %d, delay %v, push %v)\n",
					repo, expectedPID, cfg.Delay(), cfg.Push)
				return
			}
		}
	}

	fmt.Fprintf(os.Stderr, "Warning: watcher may have failed to start (PID file not confirmed)\n")
	fmt.Fprintf(os.Stderr, "Check log file: %s\n", statedir.LogFile(stateDir))
}

func runWatchLoop(repo string, cfg *configfile.Config, stateDir, logFile string, toFile bool) {
	var log *watcher.Logger
	if toFile {
		logPath := logFile
		if logPath == "" {
			logPath = statedir.LogFile(stateDir)
		}
		logF, fileLog := watcher.NewRotatingLogger(logPath, watcher.RotationConfig{
			MaxSizeMB:  config.GetInt("log-max-size"),
			MaxBackups: config.GetInt("log-max-backups"),
			MaxAgeDays: config.GetInt("log-max-age"),
			Compress:   config.GetBool("log-compress"),
		})
		defer logF.Close()
		log = fileLog
	} else {
		log = watcher.NewLogger(os.Stdout)
	}

	lock, err := lockfile.Acquire(statedir.LockFile(stateDir), repo, Version)
	if err != nil {
		if errors.Is(err, lockfile.ErrLocked) {
			fmt.Fprintf(os.Stderr, "Error: another watcher holds the lock for %s\n", repo)
		} else {
			fmt.Fprintf(os.Stderr, "Error acquiring lock: %v\n", err)
		}
		os.Exit(1)
	}
	defer lock.Close()

	pidFile := statedir.PIDFile(stateDir)
	if !writePIDFile(pidFile, log) {
		os.Exit(1)
	}
	defer os.Remove(pidFile)

	var recorder watcher.Recorder
	if !noJournal {
		j, warning, err := journal.Open(statedir.JournalFile(stateDir), Version)
		if err != nil {
			log.Log("Journal unavailable, continuing without it: %v", err)
		} else {
			if warning != "" {
				log.Log("%s", warning)
			}
			defer j.Close()
			recorder = j
		}
	}

	git := gitops.NewClient(repo, nil, log.Log)
	w := watcher.New(watcher.ConfigFrom(cfg), git, log, recorder)
	if err := w.Run(context.Background()); err != nil {
		log.Log("Watcher exited with error: %v", err)
		os.Exit(1)
	}
}

// writePIDFile claims the PID file, stealing it once if the recorded owner
// is no longer alive.
func writePIDFile(pidFile string, log *watcher.Logger) bool {
	myPID := os.Getpid()

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(pidFile, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if err == nil {
			fmt.Fprintf(f, "%d", myPID)
			f.Close()
			return true
		}

		if errors.Is(err, fs.ErrExist) {
			if isRunning, pid := isWatcherRunning(pidFile); isRunning {
				log.Log("Watcher already running (PID %d), exiting", pid)
				return false
			}
			log.Log("Stale PID file detected, removing and retrying")
			os.Remove(pidFile)
			continue
		}

		log.Log("Error creating PID file: %v", err)
		return false
	}

	log.Log("Failed to create PID file after retries")
	return false
}
