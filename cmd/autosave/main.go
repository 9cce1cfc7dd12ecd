package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/autosave-sh/autosave/internal/config"
)

var (
	repoPath   string
	jsonOutput bool
	noJournal  bool
)

var rootCmd = &cobra.Command{
	Use:   "autosave",
	Short: "autosave - Background git autocommit watcher",
	Long: `autosave watches a git repository and commits local changes automatically.

It polls the worktree at a configurable interval, stages everything when
changes appear, and commits with a timestamped message, optionally pushing
to the remote. Per-repository behavior is configured through
.vscode/autocommit.json inside the watched repository.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Apply viper configuration if flags weren't explicitly set
		// Priority: flags > viper (config file + env vars) > defaults
		if !cmd.Flags().Changed("json") {
			jsonOutput = config.GetBool("json")
		}
		if !cmd.Flags().Changed("no-journal") {
			noJournal = config.GetBool("no-journal")
		}
		if !cmd.Flags().Changed("repo") && repoPath == "" {
			repoPath = config.GetString("repo")
		}
	},
}

// resolveRepo turns the --repo flag (or the current directory) into an
// absolute path. Every state-dir and git operation keys off this path, so
// it has to be stable across invocations from different working dirs.
func resolveRepo() (string, error) {
	repo := repoPath
	if repo == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("cannot resolve working directory: %w", err)
		}
		repo = cwd
	}

	abs, err := filepath.Abs(repo)
	if err != nil {
		return "", fmt.Errorf("cannot resolve repository path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("repository path %s: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("repository path %s is not a directory", abs)
	}

	return abs, nil
}

func outputJSON(v interface{}) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Initialize viper configuration
	if err := config.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize config: %v\n", err)
	}

	rootCmd.PersistentFlags().StringVar(&repoPath, "repo", "", "Repository to watch (default: current directory)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noJournal, "no-journal", false, "Disable the local commit journal")
}

func main() {
	// Handle --version flag (in addition to 'version' subcommand)
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-v" {
			fmt.Printf("autosave version %s (%s)\n", Version, Build)
			return
		}
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
