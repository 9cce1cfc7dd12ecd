package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/autosave-sh/autosave/internal/configfile"
	"github.com/autosave-sh/autosave/internal/statedir"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective watcher configuration",
	Long: `Show the effective configuration for a repository.

The values are the built-in defaults merged with whatever keys are present
in <repo>/.vscode/autocommit.json. This is exactly what 'autosave watch'
would run with.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")

		repo, err := resolveRepo()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cfg, loadErr := loadRepoConfig(repo, configPath)

		path := configPath
		if path == "" {
			path = configfile.ConfigPath(repo)
		}
		_, statErr := os.Stat(path)
		fromFile := statErr == nil

		if jsonOutput {
			out := map[string]interface{}{
				"repo":        repo,
				"config_file": path,
				"file_found":  fromFile,
				"effective":   cfg,
			}
			if stateDir, err := statedir.Dir(repo); err == nil {
				out["state_dir"] = stateDir
			}
			if loadErr != nil {
				out["load_error"] = loadErr.Error()
			}
			outputJSON(out)
			return
		}

		if loadErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (showing defaults)\n", loadErr)
		}

		fmt.Printf("\nConfiguration for %s:\n", repo)
		if fromFile {
			fmt.Printf("  (from %s)\n\n", path)
		} else {
			fmt.Printf("  (defaults; %s not found)\n\n", path)
		}

		fmt.Printf("  enabled           = %v\n", cfg.Enabled)
		fmt.Printf("  delay_seconds     = %v\n", cfg.DelaySeconds)
		fmt.Printf("  debounce_seconds  = %v\n", cfg.DebounceSeconds)
		fmt.Printf("  commit_message    = %s\n", cfg.CommitMessage)
		fmt.Printf("  branch            = %s\n", cfg.Branch)
		fmt.Printf("  push              = %v\n", cfg.Push)
		fmt.Printf("  include_untracked = %v\n", cfg.IncludeUntracked)

		if stateDir, err := statedir.Dir(repo); err == nil {
			fmt.Printf("\n  State directory: %s\n", stateDir)
		}
	},
}

func init() {
	configCmd.Flags().String("config", "", "Config file path (default: <repo>/.vscode/autocommit.json)")
	rootCmd.AddCommand(configCmd)
}
