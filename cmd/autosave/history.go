package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/autosave-sh/autosave/internal/journal"
	"github.com/autosave-sh/autosave/internal/statedir"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent autocommits for a repository",
	Long: `Show the most recent autocommits recorded in the local journal.

The journal lives outside the watched repository, so it survives rebases
and history rewrites. Commits made while the journal was disabled
(--no-journal) do not appear here.`,
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		if limit <= 0 {
			fmt.Fprintf(os.Stderr, "Error: limit must be positive (got %d)\n", limit)
			os.Exit(1)
		}

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

		journalPath := statedir.JournalFile(stateDir)
		if _, err := os.Stat(journalPath); err != nil {
			if jsonOutput {
				outputJSON([]journal.Entry{})
				return
			}
			fmt.Printf("No journal yet for %s\n", repo)
			return
		}

		j, warning, err := journal.Open(journalPath, Version)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening journal: %v\n", err)
			os.Exit(1)
		}
		defer j.Close()
		if warning != "" {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}

		ctx := context.Background()
		entries, err := j.Recent(ctx, limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading journal: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			if entries == nil {
				entries = []journal.Entry{}
			}
			outputJSON(entries)
			return
		}

		if len(entries) == 0 {
			fmt.Printf("No autocommits recorded for %s\n", repo)
			return
		}

		total, err := j.Count(ctx)
		if err != nil {
			total = len(entries)
		}

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		fmt.Printf("\nRecent autocommits for %s (%d of %d):\n\n", repo, len(entries), total)
		for _, e := range entries {
			pushed := "local"
			if e.Pushed {
				pushed = green("pushed")
			}
			fmt.Printf("  %s  %s  [%s, %s]\n",
				cyan(e.CreatedAt.Format("2006-01-02 15:04:05")), e.Message, e.Branch, pushed)
		}
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum number of entries to show")
	rootCmd.AddCommand(historyCmd)
}
