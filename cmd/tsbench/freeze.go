package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"tsbench/internal/corpus"
)

// newGitHubClientFunc allows mocking the GitHub API in tests.
var newGitHubClientFunc = func() *corpus.GitHubClient {
	return corpus.NewGitHubClient(os.Getenv("GITHUB_TOKEN"))
}

var freezeCmd = &cobra.Command{
	Use:   "freeze",
	Short: "Pin the corpus to current default-branch commits",
	Long: `Reads the repository list, resolves each repo's latest commit on its
default branch via the GitHub API, and writes logs/corpus.jsonl plus a
human-readable logs/CORPUS.md. Repos that fail to resolve are skipped with
a warning.`,
	RunE: runFreeze,
}

func init() {
	rootCmd.AddCommand(freezeCmd)
	freezeCmd.Flags().String("repos", "", "Repository list file (default <workspace>/repos.txt)")
}

func runFreeze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	reposFile := cfg.ReposFile
	if flag, _ := cmd.Flags().GetString("repos"); flag != "" {
		reposFile = flag
	}

	repos, err := corpus.LoadRepoList(reposFile)
	if err != nil {
		return err
	}
	if len(repos) == 0 {
		return fmt.Errorf("no repositories listed in %s", reposFile)
	}

	frozen := newGitHubClientFunc().Freeze(cmd.Context(), repos)
	if len(frozen) == 0 {
		return fmt.Errorf("no repositories could be frozen")
	}

	jsonlPath := filepath.Join(cfg.LogsDir, "corpus.jsonl")
	if err := corpus.WriteJSONL(jsonlPath, frozen); err != nil {
		return err
	}
	mdPath := filepath.Join(cfg.LogsDir, "CORPUS.md")
	if err := corpus.WriteMarkdown(mdPath, frozen); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Froze %d/%d repositories to %s\n", len(frozen), len(repos), jsonlPath)
	return nil
}
