package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"tsbench/internal/corpus"
)

// Seams for mocking git in tests.
var (
	newGitClientFunc = func() *corpus.GitClient {
		return corpus.NewGitClient()
	}
	syncRepoFunc = corpus.SyncRepo
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Clone and pin the corpus projects",
	Long: `Materializes the corpus under the projects directory. With a frozen
corpus (logs/corpus.jsonl) each repository is pinned to its frozen commit;
otherwise the repository list is used and each repo is pinned to its latest
commit within the last year. Repositories that fail are logged to
logs/skipped.log and the run continues.`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	pins, err := resolvePins(cmd, cfg.ReposFile, filepath.Join(cfg.LogsDir, "corpus.jsonl"))
	if err != nil {
		return err
	}

	git := newGitClientFunc()
	metadata := make(map[string]corpus.RepoMetadata)
	var skipped []string

	for _, pin := range pins {
		if pin.SHA == "" {
			skipped = append(skipped, fmt.Sprintf("%s: no pinnable commit", pin.Repo))
			continue
		}
		if _, err := syncRepoFunc(cmd.Context(), git, pin.Repo, pin.SHA, cfg.ProjectsDir); err != nil {
			slog.Warn("Failed to sync repository", "repo", pin.Repo, "error", err)
			skipped = append(skipped, fmt.Sprintf("%s: %v", pin.Repo, err))
			continue
		}
		metadata[pin.Repo] = corpus.RepoMetadata{CommitSHA: pin.SHA, CommitDate: pin.CommitDate}
	}

	if err := writeFetchLogs(cfg.LogsDir, metadata, skipped); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Fetched %d repositories (%d skipped) into %s\n",
		len(metadata), len(skipped), cfg.ProjectsDir)
	return nil
}

// resolvePins prefers the frozen corpus; without one it falls back to the
// repository list pinned to each repo's most recent commit within a year.
func resolvePins(cmd *cobra.Command, reposFile, corpusFile string) ([]corpus.FrozenRepo, error) {
	if pins, err := corpus.ReadJSONL(corpusFile); err == nil && len(pins) > 0 {
		slog.Info("Using frozen corpus", "file", corpusFile, "repos", len(pins))
		return pins, nil
	}

	repos, err := corpus.LoadRepoList(reposFile)
	if err != nil {
		return nil, fmt.Errorf("no frozen corpus and no repository list: %w", err)
	}

	gh := newGitHubClientFunc()
	since := time.Now().AddDate(-1, 0, 0)
	var pins []corpus.FrozenRepo
	for _, repo := range repos {
		sha, date, err := gh.LatestCommitSince(cmd.Context(), repo, since)
		if err != nil {
			slog.Warn("No recent commit", "repo", repo, "error", err)
			pins = append(pins, corpus.FrozenRepo{Repo: repo})
			continue
		}
		pins = append(pins, corpus.FrozenRepo{Repo: repo, SHA: sha, CommitDate: date})
	}
	return pins, nil
}

func writeFetchLogs(logsDir string, metadata map[string]corpus.RepoMetadata, skipped []string) error {
	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(logsDir, "metadata.json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	if len(skipped) > 0 {
		var buf []byte
		for _, line := range skipped {
			buf = append(buf, []byte(line+"\n")...)
		}
		if err := os.WriteFile(filepath.Join(logsDir, "skipped.log"), buf, 0644); err != nil {
			return fmt.Errorf("failed to write skipped log: %w", err)
		}
	}
	return nil
}
