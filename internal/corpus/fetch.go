package corpus

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// gitCommand allows mocking git subprocesses in tests.
var gitCommand = exec.CommandContext

// GitClient wraps the git binary for corpus checkout. All output is passed
// through a credential-masking writer and prompting is disabled, so a bad
// token never hangs or leaks into logs.
type GitClient struct{}

func NewGitClient() *GitClient {
	return &GitClient{}
}

var (
	reGitHubPAT = regexp.MustCompile(`https://[^@:]+@github\.com`)
	reBasicAuth = regexp.MustCompile(`https://[^:/]+:[^@/]+@`)
)

// maskingWriter redacts embedded credentials from subprocess output.
type maskingWriter struct {
	w io.Writer
}

func (mw *maskingWriter) Write(p []byte) (n int, err error) {
	s := string(p)
	s = reGitHubPAT.ReplaceAllString(s, "https://[REDACTED]@github.com")
	s = reBasicAuth.ReplaceAllString(s, "https://[REDACTED]@")
	_, err = mw.w.Write([]byte(s))
	return len(p), err
}

func (c *GitClient) run(ctx context.Context, dir string, args ...string) error {
	var out bytes.Buffer
	cmd := gitCommand(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "GIT_ASKPASS=/bin/true")
	cmd.Stdout = &maskingWriter{w: &out}
	cmd.Stderr = &maskingWriter{w: &out}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git %s failed: %w\nOutput: %s", args[0], err, out.String())
	}
	return nil
}

// Clone clones url into dest.
func (c *GitClient) Clone(ctx context.Context, url, dest string) error {
	cloneCtx, cancel := context.WithTimeout(ctx, 15*time.Minute)
	defer cancel()
	return c.run(cloneCtx, "", "clone", url, dest)
}

// CheckoutCommit fetches and checks out a pinned commit in an existing clone.
func (c *GitClient) CheckoutCommit(ctx context.Context, dir, sha string) error {
	if err := c.run(ctx, dir, "fetch", "--all"); err != nil {
		return err
	}
	return c.run(ctx, dir, "checkout", sha)
}

// RepoMetadata records what was checked out for one repository.
type RepoMetadata struct {
	CommitSHA  string `json:"commit_sha"`
	CommitDate string `json:"commit_date"`
}

// SyncRepo clones the repository under projectsDir if missing, then pins it
// to the given commit. The destination directory is the repo's short name.
func SyncRepo(ctx context.Context, git *GitClient, repo, sha, projectsDir string) (string, error) {
	parts := strings.SplitN(repo, "/", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid repository name %q, want owner/name", repo)
	}
	name := parts[1]
	dest := filepath.Join(projectsDir, name)

	if _, err := os.Stat(dest); os.IsNotExist(err) {
		slog.Info("Cloning repository", "repo", repo)
		if err := git.Clone(ctx, fmt.Sprintf("https://github.com/%s.git", repo), dest); err != nil {
			return dest, err
		}
	}

	slog.Info("Checking out pinned commit", "repo", repo, "sha", sha)
	if err := git.CheckoutCommit(ctx, dest, sha); err != nil {
		return dest, err
	}
	return dest, nil
}
