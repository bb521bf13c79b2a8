package corpus

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FrozenRepo pins one corpus repository to a commit on its default branch.
type FrozenRepo struct {
	Repo       string   `json:"repo"`
	Branch     string   `json:"branch"`
	SHA        string   `json:"sha"`
	CommitDate string   `json:"commit_date"`
	License    string   `json:"license"`
	Curation   Curation `json:"curation"`
}

// Curation is a light classification derived from the repo's package.json.
type Curation struct {
	Kind     string   `json:"kind"`
	Tests    bool     `json:"tests"`
	Monorepo bool     `json:"monorepo"`
	Notes    []string `json:"notes"`
}

// GitHubClient is a minimal REST client for corpus freezing.
type GitHubClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewGitHubClient(token string) *GitHubClient {
	return &GitHubClient{
		BaseURL: "https://api.github.com",
		Token:   token,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// LoadRepoList reads one owner/name per line, skipping blanks and comments.
func LoadRepoList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open repo list %s: %w", path, err)
	}
	defer f.Close()

	var repos []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		repos = append(repos, line)
	}
	return repos, scanner.Err()
}

// Freeze resolves every repo to its latest default-branch commit. Repos that
// fail to resolve are logged and omitted rather than failing the batch.
func (c *GitHubClient) Freeze(ctx context.Context, repos []string) []FrozenRepo {
	var frozen []FrozenRepo
	for _, repo := range repos {
		fr, err := c.freezeOne(ctx, repo)
		if err != nil {
			slog.Warn("Failed to freeze repository", "repo", repo, "error", err)
			continue
		}
		slog.Info("Frozen", "repo", repo, "sha", fr.SHA, "branch", fr.Branch)
		frozen = append(frozen, fr)
	}
	return frozen
}

func (c *GitHubClient) freezeOne(ctx context.Context, repo string) (FrozenRepo, error) {
	var info struct {
		DefaultBranch string `json:"default_branch"`
		License       *struct {
			SPDXID string `json:"spdx_id"`
		} `json:"license"`
	}
	if err := c.get(ctx, fmt.Sprintf("/repos/%s", repo), &info); err != nil {
		return FrozenRepo{}, err
	}

	branch := info.DefaultBranch
	if branch == "" {
		branch = "main"
	}
	license := "UNKNOWN"
	if info.License != nil && info.License.SPDXID != "" {
		license = info.License.SPDXID
	}

	sha, date, err := c.latestCommit(ctx, repo, branch, time.Time{})
	if err != nil {
		return FrozenRepo{}, err
	}

	fr := FrozenRepo{
		Repo:       repo,
		Branch:     branch,
		SHA:        sha,
		CommitDate: date,
		License:    license,
		Curation:   Curation{Kind: "unknown"},
	}
	if pj := c.fetchPackageJSON(ctx, repo, sha); pj != nil {
		fr.Curation = curate(pj)
	}
	return fr, nil
}

// LatestCommitSince returns the newest commit on the default branch not
// older than since, for fetch runs without a frozen corpus.
func (c *GitHubClient) LatestCommitSince(ctx context.Context, repo string, since time.Time) (string, string, error) {
	return c.latestCommit(ctx, repo, "", since)
}

func (c *GitHubClient) latestCommit(ctx context.Context, repo, branch string, since time.Time) (string, string, error) {
	params := url.Values{"per_page": {"1"}}
	if branch != "" {
		params.Set("sha", branch)
	}
	if !since.IsZero() {
		params.Set("since", since.Format(time.RFC3339))
	}

	var commits []struct {
		SHA    string `json:"sha"`
		Commit struct {
			Author struct {
				Date string `json:"date"`
			} `json:"author"`
		} `json:"commit"`
	}
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/commits?%s", repo, params.Encode()), &commits); err != nil {
		return "", "", err
	}
	if len(commits) == 0 {
		return "", "", fmt.Errorf("no commits found for %s", repo)
	}
	return commits[0].SHA, commits[0].Commit.Author.Date, nil
}

func (c *GitHubClient) fetchPackageJSON(ctx context.Context, repo, ref string) map[string]any {
	var contents struct {
		Content string `json:"content"`
	}
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/contents/package.json?ref=%s", repo, ref), &contents); err != nil {
		return nil
	}
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(contents.Content, "\n", ""))
	if err != nil {
		return nil
	}
	var pj map[string]any
	if err := json.Unmarshal(raw, &pj); err != nil {
		return nil
	}
	return pj
}

func (c *GitHubClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "token "+c.Token)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("github request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("github %d on %s: set GITHUB_TOKEN to avoid rate limiting", resp.StatusCode, path)
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return fmt.Errorf("github %d on %s: %s", resp.StatusCode, path, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// curate applies small heuristics over package.json: project kind, test
// tooling, workspace layout.
func curate(pj map[string]any) Curation {
	cur := Curation{Kind: "unknown"}

	name, _ := pj["name"].(string)
	scripts, _ := pj["scripts"].(map[string]any)
	deps := map[string]bool{}
	for _, key := range []string{"dependencies", "devDependencies"} {
		if m, ok := pj[key].(map[string]any); ok {
			for d := range m {
				deps[d] = true
			}
		}
	}
	keywords := map[string]bool{}
	if kw, ok := pj["keywords"].([]any); ok {
		for _, k := range kw {
			if s, ok := k.(string); ok {
				keywords[s] = true
			}
		}
	}

	_, hasTestScript := scripts["test"]
	testSignals := []string{"jest", "vitest", "mocha", "ava", "tap", "uvu", "playwright", "cypress"}
	for _, t := range testSignals {
		if deps[t] {
			cur.Tests = true
			break
		}
	}
	cur.Tests = cur.Tests || hasTestScript

	_, cur.Monorepo = pj["workspaces"]

	frameworks := []string{"next", "nuxt", "sveltekit", "nestjs", "angular", "remix", "astro"}
	isFramework := false
	for _, f := range frameworks {
		if strings.Contains(strings.ToLower(name), f) || deps[f] || keywords[f] {
			isFramework = true
			break
		}
	}

	private, _ := pj["private"].(bool)
	hasAppScript := false
	for _, s := range []string{"start", "dev", "build"} {
		if _, ok := scripts[s]; ok {
			hasAppScript = true
			break
		}
	}

	switch {
	case isFramework:
		cur.Kind = "framework"
	case private && hasAppScript:
		cur.Kind = "app"
	default:
		cur.Kind = "library"
	}

	if cur.Tests {
		cur.Notes = append(cur.Notes, "tests")
	}
	if cur.Monorepo {
		cur.Notes = append(cur.Notes, "monorepo")
	}
	return cur
}

// WriteJSONL writes one frozen repo per line.
func WriteJSONL(path string, repos []FrozenRepo) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	var buf strings.Builder
	for _, fr := range repos {
		line, err := json.Marshal(fr)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", fr.Repo, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(buf.String()), 0644)
}

// ReadJSONL loads a previously frozen corpus.
func ReadJSONL(path string) ([]FrozenRepo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var repos []FrozenRepo
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var fr FrozenRepo
		if err := json.Unmarshal([]byte(line), &fr); err != nil {
			return nil, fmt.Errorf("invalid corpus line: %w", err)
		}
		repos = append(repos, fr)
	}
	return repos, scanner.Err()
}

// WriteMarkdown renders a human-readable corpus table.
func WriteMarkdown(path string, repos []FrozenRepo) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# Corpus\n\n")
	buf.WriteString(fmt.Sprintf("Frozen at %s, %d repositories.\n\n", time.Now().UTC().Format(time.RFC3339), len(repos)))
	buf.WriteString("| Repo | Branch | Commit | Date | License | Kind | Notes |\n")
	buf.WriteString("|------|--------|--------|------|---------|------|-------|\n")
	for _, fr := range repos {
		sha := fr.SHA
		if len(sha) > 12 {
			sha = sha[:12]
		}
		buf.WriteString(fmt.Sprintf("| %s | %s | `%s` | %s | %s | %s | %s |\n",
			fr.Repo, fr.Branch, sha, fr.CommitDate, fr.License,
			fr.Curation.Kind, strings.Join(fr.Curation.Notes, ", ")))
	}
	return os.WriteFile(path, []byte(buf.String()), 0644)
}
