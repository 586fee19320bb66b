// Package publish pushes the rendered report to a GitHub repository
// using the contents API.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gogithub "github.com/google/go-github/v69/github"
)

// Config describes the publish destination.
type Config struct {
	Token  string
	Repo   string // "owner/name"
	Branch string
	Path   string // file path inside the repository
	// BaseURL overrides the API endpoint; used by tests and GitHub
	// Enterprise installs. Empty means api.github.com.
	BaseURL string
}

// Publisher commits report files to a single repository path.
type Publisher struct {
	client *gogithub.Client
	owner  string
	repo   string
	branch string
	path   string
	logger *slog.Logger
}

// splitRepo splits a "owner/repo" string into its two parts.
func splitRepo(repo string) (string, string, error) {
	parts := strings.SplitN(repo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo %q: expected owner/repo", repo)
	}
	return parts[0], parts[1], nil
}

// New creates a publisher for the configured repository.
func New(httpClient *http.Client, cfg Config, logger *slog.Logger) (*Publisher, error) {
	owner, name, err := splitRepo(cfg.Repo)
	if err != nil {
		return nil, err
	}
	if cfg.Path == "" {
		return nil, errors.New("publish path is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := gogithub.NewClient(httpClient).WithAuthToken(cfg.Token)
	if cfg.BaseURL != "" {
		client, err = client.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("publish: base URL: %w", err)
		}
	}

	branch := cfg.Branch
	if branch == "" {
		branch = "main"
	}

	return &Publisher{
		client: client,
		owner:  owner,
		repo:   name,
		branch: branch,
		path:   cfg.Path,
		logger: logger,
	}, nil
}

// checkRateLimit logs a warning when remaining API calls drop below threshold.
func (p *Publisher) checkRateLimit(resp *gogithub.Response) {
	if resp == nil {
		return
	}
	if resp.Rate.Remaining < 100 {
		p.logger.Warn("publish: github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset", resp.Rate.Reset.Time,
		)
	}
}

// CommitMessage builds the commit message for a publish run.
func CommitMessage(runID string, now time.Time) string {
	return fmt.Sprintf("Update poker report (%s, run %s)",
		now.UTC().Format("2006-01-02 15:04 MST"), runID)
}

// Publish commits content to the configured path, creating the file if
// it does not exist and updating it otherwise. Returns the new commit SHA.
func (p *Publisher) Publish(ctx context.Context, content []byte, message string) (string, error) {
	sha, err := p.currentSHA(ctx)
	if err != nil {
		return "", err
	}

	opts := &gogithub.RepositoryContentFileOptions{
		Message: &message,
		Content: content,
		Branch:  &p.branch,
	}
	if sha != "" {
		opts.SHA = &sha
	}

	var result *gogithub.RepositoryContentResponse
	var resp *gogithub.Response
	if sha == "" {
		result, resp, err = p.client.Repositories.CreateFile(ctx, p.owner, p.repo, p.path, opts)
	} else {
		result, resp, err = p.client.Repositories.UpdateFile(ctx, p.owner, p.repo, p.path, opts)
	}
	if err != nil {
		return "", fmt.Errorf("publish: commit %s: %w", p.path, err)
	}
	p.checkRateLimit(resp)

	commit := result.Commit.GetSHA()
	p.logger.Info("report published",
		"repo", p.owner+"/"+p.repo,
		"path", p.path,
		"branch", p.branch,
		"commit", commit,
	)
	return commit, nil
}

// currentSHA returns the blob SHA of the existing file, or "" when the
// path does not exist yet on the branch.
func (p *Publisher) currentSHA(ctx context.Context) (string, error) {
	file, _, resp, err := p.client.Repositories.GetContents(ctx, p.owner, p.repo, p.path,
		&gogithub.RepositoryContentGetOptions{Ref: p.branch})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", nil
		}
		return "", fmt.Errorf("publish: fetch %s: %w", p.path, err)
	}
	p.checkRateLimit(resp)
	if file == nil {
		return "", fmt.Errorf("publish: %s is a directory", p.path)
	}
	return file.GetSHA(), nil
}
