// Package github provides functionality for reading issues from the GitHub API.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v41/github"
	"golang.org/x/oauth2"

	"github.com/danielolaszy/bugtable/internal/config"
	"github.com/danielolaszy/bugtable/internal/logging"
	"github.com/danielolaszy/bugtable/pkg/models"
)

// Client encapsulates the GitHub API client.
type Client struct {
	client *github.Client
	domain string
	owner  string
	repo   string
	labels []string
}

// apiURL maps a GitHub domain onto its REST API root.
func apiURL(domain string) string {
	if domain == "" || domain == "github.com" {
		return "https://api.github.com/"
	}
	return fmt.Sprintf("https://%s/api/v3/", domain)
}

// NewClient creates a new GitHub API client for the configured repository.
// Requests are authenticated with the configured token and sent through
// httpClient, which may be nil.
func NewClient(cfg config.GitHubConfig, httpClient *http.Client) (*Client, error) {
	owner, repo, ok := strings.Cut(cfg.Repository, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return nil, fmt.Errorf("invalid repository format: %s, expected format: owner/repo", cfg.Repository)
	}

	domain := cfg.Domain
	if domain == "" {
		domain = "github.com"
	}

	logging.Info("github configuration",
		"domain", domain,
		"api_url", apiURL(domain),
		"repository", cfg.Repository,
		"token", logging.MaskSensitive(cfg.Token))

	ctx := context.Background()
	if httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	}

	var tc *http.Client
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: cfg.Token},
		)
		tc = oauth2.NewClient(ctx, ts)
	} else {
		tc = httpClient
	}

	client := github.NewClient(tc)

	// GitHub Enterprise serves the API under /api/v3 on its own host
	if domain != "github.com" {
		parsedURL, err := url.Parse(apiURL(domain))
		if err != nil {
			return nil, fmt.Errorf("invalid github api url: %w", err)
		}
		client.BaseURL = parsedURL
		client.UploadURL = parsedURL
	}

	return &Client{
		client: client,
		domain: domain,
		owner:  owner,
		repo:   repo,
		labels: cfg.Labels,
	}, nil
}

// DetailURL returns the web page of issue number id.
func (c *Client) DetailURL(id int) string {
	return fmt.Sprintf("https://%s/%s/%s/issues/%d", c.domain, c.owner, c.repo, id)
}

// Fetch lists every issue (open and closed) carrying all configured labels and
// returns them as a bug list document. Pull requests are skipped.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	opts := &github.IssueListByRepoOptions{
		State:  "all",
		Labels: c.labels,
		ListOptions: github.ListOptions{
			PerPage: 100,
		},
	}

	var allIssues []*github.Issue
	for {
		issues, resp, err := c.client.Issues.ListByRepo(ctx, c.owner, c.repo, opts)
		if err != nil {
			logging.Error("failed to fetch github issues", "error", err)
			return nil, fmt.Errorf("failed to fetch GitHub issues: %w", err)
		}

		allIssues = append(allIssues, issues...)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	bugs := make([]models.Bug, 0, len(allIssues))
	for _, issue := range allIssues {
		// Skip pull requests (they're also returned by the Issues API)
		if issue.PullRequestLinks != nil {
			continue
		}
		bugs = append(bugs, c.toBug(issue))
	}

	logging.Info("fetched github issues",
		"repository", c.owner+"/"+c.repo,
		"count", len(bugs))

	return models.Encode(models.Payload{Bugs: bugs})
}

// toBug converts a GitHub issue into the shared bug record.
func (c *Client) toBug(issue *github.Issue) models.Bug {
	labelNames := make([]string, 0, len(issue.Labels))
	for _, label := range issue.Labels {
		labelNames = append(labelNames, label.GetName())
	}

	bug := models.Bug{
		ID:             issue.GetNumber(),
		Summary:        issue.GetTitle(),
		Status:         issue.GetState(),
		IsOpen:         issue.GetState() == "open",
		Keywords:       labelNames,
		Product:        c.repo,
		CreationTime:   issue.GetCreatedAt(),
		LastChangeTime: issue.GetUpdatedAt(),
	}

	if !bug.IsOpen {
		bug.Resolution = "closed"
	}
	if len(labelNames) > 0 {
		bug.Component = labelNames[0]
	}
	if user := issue.GetUser(); user != nil {
		bug.Creator = user.GetLogin()
		bug.CreatorDetail = &models.CreatorDetail{
			ID:       int(user.GetID()),
			Name:     user.GetLogin(),
			RealName: user.GetName(),
		}
	}

	return bug
}
