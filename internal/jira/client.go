// Package jira provides functionality for reading issues from the JIRA API.
package jira

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	jira "github.com/andygrunwald/go-jira"

	"github.com/danielolaszy/bugtable/internal/config"
	"github.com/danielolaszy/bugtable/internal/logging"
	"github.com/danielolaszy/bugtable/pkg/models"
)

// searchPageSize is the page size requested from the search endpoint.
const searchPageSize = 100

// searchFields limits the search response to what toBug reads.
var searchFields = []string{
	"summary", "status", "resolution", "labels", "project",
	"components", "creator", "created", "updated",
}

// Client handles interactions with the JIRA API
type Client struct {
	client  *jira.Client
	baseURL string
	jql     string
}

// NewClient creates a new JIRA client authenticated with basic auth.
// A nil httpClient uses the transport's default.
func NewClient(cfg config.JiraConfig, httpClient *http.Client) (*Client, error) {
	if err := config.ValidateJiraConfig(&config.Config{Jira: cfg}); err != nil {
		return nil, err
	}

	tp := jira.BasicAuthTransport{
		Username: cfg.Username,
		Password: cfg.Token,
	}
	if httpClient != nil && httpClient.Transport != nil {
		tp.Transport = httpClient.Transport
	}

	authClient := tp.Client()
	if httpClient != nil {
		authClient.Timeout = httpClient.Timeout
	}

	client, err := jira.NewClient(authClient, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to create jira client: %w", err)
	}

	logging.Info("jira configuration",
		"url", cfg.URL,
		"username", cfg.Username,
		"token", logging.MaskSensitive(cfg.Token))

	return &Client{
		client:  client,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		jql:     cfg.JQL,
	}, nil
}

// DetailURL returns the web page of the issue with numeric id.
func (c *Client) DetailURL(id int) string {
	return fmt.Sprintf("%s/secure/ViewIssue.jspa?id=%d", c.baseURL, id)
}

// Fetch runs the configured JQL query across all result pages and returns
// the issues as a bug list document.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	if c.client == nil {
		return nil, fmt.Errorf("JIRA client not initialized")
	}

	var bugs []models.Bug
	startAt := 0
	for {
		issues, resp, err := c.client.Issue.SearchWithContext(ctx, c.jql, &jira.SearchOptions{
			StartAt:    startAt,
			MaxResults: searchPageSize,
			Fields:     searchFields,
		})
		if err != nil {
			status := 0
			if resp != nil {
				status = resp.StatusCode
			}
			logging.Error("failed to search jira issues", "error", err, "status_code", status)
			return nil, fmt.Errorf("failed to search JIRA issues: %w (status: %d)", err, status)
		}

		for _, issue := range issues {
			bug, err := toBug(issue)
			if err != nil {
				logging.Warn("skipping jira issue", "key", issue.Key, "error", err)
				continue
			}
			bugs = append(bugs, bug)
		}

		startAt += len(issues)
		if len(issues) == 0 || startAt >= resp.Total {
			break
		}
	}

	logging.Info("fetched jira issues", "count", len(bugs), "jql", c.jql)

	return models.Encode(models.Payload{Bugs: bugs})
}

// toBug converts a JIRA issue into the shared bug record. Issues whose id is
// not numeric cannot be linked and are rejected.
func toBug(issue jira.Issue) (models.Bug, error) {
	id, err := strconv.Atoi(issue.ID)
	if err != nil {
		return models.Bug{}, fmt.Errorf("non-numeric issue id %q", issue.ID)
	}

	bug := models.Bug{ID: id}
	fields := issue.Fields
	if fields == nil {
		return bug, nil
	}

	bug.Summary = fields.Summary
	bug.Keywords = fields.Labels
	bug.Product = fields.Project.Key
	bug.CreationTime = time.Time(fields.Created)
	bug.LastChangeTime = time.Time(fields.Updated)
	bug.IsOpen = true

	if fields.Status != nil {
		bug.Status = fields.Status.Name
		bug.IsOpen = fields.Status.StatusCategory.Key != "done"
	}
	if fields.Resolution != nil {
		bug.Resolution = fields.Resolution.Name
	}
	if len(fields.Components) > 0 && fields.Components[0] != nil {
		bug.Component = fields.Components[0].Name
	}
	if fields.Creator != nil {
		bug.Creator = fields.Creator.DisplayName
		bug.CreatorDetail = &models.CreatorDetail{
			Name:     fields.Creator.Name,
			RealName: fields.Creator.DisplayName,
			Email:    fields.Creator.EmailAddress,
		}
	}

	return bug, nil
}
