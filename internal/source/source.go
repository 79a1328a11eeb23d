// Package source selects the remote tracker that bug lists are fetched from.
package source

import (
	"context"
	"fmt"
	"net/http"

	"github.com/danielolaszy/bugtable/internal/bugzilla"
	"github.com/danielolaszy/bugtable/internal/config"
	"github.com/danielolaszy/bugtable/internal/github"
	"github.com/danielolaszy/bugtable/internal/jira"
)

// Source fetches the bug list document and knows where each bug's detail page lives.
type Source interface {
	// Fetch returns a {"bugs": [...]} document.
	Fetch(ctx context.Context) ([]byte, error)

	// DetailURL returns the issue-detail page for a bug id.
	DetailURL(id int) string
}

// New builds the source named by cfg.Source.
func New(cfg *config.Config) (Source, error) {
	httpClient := &http.Client{Timeout: cfg.HTTP.Timeout}

	switch cfg.Source {
	case config.SourceBugzilla:
		if err := config.ValidateBugzillaConfig(cfg); err != nil {
			return nil, err
		}
		return bugzilla.NewClient(cfg.Bugzilla, httpClient), nil

	case config.SourceGitHub:
		if err := config.ValidateGitHubConfig(cfg); err != nil {
			return nil, err
		}
		client, err := github.NewClient(cfg.GitHub, httpClient)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize github client: %w", err)
		}
		return client, nil

	case config.SourceJira:
		client, err := jira.NewClient(cfg.Jira, httpClient)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize jira client: %w", err)
		}
		return client, nil

	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}
