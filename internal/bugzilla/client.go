// Package bugzilla fetches bug lists from a Bugzilla REST endpoint.
package bugzilla

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/go-querystring/query"

	"github.com/danielolaszy/bugtable/internal/config"
	"github.com/danielolaszy/bugtable/internal/logging"
	"github.com/danielolaszy/bugtable/pkg/models"
)

// maxBodyBytes bounds the size of a search response.
const maxBodyBytes = 64 << 20

// StatusError is returned when Bugzilla answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bugzilla request %s failed: %s", e.URL, e.Status)
}

// searchOptions is encoded into the /bug query string.
type searchOptions struct {
	Keywords      string   `url:"keywords"`
	IncludeFields []string `url:"include_fields,comma,omitempty"`
}

// Client handles interactions with the Bugzilla REST API
type Client struct {
	httpClient *http.Client
	baseURL    string
	keywords   string
	fields     []string
	showURL    string
}

// NewClient creates a Bugzilla client. A nil httpClient uses http.DefaultClient.
func NewClient(cfg config.BugzillaConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		keywords:   cfg.Keywords,
		fields:     cfg.Fields,
		showURL:    cfg.ShowURL,
	}
}

// SearchURL returns the bug search URL for the configured keyword and fields.
func (c *Client) SearchURL() (string, error) {
	values, err := query.Values(searchOptions{
		Keywords:      c.keywords,
		IncludeFields: c.fields,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode search options: %w", err)
	}
	return c.baseURL + "/bug?" + values.Encode(), nil
}

// DetailURL returns the issue-detail page for id.
func (c *Client) DetailURL(id int) string {
	return fmt.Sprintf(c.showURL, id)
}

// Fetch runs the search and returns the response body unchanged once it has
// been checked to be a bug list document.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	searchURL, err := c.SearchURL()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	logging.Debug("fetching bugzilla bugs", "url", searchURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bugs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, URL: searchURL}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	payload, err := models.Decode(body)
	if err != nil {
		return nil, err
	}

	logging.Info("fetched bugzilla bugs",
		"count", len(payload.Bugs),
		"keywords", c.keywords)

	return body, nil
}
