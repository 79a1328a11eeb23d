// Package config provides centralized configuration management for the application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported values for the source and cache.backend keys.
const (
	SourceBugzilla = "bugzilla"
	SourceGitHub   = "github"
	SourceJira     = "jira"

	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendS3     = "s3"
)

// DefaultFields is the field selection requested from Bugzilla.
var DefaultFields = []string{
	"id", "summary", "status", "resolution", "is_open",
	"dupe_of", "keywords", "whiteboard", "product",
	"component", "creator", "creator_detail", "creation_time",
	"last_change_time",
}

// Config holds all configuration parameters for the application.
type Config struct {
	// Source selects the remote tracker: bugzilla, github or jira
	Source string

	// Title is shown in front of the open/total counts
	Title string

	Bugzilla BugzillaConfig
	GitHub   GitHubConfig
	Jira     JiraConfig
	Cache    CacheConfig
	HTTP     HTTPConfig
	Serve    ServeConfig
	Log      LogConfig
}

// BugzillaConfig holds Bugzilla REST specific configuration.
type BugzillaConfig struct {
	URL      string
	Keywords string
	Fields   []string

	// ShowURL is the issue-detail page template, with one %d verb for the bug id
	ShowURL string
}

// GitHubConfig holds GitHub specific configuration.
type GitHubConfig struct {
	Token      string
	Domain     string
	Repository string
	Labels     []string
}

// JiraConfig holds JIRA specific configuration.
type JiraConfig struct {
	URL      string
	Username string
	Token    string
	JQL      string
}

// CacheConfig selects and configures the local cache backend.
type CacheConfig struct {
	Backend string
	Path    string
	Bucket  string
	Prefix  string

	// MaxAge is how old the cached payload may get before a refresh is triggered
	MaxAge time.Duration
}

// HTTPConfig holds settings for outgoing requests.
type HTTPConfig struct {
	Timeout time.Duration
}

// ServeConfig holds settings for the web page.
type ServeConfig struct {
	Addr string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string
}

// New returns a viper instance with defaults and environment bindings applied.
// Environment variables use the BUGTABLE_ prefix with dots replaced by
// underscores (BUGTABLE_CACHE_BACKEND), plus the unprefixed token variables.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("bugtable")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("source", SourceBugzilla)
	v.SetDefault("title", "DevAdvocacy Bugs")
	v.SetDefault("bugzilla.url", "https://bugzilla.mozilla.org/rest")
	v.SetDefault("bugzilla.keywords", "DevAdvocacy")
	v.SetDefault("bugzilla.fields", DefaultFields)
	v.SetDefault("bugzilla.show_url", "https://bugzilla.mozilla.org/show_bug.cgi?id=%d")
	v.SetDefault("github.domain", "github.com")
	v.SetDefault("cache.backend", BackendSQLite)
	v.SetDefault("cache.path", defaultCacheDir())
	v.SetDefault("cache.prefix", "bugtable/")
	v.SetDefault("cache.max_age", 24*time.Hour)
	v.SetDefault("http.timeout", 30*time.Second)
	v.SetDefault("serve.addr", "127.0.0.1:8080")
	v.SetDefault("log.level", "info")

	// Map the conventional token variables
	v.BindEnv("github.token", "BUGTABLE_GITHUB_TOKEN", "GITHUB_TOKEN")
	v.BindEnv("jira.url", "BUGTABLE_JIRA_URL", "JIRA_URL")
	v.BindEnv("jira.username", "BUGTABLE_JIRA_USERNAME", "JIRA_USERNAME")
	v.BindEnv("jira.token", "BUGTABLE_JIRA_TOKEN", "JIRA_TOKEN")
	v.BindEnv("log.level", "BUGTABLE_LOG_LEVEL", "LOG_LEVEL")

	return v
}

// LoadConfig loads configuration from environment variables and defaults only.
func LoadConfig() (*Config, error) {
	return Load(New(), "")
}

// Load reads the optional config file at path into v and builds a validated Config.
// An empty path looks for .bugtable.yaml in the home directory and tolerates its absence.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName(".bugtable")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	config := &Config{
		Source: strings.ToLower(v.GetString("source")),
		Title:  v.GetString("title"),
		Bugzilla: BugzillaConfig{
			URL:      strings.TrimRight(v.GetString("bugzilla.url"), "/"),
			Keywords: v.GetString("bugzilla.keywords"),
			Fields:   v.GetStringSlice("bugzilla.fields"),
			ShowURL:  v.GetString("bugzilla.show_url"),
		},
		GitHub: GitHubConfig{
			Token:      v.GetString("github.token"),
			Domain:     v.GetString("github.domain"),
			Repository: v.GetString("github.repository"),
			Labels:     v.GetStringSlice("github.labels"),
		},
		Jira: JiraConfig{
			URL:      v.GetString("jira.url"),
			Username: v.GetString("jira.username"),
			Token:    v.GetString("jira.token"),
			JQL:      v.GetString("jira.jql"),
		},
		Cache: CacheConfig{
			Backend: strings.ToLower(v.GetString("cache.backend")),
			Path:    v.GetString("cache.path"),
			Bucket:  v.GetString("cache.bucket"),
			Prefix:  v.GetString("cache.prefix"),
			MaxAge:  v.GetDuration("cache.max_age"),
		},
		HTTP: HTTPConfig{
			Timeout: v.GetDuration("http.timeout"),
		},
		Serve: ServeConfig{
			Addr: v.GetString("serve.addr"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
		},
	}

	if config.GitHub.Domain == "" {
		config.GitHub.Domain = "github.com"
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// validateConfig checks the settings every command depends on. Source and
// backend specific settings are checked by the Validate* helpers once the
// selection is known.
func validateConfig(config *Config) error {
	sources := []string{SourceBugzilla, SourceGitHub, SourceJira}
	if !slices.Contains(sources, config.Source) {
		return fmt.Errorf("unknown source %q, expected one of %v", config.Source, sources)
	}

	backends := []string{BackendMemory, BackendSQLite, BackendFile, BackendS3}
	if !slices.Contains(backends, config.Cache.Backend) {
		return fmt.Errorf("unknown cache backend %q, expected one of %v", config.Cache.Backend, backends)
	}

	if config.Cache.MaxAge <= 0 {
		return fmt.Errorf("cache.max_age must be positive, got %s", config.Cache.MaxAge)
	}

	return nil
}

// ValidateBugzillaConfig validates Bugzilla-specific configuration.
func ValidateBugzillaConfig(config *Config) error {
	var missingVars []string

	if config.Bugzilla.URL == "" {
		missingVars = append(missingVars, "bugzilla.url")
	}
	if config.Bugzilla.Keywords == "" {
		missingVars = append(missingVars, "bugzilla.keywords")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required configuration: %v", missingVars)
	}

	if strings.Count(config.Bugzilla.ShowURL, "%d") != 1 {
		return fmt.Errorf("bugzilla.show_url must contain exactly one %%d verb: %q", config.Bugzilla.ShowURL)
	}

	return nil
}

// ValidateGitHubConfig validates GitHub-specific configuration.
func ValidateGitHubConfig(config *Config) error {
	var missingVars []string

	if config.GitHub.Token == "" {
		missingVars = append(missingVars, "GITHUB_TOKEN")
	}
	if config.GitHub.Repository == "" {
		missingVars = append(missingVars, "github.repository")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required configuration: %v", missingVars)
	}

	if parts := strings.Split(config.GitHub.Repository, "/"); len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("invalid repository format: %s, expected format: owner/repo", config.GitHub.Repository)
	}

	return nil
}

// ValidateJiraConfig validates JIRA-specific configuration.
func ValidateJiraConfig(config *Config) error {
	var missingVars []string

	if config.Jira.URL == "" {
		missingVars = append(missingVars, "JIRA_URL")
	}
	if config.Jira.Username == "" {
		missingVars = append(missingVars, "JIRA_USERNAME")
	}
	if config.Jira.Token == "" {
		missingVars = append(missingVars, "JIRA_TOKEN")
	}
	if config.Jira.JQL == "" {
		missingVars = append(missingVars, "jira.jql")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required configuration: %v", missingVars)
	}

	return nil
}

// ValidateCacheConfig validates the settings of the selected cache backend.
func ValidateCacheConfig(config *Config) error {
	switch config.Cache.Backend {
	case BackendSQLite, BackendFile:
		if config.Cache.Path == "" {
			return fmt.Errorf("missing required configuration: [cache.path]")
		}
	case BackendS3:
		if config.Cache.Bucket == "" {
			return fmt.Errorf("missing required configuration: [cache.bucket]")
		}
	}
	return nil
}

// LogFile returns the path the interactive UI writes its log to.
func (c *Config) LogFile() string {
	dir := c.Cache.Path
	if dir == "" {
		dir = defaultCacheDir()
	}
	return filepath.Join(dir, "bugtable.log")
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "bugtable")
	}
	return ".bugtable"
}
