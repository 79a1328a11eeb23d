package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/danielolaszy/bugtable/internal/cache"
	"github.com/danielolaszy/bugtable/internal/config"
	"github.com/danielolaszy/bugtable/internal/loader"
	"github.com/danielolaszy/bugtable/internal/logging"
	"github.com/danielolaszy/bugtable/internal/source"
	"github.com/danielolaszy/bugtable/internal/table"
)

// app bundles everything a surface needs: the configuration, the open cache
// backend, the loader over it and the table renderer.
type app struct {
	cfg     *config.Config
	backend cache.Backend
	loader  *loader.Loader
	table   *table.Table
}

// loadConfig reads the configuration and applies its log level.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.v, opts.configFile)
	if err != nil {
		return nil, err
	}
	logging.SetupLogger(os.Stderr, logging.LogLevel(cfg.Log.Level))
	return cfg, nil
}

// openCache loads the configuration and opens the configured cache backend.
func openCache(ctx context.Context, opts *rootOptions) (*config.Config, cache.Backend, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}

	if err := config.ValidateCacheConfig(cfg); err != nil {
		return nil, nil, err
	}

	backend, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache: %w", err)
	}

	return cfg, backend, nil
}

// newApp loads the configuration and wires the cache, source and loader.
func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, backend, err := openCache(ctx, opts)
	if err != nil {
		return nil, err
	}

	src, err := source.New(cfg)
	if err != nil {
		backend.Close()
		return nil, err
	}

	logging.Debug("configured",
		"source", cfg.Source,
		"cache_backend", cfg.Cache.Backend,
		"max_age", cfg.Cache.MaxAge,
		"github_token", logging.MaskSensitive(cfg.GitHub.Token),
		"jira_token", logging.MaskSensitive(cfg.Jira.Token))

	return &app{
		cfg:     cfg,
		backend: backend,
		loader:  loader.New(backend, src, loader.WithMaxAge(cfg.Cache.MaxAge)),
		table:   table.New(cfg.Title, src.DetailURL),
	}, nil
}

func (a *app) Close() error {
	return a.backend.Close()
}

// initialState builds the view state from the --all, --sort and --desc flags.
func initialState(cmd *cobra.Command) (table.State, error) {
	state := table.NewState()

	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return state, err
	}
	if all {
		state = table.Update(state, table.SetOpenOnly{Value: false})
	}

	column, err := cmd.Flags().GetString("sort")
	if err != nil {
		return state, err
	}
	if column == "" {
		return state, nil
	}

	desc, err := cmd.Flags().GetBool("desc")
	if err != nil {
		return state, err
	}

	state = table.Update(state, table.SortBy{Column: column})
	if !state.Sort.Active() {
		return state, fmt.Errorf("unknown sort column %q, expected one of %v", column, columnKeys())
	}
	if desc {
		state = table.Update(state, table.SortBy{Column: column})
	}
	return state, nil
}

func addViewFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("all", false, "include closed bugs")
	cmd.Flags().String("sort", "", fmt.Sprintf("sort column, one of %v", columnKeys()))
	cmd.Flags().Bool("desc", false, "sort descending")
	cmd.Flags().Bool("no-links", false, "never emit terminal hyperlinks")
}

func columnKeys() []string {
	columns := table.Columns()
	keys := make([]string, len(columns))
	for i, c := range columns {
		keys[i] = c.Key
	}
	return keys
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// hyperlinks reports whether ID cells should carry terminal hyperlinks: only
// when output goes to a terminal and --no-links is not set.
func hyperlinks(cmd *cobra.Command) (bool, error) {
	noLinks, err := cmd.Flags().GetBool("no-links")
	if err != nil {
		return false, err
	}
	return !noLinks && isTerminal(cmd.OutOrStdout()), nil
}
