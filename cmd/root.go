// Package cmd provides the command-line interface for bugtable.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/danielolaszy/bugtable/internal/config"
)

// rootOptions is shared by every subcommand: the config file flag and the
// viper instance that flags are bound into.
type rootOptions struct {
	configFile string
	v          *viper.Viper
}

// NewRootCmd builds the bugtable command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{v: config.New()}

	rootCmd := &cobra.Command{
		Use:   "bugtable",
		Short: "Bugtable shows a tracker's bug list as a sortable table",
		Long: `Bugtable fetches a keyword-filtered bug list from Bugzilla (or GitHub issues,
or a Jira search), caches it locally and shows it as a table that can be
filtered to open bugs and sorted by any column.

A cached list younger than cache.max_age (24h by default) is shown without
contacting the tracker. An older one is shown immediately and refreshed.

Surfaces:
  bugtable list     print the table once
  bugtable tui      interactive terminal view
  bugtable serve    HTML page and JSON endpoint`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default is $HOME/.bugtable.yaml)")
	flags.String("source", "", "bug source: bugzilla, github or jira")
	flags.String("cache", "", "cache backend: sqlite, file, s3 or memory")
	flags.String("log-level", "", "log level: debug, info, warn or error")

	opts.v.BindPFlag("source", flags.Lookup("source"))
	opts.v.BindPFlag("cache.backend", flags.Lookup("cache"))
	opts.v.BindPFlag("log.level", flags.Lookup("log-level"))

	rootCmd.AddCommand(
		newListCmd(opts),
		newTUICmd(opts),
		newServeCmd(opts),
		newCacheCmd(opts),
	)

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
