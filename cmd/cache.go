package cmd

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/danielolaszy/bugtable/internal/cache"
	"github.com/danielolaszy/bugtable/internal/loader"
	"github.com/danielolaszy/bugtable/pkg/models"
)

func newCacheCmd(opts *rootOptions) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the local bug cache",
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show what is cached and whether it is fresh",
		Long: `Show the cache backend, when the cached bug list was fetched and whether
the next run would use it as is, show it while refreshing, or fetch first.
Nothing is fetched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, backend, err := openCache(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer backend.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Backend:  %s\n", cfg.Cache.Backend)
			fmt.Fprintf(out, "Max age:  %s\n", cfg.Cache.MaxAge)

			entry, found, err := cache.ReadEntry(cmd.Context(), backend)
			if err != nil {
				fmt.Fprintf(out, "Error:    %v\n", err)
			}
			if !found {
				fmt.Fprintln(out, "Cached:   nothing")
				fmt.Fprintf(out, "Next run: %s\n", loader.PlanFetch)
				return nil
			}

			payload, err := models.Decode(entry.Payload)
			if err != nil {
				fmt.Fprintf(out, "Cached:   unreadable (%v)\n", err)
				fmt.Fprintf(out, "Next run: %s\n", loader.PlanFetch)
				return nil
			}

			fmt.Fprintf(out, "Cached:   %d bugs, %d open (%s)\n",
				len(payload.Bugs), models.OpenCount(payload.Bugs), humanize.Bytes(uint64(len(entry.Payload))))
			if entry.FetchedAt.IsZero() {
				fmt.Fprintln(out, "Fetched:  unknown")
			} else {
				fmt.Fprintf(out, "Fetched:  %s (%s)\n",
					entry.FetchedAt.Local().Format(time.RFC3339), humanize.Time(entry.FetchedAt))
			}

			// Plan never fetches, so no source is needed
			start := loader.New(backend, nil, loader.WithMaxAge(cfg.Cache.MaxAge)).Plan(cmd.Context())
			fmt.Fprintf(out, "Next run: %s\n", start.Plan)
			return nil
		},
	}

	cacheCmd.AddCommand(statusCmd)
	return cacheCmd
}
