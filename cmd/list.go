package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/danielolaszy/bugtable/internal/loader"
	"github.com/danielolaszy/bugtable/internal/termtable"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print the bug table",
		Long: `Print the bug table once and exit.

Fresh cached data is printed without contacting the tracker. Stale or missing
data is fetched first; if that fetch fails and a stale copy exists, the stale
copy is printed with a warning.

Example:
  bugtable list --all --sort creation_time --desc`,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := initialState(cmd)
			if err != nil {
				return err
			}
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}
			links, err := hyperlinks(cmd)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			start := a.loader.Plan(cmd.Context())
			snapshot := start.Cached
			if start.Plan.NeedsFetch() {
				fresh, err := a.loader.Refresh(cmd.Context())
				if err != nil {
					if start.Plan == loader.PlanFetch {
						return err
					}
					fetched := "an unknown time"
					if !snapshot.FetchedAt.IsZero() {
						fetched = humanize.Time(snapshot.FetchedAt)
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v; showing cached data from %s\n", err, fetched)
				} else {
					snapshot = fresh
				}
			}

			view := a.table.Render(snapshot.Bugs, state, time.Now())
			out := cmd.OutOrStdout()

			if asJSON {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(view)
			}

			renderOpts := termtable.DefaultOptions()
			renderOpts.Hyperlinks = links
			_, err = fmt.Fprintln(out, termtable.Render(view, renderOpts))
			return err
		},
	}

	addViewFlags(listCmd)
	listCmd.Flags().Bool("json", false, "print the rendered view as JSON")

	return listCmd
}
