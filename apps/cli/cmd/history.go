package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitreq/packages/history"
)

type historyFlags struct {
	db    string
	limit int
	prune time.Duration
}

func newHistoryCmd(a *app) *cobra.Command {
	f := &historyFlags{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded requests",
		Long: `List requests recorded with --history or the "history" config setting,
newest first.

Examples:
  hitreq history
  hitreq history --db sqlite://requests.db --limit 50
  hitreq history --prune 168h`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn := f.db
			if conn == "" {
				conn = a.cfg.History
			}
			if conn == "" {
				return usageErrorf("no history database: pass --db or set \"history\" in the config")
			}

			store, err := history.Open(conn)
			if err != nil {
				return withExit(ExitConfigError, err)
			}
			defer store.Close()

			if f.prune > 0 {
				n, err := store.Prune(cmd.Context(), time.Now().Add(-f.prune))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Pruned %d entries\n", n)
			}

			entries, err := store.Recent(cmd.Context(), f.limit)
			if err != nil {
				return err
			}
			a.formatter.FormatHistory(entries)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.db, "db", "", "History database (overrides config)")
	fs.IntVarP(&f.limit, "limit", "n", 20, "Entries to show (0 = all)")
	fs.DurationVar(&f.prune, "prune", 0, "Delete entries older than this before listing")
	return cmd
}
