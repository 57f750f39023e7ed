package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/johns/vibe-diary/internal/follow"
	"github.com/johns/vibe-diary/internal/report"
)

func newRecentCmd(a *app) *cobra.Command {
	var (
		limit    int
		followDB bool
	)

	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Print the most recent diary entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("limit") {
				limit = a.cfg.RecentLimit
			}
			return a.showRecent(cmd, limit, false, followDB)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "number of entries to print")
	cmd.Flags().BoolVarP(&followDB, "follow", "f", false, "keep watching the diary and reprint on change")

	return cmd
}

// showRecent prints the newest limit sessions, most recent first.
func (a *app) showRecent(cmd *cobra.Command, limit int, dryRun, followDB bool) error {
	out := cmd.OutOrStdout()
	if dryRun {
		_, err := fmt.Fprintln(out, "Recent entries not available in test mode")
		return err
	}
	if limit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", limit)
	}

	logger := a.logger(cmd)
	st, err := a.openStore(logger)
	if err != nil {
		return err
	}
	defer st.Close()

	render := func() error {
		sessions, err := st.Recent(limit)
		if err != nil {
			return err
		}
		return report.WriteRecent(out, sessions)
	}

	if err := render(); err != nil {
		return err
	}
	if !followDB {
		return nil
	}

	f, err := follow.New(st.Path(), time.Duration(a.cfg.Follow.DebounceMS)*time.Millisecond, logger)
	if err != nil {
		return err
	}
	defer f.Close()

	logger.Printf("following %s", st.Path())
	return f.Run(cmd.Context(), render)
}
