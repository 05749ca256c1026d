package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ppiankov/vulnforge/internal/history"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded pipeline runs, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			ctx := context.Background()
			store, err := history.Open(ctx, s.HistoryDB)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.List(ctx, limit)
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to show (0 = all)")
	return cmd
}

func printHistory(w io.Writer, runs []history.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "no recorded runs")
		return
	}
	for _, r := range runs {
		took := "-"
		if !r.FinishedAt.IsZero() {
			took = r.FinishedAt.Sub(r.StartedAt).Truncate(time.Second).String()
		}
		fmt.Fprintf(w, "%s  %-9s  %-14s  %6s  %s\n",
			r.ID[:8], r.Status, humanize.Time(r.StartedAt), took, r.RepoURL)
		if r.ReportPath != "" {
			fmt.Fprintf(w, "          report: %s\n", r.ReportPath)
		}
		if r.Error != "" {
			fmt.Fprintf(w, "          error:  %s\n", r.Error)
		}
	}
}
