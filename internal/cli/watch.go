package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ppiankov/vulnforge/internal/reporter"
)

func newWatchCmd() *cobra.Command {
	var poll bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print each new vulnerability report as it appears",
		Long:  "Watch monitors the reports directory and prints the findings table of every report written after it starts. Existing reports are not printed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			out := cmd.OutOrStdout()
			textRep := reporter.NewTextReporter(out, isTerminal())
			w := reporter.NewWatcher(s.ReportsDirectory, func(path string) {
				records, err := reporter.Load(path)
				if err != nil {
					slog.Warn("cannot load report", "path", path, "error", err)
					return
				}
				textRep.PrintTable(path, reporter.Flatten(records))
			})
			if poll {
				w.WithPolling(0)
			}

			fmt.Fprintf(out, "Watching %s for new reports (Ctrl-C to stop)\n", s.ReportsDirectory)
			return w.Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&poll, "poll", false, "poll the directory instead of using filesystem events")
	return cmd
}
