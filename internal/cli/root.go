package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version and Commit are set via LDFLAGS at build time.
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var (
	verbose    bool
	configFile string
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vulnforge",
		Short: "LLM-assisted vulnerability scanner for public repositories",
		Long:  "vulnforge clones a public repository, extracts its code files, asks a text-completion provider to review each one, and writes a timestamped vulnerability report with a remediation summary.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&configFile, "config", "config.yaml", "path to config file")

	root.AddCommand(newRunCmd())
	root.AddCommand(newExtractCmd())
	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newRemediateCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newReportsCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newHistoryCmd())
	root.AddCommand(newVersionCmd())

	return root
}
