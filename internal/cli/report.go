package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/vulnforge/internal/remediation"
	"github.com/ppiankov/vulnforge/internal/reporter"
)

func newReportCmd() *cobra.Command {
	var (
		name        string
		format      string
		withSummary bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the latest (or a named) vulnerability report",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			path, err := reporter.Find(s.ReportsDirectory, name)
			if err != nil {
				return err
			}
			records, err := reporter.Load(path)
			if err != nil {
				return err
			}
			rows := reporter.Flatten(records)

			out := cmd.OutOrStdout()
			switch format {
			case "text":
				reporter.NewTextReporter(out, isTerminal()).PrintTable(path, rows)
			case "json":
				return reporter.WriteJSON(out, rows)
			case "sarif":
				return reporter.WriteSARIF(out, rows)
			default:
				return fmt.Errorf("unknown format %q (want text, json or sarif)", format)
			}

			if withSummary {
				if sp, ok := remediation.SummaryPath(s.SummaryDirectory, filepath.Base(path)); ok {
					data, err := os.ReadFile(sp)
					if err != nil {
						return fmt.Errorf("read summary: %w", err)
					}
					fmt.Fprintf(out, "\nRemediation summary:\n\n%s\n", data)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "report file name (default: latest)")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json, sarif")
	cmd.Flags().BoolVar(&withSummary, "summary", false, "also print the remediation summary when one exists")
	return cmd
}

func newReportsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reports",
		Short: "List vulnerability reports, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			list, err := reporter.List(s.ReportsDirectory)
			if err != nil {
				return err
			}
			reporter.NewTextReporter(cmd.OutOrStdout(), isTerminal()).PrintReports(list)
			return nil
		},
	}
}
