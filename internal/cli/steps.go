package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ppiankov/vulnforge/internal/reporter"
)

func newExtractCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "extract <repo-url>",
		Short: "Clone a repository and extract its code files",
		Long:  "Extract validates and shallow-clones the repository, then copies allow-listed code files and the manifest into the extraction root. The root is left in place for a later analyze.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("out") {
				s.OutputFilesDirectory = outDir
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			res, err := newExtractor(s).Extract(ctx, args[0], s.OutputFilesDirectory)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Code files extracted to: %s\n", res.Root)
			fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d code files (%s).\n", res.Count, humanize.Bytes(uint64(res.Bytes)))
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "", "extraction root (overrides output_files_directory)")
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	var (
		provider string
		maxFiles int
	)

	cmd := &cobra.Command{
		Use:   "analyze [root]",
		Short: "Analyze an extraction root and write a report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("max-files") {
				if err := applyMaxFiles(s, maxFiles); err != nil {
					return err
				}
			}
			root := s.OutputFilesDirectory
			if len(args) == 1 {
				root = args[0]
			}

			client, err := newClient(s, provider)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			textRep := reporter.NewTextReporter(cmd.OutOrStdout(), isTerminal())
			path, err := newAnalyzer(s, client, textRep.PrintProgress).Analyze(ctx, root)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Vulnerability report saved to: %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "provider profile to use (default from config)")
	cmd.Flags().IntVar(&maxFiles, "max-files", 0, "analyze at most this many files (overrides max_num_files)")
	return cmd
}

func newRemediateCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "remediate [report]",
		Short: "Write a remediation summary for a report (latest by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			var reportPath string
			if len(args) == 1 {
				reportPath = args[0]
			} else if reportPath, err = reporter.Latest(s.ReportsDirectory); err != nil {
				return err
			}

			client, err := newClient(s, provider)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			path, err := newRemediator(s, client).Generate(ctx, reportPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Remediation summary saved to: %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "provider profile to use (default from config)")
	return cmd
}
