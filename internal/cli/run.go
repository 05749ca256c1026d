package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ppiankov/vulnforge/internal/analyze"
	"github.com/ppiankov/vulnforge/internal/config"
	"github.com/ppiankov/vulnforge/internal/extract"
	"github.com/ppiankov/vulnforge/internal/history"
	"github.com/ppiankov/vulnforge/internal/llm"
	"github.com/ppiankov/vulnforge/internal/pipeline"
	"github.com/ppiankov/vulnforge/internal/proxy"
	"github.com/ppiankov/vulnforge/internal/reporter"
)

func newRunCmd() *cobra.Command {
	var (
		provider  string
		maxFiles  int
		tuiMode   string
		noHistory bool
	)

	cmd := &cobra.Command{
		Use:   "run [repo-url]",
		Short: "Extract, analyze and summarize a public repository",
		Long:  "Run clones the repository, analyzes every code file, writes a timestamped report and remediation summary, and prints the findings table. Without an argument it prompts for the URL.",
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
			if tuiMode != "auto" && tuiMode != "full" && tuiMode != "off" {
				return fmt.Errorf("invalid --tui %q (want auto, full or off)", tuiMode)
			}

			out := cmd.OutOrStdout()
			var repoURL string
			if len(args) == 1 {
				repoURL = args[0]
			} else {
				repoURL, err = promptRepoURL(cmd.InOrStdin(), out)
				if err != nil {
					return err
				}
			}
			if repoURL == "" {
				fmt.Fprintln(out, "No repository URL provided.")
				return nil
			}

			return runPipeline(out, s, repoURL, runOptions{
				provider:  provider,
				tuiMode:   tuiMode,
				noHistory: noHistory,
			})
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "provider profile to use (default from config)")
	cmd.Flags().IntVar(&maxFiles, "max-files", 0, "analyze at most this many files (overrides max_num_files)")
	cmd.Flags().StringVar(&tuiMode, "tui", "auto", "display mode: full (interactive TUI), off (progress lines), auto (detect TTY)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "do not record this run in the history ledger")

	return cmd
}

type runOptions struct {
	provider  string
	tuiMode   string
	noHistory bool
}

func runPipeline(out io.Writer, s *config.Settings, repoURL string, opts runOptions) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	stopProxy, err := proxy.Start(s.Proxy)
	if err != nil {
		return err
	}
	defer stopProxy()

	client, err := newClient(s, opts.provider)
	if err != nil {
		return err
	}
	slog.Debug("using provider", "name", client.Name())

	run, finish := recordRun(ctx, s, repoURL, opts.noHistory)

	useTUI := opts.tuiMode == "full" || (opts.tuiMode == "auto" && isTerminal() && stdinIsTerminal())
	var res *pipeline.Result
	if useTUI {
		res, err = runWithTUI(ctx, cancel, s, client, repoURL)
	} else {
		res, err = runWithLines(ctx, out, s, client, repoURL)
	}
	fillRun(run, res)
	finish(err)
	if err != nil {
		return err
	}

	return printRunResult(out, res)
}

// recordRun opens the history ledger and records the start of a run. The
// returned finish func is always safe to call.
func recordRun(ctx context.Context, s *config.Settings, repoURL string, disabled bool) (*history.Run, func(error)) {
	if disabled {
		return nil, func(error) {}
	}
	return recordRunAt(ctx, s.HistoryDB, repoURL)
}

func recordRunAt(ctx context.Context, dbPath, repoURL string) (*history.Run, func(error)) {
	noop := func(error) {}
	if dbPath == "" {
		return nil, noop
	}
	store, err := history.Open(ctx, dbPath)
	if err != nil {
		slog.Warn("history unavailable", "error", err)
		return nil, noop
	}
	run, err := store.Start(ctx, repoURL)
	if err != nil {
		slog.Warn("history unavailable", "error", err)
		_ = store.Close()
		return nil, noop
	}
	return run, func(runErr error) {
		// the run context may already be cancelled
		if err := store.Finish(context.Background(), run, runErr); err != nil {
			slog.Warn("record run", "error", err)
		}
		_ = store.Close()
	}
}

func fillRun(run *history.Run, res *pipeline.Result) {
	if run == nil || res == nil {
		return
	}
	run.Extracted = res.Extracted
	run.ReportPath = res.ReportPath
	run.SummaryPath = res.SummaryPath
}

func runWithLines(ctx context.Context, out io.Writer, s *config.Settings, client llm.Client, repoURL string) (*pipeline.Result, error) {
	textRep := reporter.NewTextReporter(out, isTerminal())
	textRep.PrintHeader(repoURL)

	analyzer := newAnalyzer(s, client, textRep.PrintProgress)
	orch := pipeline.New(newExtractor(s), analyzer, newRemediator(s, client), s.OutputFilesDirectory).
		WithHooks(pipeline.Hooks{
			Extracted: func(r *extract.Result) { textRep.PrintExtracted(r.Count, r.Bytes, r.Root) },
		})
	return orch.Run(ctx, repoURL)
}

func runWithTUI(ctx context.Context, cancel context.CancelFunc, s *config.Settings, client llm.Client, repoURL string) (*pipeline.Result, error) {
	model := reporter.NewProgressModel(repoURL, cancel)
	prog := tea.NewProgram(model, tea.WithAltScreen())

	analyzer := newAnalyzer(s, client, func(p analyze.Progress) {
		prog.Send(reporter.ProgressMsg(p))
	})
	orch := pipeline.New(newExtractor(s), analyzer, newRemediator(s, client), s.OutputFilesDirectory).
		WithHooks(pipeline.Hooks{
			Stage: func(stage string) { prog.Send(reporter.StageMsg(stage)) },
		})

	type outcome struct {
		res *pipeline.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := orch.Run(ctx, repoURL)
		prog.Send(reporter.DoneMsg{Err: err})
		done <- outcome{res, err}
	}()

	if _, err := prog.Run(); err != nil {
		cancel()
		slog.Warn("tui exited", "error", err)
	}
	o := <-done
	return o.res, o.err
}

func printRunResult(out io.Writer, res *pipeline.Result) error {
	records, err := reporter.Load(res.ReportPath)
	if err != nil {
		return err
	}
	files, findings, failed := reporter.Tally(records)

	textRep := reporter.NewTextReporter(out, isTerminal())
	textRep.PrintSummary(reporter.Summary{
		RepoURL:     res.RepoURL,
		Extracted:   res.Extracted,
		Files:       files,
		Findings:    findings,
		Failed:      failed,
		ReportPath:  res.ReportPath,
		SummaryPath: res.SummaryPath,
		Duration:    res.Duration,
	})
	fmt.Fprintln(out, "\nVulnerabilities Table:")
	fmt.Fprintln(out)
	textRep.PrintTable("", reporter.Flatten(records))
	return nil
}
