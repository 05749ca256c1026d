package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/vulnforge/internal/api"
	"github.com/ppiankov/vulnforge/internal/pipeline"
	"github.com/ppiankov/vulnforge/internal/proxy"
)

func newServeCmd() *cobra.Command {
	var (
		listen   string
		provider string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pipeline and its reports over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			addr := s.ServeListen()
			if cmd.Flags().Changed("listen") {
				addr = listen
			}

			stopProxy, err := proxy.Start(s.Proxy)
			if err != nil {
				return err
			}
			defer stopProxy()

			client, err := newClient(s, provider)
			if err != nil {
				return err
			}
			orch := pipeline.New(newExtractor(s), newAnalyzer(s, client, nil), newRemediator(s, client), s.OutputFilesDirectory)

			srv := api.New(api.Config{
				Listen:     addr,
				ReportsDir: s.ReportsDirectory,
				SummaryDir: s.SummaryDirectory,
			}, &ledgerRunner{orch: orch, historyDB: s.HistoryDB})

			bound, err := srv.Start()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", bound)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			<-ctx.Done()

			return srv.Stop()
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides serve.listen)")
	cmd.Flags().StringVar(&provider, "provider", "", "provider profile to use (default from config)")
	return cmd
}

// ledgerRunner records every HTTP-triggered run in the history ledger.
type ledgerRunner struct {
	orch      *pipeline.Orchestrator
	historyDB string
}

func (r *ledgerRunner) Run(ctx context.Context, ref string) (*pipeline.Result, error) {
	run, finish := recordRunAt(ctx, r.historyDB, ref)
	res, err := r.orch.Run(ctx, ref)
	fillRun(run, res)
	finish(err)
	return res, err
}
