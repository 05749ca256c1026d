package cli

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/ppiankov/vulnforge/internal/analyze"
	"github.com/ppiankov/vulnforge/internal/config"
	"github.com/ppiankov/vulnforge/internal/extract"
	"github.com/ppiankov/vulnforge/internal/llm"
	"github.com/ppiankov/vulnforge/internal/remediation"
)

func loadSettings() (*config.Settings, error) {
	s, err := config.LoadSettings(configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return s, nil
}

// newClient builds the completion client for the named provider, falling
// back to the configured default when name is empty.
func newClient(s *config.Settings, name string) (llm.Client, error) {
	if name == "" {
		name = s.Provider
	}
	profile, err := s.ProviderProfile(name)
	if err != nil {
		return nil, err
	}
	return llm.New(name, profile)
}

func newExtractor(s *config.Settings) *extract.Extractor {
	return extract.New(extract.NewGitClient(), s.AllowedHosts)
}

func newAnalyzer(s *config.Settings, client llm.Client, observer func(analyze.Progress)) *analyze.Analyzer {
	return analyze.New(client, analyze.Options{
		ReportsDir: s.ReportsDirectory,
		MaxFiles:   s.MaxFiles(),
		Observer:   observer,
	})
}

func newRemediator(s *config.Settings, client llm.Client) *remediation.Generator {
	return remediation.New(client, s.SummaryDirectory)
}

// applyMaxFiles overrides max_num_files from the --max-files flag.
func applyMaxFiles(s *config.Settings, n int) error {
	if n < 1 {
		return &config.ValidationError{Key: "max_num_files", Reason: "must be a positive integer"}
	}
	s.MaxNumFiles = &n
	return nil
}

// isTerminal checks if stdout is a terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
