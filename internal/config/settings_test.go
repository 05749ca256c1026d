package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadSettings_Valid(t *testing.T) {
	content := `
max_num_files: 5
output_files_directory: extracted
reports_directory: out/reports
summary_directory: out/summaries
provider: deepseek
providers:
  deepseek:
    type: chat
    base_url: https://api.deepseek.com
    model: deepseek-chat
    api_key: env:DEEPSEEK_API_KEY
    timeout: 2m
`
	path := writeTemp(t, content)
	s, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}

	if s.MaxFiles() != 5 {
		t.Errorf("max_num_files: got %d, want 5", s.MaxFiles())
	}
	if s.OutputFilesDirectory != "extracted" {
		t.Errorf("output_files_directory: got %q, want extracted", s.OutputFilesDirectory)
	}
	if s.ReportsDirectory != "out/reports" {
		t.Errorf("reports_directory: got %q", s.ReportsDirectory)
	}
	if s.SummaryDirectory != "out/summaries" {
		t.Errorf("summary_directory: got %q", s.SummaryDirectory)
	}

	p, err := s.ProviderProfile("")
	if err != nil {
		t.Fatal(err)
	}
	if p.Type != ProviderChat || p.Model != "deepseek-chat" {
		t.Errorf("provider: got %+v", p)
	}
	if p.Timeout != 2*time.Minute {
		t.Errorf("timeout: got %v, want 2m", p.Timeout)
	}
}

func TestLoadSettings_MissingFile(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if s.OutputFilesDirectory != DefaultOutputFilesDirectory {
		t.Errorf("output_files_directory: got %q, want %q", s.OutputFilesDirectory, DefaultOutputFilesDirectory)
	}
	if s.MaxFiles() != 0 {
		t.Errorf("max files: got %d, want 0 (unlimited)", s.MaxFiles())
	}
	if len(s.AllowedHosts) != 1 || s.AllowedHosts[0] != "github.com" {
		t.Errorf("allowed hosts: got %v", s.AllowedHosts)
	}
}

func TestLoadSettings_Partial(t *testing.T) {
	path := writeTemp(t, `max_num_files: 1`)
	s, err := LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.MaxFiles() != 1 {
		t.Errorf("max_num_files: got %d, want 1", s.MaxFiles())
	}
	if s.OutputFilesDirectory != DefaultOutputFilesDirectory {
		t.Errorf("output_files_directory: got %q, want default", s.OutputFilesDirectory)
	}
	if s.ReportsDirectory != DefaultReportsDirectory {
		t.Errorf("reports_directory: got %q, want default", s.ReportsDirectory)
	}
}

func TestLoadSettings_InvalidValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
		key     string
	}{
		{"zero max files", "max_num_files: 0", "max_num_files"},
		{"negative max files", "max_num_files: -3", "max_num_files"},
		{"empty output dir", `output_files_directory: ""`, "output_files_directory"},
		{"blank output dir", `output_files_directory: "   "`, "output_files_directory"},
		{"unknown provider type", "providers:\n  x:\n    type: carrier-pigeon", "providers.x.type"},
		{"command without command", "providers:\n  x:\n    type: command", "providers.x.command"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadSettings(writeTemp(t, tc.content))
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Key != tc.key {
				t.Errorf("key: got %q, want %q", verr.Key, tc.key)
			}
		})
	}
}

func TestLoadSettings_InvalidYAML(t *testing.T) {
	path := writeTemp(t, "max_num_files: [invalid\n")
	if _, err := LoadSettings(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoadSettings_NonIntegerMaxFiles(t *testing.T) {
	path := writeTemp(t, "max_num_files: lots\n")
	if _, err := LoadSettings(path); err == nil {
		t.Fatal("expected error for non-integer max_num_files")
	}
}

func TestProviderProfile_BuiltinOpenAI(t *testing.T) {
	s := Default()
	p, err := s.ProviderProfile("")
	if err != nil {
		t.Fatal(err)
	}
	if p.Type != ProviderResponses {
		t.Errorf("type: got %q, want %q", p.Type, ProviderResponses)
	}
	if p.APIKey != "env:OPENAI_API_KEY" {
		t.Errorf("api key ref: got %q", p.APIKey)
	}
}

func TestProviderProfile_Unknown(t *testing.T) {
	s := Default()
	if _, err := s.ProviderProfile("nope"); err == nil {
		t.Fatal("expected error for unconfigured provider")
	}
}

func TestServeListen(t *testing.T) {
	s := Default()
	if got := s.ServeListen(); got != DefaultServeListen {
		t.Errorf("default listen: got %q", got)
	}
	s.Serve = &ServeConfig{Listen: "127.0.0.1:9000"}
	if got := s.ServeListen(); got != "127.0.0.1:9000" {
		t.Errorf("listen: got %q", got)
	}
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
