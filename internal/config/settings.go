package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults used when the config file omits a key or does not exist.
const (
	DefaultOutputFilesDirectory = "code_files"
	DefaultReportsDirectory     = "code_file_vulnerabilities"
	DefaultSummaryDirectory     = "code_file_remediation_summary"
	DefaultHistoryDB            = ".vulnforge/history.db"
	DefaultProvider             = "openai"
	DefaultServeListen          = ":8000"
	DefaultProxyListen          = ":4000"
)

// Provider types understood by the llm package.
const (
	ProviderResponses = "responses"
	ProviderChat      = "chat"
	ProviderCommand   = "command"
)

// Settings holds persistent CLI defaults loaded from a config file.
type Settings struct {
	MaxNumFiles          *int     `yaml:"max_num_files"`
	OutputFilesDirectory string   `yaml:"output_files_directory"`
	ReportsDirectory     string   `yaml:"reports_directory"`
	SummaryDirectory     string   `yaml:"summary_directory"`
	HistoryDB            string   `yaml:"history_db"`
	AllowedHosts         []string `yaml:"allowed_hosts,omitempty"`

	// Name of the entry in Providers used for analysis and remediation
	Provider  string                      `yaml:"provider"`
	Providers map[string]*ProviderProfile `yaml:"providers,omitempty"`

	// Responses API → Chat Completions translation proxy
	Proxy *ProxyConfig `yaml:"proxy,omitempty"`

	Serve *ServeConfig `yaml:"serve,omitempty"`
}

// ProviderProfile describes one text-completion backend.
type ProviderProfile struct {
	Type    string            `yaml:"type"`
	BaseURL string            `yaml:"base_url,omitempty"`
	Model   string            `yaml:"model,omitempty"`
	APIKey  string            `yaml:"api_key,omitempty"` // literal or "env:VAR_NAME"
	Command string            `yaml:"command,omitempty"` // command type only
	Args    []string          `yaml:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
	Timeout time.Duration     `yaml:"timeout,omitempty"`
}

// ProxyConfig controls the built-in Responses API → Chat Completions proxy.
type ProxyConfig struct {
	Enabled bool                    `yaml:"enabled"`
	Listen  string                  `yaml:"listen,omitempty"` // default ":4000"
	Targets map[string]*ProxyTarget `yaml:"targets"`
}

// ProxyTarget describes an upstream Chat Completions endpoint.
type ProxyTarget struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key,omitempty"` // literal or "env:VAR_NAME"
}

// ServeConfig holds settings for the serve command.
type ServeConfig struct {
	Listen string `yaml:"listen,omitempty"`
}

// ValidationError reports a config value that is present but unusable.
type ValidationError struct {
	Key    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Key, e.Reason)
}

// Default returns settings with every default applied.
func Default() *Settings {
	return &Settings{
		OutputFilesDirectory: DefaultOutputFilesDirectory,
		ReportsDirectory:     DefaultReportsDirectory,
		SummaryDirectory:     DefaultSummaryDirectory,
		HistoryDB:            DefaultHistoryDB,
		AllowedHosts:         []string{"github.com"},
		Provider:             DefaultProvider,
	}
}

// LoadSettings reads a YAML config file into Settings.
// If the file does not exist, it returns default Settings and nil error.
func LoadSettings(path string) (*Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

// Validate checks values that were explicitly set in the file.
func (s *Settings) Validate() error {
	if s.MaxNumFiles != nil && *s.MaxNumFiles < 1 {
		return &ValidationError{Key: "max_num_files", Reason: "must be a positive integer"}
	}
	s.OutputFilesDirectory = strings.TrimSpace(s.OutputFilesDirectory)
	if s.OutputFilesDirectory == "" {
		return &ValidationError{Key: "output_files_directory", Reason: "must be a non-empty string"}
	}
	if strings.TrimSpace(s.ReportsDirectory) == "" {
		s.ReportsDirectory = DefaultReportsDirectory
	}
	if strings.TrimSpace(s.SummaryDirectory) == "" {
		s.SummaryDirectory = DefaultSummaryDirectory
	}
	if len(s.AllowedHosts) == 0 {
		s.AllowedHosts = []string{"github.com"}
	}
	if s.Provider == "" {
		s.Provider = DefaultProvider
	}
	for name, p := range s.Providers {
		if p == nil {
			return &ValidationError{Key: "providers." + name, Reason: "empty profile"}
		}
		switch p.Type {
		case ProviderResponses, ProviderChat:
		case ProviderCommand:
			if p.Command == "" {
				return &ValidationError{Key: "providers." + name + ".command", Reason: "required for command providers"}
			}
		default:
			return &ValidationError{Key: "providers." + name + ".type", Reason: fmt.Sprintf("unknown provider type %q", p.Type)}
		}
	}
	return nil
}

// MaxFiles returns the configured file cap, or 0 when unlimited.
func (s *Settings) MaxFiles() int {
	if s.MaxNumFiles == nil {
		return 0
	}
	return *s.MaxNumFiles
}

// ProviderProfile returns the selected provider profile. The built-in
// "openai" profile is used when the name is not configured.
func (s *Settings) ProviderProfile(name string) (*ProviderProfile, error) {
	if name == "" {
		name = s.Provider
	}
	if p, ok := s.Providers[name]; ok {
		return p, nil
	}
	if name == DefaultProvider {
		return &ProviderProfile{
			Type:    ProviderResponses,
			BaseURL: "https://api.openai.com",
			Model:   "gpt-5.1",
			APIKey:  "env:OPENAI_API_KEY",
		}, nil
	}
	return nil, &ValidationError{Key: "provider", Reason: fmt.Sprintf("provider %q is not configured", name)}
}

// ServeListen returns the listen address for the HTTP service.
func (s *Settings) ServeListen() string {
	if s.Serve != nil && s.Serve.Listen != "" {
		return s.Serve.Listen
	}
	return DefaultServeListen
}
