package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ppiankov/vulnforge/internal/config"
)

// Client is a text-completion capability: one prompt in, one reply out.
// Implementations: ResponsesClient, ChatClient, CommandClient.
type Client interface {
	Name() string
	Analyze(ctx context.Context, prompt string) (string, error)
}

// APIError is returned for non-2xx replies from an HTTP provider.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("provider returned HTTP %d: %s", e.StatusCode, body)
}

// New builds the client described by a provider profile. Provider selection
// happens here once; callers only see the Client interface.
func New(name string, p *config.ProviderProfile) (Client, error) {
	if p == nil {
		return nil, fmt.Errorf("provider %q: no profile", name)
	}
	env, err := ResolveEnv(p.Env)
	if err != nil {
		return nil, fmt.Errorf("provider %q: %w", name, err)
	}

	switch p.Type {
	case config.ProviderResponses, config.ProviderChat:
		key, err := resolveValue(p.APIKey)
		if err != nil {
			return nil, fmt.Errorf("provider %q: %w", name, err)
		}
		httpClient := &http.Client{Timeout: p.Timeout}
		base := strings.TrimRight(p.BaseURL, "/")
		if p.Type == config.ProviderResponses {
			if base == "" {
				base = "https://api.openai.com"
			}
			return &ResponsesClient{name: name, baseURL: base, apiKey: key, model: p.Model, http: httpClient}, nil
		}
		if base == "" {
			return nil, fmt.Errorf("provider %q: base_url is required for chat providers", name)
		}
		return &ChatClient{name: name, baseURL: base, apiKey: key, model: p.Model, http: httpClient}, nil

	case config.ProviderCommand:
		return &CommandClient{name: name, command: p.Command, args: p.Args, env: MapToEnvSlice(env), timeout: p.Timeout}, nil

	default:
		return nil, fmt.Errorf("provider %q: unknown type %q", name, p.Type)
	}
}
