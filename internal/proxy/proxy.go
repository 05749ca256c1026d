// Package proxy starts the optional Responses API → Chat Completions
// translation proxy so the Responses client can reach chat-only providers.
package proxy

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ppiankov/neurorouter"

	"github.com/ppiankov/vulnforge/internal/config"
)

// ResolveConfig converts config.ProxyConfig to neurorouter.ProxyConfig,
// resolving "env:VAR_NAME" references in API keys.
func ResolveConfig(pc *config.ProxyConfig) (neurorouter.ProxyConfig, error) {
	cfg := neurorouter.ProxyConfig{
		Listen:  pc.Listen,
		Targets: make(map[string]neurorouter.Target, len(pc.Targets)),
	}
	if cfg.Listen == "" {
		cfg.Listen = config.DefaultProxyListen
	}
	for name, t := range pc.Targets {
		if t == nil || t.BaseURL == "" {
			return neurorouter.ProxyConfig{}, fmt.Errorf("target %q: base_url is required", name)
		}
		apiKey := t.APIKey
		if strings.HasPrefix(apiKey, "env:") {
			envKey := strings.TrimPrefix(apiKey, "env:")
			apiKey = os.Getenv(envKey)
			if apiKey == "" {
				return neurorouter.ProxyConfig{}, fmt.Errorf("target %q: env var %q is not set", name, envKey)
			}
		}
		cfg.Targets[name] = neurorouter.Target{
			BaseURL: t.BaseURL,
			APIKey:  apiKey,
		}
	}
	return cfg, nil
}

// Start launches the proxy when pc enables it and returns a stop function.
// The returned function is never nil. A listen failure is not fatal: another
// vulnforge process may already own the port.
func Start(pc *config.ProxyConfig) (func(), error) {
	noop := func() {}
	if pc == nil || !pc.Enabled {
		return noop, nil
	}
	cfg, err := ResolveConfig(pc)
	if err != nil {
		return noop, fmt.Errorf("proxy config: %w", err)
	}

	srv := neurorouter.NewProxy(cfg)
	if _, err := srv.Start(); err != nil {
		slog.Warn("proxy start failed (may already be running)", "error", err)
		return noop, nil
	}
	return func() {
		if err := srv.Stop(); err != nil {
			slog.Warn("proxy stop error", "error", err)
		}
	}, nil
}
