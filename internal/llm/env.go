package llm

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// resolveValue expands an "env:VAR_NAME" reference. Literal values pass
// through unchanged; an empty value is allowed (local providers need no key).
func resolveValue(v string) (string, error) {
	if !strings.HasPrefix(v, "env:") {
		return v, nil
	}
	envKey := strings.TrimPrefix(v, "env:")
	envVal := os.Getenv(envKey)
	if envVal == "" {
		return "", fmt.Errorf("env var %q is not set", envKey)
	}
	return envVal, nil
}

// ResolveEnv resolves "env:VAR_NAME" references in an env map to actual values.
// Returns error if a referenced env var is empty or unset.
func ResolveEnv(env map[string]string) (map[string]string, error) {
	if len(env) == 0 {
		return nil, nil
	}
	resolved := make(map[string]string, len(env))
	for k, v := range env {
		val, err := resolveValue(v)
		if err != nil {
			return nil, fmt.Errorf("%w (referenced by %q)", err, k)
		}
		resolved[k] = val
	}
	return resolved, nil
}

// MapToEnvSlice converts a map of env vars to a sorted slice of "K=V" strings.
func MapToEnvSlice(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	s := make([]string, 0, len(env))
	for k, v := range env {
		s = append(s, k+"="+v)
	}
	sort.Strings(s)
	return s
}

// sensitiveEnvPrefixes are env var name prefixes stripped from subprocess
// environments. A command provider sees source code from arbitrary repos, so
// it only gets credentials its profile names explicitly.
var sensitiveEnvPrefixes = []string{
	"OPENAI_API",
	"ANTHROPIC_API",
	"GROQ_API",
	"DEEPSEEK_API",
	"GEMINI_API",
	"VULNFORGE_",
	"AWS_SECRET",
	"AWS_SESSION",
	"GITHUB_TOKEN",
}

// sensitiveEnvExact are env var names stripped by exact match.
var sensitiveEnvExact = []string{
	"API_KEY",
	"API_SECRET",
	"SECRET_KEY",
}

// SanitizedEnv returns os.Environ() with sensitive variables removed.
func SanitizedEnv() []string {
	return sanitizeEnv(os.Environ())
}

func sanitizeEnv(environ []string) []string {
	clean := make([]string, 0, len(environ))
	for _, entry := range environ {
		name, _, ok := strings.Cut(entry, "=")
		if !ok {
			clean = append(clean, entry)
			continue
		}
		if !isSensitive(strings.ToUpper(name)) {
			clean = append(clean, entry)
		}
	}
	return clean
}

func isSensitive(upper string) bool {
	for _, prefix := range sensitiveEnvPrefixes {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	for _, exact := range sensitiveEnvExact {
		if upper == exact {
			return true
		}
	}
	return false
}
