package llm

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// CommandClient pipes the prompt to a local CLI (claude -p, ollama run, ...)
// on stdin and returns its stdout.
type CommandClient struct {
	name    string
	command string
	args    []string
	env     []string // additional env vars for the subprocess
	timeout time.Duration
}

// NewCommandClient creates a CommandClient.
func NewCommandClient(command string, args ...string) *CommandClient {
	return &CommandClient{name: command, command: command, args: args}
}

// Name returns the provider identifier.
func (c *CommandClient) Name() string { return c.name }

// Analyze runs the command once per prompt.
func (c *CommandClient) Analyze(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.command, c.args...)
	cmd.Env = append(SanitizedEnv(), c.env...)
	cmd.Stdin = strings.NewReader(prompt)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("spawning provider command", "command", c.command, "args", c.args)
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s: %w: %s", c.command, err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}
