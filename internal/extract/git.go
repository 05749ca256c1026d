package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// VCS is the version-control collaborator used by the Extractor.
type VCS interface {
	// ListRemote probes the remote's references without cloning.
	ListRemote(ctx context.Context, url string) error
	// Clone performs a depth-1 clone of url into dest.
	Clone(ctx context.Context, url, dest string) error
}

// CloneError carries the diagnostic text of a failed clone.
type CloneError struct {
	URL    string
	Output string
	Err    error
}

func (e *CloneError) Error() string {
	return fmt.Sprintf("failed to clone repository: %s", e.Output)
}

func (e *CloneError) Unwrap() error { return e.Err }

// GitClient implements VCS with the git binary.
type GitClient struct {
	Binary string
}

// NewGitClient creates a GitClient using "git" from PATH.
func NewGitClient() *GitClient {
	return &GitClient{Binary: "git"}
}

// ListRemote runs git ls-remote. Any failure, including a credential prompt
// for a private repo, surfaces as an error.
func (g *GitClient) ListRemote(ctx context.Context, url string) error {
	_, err := g.run(ctx, "", "ls-remote", url)
	return err
}

// Clone runs git clone --depth 1.
func (g *GitClient) Clone(ctx context.Context, url, dest string) error {
	out, err := g.run(ctx, "", "clone", "--depth", "1", url, dest)
	if err != nil {
		return &CloneError{URL: url, Output: out, Err: err}
	}
	return nil
}

// run executes git and returns its trimmed stderr (or stdout if stderr is
// empty) for diagnostics.
func (g *GitClient) run(ctx context.Context, dir string, args ...string) (string, error) {
	bin := g.Binary
	if bin == "" {
		bin = "git"
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	// never block on an interactive credential prompt
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Debug("running git", "args", args)
	err := cmd.Run()
	diag := strings.TrimSpace(stderr.String())
	if diag == "" {
		diag = strings.TrimSpace(stdout.String())
	}
	if err != nil {
		return diag, fmt.Errorf("git %s: %w", args[0], err)
	}
	return diag, nil
}
