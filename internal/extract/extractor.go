package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ppiankov/vulnforge/internal/manifest"
	"github.com/ppiankov/vulnforge/internal/workspace"
)

// ErrNotPublicRepo is returned for any reference that is malformed or whose
// remote cannot be listed anonymously.
var ErrNotPublicRepo = errors.New("repo URL is not a public GitHub repository")

// DefaultProbeTimeout bounds the remote-reference probe.
const DefaultProbeTimeout = 20 * time.Second

// Result describes a completed extraction.
type Result struct {
	Root    string
	Count   int
	Bytes   int64
	Entries []manifest.Entry
}

// Extractor clones a repository and copies its code files into an
// extraction root.
type Extractor struct {
	vcs          VCS
	hosts        []string
	probeTimeout time.Duration
}

// New creates an Extractor. hosts lists the accepted repository hosts.
func New(vcs VCS, hosts []string) *Extractor {
	if len(hosts) == 0 {
		hosts = []string{"github.com"}
	}
	return &Extractor{vcs: vcs, hosts: hosts, probeTimeout: DefaultProbeTimeout}
}

// WithProbeTimeout overrides the remote probe timeout.
func (e *Extractor) WithProbeTimeout(d time.Duration) *Extractor {
	e.probeTimeout = d
	return e
}

// Validate normalizes ref and checks that it names a reachable public
// repository. It returns the normalized URL.
func (e *Extractor) Validate(ctx context.Context, ref string) (string, error) {
	normalized := NormalizeURL(ref)
	if !hasRepoShape(normalized, e.hosts) {
		slog.Debug("rejecting malformed repo reference", "ref", ref)
		return "", ErrNotPublicRepo
	}

	probeCtx, cancel := context.WithTimeout(ctx, e.probeTimeout)
	defer cancel()
	if err := e.vcs.ListRemote(probeCtx, normalized); err != nil {
		slog.Debug("remote probe failed", "url", normalized, "error", err)
		return "", ErrNotPublicRepo
	}
	return normalized, nil
}

// Extract validates ref, shallow-clones it into a temporary workspace, and
// copies every allow-listed file into root, replacing whatever root held.
// The manifest is written to root before returning.
func (e *Extractor) Extract(ctx context.Context, ref, root string) (*Result, error) {
	normalized, err := e.Validate(ctx, ref)
	if err != nil {
		return nil, err
	}

	dest, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve extraction root: %w", err)
	}

	tmp, err := os.MkdirTemp("", "vulnforge-clone-*")
	if err != nil {
		return nil, fmt.Errorf("create clone workspace: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmp); err != nil {
			slog.Warn("failed to remove clone workspace", "path", tmp, "error", err)
		}
	}()

	clonePath := filepath.Join(tmp, "repo")
	slog.Info("cloning repository", "url", normalized)
	if err := e.vcs.Clone(ctx, normalized, clonePath); err != nil {
		return nil, err
	}

	if err := workspace.Clear(dest); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("create extraction root: %w", err)
	}

	res := &Result{Root: dest, Entries: []manifest.Entry{}}
	repoName := RepoName(normalized)

	walkErr := filepath.WalkDir(clonePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !IsCodeFile(d.Name()) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(clonePath, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		n, err := copyFile(path, target)
		if err != nil {
			return fmt.Errorf("copy %s: %w", rel, err)
		}

		res.Entries = append(res.Entries, manifest.Entry{
			OriginURL:     normalized,
			RepoName:      repoName,
			RepoPath:      filepath.ToSlash(rel),
			ExtractedPath: filepath.ToSlash(target),
		})
		res.Count++
		res.Bytes += n
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("extract code files: %w", walkErr)
	}

	if err := manifest.Write(dest, res.Entries); err != nil {
		return nil, err
	}

	slog.Info("extracted code files", "count", res.Count, "size", humanize.Bytes(uint64(res.Bytes)), "root", dest)
	return res, nil
}

// copyFile copies src to dst, creating parent directories and keeping the
// source's permission bits and modification time.
func copyFile(src, dst string) (int64, error) {
	info, err := os.Stat(src)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, err
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return 0, err
	}
	n, copyErr := io.Copy(out, in)
	closeErr := out.Close()
	if copyErr != nil {
		return n, copyErr
	}
	if closeErr != nil {
		return n, closeErr
	}
	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		slog.Debug("could not preserve mtime", "path", dst, "error", err)
	}
	return n, nil
}
