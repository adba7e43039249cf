// Package git acquires source trees by shallow-cloning git remotes.
package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/custodia-labs/repolens/internal/core/domain"
	"github.com/custodia-labs/repolens/internal/core/ports/driven"
	"github.com/custodia-labs/repolens/internal/logger"
)

// Ensure Acquirer implements the interface.
var _ driven.Acquirer = (*Acquirer)(nil)

// DefaultTimeout bounds a single clone.
const DefaultTimeout = 5 * time.Minute

// commitRef matches abbreviated and full commit hashes, which git clone
// --branch does not accept.
var commitRef = regexp.MustCompile(`^[0-9a-fA-F]{7,40}$`)

// Config holds configuration for the git acquirer.
type Config struct {
	// WorkDir is where clones are created. Empty means the OS temp dir.
	WorkDir string

	// Binary is the git executable (default: "git").
	Binary string

	// Timeout bounds each clone (default: 5m).
	Timeout time.Duration
}

// Acquirer shallow-clones a remote into a fresh temporary directory.
// Releasing the workspace removes the clone.
type Acquirer struct {
	workDir string
	binary  string
	timeout time.Duration
}

// NewAcquirer creates a git acquirer.
func NewAcquirer(cfg Config) *Acquirer {
	if cfg.Binary == "" {
		cfg.Binary = "git"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Acquirer{
		workDir: cfg.WorkDir,
		binary:  cfg.Binary,
		timeout: cfg.Timeout,
	}
}

// Name identifies the acquirer in logs.
func (a *Acquirer) Name() string {
	return "git"
}

// Acquire clones location at ref with depth 1.
func (a *Acquirer) Acquire(ctx context.Context, location, ref string) (*driven.Workspace, error) {
	if _, err := exec.LookPath(a.binary); err != nil {
		return nil, fmt.Errorf("%w: git is not installed: %w", domain.ErrAcquisition, err)
	}

	if a.workDir != "" {
		if err := os.MkdirAll(a.workDir, 0700); err != nil {
			return nil, fmt.Errorf("%w: create work dir: %w", domain.ErrAcquisition, err)
		}
	}
	dir, err := os.MkdirTemp(a.workDir, "repolens-clone-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create clone dir: %w", domain.ErrAcquisition, err)
	}
	release := func() error {
		logger.Debug("Removing clone %s", dir)
		return os.RemoveAll(dir)
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	logger.Debug("Cloning %s at %s into %s", location, ref, dir)
	if commitRef.MatchString(ref) {
		err = a.fetchCommit(ctx, dir, location, ref)
	} else {
		err = a.run(ctx, "", "clone", "--quiet", "--depth", "1", "--branch", ref, "--", location, dir)
	}
	if err != nil {
		if rmErr := release(); rmErr != nil {
			logger.Warn("Remove failed clone %s: %v", dir, rmErr)
		}
		return nil, fmt.Errorf("%w: clone %s at %s: %w", domain.ErrAcquisition, location, ref, err)
	}

	return driven.NewWorkspace(dir, release), nil
}

// fetchCommit checks out a single commit without downloading history.
func (a *Acquirer) fetchCommit(ctx context.Context, dir, location, sha string) error {
	steps := [][]string{
		{"init", "--quiet"},
		{"remote", "add", "origin", location},
		{"fetch", "--quiet", "--depth", "1", "origin", sha},
		{"checkout", "--quiet", "FETCH_HEAD"},
	}
	for _, args := range steps {
		if err := a.run(ctx, dir, args...); err != nil {
			return err
		}
	}
	return nil
}

// run executes git with a non-interactive environment and returns stderr in the error.
func (a *Acquirer) run(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, a.binary, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("git %s timed out: %w", args[0], ctx.Err())
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("git %s: %w", args[0], err)
		}
		return fmt.Errorf("git %s: %s: %w", args[0], msg, err)
	}
	return nil
}

// IsRemote reports whether location looks like a git remote: an SSH address,
// an http(s) URL, a .git path or a github.com reference.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "git@") ||
		strings.HasPrefix(location, "http://") ||
		strings.HasPrefix(location, "https://") ||
		strings.HasSuffix(location, ".git") ||
		strings.Contains(location, "github.com")
}
