package github

import (
	"context"
	"fmt"
	"os"

	"github.com/custodia-labs/repolens/internal/core/domain"
	"github.com/custodia-labs/repolens/internal/core/ports/driven"
	"github.com/custodia-labs/repolens/internal/logger"
)

// Ensure Acquirer implements the interface.
var _ driven.Acquirer = (*Acquirer)(nil)

// Config holds configuration for the archive acquirer.
type Config struct {
	// WorkDir is where archives are extracted. Empty means the OS temp dir.
	WorkDir string

	// MaxArchiveBytes caps the extracted size (default: 1 GiB).
	MaxArchiveBytes int64
}

// Acquirer downloads a repository tarball and extracts it into a fresh
// temporary directory. Releasing the workspace removes it.
type Acquirer struct {
	client   *Client
	workDir  string
	maxBytes int64
}

// NewAcquirer creates an archive acquirer using client for API calls.
func NewAcquirer(client *Client, cfg Config) *Acquirer {
	if cfg.MaxArchiveBytes <= 0 {
		cfg.MaxArchiveBytes = DefaultMaxArchiveBytes
	}
	return &Acquirer{
		client:   client,
		workDir:  cfg.WorkDir,
		maxBytes: cfg.MaxArchiveBytes,
	}
}

// Name identifies the acquirer in logs.
func (a *Acquirer) Name() string {
	return "github-archive"
}

// Acquire downloads location at ref. An empty ref resolves to the
// repository's default branch.
func (a *Acquirer) Acquire(ctx context.Context, location, ref string) (*driven.Workspace, error) {
	ws, err := a.acquire(ctx, location, ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAcquisition, err)
	}
	return ws, nil
}

func (a *Acquirer) acquire(ctx context.Context, location, ref string) (*driven.Workspace, error) {
	owner, repo, err := ParseLocation(location)
	if err != nil {
		return nil, err
	}

	if ref == "" {
		ref, err = a.client.DefaultBranch(ctx, owner, repo)
		if err != nil {
			return nil, err
		}
		logger.Debug("Resolved default branch of %s/%s: %s", owner, repo, ref)
	}

	link, err := a.client.ArchiveLink(ctx, owner, repo, ref)
	if err != nil {
		return nil, err
	}

	body, err := a.client.Download(ctx, link)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	if a.workDir != "" {
		if err := os.MkdirAll(a.workDir, 0700); err != nil {
			return nil, fmt.Errorf("create work dir: %w", err)
		}
	}
	dir, err := os.MkdirTemp(a.workDir, "repolens-archive-*")
	if err != nil {
		return nil, fmt.Errorf("create extract dir: %w", err)
	}
	release := func() error {
		logger.Debug("Removing archive tree %s", dir)
		return os.RemoveAll(dir)
	}

	logger.Debug("Extracting %s/%s@%s into %s", owner, repo, ref, dir)
	n, err := extractTarGz(body, dir, a.maxBytes)
	if err != nil {
		if rmErr := release(); rmErr != nil {
			logger.Warn("Remove partial archive %s: %v", dir, rmErr)
		}
		return nil, fmt.Errorf("extract %s/%s@%s: %w", owner, repo, ref, err)
	}
	logger.Debug("Extracted %d bytes", n)

	return driven.NewWorkspace(dir, release), nil
}
