// Package local reads source trees that already exist on local storage.
package local

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/repolens/internal/core/domain"
	"github.com/custodia-labs/repolens/internal/core/ports/driven"
	"github.com/custodia-labs/repolens/internal/logger"
)

// Ensure Acquirer implements the interface.
var _ driven.Acquirer = (*Acquirer)(nil)

// Acquirer serves a local directory in place. The tree is never modified and
// releasing the workspace is a no-op.
type Acquirer struct{}

// NewAcquirer creates a local acquirer.
func NewAcquirer() *Acquirer {
	return &Acquirer{}
}

// Name identifies the acquirer in logs.
func (a *Acquirer) Name() string {
	return "local"
}

// Acquire returns a workspace rooted at the directory named by location.
// The ref is ignored: the tree is analysed as it is on disk.
func (a *Acquirer) Acquire(ctx context.Context, location, ref string) (*driven.Workspace, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAcquisition, err)
	}

	root, err := filepath.Abs(Path(location))
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %w", domain.ErrAcquisition, location, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAcquisition, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrAcquisition, root)
	}

	logger.Debug("Reading local tree %s in place (ref %q not checked out)", root, ref)
	return driven.NewWorkspace(root, nil), nil
}

// Path converts a file:// URI or bare path to a filesystem path.
func Path(location string) string {
	if strings.HasPrefix(location, "file://") {
		if u, err := url.Parse(location); err == nil && u.Path != "" {
			return filepath.FromSlash(u.Path)
		}
		return strings.TrimPrefix(location, "file://")
	}
	return location
}

// IsLocalDir reports whether location names an existing directory.
func IsLocalDir(location string) bool {
	info, err := os.Stat(Path(location))
	return err == nil && info.IsDir()
}
