package driven

import (
	"context"
	"sync"
)

// Acquirer materialises a source tree on local storage.
// The returned workspace is read-only to the caller and must be released.
type Acquirer interface {
	// Acquire fetches location at ref and returns the local workspace.
	Acquire(ctx context.Context, location, ref string) (*Workspace, error)

	// Name identifies the acquisition strategy in logs.
	Name() string
}

// Workspace is a materialised source tree.
type Workspace struct {
	// Root is the local directory containing the tree.
	Root string

	once    sync.Once
	release func() error
	err     error
}

// NewWorkspace creates a workspace rooted at root. release may be nil when
// nothing needs cleaning up.
func NewWorkspace(root string, release func() error) *Workspace {
	return &Workspace{Root: root, release: release}
}

// Release frees the workspace. It is safe to call more than once;
// only the first call does any work.
func (w *Workspace) Release() error {
	if w == nil {
		return nil
	}
	w.once.Do(func() {
		if w.release != nil {
			w.err = w.release()
		}
	})
	return w.err
}
