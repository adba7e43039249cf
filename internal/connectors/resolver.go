package connectors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/repolens/internal/connectors/git"
	"github.com/custodia-labs/repolens/internal/connectors/github"
	"github.com/custodia-labs/repolens/internal/connectors/local"
	"github.com/custodia-labs/repolens/internal/core/domain"
	"github.com/custodia-labs/repolens/internal/core/ports/driven"
	"github.com/custodia-labs/repolens/internal/logger"
)

// Ensure Resolver implements the interface.
var _ driven.Acquirer = (*Resolver)(nil)

// Acquirers groups the concrete acquirers a Resolver delegates to.
type Acquirers struct {
	Local   driven.Acquirer
	Git     driven.Acquirer
	Archive driven.Acquirer
}

// Resolver dispatches each location to the matching acquirer.
type Resolver struct {
	strategy  domain.AcquisitionStrategy
	acquirers Acquirers
}

// NewResolver creates a resolver. An invalid strategy falls back to auto.
func NewResolver(strategy domain.AcquisitionStrategy, acquirers Acquirers) *Resolver {
	if !strategy.IsValid() {
		strategy = domain.AcquisitionAuto
	}
	return &Resolver{strategy: strategy, acquirers: acquirers}
}

// Name identifies the resolver and its strategy in logs.
func (r *Resolver) Name() string {
	return "resolver(" + r.strategy.String() + ")"
}

// Acquire materialises location with the acquirer chosen by Select.
func (r *Resolver) Acquire(ctx context.Context, location, ref string) (*driven.Workspace, error) {
	acquirer, err := r.Select(location)
	if err != nil {
		return nil, err
	}
	logger.Debug("Acquiring %s with %s", location, acquirer.Name())
	return acquirer.Acquire(ctx, location, ref)
}

// Select picks the acquirer for location. Existing local directories are
// always read in place; remote locations follow the strategy.
func (r *Resolver) Select(location string) (driven.Acquirer, error) {
	if local.IsLocalDir(location) {
		return r.pick(r.acquirers.Local, "local")
	}

	isGitHub := github.IsGitHubLocation(location)
	switch r.strategy {
	case domain.AcquisitionArchive:
		if !isGitHub {
			return nil, fmt.Errorf("%w: archive strategy needs a github.com location: %s", domain.ErrAcquisition, location)
		}
		return r.pick(r.acquirers.Archive, "archive")
	case domain.AcquisitionGit:
		if !isGitHub && !git.IsRemote(location) {
			break
		}
		return r.pick(r.acquirers.Git, "git")
	default:
		if isGitHub {
			return r.pick(r.acquirers.Archive, "archive")
		}
		if git.IsRemote(location) {
			return r.pick(r.acquirers.Git, "git")
		}
	}

	return nil, fmt.Errorf("%w: unrecognised location %q", domain.ErrAcquisition, location)
}

func (r *Resolver) pick(a driven.Acquirer, kind string) (driven.Acquirer, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: no %s acquirer configured", domain.ErrAcquisition, kind)
	}
	return a, nil
}
