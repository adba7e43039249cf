package mcp

import (
	"github.com/custodia-labs/repolens/internal/core/domain"
	"github.com/custodia-labs/repolens/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Analysis runs and serves analyses.
	Analysis driving.AnalysisService

	// Settings supplies the default ref. Optional.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Analysis == nil {
		return ErrMissingAnalysisService
	}
	return nil
}

// defaultRef returns the configured default ref, falling back to the
// built-in default when settings are unavailable.
func (p *Ports) defaultRef() string {
	if p.Settings == nil {
		return domain.DefaultRef
	}
	settings, err := p.Settings.Get()
	if err != nil || settings.Analysis.DefaultRef == "" {
		return domain.DefaultRef
	}
	return settings.Analysis.DefaultRef
}
