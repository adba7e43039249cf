package driving

import (
	"context"

	"github.com/custodia-labs/repolens/internal/core/domain"
)

// AnalysisService analyses source trees and serves stored analyses.
type AnalysisService interface {
	// Analyze returns the analysis for the requested identity, serving it from
	// the result store unless Force is set.
	// On a persistence failure the computed record is returned together with
	// an error wrapping domain.ErrPersistence.
	Analyze(ctx context.Context, req AnalyzeRequest) (*domain.AnalysisRecord, error)

	// Lookup retrieves a stored analysis by fingerprint.
	Lookup(ctx context.Context, fingerprint string) (*domain.AnalysisRecord, error)

	// Export retrieves the stored analysis for an identity without analysing.
	Export(ctx context.Context, id domain.SourceIdentity) (*domain.AnalysisRecord, error)

	// History lists stored analyses, newest first, optionally filtered by location.
	History(ctx context.Context, location string) ([]domain.HistoryEntry, error)
}

// AnalyzeRequest describes one analysis run.
// Zero-valued budget and model fields fall back to the service configuration.
type AnalyzeRequest struct {
	// Identity is the scope to analyse.
	Identity domain.SourceIdentity

	// Force skips the cache check and re-analyses.
	Force bool

	// MaxFiles overrides the configured file budget when positive.
	MaxFiles int

	// MaxCharsPerFile overrides the configured per-file character budget when positive.
	MaxCharsPerFile int

	// Model overrides the analyzer's default model when set.
	Model string
}
