package driven

import (
	"context"

	"github.com/custodia-labs/repolens/internal/core/domain"
)

// ResultStore persists analysis records keyed by identity fingerprint.
// There is one row per fingerprint: saving again replaces the previous record
// and refreshes its storage timestamp.
type ResultStore interface {
	// Put inserts or replaces the record for its metadata fingerprint.
	Put(ctx context.Context, record *domain.AnalysisRecord) error

	// Get retrieves the record for a fingerprint.
	// Returns domain.ErrNotFound on a miss and domain.ErrCorruptRecord if the
	// stored row cannot be decoded.
	Get(ctx context.Context, fingerprint string) (*domain.AnalysisRecord, error)

	// History lists stored analyses, newest storage time first.
	// An empty location lists every row.
	History(ctx context.Context, location string) ([]domain.HistoryEntry, error)
}
