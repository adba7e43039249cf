package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/repolens/internal/core/domain"
	"github.com/custodia-labs/repolens/internal/core/ports/driven"
)

// Ensure ResultStore implements the interface.
var _ driven.ResultStore = (*ResultStore)(nil)

// ResultStore is an in-memory implementation of driven.ResultStore.
// Records are stored encoded so callers never share memory with the store.
type ResultStore struct {
	mu   sync.RWMutex
	rows map[string]resultRow
	seq  int64
	now  func() time.Time
}

type resultRow struct {
	entry  domain.HistoryEntry
	record []byte
	seq    int64
}

// NewResultStore creates a new in-memory result store.
func NewResultStore() *ResultStore {
	return &ResultStore{
		rows: make(map[string]resultRow),
		now:  time.Now,
	}
}

// Put inserts or replaces the record for its fingerprint.
func (s *ResultStore) Put(_ context.Context, record *domain.AnalysisRecord) error {
	if record == nil || record.Metadata.Fingerprint == "" {
		return fmt.Errorf("%w: record without fingerprint", domain.ErrInvalidInput)
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	meta := record.Metadata
	s.rows[meta.Fingerprint] = resultRow{
		entry: domain.HistoryEntry{
			Fingerprint:       meta.Fingerprint,
			Location:          meta.Location,
			Ref:               meta.Ref,
			Subtree:           meta.Subtree,
			AnalysisTimestamp: meta.AnalysisTimestamp,
			StoredAt:          s.now().UTC(),
		},
		record: data,
		seq:    s.seq,
	}
	return nil
}

// Get retrieves the record for a fingerprint.
func (s *ResultStore) Get(_ context.Context, fingerprint string) (*domain.AnalysisRecord, error) {
	s.mu.RLock()
	row, ok := s.rows[fingerprint]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}

	var record domain.AnalysisRecord
	if err := json.Unmarshal(row.record, &record); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCorruptRecord, fingerprint, err)
	}
	return &record, nil
}

// History lists stored analyses, newest first.
func (s *ResultStore) History(_ context.Context, location string) ([]domain.HistoryEntry, error) {
	s.mu.RLock()
	rows := make([]resultRow, 0, len(s.rows))
	for _, row := range s.rows {
		if location == "" || row.entry.Location == location {
			rows = append(rows, row)
		}
	}
	s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].entry.StoredAt.Equal(rows[j].entry.StoredAt) {
			return rows[i].entry.StoredAt.After(rows[j].entry.StoredAt)
		}
		return rows[i].seq > rows[j].seq
	})

	entries := make([]domain.HistoryEntry, len(rows))
	for i, row := range rows {
		entries[i] = row.entry
	}
	return entries, nil
}

// Len returns the number of stored records.
func (s *ResultStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}
