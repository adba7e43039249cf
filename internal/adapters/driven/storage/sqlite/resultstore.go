package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/repolens/internal/core/domain"
	"github.com/custodia-labs/repolens/internal/core/ports/driven"
)

// resultStore implements driven.ResultStore.
type resultStore struct {
	store *Store
}

var _ driven.ResultStore = (*resultStore)(nil)

// Put inserts or replaces the record for its fingerprint and refreshes created_at.
func (s *resultStore) Put(ctx context.Context, record *domain.AnalysisRecord) error {
	if record == nil || record.Metadata.Fingerprint == "" {
		return fmt.Errorf("%w: record without fingerprint", domain.ErrInvalidInput)
	}
	meta := record.Metadata

	metadataJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshalling record: %w", err)
	}

	var subtree sql.NullString
	if meta.Subtree != nil {
		subtree = sql.NullString{String: *meta.Subtree, Valid: true}
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO analyses (id, fingerprint, location, ref, subtree, analysis_timestamp, metadata, record, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fingerprint) DO UPDATE SET
			location = excluded.location,
			ref = excluded.ref,
			subtree = excluded.subtree,
			analysis_timestamp = excluded.analysis_timestamp,
			metadata = excluded.metadata,
			record = excluded.record,
			created_at = excluded.created_at
	`,
		uuid.NewString(),
		meta.Fingerprint,
		meta.Location,
		meta.Ref,
		subtree,
		formatTime(meta.AnalysisTimestamp),
		string(metadataJSON),
		string(recordJSON),
		formatTime(s.store.now()),
	)
	if err != nil {
		return fmt.Errorf("saving analysis %s: %w", meta.Fingerprint, err)
	}
	return nil
}

// Get retrieves the record for a fingerprint.
func (s *resultStore) Get(ctx context.Context, fingerprint string) (*domain.AnalysisRecord, error) {
	var recordJSON string
	err := s.store.db.QueryRowContext(ctx,
		"SELECT record FROM analyses WHERE fingerprint = ?", fingerprint,
	).Scan(&recordJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading analysis %s: %w", fingerprint, err)
	}

	var record domain.AnalysisRecord
	if err := json.Unmarshal([]byte(recordJSON), &record); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCorruptRecord, fingerprint, err)
	}
	if record.Metadata.Fingerprint != fingerprint {
		return nil, fmt.Errorf("%w: %s: stored record belongs to %q",
			domain.ErrCorruptRecord, fingerprint, record.Metadata.Fingerprint)
	}
	return &record, nil
}

// History lists stored analyses, newest storage time first.
func (s *resultStore) History(ctx context.Context, location string) ([]domain.HistoryEntry, error) {
	query := `
		SELECT fingerprint, location, ref, subtree, analysis_timestamp, created_at
		FROM analyses`
	var args []any
	if location != "" {
		query += " WHERE location = ?"
		args = append(args, location)
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var (
			entry      domain.HistoryEntry
			subtree    sql.NullString
			analysedAt string
			storedAt   string
		)
		if err := rows.Scan(&entry.Fingerprint, &entry.Location, &entry.Ref, &subtree, &analysedAt, &storedAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		if subtree.Valid {
			entry.Subtree = &subtree.String
		}
		if entry.AnalysisTimestamp, err = parseTime(analysedAt); err != nil {
			return nil, fmt.Errorf("%w: %s: analysis timestamp: %v", domain.ErrCorruptRecord, entry.Fingerprint, err)
		}
		if entry.StoredAt, err = parseTime(storedAt); err != nil {
			return nil, fmt.Errorf("%w: %s: storage timestamp: %v", domain.ErrCorruptRecord, entry.Fingerprint, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}
	return entries, nil
}
