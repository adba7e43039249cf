package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/repolens/internal/core/domain"
)

func TestServer_handleAnalyze(t *testing.T) {
	ctx := context.Background()

	t.Run("returns analysis", func(t *testing.T) {
		mockAnalysis := &mockAnalysisService{record: sampleRecord()}
		server, err := NewServer(&Ports{Analysis: mockAnalysis})
		require.NoError(t, err)

		input := AnalyzeInput{
			Location: "https://github.com/octo/demo",
			Ref:      "v1",
			Subtree:  "./cmd/",
			Force:    true,
			MaxFiles: 5,
			Model:    "gpt-4o",
		}
		_, output, err := server.handleAnalyze(ctx, nil, input)

		require.NoError(t, err)
		req := mockAnalysis.lastRequest
		assert.Equal(t, "v1", req.Identity.Ref)
		assert.Equal(t, "cmd", req.Identity.SubtreePath())
		assert.True(t, req.Force)
		assert.Equal(t, 5, req.MaxFiles)
		assert.Equal(t, "gpt-4o", req.Model)

		assert.Equal(t, "0123456789abcdef", output.Fingerprint)
		assert.Equal(t, "cmd", output.Subtree)
		assert.Equal(t, "2026-03-14T09:30:00Z", output.AnalysisTimestamp)
		assert.Equal(t, "A demo service.", output.Summary)
		require.NotNil(t, output.ComplexityScore)
		assert.Equal(t, 6, *output.ComplexityScore)
		assert.Empty(t, output.Warning)
	})

	t.Run("default ref from settings", func(t *testing.T) {
		mockAnalysis := &mockAnalysisService{record: sampleRecord()}
		settings := domain.DefaultAppSettings()
		settings.Analysis.DefaultRef = "trunk"
		server, err := NewServer(&Ports{
			Analysis: mockAnalysis,
			Settings: &mockSettingsService{settings: &settings},
		})
		require.NoError(t, err)

		_, _, err = server.handleAnalyze(ctx, nil, AnalyzeInput{Location: "."})

		require.NoError(t, err)
		assert.Equal(t, "trunk", mockAnalysis.lastRequest.Identity.Ref)
		assert.False(t, mockAnalysis.lastRequest.Identity.HasSubtree())
	})

	t.Run("built-in default ref without settings", func(t *testing.T) {
		mockAnalysis := &mockAnalysisService{record: sampleRecord()}
		server, err := NewServer(&Ports{
			Analysis: mockAnalysis,
			Settings: &mockSettingsService{err: errors.New("unreadable")},
		})
		require.NoError(t, err)

		_, _, err = server.handleAnalyze(ctx, nil, AnalyzeInput{Location: "."})

		require.NoError(t, err)
		assert.Equal(t, domain.DefaultRef, mockAnalysis.lastRequest.Identity.Ref)
	})

	t.Run("persistence failure returns report with warning", func(t *testing.T) {
		mockAnalysis := &mockAnalysisService{
			record: sampleRecord(),
			err:    fmt.Errorf("%w: disk full", domain.ErrPersistence),
		}
		server, err := NewServer(&Ports{Analysis: mockAnalysis})
		require.NoError(t, err)

		_, output, err := server.handleAnalyze(ctx, nil, AnalyzeInput{Location: "."})

		require.NoError(t, err)
		assert.Equal(t, "A demo service.", output.Summary)
		assert.Contains(t, output.Warning, "disk full")
	})

	t.Run("returns error on failure", func(t *testing.T) {
		mockAnalysis := &mockAnalysisService{err: domain.ErrNoAnalyzableContent}
		server, err := NewServer(&Ports{Analysis: mockAnalysis})
		require.NoError(t, err)

		_, _, err = server.handleAnalyze(ctx, nil, AnalyzeInput{Location: "."})

		assert.ErrorIs(t, err, domain.ErrNoAnalyzableContent)
	})
}

func TestServer_handleGetAnalysis(t *testing.T) {
	ctx := context.Background()

	t.Run("returns stored analysis", func(t *testing.T) {
		mockAnalysis := &mockAnalysisService{record: sampleRecord()}
		server, err := NewServer(&Ports{Analysis: mockAnalysis})
		require.NoError(t, err)

		_, output, err := server.handleGetAnalysis(ctx, nil, GetAnalysisInput{Fingerprint: "0123456789abcdef"})

		require.NoError(t, err)
		assert.Equal(t, "0123456789abcdef", mockAnalysis.lastFingerprint)
		assert.Equal(t, []string{"Go"}, output.TechStack)
	})

	t.Run("not found", func(t *testing.T) {
		mockAnalysis := &mockAnalysisService{err: domain.ErrNotFound}
		server, err := NewServer(&Ports{Analysis: mockAnalysis})
		require.NoError(t, err)

		_, _, err = server.handleGetAnalysis(ctx, nil, GetAnalysisInput{Fingerprint: "missing"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), `no stored analysis with fingerprint "missing"`)
	})
}

func TestServer_handleHistory(t *testing.T) {
	ctx := context.Background()
	subtree := "docs"
	stored := time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)

	mockAnalysis := &mockAnalysisService{history: []domain.HistoryEntry{
		{Fingerprint: "bbbb", Location: "./demo", Ref: "main", Subtree: &subtree, AnalysisTimestamp: stored, StoredAt: stored},
		{Fingerprint: "aaaa", Location: "./demo", Ref: "main", AnalysisTimestamp: stored.Add(-time.Hour), StoredAt: stored.Add(-time.Hour)},
	}}
	server, err := NewServer(&Ports{Analysis: mockAnalysis})
	require.NoError(t, err)

	_, output, err := server.handleHistory(ctx, nil, HistoryInput{Location: "./demo"})

	require.NoError(t, err)
	assert.Equal(t, "./demo", mockAnalysis.lastLocation)
	assert.Equal(t, 2, output.Count)
	assert.Equal(t, "bbbb", output.Entries[0].Fingerprint)
	assert.Equal(t, "docs", output.Entries[0].Subtree)
	assert.Equal(t, "2026-03-15T08:00:00Z", output.Entries[0].StoredAt)
	assert.Empty(t, output.Entries[1].Subtree)
}
