package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/repolens/internal/core/domain"
	"github.com/custodia-labs/repolens/internal/core/ports/driving"
)

// mockAnalysisService is a mock implementation of driving.AnalysisService.
type mockAnalysisService struct {
	record  *domain.AnalysisRecord
	history []domain.HistoryEntry
	err     error

	lastRequest     driving.AnalyzeRequest
	lastFingerprint string
	lastLocation    string
}

func (m *mockAnalysisService) Analyze(_ context.Context, req driving.AnalyzeRequest) (*domain.AnalysisRecord, error) {
	m.lastRequest = req
	return m.record, m.err
}

func (m *mockAnalysisService) Lookup(_ context.Context, fingerprint string) (*domain.AnalysisRecord, error) {
	m.lastFingerprint = fingerprint
	return m.record, m.err
}

func (m *mockAnalysisService) Export(_ context.Context, _ domain.SourceIdentity) (*domain.AnalysisRecord, error) {
	return m.record, m.err
}

func (m *mockAnalysisService) History(_ context.Context, location string) ([]domain.HistoryEntry, error) {
	m.lastLocation = location
	return m.history, m.err
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings *domain.AppSettings
	err      error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	return m.settings, m.err
}

func (m *mockSettingsService) Save(_ *domain.AppSettings) error {
	return m.err
}

func (m *mockSettingsService) Set(_, _ string) error {
	return m.err
}

func (m *mockSettingsService) Keys() []string {
	return nil
}

func (m *mockSettingsService) SetLLMProvider(_ domain.AIProvider, _, _ string) error {
	return m.err
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) ValidateLLMConfig() error {
	return m.err
}

func sampleRecord() *domain.AnalysisRecord {
	score := 6
	subtree := "cmd"
	return &domain.AnalysisRecord{
		Metadata: domain.ScanMetadata{
			SourceIdentity:    domain.SourceIdentity{Location: "https://github.com/octo/demo", Ref: "main", Subtree: &subtree},
			AnalysisTimestamp: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
			TotalFiles:        12,
			AnalyzedFiles:     10,
			TotalLines:        840,
			FileTypes:         map[string]int{".go": 10, ".md": 2},
			Fingerprint:       "0123456789abcdef",
		},
		Summary:         "A demo service.",
		Objectives:      []string{"serve demos"},
		Architecture:    domain.Architecture{Pattern: "layered", Layers: []string{"cmd", "internal"}},
		KeyComponents:   []domain.Component{{Name: "main", Kind: "entrypoint", Purpose: "starts the server", Location: "cmd/main.go"}},
		TechStack:       []string{"Go"},
		ComplexityScore: &score,
		Recommendations: []string{"add tests"},
		RawResponse:     `{"summary": "A demo service."}`,
	}
}
