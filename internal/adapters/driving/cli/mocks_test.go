package cli

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

	lastRequest  driving.AnalyzeRequest
	lastIdentity domain.SourceIdentity
	lastLocation string
}

func (m *mockAnalysisService) Analyze(_ context.Context, req driving.AnalyzeRequest) (*domain.AnalysisRecord, error) {
	m.lastRequest = req
	return m.record, m.err
}

func (m *mockAnalysisService) Lookup(_ context.Context, _ string) (*domain.AnalysisRecord, error) {
	return m.record, m.err
}

func (m *mockAnalysisService) Export(_ context.Context, id domain.SourceIdentity) (*domain.AnalysisRecord, error) {
	m.lastIdentity = id
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
	set      map[string]string
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	return m.settings, m.err
}

func (m *mockSettingsService) Save(_ *domain.AppSettings) error {
	return m.err
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.err != nil {
		return m.err
	}
	if m.set == nil {
		m.set = map[string]string{}
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"analysis.max_files", "llm.provider"}
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
	score := 7
	return &domain.AnalysisRecord{
		Metadata: domain.ScanMetadata{
			SourceIdentity:    domain.SourceIdentity{Location: "https://github.com/octo/demo", Ref: "main"},
			AnalysisTimestamp: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
			TotalFiles:        12,
			AnalyzedFiles:     10,
			TotalLines:        840,
			FileTypes:         map[string]int{".go": 10, ".md": 2},
			Fingerprint:       "0123456789abcdef",
		},
		Summary:    "A demo service.",
		Objectives: []string{"serve demos"},
		Architecture: domain.Architecture{
			Pattern:        "layered",
			Layers:         []string{"cmd", "internal"},
			KeyDirectories: map[string]string{"cmd": "entry points"},
		},
		KeyComponents:   []domain.Component{{Name: "main", Kind: "entrypoint", Purpose: "starts the server", Location: "cmd/main.go"}},
		TechStack:       []string{"Go", "SQLite"},
		Concepts:        []domain.Concept{{Name: "hexagonal", Category: "architecture", Description: "ports and adapters", Importance: "high"}},
		ComplexityScore: &score,
		Recommendations: []string{"add tests"},
		RawResponse:     `{"summary": "A demo service."}`,
	}
}

// setupTestServices installs mock services and resets command flags.
// The returned function restores the previous state.
func setupTestServices() (*mockAnalysisService, *mockSettingsService, func()) {
	oldAnalysis, oldSettings, oldFactory := analysisService, settingsService, serviceFactory

	settings := domain.DefaultAppSettings()
	analysis := &mockAnalysisService{record: sampleRecord()}
	settingsMock := &mockSettingsService{settings: &settings}
	analysisService = analysis
	settingsService = settingsMock
	serviceFactory = nil
	resetFlags()

	return analysis, settingsMock, func() {
		analysisService, settingsService, serviceFactory = oldAnalysis, oldSettings, oldFactory
		resetFlags()
		rootCmd.SetArgs(nil)
	}
}

func resetFlags() {
	verbose, dataDir, configDir = false, "", ""
	analyzeRef, analyzeSubtree, analyzeModel, analyzeOutput = "", "", "", ""
	analyzeForce, analyzeJSON = false, false
	analyzeMaxFiles, analyzeMaxChars = 0, 0
	historyJSON = false
	exportRef, exportSubtree, exportOutput, exportFormat = "", "", "", formatJSON
}
