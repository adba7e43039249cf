package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/repolens/internal/core/domain"
	"github.com/custodia-labs/repolens/internal/core/ports/driven"
	"github.com/custodia-labs/repolens/internal/core/ports/driving"
	"github.com/custodia-labs/repolens/internal/logger"
	"github.com/custodia-labs/repolens/internal/selection"
)

// Ensure AnalysisService implements the interface.
var _ driving.AnalysisService = (*AnalysisService)(nil)

// analysisTemperature keeps the analyzer close to deterministic.
const analysisTemperature = 0.2

// AnalysisService runs the analysis pipeline:
// resolve, cache check, acquire, scan, assemble, analyse, normalise, persist.
type AnalysisService struct {
	acquirer  driven.Acquirer
	store     driven.ResultStore
	llm       driven.LLMService
	prompts   driven.PromptStore
	scanner   *selection.Scanner
	assembler *selection.Assembler
	budget    domain.Budget
	now       func() time.Time
}

// NewAnalysisService creates an analysis service.
// llm and prompts may be nil: without an LLM only cached analyses can be
// served, and without a prompt store the built-in instruction is used.
func NewAnalysisService(
	acquirer driven.Acquirer,
	store driven.ResultStore,
	llm driven.LLMService,
	prompts driven.PromptStore,
	cfg domain.AnalysisConfig,
) *AnalysisService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	budget := cfg.Budget
	if budget.MaxFiles <= 0 {
		budget.MaxFiles = domain.DefaultMaxFiles
	}
	if budget.MaxCharsPerFile <= 0 {
		budget.MaxCharsPerFile = domain.DefaultMaxCharsPerFile
	}
	return &AnalysisService{
		acquirer:  acquirer,
		store:     store,
		llm:       llm,
		prompts:   prompts,
		scanner:   selection.NewScanner(cfg.Workers),
		assembler: selection.NewAssembler(cfg.Workers),
		budget:    budget,
		now:       now,
	}
}

// Analyze returns the analysis for req.Identity.
func (s *AnalysisService) Analyze(ctx context.Context, req driving.AnalyzeRequest) (*domain.AnalysisRecord, error) {
	id := req.Identity
	logger.Section("Analysis")

	// Resolving
	logger.Debug("Stage: %s", domain.StageResolving)
	if err := id.Validate(); err != nil {
		return nil, fail(domain.StageResolving, err)
	}
	budget := s.budgetFor(req)
	if err := budget.Validate(); err != nil {
		return nil, fail(domain.StageResolving, err)
	}
	fingerprint := domain.Fingerprint(id)
	logger.Debug("Identity: %s, fingerprint: %s, budget: %d files x %d chars",
		id, fingerprint, budget.MaxFiles, budget.MaxCharsPerFile)

	// CacheCheck
	if req.Force {
		logger.Debug("Stage: %s skipped (force refresh)", domain.StageCacheCheck)
	} else {
		logger.Debug("Stage: %s", domain.StageCacheCheck)
		cached, err := s.store.Get(ctx, fingerprint)
		switch {
		case err == nil:
			logger.Info("Using cached analysis for %s#%s (%s)", id.Location, id.Ref, id.Scope())
			return cached, nil
		case errors.Is(err, domain.ErrNotFound):
			logger.Debug("No cached analysis for %s", fingerprint)
		default:
			logger.Warn("Cached analysis %s unusable, re-analysing: %v", fingerprint, err)
		}
	}

	logger.Info("Starting analysis of %s#%s (%s)", id.Location, id.Ref, id.Scope())

	// Acquiring, Scanning, Assembling
	metadata, chunks, err := s.collect(ctx, id, fingerprint, budget)
	if err != nil {
		return nil, err
	}

	// ExternalAnalyze
	logger.Debug("Stage: %s", domain.StageExternalAnalyze)
	if s.llm == nil {
		return nil, fail(domain.StageExternalAnalyze, domain.ErrLLMUnavailable)
	}
	messages := []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: s.systemPrompt(id.Scope())},
		{Role: driven.RoleUser, Content: buildAnalysisMessage(metadata, chunks)},
	}
	model := req.Model
	if model == "" {
		model = s.llm.ModelName()
	}
	logger.Info("Analysing %s with %s", id.Scope(), model)
	reply, err := s.llm.Chat(ctx, messages, driven.ChatOptions{
		Model:       req.Model,
		Temperature: analysisTemperature,
	})
	if err != nil {
		return nil, fail(domain.StageExternalAnalyze, fmt.Errorf("%w: %w", domain.ErrAnalysisService, err))
	}

	// Normalizing
	logger.Debug("Stage: %s", domain.StageNormalizing)
	record, outcome := NormaliseResponse(reply, metadata)
	if outcome == OutcomeRawFallback {
		logger.Warn("Analyzer reply had no structured object; kept raw response")
	}

	// Persisting
	logger.Debug("Stage: %s", domain.StagePersisting)
	if err := s.store.Put(ctx, record); err != nil {
		logger.Warn("Could not store analysis %s: %v", fingerprint, err)
		return record, fail(domain.StagePersisting, fmt.Errorf("%w: %w", domain.ErrPersistence, err))
	}

	logger.Info("Analysis completed: %d of %d files analysed", metadata.AnalyzedFiles, metadata.TotalFiles)
	return record, nil
}

// collect acquires the tree, scans it and assembles chunks. The workspace
// is released before returning on every path.
func (s *AnalysisService) collect(
	ctx context.Context, id domain.SourceIdentity, fingerprint string, budget domain.Budget,
) (domain.ScanMetadata, []domain.ContentChunk, error) {
	logger.Debug("Stage: %s via %s", domain.StageAcquiring, s.acquirer.Name())
	ws, err := s.acquirer.Acquire(ctx, id.Location, id.Ref)
	if err != nil {
		if !errors.Is(err, domain.ErrAcquisition) {
			err = fmt.Errorf("%w: %w", domain.ErrAcquisition, err)
		}
		return domain.ScanMetadata{}, nil, fail(domain.StageAcquiring, err)
	}
	defer func() {
		if err := ws.Release(); err != nil {
			logger.Warn("Release workspace %s: %v", ws.Root, err)
		}
	}()
	fsys := os.DirFS(ws.Root)

	logger.Debug("Stage: %s", domain.StageScanning)
	scan, err := s.scanner.Scan(ctx, fsys, id.SubtreePath())
	if err != nil {
		return domain.ScanMetadata{}, nil, fail(domain.StageScanning, err)
	}

	logger.Debug("Stage: %s", domain.StageAssembling)
	chunks, err := s.assembler.Assemble(ctx, fsys, scan.Candidates, budget)
	if err != nil {
		return domain.ScanMetadata{}, nil, fail(domain.StageAssembling, err)
	}
	if len(chunks) == 0 {
		return domain.ScanMetadata{}, nil, fail(domain.StageAssembling,
			fmt.Errorf("%w in %s", domain.ErrNoAnalyzableContent, id.Scope()))
	}

	metadata := domain.ScanMetadata{
		SourceIdentity:    id,
		AnalysisTimestamp: s.now().UTC(),
		TotalFiles:        scan.EligibleCount(),
		AnalyzedFiles:     len(chunks),
		TotalLines:        scan.TotalLines,
		FileTypes:         scan.FileTypes,
		Fingerprint:       fingerprint,
	}
	return metadata, chunks, nil
}

// Lookup retrieves a stored analysis by fingerprint.
func (s *AnalysisService) Lookup(ctx context.Context, fingerprint string) (*domain.AnalysisRecord, error) {
	if fingerprint == "" {
		return nil, fmt.Errorf("%w: empty fingerprint", domain.ErrInvalidInput)
	}
	return s.store.Get(ctx, fingerprint)
}

// Export retrieves the stored analysis for an identity without analysing.
func (s *AnalysisService) Export(ctx context.Context, id domain.SourceIdentity) (*domain.AnalysisRecord, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, domain.Fingerprint(id))
}

// History lists stored analyses, newest first.
func (s *AnalysisService) History(ctx context.Context, location string) ([]domain.HistoryEntry, error) {
	return s.store.History(ctx, location)
}

func (s *AnalysisService) budgetFor(req driving.AnalyzeRequest) domain.Budget {
	budget := s.budget
	if req.MaxFiles > 0 {
		budget.MaxFiles = req.MaxFiles
	}
	if req.MaxCharsPerFile > 0 {
		budget.MaxCharsPerFile = req.MaxCharsPerFile
	}
	return budget
}

func fail(stage domain.Stage, err error) error {
	return &domain.StageError{Stage: stage, Err: err}
}
