package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/repolens/internal/core/domain"
	"github.com/custodia-labs/repolens/internal/core/ports/driving"
)

// AnalyzeInput is the input schema for the analyze_repository tool.
type AnalyzeInput struct {
	Location        string `json:"location" jsonschema:"repository URL or local directory to analyse"`
	Ref             string `json:"ref,omitempty" jsonschema:"branch, tag or commit (default from settings)"`
	Subtree         string `json:"subtree,omitempty" jsonschema:"optional folder inside the repository to focus on"`
	Force           bool   `json:"force,omitempty" jsonschema:"re-analyse even when a stored result exists"`
	MaxFiles        int    `json:"max_files,omitempty" jsonschema:"maximum number of files sent to the analyzer"`
	MaxCharsPerFile int    `json:"max_chars_per_file,omitempty" jsonschema:"maximum characters kept per file"`
	Model           string `json:"model,omitempty" jsonschema:"analyzer model override"`
}

// GetAnalysisInput is the input schema for the get_analysis tool.
type GetAnalysisInput struct {
	Fingerprint string `json:"fingerprint" jsonschema:"fingerprint of a stored analysis"`
}

// HistoryInput is the input schema for the analysis_history tool.
type HistoryInput struct {
	Location string `json:"location,omitempty" jsonschema:"only list analyses of this location"`
}

// AnalysisOutput is a stored or freshly computed analysis.
type AnalysisOutput struct {
	Fingerprint       string              `json:"fingerprint"`
	Location          string              `json:"location"`
	Ref               string              `json:"ref"`
	Subtree           string              `json:"subtree,omitempty"`
	AnalysisTimestamp string              `json:"analysis_timestamp"`
	TotalFiles        int                 `json:"total_files"`
	AnalyzedFiles     int                 `json:"analyzed_files"`
	TotalLines        int                 `json:"total_lines"`
	FileTypes         map[string]int      `json:"file_types"`
	Summary           string              `json:"summary"`
	Objectives        []string            `json:"objectives"`
	Architecture      domain.Architecture `json:"architecture"`
	KeyComponents     []domain.Component  `json:"key_components"`
	TechStack         []string            `json:"tech_stack"`
	Concepts          []domain.Concept    `json:"concepts"`
	ComplexityScore   *int                `json:"complexity_score,omitempty"`
	Recommendations   []string            `json:"recommendations"`
	Warning           string              `json:"warning,omitempty"`
}

// HistoryOutput is the output schema for the analysis_history tool.
type HistoryOutput struct {
	Entries []HistoryEntryOutput `json:"entries"`
	Count   int                  `json:"count"`
}

// HistoryEntryOutput represents a single history row.
type HistoryEntryOutput struct {
	Fingerprint       string `json:"fingerprint"`
	Location          string `json:"location"`
	Ref               string `json:"ref"`
	Subtree           string `json:"subtree,omitempty"`
	AnalysisTimestamp string `json:"analysis_timestamp"`
	StoredAt          string `json:"stored_at"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_repository",
		Description: "Analyse a repository or one of its folders and return a structured report",
	}, s.handleAnalyze)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_analysis",
		Description: "Fetch a stored analysis by fingerprint",
	}, s.handleGetAnalysis)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analysis_history",
		Description: "List stored analyses, newest first",
	}, s.handleHistory)
}

// handleAnalyze handles the analyze_repository tool invocation.
// A persistence failure still returns the report, with a warning.
func (s *Server) handleAnalyze(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeInput,
) (*mcp.CallToolResult, AnalysisOutput, error) {
	ref := input.Ref
	if ref == "" {
		ref = s.ports.defaultRef()
	}

	req := driving.AnalyzeRequest{
		Identity:        domain.NewSourceIdentity(input.Location, ref, domain.NormaliseSubtree(input.Subtree)),
		Force:           input.Force,
		MaxFiles:        input.MaxFiles,
		MaxCharsPerFile: input.MaxCharsPerFile,
		Model:           input.Model,
	}

	record, err := s.ports.Analysis.Analyze(ctx, req)
	if err != nil {
		if record != nil && errors.Is(err, domain.ErrPersistence) {
			output := toAnalysisOutput(record)
			output.Warning = err.Error()
			return nil, output, nil
		}
		return nil, AnalysisOutput{}, err
	}

	return nil, toAnalysisOutput(record), nil
}

// handleGetAnalysis handles the get_analysis tool invocation.
func (s *Server) handleGetAnalysis(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetAnalysisInput,
) (*mcp.CallToolResult, AnalysisOutput, error) {
	record, err := s.ports.Analysis.Lookup(ctx, input.Fingerprint)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, AnalysisOutput{}, fmt.Errorf("no stored analysis with fingerprint %q", input.Fingerprint)
		}
		return nil, AnalysisOutput{}, err
	}

	return nil, toAnalysisOutput(record), nil
}

// handleHistory handles the analysis_history tool invocation.
func (s *Server) handleHistory(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input HistoryInput,
) (*mcp.CallToolResult, HistoryOutput, error) {
	entries, err := s.ports.Analysis.History(ctx, input.Location)
	if err != nil {
		return nil, HistoryOutput{}, err
	}

	output := HistoryOutput{
		Entries: make([]HistoryEntryOutput, len(entries)),
		Count:   len(entries),
	}
	for i := range entries {
		output.Entries[i] = HistoryEntryOutput{
			Fingerprint:       entries[i].Fingerprint,
			Location:          entries[i].Location,
			Ref:               entries[i].Ref,
			AnalysisTimestamp: entries[i].AnalysisTimestamp.Format(time.RFC3339),
			StoredAt:          entries[i].StoredAt.Format(time.RFC3339),
		}
		if entries[i].Subtree != nil {
			output.Entries[i].Subtree = *entries[i].Subtree
		}
	}

	return nil, output, nil
}

func toAnalysisOutput(record *domain.AnalysisRecord) AnalysisOutput {
	meta := record.Metadata
	return AnalysisOutput{
		Fingerprint:       meta.Fingerprint,
		Location:          meta.Location,
		Ref:               meta.Ref,
		Subtree:           meta.SubtreePath(),
		AnalysisTimestamp: meta.AnalysisTimestamp.Format(time.RFC3339),
		TotalFiles:        meta.TotalFiles,
		AnalyzedFiles:     meta.AnalyzedFiles,
		TotalLines:        meta.TotalLines,
		FileTypes:         meta.FileTypes,
		Summary:           record.Summary,
		Objectives:        record.Objectives,
		Architecture:      record.Architecture,
		KeyComponents:     record.KeyComponents,
		TechStack:         record.TechStack,
		Concepts:          record.Concepts,
		ComplexityScore:   record.ComplexityScore,
		Recommendations:   record.Recommendations,
	}
}
