package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/repolens/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for repolens resources.
	uriScheme = "repolens://"

	analysesPrefix = uriScheme + "analyses/"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for the full history.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "analyses",
		Name:        "analyses",
		Description: "History of stored analyses, newest first",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)

	// Template for one stored analysis.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: analysesPrefix + "{fingerprint}",
		Name:        "analysis",
		Description: "A stored analysis record, including the raw analyzer reply",
		MIMEType:    "application/json",
	}, s.handleAnalysisResource)
}

// handleHistoryResource returns every stored analysis row.
func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	entries, err := s.ports.Analysis.History(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}

	return jsonResult(req.Params.URI, entries)
}

// handleAnalysisResource returns the stored record for a fingerprint.
func (s *Server) handleAnalysisResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract fingerprint from URI: repolens://analyses/{fingerprint}
	fingerprint := extractFingerprint(req.Params.URI)
	if fingerprint == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	record, err := s.ports.Analysis.Lookup(ctx, fingerprint)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up analysis: %w", err)
	}

	return jsonResult(req.Params.URI, record)
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractFingerprint extracts the fingerprint from a URI like repolens://analyses/{fingerprint}.
func extractFingerprint(uri string) string {
	if !strings.HasPrefix(uri, analysesPrefix) {
		return ""
	}

	fingerprint := strings.TrimPrefix(uri, analysesPrefix)
	if strings.Contains(fingerprint, "/") {
		return ""
	}
	return fingerprint
}
