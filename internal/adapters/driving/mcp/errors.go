// Package mcp provides an MCP (Model Context Protocol) server adapter for repolens.
// It lets AI assistants run repository analyses and browse stored results.
package mcp

import "errors"

// ErrMissingAnalysisService is returned when the analysis service is not provided.
var ErrMissingAnalysisService = errors.New("mcp: analysis service is required")
