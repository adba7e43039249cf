package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/repolens/internal/core/domain"
)

func TestAnalyzeCmd_Use(t *testing.T) {
	assert.Equal(t, "analyze [location]", analyzeCmd.Use)
}

func TestAnalyzeCmd_Flags(t *testing.T) {
	for _, name := range []string{"ref", "subtree", "force", "max-files", "max-chars", "model", "output", "json"} {
		assert.NotNil(t, analyzeCmd.Flags().Lookup(name), name)
	}
}

func TestAnalyzeCmd_RequiresExactlyOneArg(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"analyze"})

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestAnalyzeCmd_RendersReport(t *testing.T) {
	analysis, _, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{
		"analyze", "https://github.com/octo/demo",
		"--ref", "v2", "--subtree", "./cmd/", "--force",
		"--max-files", "40", "--max-chars", "1000", "--model", "gpt-4o",
	})

	err := rootCmd.Execute()

	require.NoError(t, err)
	req := analysis.lastRequest
	assert.Equal(t, "https://github.com/octo/demo", req.Identity.Location)
	assert.Equal(t, "v2", req.Identity.Ref)
	assert.Equal(t, "cmd", req.Identity.SubtreePath())
	assert.True(t, req.Force)
	assert.Equal(t, 40, req.MaxFiles)
	assert.Equal(t, 1000, req.MaxCharsPerFile)
	assert.Equal(t, "gpt-4o", req.Model)

	out := buf.String()
	assert.Contains(t, out, "Repository Analysis")
	assert.Contains(t, out, "A demo service.")
	assert.Contains(t, out, "7/10")
}

func TestAnalyzeCmd_DefaultRefAndNoSubtree(t *testing.T) {
	analysis, settings, cleanup := setupTestServices()
	defer cleanup()
	settings.settings.Analysis.DefaultRef = "trunk"

	rootCmd.SetOut(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"analyze", "."})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "trunk", analysis.lastRequest.Identity.Ref)
	assert.False(t, analysis.lastRequest.Identity.HasSubtree())
	assert.False(t, analysis.lastRequest.Force)
}

func TestAnalyzeCmd_JSONAndOutputFile(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()
	outFile := filepath.Join(t.TempDir(), "reports", "demo.json")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs([]string{"analyze", ".", "--json", "--output", outFile})

	require.NoError(t, rootCmd.Execute())

	var printed domain.AnalysisRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &printed))
	assert.Equal(t, "A demo service.", printed.Summary)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	var saved map[string]any
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Contains(t, saved, "repository_metadata")
	assert.Contains(t, saved, "raw_response")
}

func TestAnalyzeCmd_PersistenceFailurePrintsThenFails(t *testing.T) {
	analysis, _, cleanup := setupTestServices()
	defer cleanup()
	analysis.err = fmt.Errorf("%w: disk full", domain.ErrPersistence)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"analyze", "."})

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.Contains(t, err.Error(), "analysis not saved")
	assert.Contains(t, buf.String(), "A demo service.")
}

func TestAnalyzeCmd_Failures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantHint string
	}{
		{"llm unavailable", domain.ErrLLMUnavailable, "repolens settings"},
		{"scope not found", &domain.StageError{Stage: domain.StageScanning, Err: domain.ErrScopeNotFound}, "--subtree"},
		{"no content", domain.ErrNoAnalyzableContent, "no source files"},
		{"acquisition", fmt.Errorf("%w: clone failed", domain.ErrAcquisition), "github_token"},
		{"analyzer", domain.ErrAnalysisService, "analysis failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis, _, cleanup := setupTestServices()
			defer cleanup()
			analysis.record = nil
			analysis.err = tt.err

			buf := new(bytes.Buffer)
			rootCmd.SetOut(buf)
			rootCmd.SetArgs([]string{"analyze", "."})

			err := rootCmd.Execute()

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.err)
			assert.Contains(t, err.Error(), tt.wantHint)
			assert.NotContains(t, buf.String(), "Repository Analysis")
		})
	}
}

func TestAnalyzeCmd_ErrorsWithoutServices(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()
	analysisService = nil

	rootCmd.SetArgs([]string{"analyze", "."})
	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysis service not configured")
}
