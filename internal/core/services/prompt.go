package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/repolens/internal/core/domain"
	"github.com/custodia-labs/repolens/internal/core/ports/driven"
	"github.com/custodia-labs/repolens/internal/logger"
)

// fallbackSystemPrompt is used when no prompt store is configured or the
// analysis prompt cannot be loaded.
const fallbackSystemPrompt = `You are an expert software architect analysing a codebase.
Provide a comprehensive analysis of the %s.`

// responseFormat is appended to every analysis request. The normaliser
// depends on these field names.
const responseFormat = `Analyse this codebase and respond with a single JSON object in the following format:

{
    "summary": "Brief 2-3 sentence summary of what this %[1]s does",
    "objectives": ["Main objective 1", "Main objective 2"],
    "architecture": {
        "pattern": "Architecture pattern used (MVC, microservices, etc.)",
        "layers": ["layer1", "layer2"],
        "key_directories": {"directory": "purpose description"}
    },
    "key_components": [
        {"name": "ComponentName", "type": "class/function/module", "purpose": "what it does", "location": "file path"}
    ],
    "tech_stack": ["technology1", "technology2"],
    "concepts": [
        {"name": "ConceptName", "category": "language|framework|algorithm|theory|networking|io|computation|data_structure|design_pattern|security|testing|other", "description": "How the concept is used", "examples": ["specific usage example"], "importance": "high|medium|low"}
    ],
    "complexity_score": 1-10,
    "recommendations": ["improvement suggestion 1", "improvement suggestion 2"]
}`

// systemPrompt renders the analysis instruction for a scope description.
func (s *AnalysisService) systemPrompt(scope string) string {
	template := fallbackSystemPrompt
	if s.prompts != nil {
		loaded, err := s.prompts.Load(driven.PromptAnalysisSystem)
		if err != nil {
			logger.Warn("Load prompt %q: %v, using built-in prompt", driven.PromptAnalysisSystem, err)
		} else if strings.TrimSpace(loaded) != "" {
			template = loaded
		}
	}
	if !strings.Contains(template, "%s") {
		return template
	}
	return fmt.Sprintf(template, scope)
}

// buildAnalysisMessage renders the metadata, file listing and file contents
// handed to the analyzer, followed by the expected response format.
func buildAnalysisMessage(metadata domain.ScanMetadata, chunks []domain.ContentChunk) string {
	scope := metadata.Scope()

	var b strings.Builder
	fmt.Fprintf(&b, "ANALYSIS SCOPE: This analysis focuses on the %s of the repository.\n\n", scope)

	b.WriteString("REPOSITORY METADATA:\n")
	fmt.Fprintf(&b, "- Location: %s\n", metadata.Location)
	fmt.Fprintf(&b, "- Branch/Ref: %s\n", metadata.Ref)
	if metadata.HasSubtree() {
		fmt.Fprintf(&b, "- Subfolder: %s\n", metadata.SubtreePath())
	}
	fmt.Fprintf(&b, "- Total Files in Scope: %d\n", metadata.TotalFiles)
	fmt.Fprintf(&b, "- Analyzed Files: %d\n", metadata.AnalyzedFiles)
	fmt.Fprintf(&b, "- Total Lines of Code: %d\n", metadata.TotalLines)
	fileTypes, err := json.MarshalIndent(metadata.FileTypes, "", "  ")
	if err != nil {
		fileTypes = []byte("{}")
	}
	fmt.Fprintf(&b, "- File Types: %s\n\n", fileTypes)

	b.WriteString("FILES ANALYZED:\n")
	for _, c := range chunks {
		if c.Truncated {
			fmt.Fprintf(&b, "FILE: %s (%d chars, truncated)\n", c.Path, c.Size)
		} else {
			fmt.Fprintf(&b, "FILE: %s (%d chars)\n", c.Path, c.Size)
		}
	}

	b.WriteString("\nCODEBASE CONTENTS:\n")
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "=== FILE: %s ===\n%s", c.Path, c.Content)
	}

	b.WriteString("\n\n")
	fmt.Fprintf(&b, responseFormat, scope)
	if metadata.HasSubtree() {
		b.WriteString("\n\nAlso explain how this subfolder fits within the larger repository structure.")
	}
	return b.String()
}
