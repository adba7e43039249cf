package domain

import "time"

// ScanMetadata holds aggregate facts about one scan. It is persisted
// verbatim alongside the analysis record.
type ScanMetadata struct {
	SourceIdentity `yaml:",inline"`

	// AnalysisTimestamp is when the scan ran (UTC).
	AnalysisTimestamp time.Time `json:"analysis_timestamp" yaml:"analysis_timestamp"`

	// TotalFiles is the number of eligible files found in scope.
	TotalFiles int `json:"total_files" yaml:"total_files"`

	// AnalyzedFiles is the number of files actually included.
	AnalyzedFiles int `json:"analyzed_files" yaml:"analyzed_files"`

	// TotalLines is the line count across all eligible files.
	TotalLines int `json:"total_lines" yaml:"total_lines"`

	// FileTypes maps a lower-case extension (or "no_extension") to a count of eligible files.
	FileTypes map[string]int `json:"file_types" yaml:"file_types"`

	// Fingerprint is the cache key of the identity.
	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`
}

// Architecture describes the high-level structure reported by the analyzer.
type Architecture struct {
	Pattern        string            `json:"pattern" yaml:"pattern"`
	Layers         []string          `json:"layers" yaml:"layers"`
	KeyDirectories map[string]string `json:"key_directories" yaml:"key_directories"`
}

// IsEmpty returns true if no architecture details were reported.
func (a Architecture) IsEmpty() bool {
	return a.Pattern == "" && len(a.Layers) == 0 && len(a.KeyDirectories) == 0
}

// Component describes one key component of the analysed code.
type Component struct {
	Name     string `json:"name" yaml:"name"`
	Kind     string `json:"type" yaml:"type"`
	Purpose  string `json:"purpose" yaml:"purpose"`
	Location string `json:"location" yaml:"location"`
}

// Concept describes a technical concept found in the code.
type Concept struct {
	Name        string   `json:"name" yaml:"name"`
	Category    string   `json:"category" yaml:"category"`
	Description string   `json:"description" yaml:"description"`
	Examples    []string `json:"examples" yaml:"examples"`
	Importance  string   `json:"importance" yaml:"importance"`
}

// AnalysisRecord is the normalised result of one analysis run.
// It is the canonical persisted unit and is never mutated after creation.
type AnalysisRecord struct {
	Metadata        ScanMetadata `json:"repository_metadata" yaml:"repository_metadata"`
	Summary         string       `json:"summary" yaml:"summary"`
	Objectives      []string     `json:"objectives" yaml:"objectives"`
	Architecture    Architecture `json:"architecture" yaml:"architecture"`
	KeyComponents   []Component  `json:"key_components" yaml:"key_components"`
	TechStack       []string     `json:"tech_stack" yaml:"tech_stack"`
	Concepts        []Concept    `json:"concepts" yaml:"concepts"`
	ComplexityScore *int         `json:"complexity_score" yaml:"complexity_score"`
	Recommendations []string     `json:"recommendations" yaml:"recommendations"`

	// RawResponse is the analyzer's reply, kept verbatim for auditing.
	RawResponse string `json:"raw_response" yaml:"raw_response"`
}

// HistoryEntry is one row of the analysis history.
type HistoryEntry struct {
	Fingerprint       string    `json:"fingerprint"`
	Location          string    `json:"location"`
	Ref               string    `json:"ref"`
	Subtree           *string   `json:"subtree,omitempty"`
	AnalysisTimestamp time.Time `json:"analysis_timestamp"`
	StoredAt          time.Time `json:"stored_at"`
}
