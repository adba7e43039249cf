package domain

import "fmt"

// SentinelPriority is the rank carried by ineligible files; it sorts after every eligible rank.
const SentinelPriority = 999

// CandidateFile is one regular file found while scanning a tree.
type CandidateFile struct {
	// Path is slash-separated and relative to the scan root.
	Path string

	// Eligible is true if the file is worth considering for inclusion.
	Eligible bool

	// Priority ranks the file; lower is more important.
	Priority int
}

// ContentChunk is one selected file's bounded content.
type ContentChunk struct {
	// Path is relative to the scan root, even when a subtree was scanned.
	Path string `json:"path"`

	// Size is the file's length in characters before truncation.
	Size int `json:"size"`

	// Content holds at most the configured number of characters.
	Content string `json:"content"`

	// Truncated is true when Size exceeded the character budget.
	Truncated bool `json:"truncated"`
}

// Budget bounds how much of a tree is packaged for analysis.
type Budget struct {
	// MaxFiles caps the number of chunks.
	MaxFiles int

	// MaxCharsPerFile caps each chunk's content length in characters.
	MaxCharsPerFile int
}

// Validate checks both limits are positive.
func (b Budget) Validate() error {
	if b.MaxFiles <= 0 || b.MaxCharsPerFile <= 0 {
		return fmt.Errorf("%w: budget limits must be positive (max files %d, max chars %d)",
			ErrInvalidInput, b.MaxFiles, b.MaxCharsPerFile)
	}
	return nil
}
