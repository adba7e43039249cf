// Package domain defines the core business entities for repolens.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SourceIdentity: The (location, ref, subtree) triple being analysed
//   - CandidateFile: A classified file found while scanning a tree
//   - ContentChunk: One selected file's bounded content
//   - ScanMetadata: Aggregate facts about a scan
//   - AnalysisRecord: The persisted, normalised analysis report
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
