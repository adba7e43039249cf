// Package selection decides which files of a source tree are worth sending
// to the analyzer.
//
// The pipeline has three steps:
//
//   - Classify: a pure function mapping a path to (eligible, priority)
//   - Scanner: walks a tree (or a subtree of it), classifies every regular
//     file and returns a stably priority-sorted candidate list with
//     aggregate file-type and line counts
//   - Assembler: reads the top candidates under a file and character budget
//     into ordered content chunks
//
// Scanning and assembly read files concurrently but always return results
// in priority order. Per-file read failures are logged and skipped; they
// never fail a run.
package selection
