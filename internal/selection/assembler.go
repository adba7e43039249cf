package selection

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/repolens/internal/core/domain"
	"github.com/custodia-labs/repolens/internal/logger"
)

// binarySniffLen is how many leading bytes are checked for NUL bytes.
const binarySniffLen = 8000

var errBinaryContent = errors.New("binary content")

// Assembler reads selected candidates into content chunks.
type Assembler struct {
	workers int
}

// NewAssembler creates an assembler that reads with up to workers
// concurrent file reads. Non-positive values use domain.DefaultWorkers.
func NewAssembler(workers int) *Assembler {
	if workers <= 0 {
		workers = domain.DefaultWorkers
	}
	return &Assembler{workers: workers}
}

// Assemble reads the first budget.MaxFiles eligible candidates and returns
// their contents in priority order, each capped at budget.MaxCharsPerFile
// characters. Files that cannot be read are skipped and not replaced, so
// fewer than MaxFiles chunks may be returned.
func (a *Assembler) Assemble(ctx context.Context, fsys fs.FS, candidates []domain.CandidateFile, budget domain.Budget) ([]domain.ContentChunk, error) {
	if err := budget.Validate(); err != nil {
		return nil, err
	}

	selected := make([]domain.CandidateFile, 0, budget.MaxFiles)
	for _, c := range candidates {
		if len(selected) == budget.MaxFiles {
			break
		}
		if c.Eligible {
			selected = append(selected, c)
		}
	}

	slots := make([]*domain.ContentChunk, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, c := range selected {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			chunk, err := readChunk(fsys, c.Path, budget.MaxCharsPerFile)
			if err != nil {
				logger.Warn("assemble: skipping %s: %v", c.Path, err)
				return nil
			}
			slots[i] = chunk
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}

	chunks := make([]domain.ContentChunk, 0, len(slots))
	for _, chunk := range slots {
		if chunk != nil {
			chunks = append(chunks, *chunk)
		}
	}
	logger.Debug("assemble: %d of %d selected files loaded", len(chunks), len(selected))
	return chunks, nil
}

// readChunk loads a file as text. Invalid UTF-8 sequences are dropped;
// sizes and truncation are measured in characters.
func readChunk(fsys fs.FS, name string, maxChars int) (*domain.ContentChunk, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	if looksBinary(data) {
		return nil, errBinaryContent
	}

	content := strings.ToValidUTF8(string(data), "")
	size := utf8.RuneCountInString(content)
	truncated := size > maxChars
	if truncated {
		content = truncateRunes(content, maxChars)
	}
	return &domain.ContentChunk{
		Path:      name,
		Size:      size,
		Content:   content,
		Truncated: truncated,
	}, nil
}

func looksBinary(data []byte) bool {
	if len(data) > binarySniffLen {
		data = data[:binarySniffLen]
	}
	return bytes.IndexByte(data, 0) >= 0
}

// truncateRunes returns the first n characters of s.
func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
