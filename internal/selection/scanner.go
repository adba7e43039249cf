package selection

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/repolens/internal/core/domain"
	"github.com/custodia-labs/repolens/internal/logger"
)

// ScanResult is the output of a tree scan.
type ScanResult struct {
	// Candidates holds one entry per regular file, stably sorted by priority.
	// Paths are relative to the scan root, not the subtree.
	Candidates []domain.CandidateFile

	// FileTypes counts eligible files by extension.
	FileTypes map[string]int

	// TotalLines is the line count summed over eligible files that could be read.
	TotalLines int
}

// Eligible returns the eligible candidates in priority order.
func (r *ScanResult) Eligible() []domain.CandidateFile {
	out := make([]domain.CandidateFile, 0, len(r.Candidates))
	for _, c := range r.Candidates {
		if c.Eligible {
			out = append(out, c)
		}
	}
	return out
}

// EligibleCount returns the number of eligible candidates.
func (r *ScanResult) EligibleCount() int {
	n := 0
	for _, c := range r.Candidates {
		if c.Eligible {
			n++
		}
	}
	return n
}

// Scanner walks a source tree and classifies its files.
type Scanner struct {
	workers int
}

// NewScanner creates a scanner that counts lines with up to workers
// concurrent reads. Non-positive values use domain.DefaultWorkers.
func NewScanner(workers int) *Scanner {
	if workers <= 0 {
		workers = domain.DefaultWorkers
	}
	return &Scanner{workers: workers}
}

// Scan walks fsys, or the subtree directory within it when subtree is
// non-empty. Files are classified by their path relative to the walked
// directory. Returns domain.ErrScopeNotFound or domain.ErrScopeNotADirectory
// when the subtree cannot be scanned.
func (s *Scanner) Scan(ctx context.Context, fsys fs.FS, subtree string) (*ScanResult, error) {
	root, depth, err := resolveScope(fsys, subtree)
	if err != nil {
		return nil, err
	}

	var candidates []domain.CandidateFile
	err = fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			if p == root {
				return walkErr
			}
			logger.Warn("scan: skipping %s: %v", p, walkErr)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		eligible, priority := Classify(scopedPath(root, p), depth)
		candidates = append(candidates, domain.CandidateFile{
			Path:     p,
			Eligible: eligible,
			Priority: priority,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority < candidates[j].Priority
	})

	result := &ScanResult{
		Candidates: candidates,
		FileTypes:  make(map[string]int),
	}
	for _, c := range candidates {
		if c.Eligible {
			result.FileTypes[FileType(path.Base(c.Path))]++
		}
	}

	total, err := s.countLines(ctx, fsys, result.Eligible())
	if err != nil {
		return nil, err
	}
	result.TotalLines = total

	logger.Debug("scan: %d files, %d eligible, %d lines under %q",
		len(candidates), result.EligibleCount(), total, root)
	return result, nil
}

// countLines sums line counts of the given files. Unreadable files are
// left out of the total.
func (s *Scanner) countLines(ctx context.Context, fsys fs.FS, files []domain.CandidateFile) (int, error) {
	counts := make([]int, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			n, err := countFileLines(fsys, f.Path)
			if err != nil {
				logger.Debug("scan: cannot count lines of %s: %v", f.Path, err)
				return nil
			}
			counts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("count lines: %w", err)
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	return total, nil
}

// resolveScope returns the walk root and subtree depth for a subtree request.
func resolveScope(fsys fs.FS, subtree string) (string, int, error) {
	subtree = domain.NormaliseSubtree(subtree)
	if subtree == "" {
		return ".", 0, nil
	}
	if !fs.ValidPath(subtree) {
		return "", 0, fmt.Errorf("%w: subtree %q escapes the tree", domain.ErrInvalidInput, subtree)
	}

	info, err := fs.Stat(fsys, subtree)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", 0, fmt.Errorf("%w: %s", domain.ErrScopeNotFound, subtree)
		}
		return "", 0, fmt.Errorf("stat %s: %w", subtree, err)
	}
	if !info.IsDir() {
		return "", 0, fmt.Errorf("%w: %s", domain.ErrScopeNotADirectory, subtree)
	}
	return subtree, len(strings.Split(subtree, "/")), nil
}

// scopedPath returns p relative to the walk root.
func scopedPath(root, p string) string {
	if root == "." {
		return p
	}
	return strings.TrimPrefix(p, root+"/")
}

// countFileLines counts newline-terminated lines plus a trailing partial line.
func countFileLines(fsys fs.FS, name string) (int, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	buf := make([]byte, 32*1024)
	lines := 0
	var last byte
	seen := false
	for {
		n, err := f.Read(buf)
		if n > 0 {
			lines += bytes.Count(buf[:n], []byte{'\n'})
			last = buf[n-1]
			seen = true
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
	}
	if seen && last != '\n' {
		lines++
	}
	return lines, nil
}
