package github

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/custodia-labs/repolens/internal/logger"
)

// DefaultMaxArchiveBytes caps the extracted size of one archive.
const DefaultMaxArchiveBytes int64 = 1 << 30

// extractTarGz unpacks a gzipped tarball into dest, dropping the archive's
// top-level directory. Regular files and directories are written; links and
// special files are skipped. It returns the number of bytes written.
func extractTarGz(r io.Reader, dest string, maxBytes int64) (int64, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("open gzip stream: %w", err)
	}
	defer zr.Close()

	tr := tar.NewReader(zr)
	var written int64
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return written, nil
		}
		if err != nil {
			return written, fmt.Errorf("read archive: %w", err)
		}

		rel, ok := stripTopDir(hdr.Name)
		if !ok {
			continue
		}
		if !filepath.IsLocal(rel) {
			return written, fmt.Errorf("%w: %s", ErrUnsafeArchiveEntry, hdr.Name)
		}
		target := filepath.Join(dest, rel)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return written, fmt.Errorf("create %s: %w", rel, err)
			}
		case tar.TypeReg:
			if hdr.Size > maxBytes-written {
				return written, fmt.Errorf("%w: more than %d bytes", ErrArchiveTooLarge, maxBytes)
			}
			n, err := writeFile(target, tr, hdr.Size)
			written += n
			if err != nil {
				return written, fmt.Errorf("write %s: %w", rel, err)
			}
		case tar.TypeSymlink, tar.TypeLink:
			logger.Debug("Skipping link %s -> %s", hdr.Name, hdr.Linkname)
		default:
			// Pax headers and special files carry no tree content.
		}
	}
}

// stripTopDir removes the first path element. Entries that are the top
// directory itself, or have none, report false.
func stripTopDir(name string) (string, bool) {
	name = strings.TrimPrefix(name, "./")
	_, rest, found := strings.Cut(name, "/")
	rest = strings.TrimSuffix(rest, "/")
	if !found || rest == "" {
		return "", false
	}
	return filepath.FromSlash(rest), true
}

func writeFile(target string, r io.Reader, size int64) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, err
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	n, err := io.CopyN(f, r, size)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return n, err
}
