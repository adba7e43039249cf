package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/repolens/internal/core/domain"
)

// Report encodings.
const (
	formatJSON = "json"
	formatYAML = "yaml"
)

func validFormat(format string) bool {
	return format == formatJSON || format == formatYAML
}

// encodeRecord serialises a record. JSON keeps the stored field names.
func encodeRecord(record *domain.AnalysisRecord, format string) ([]byte, error) {
	switch format {
	case formatYAML:
		data, err := yaml.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("failed to encode YAML: %w", err)
		}
		return data, nil
	case formatJSON:
		data, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode JSON: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", domain.ErrInvalidInput, format)
	}
}

func printRecord(cmd *cobra.Command, record *domain.AnalysisRecord, format string) error {
	data, err := encodeRecord(record, format)
	if err != nil {
		return err
	}
	cmd.Print(string(data))
	return nil
}

func writeRecordFile(path string, record *domain.AnalysisRecord, format string) error {
	data, err := encodeRecord(record, format)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
