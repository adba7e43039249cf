package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/repolens/internal/core/domain"
)

var (
	exportRef     string
	exportSubtree string
	exportOutput  string
	exportFormat  string
)

var exportCmd = &cobra.Command{
	Use:   "export [location]",
	Short: "Write a stored analysis to a file",
	Long: `Write the stored analysis of a repository to a file without re-analysing.
The repository, ref and subtree must match a previous 'repolens analyze' run.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportRef, "ref", "r", "", "branch, tag or commit (default from settings)")
	exportCmd.Flags().StringVarP(&exportSubtree, "subtree", "s", "", "folder the analysis focused on")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "file to write")
	exportCmd.Flags().StringVar(&exportFormat, "format", formatJSON, "output format: json or yaml")
	_ = exportCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if analysisService == nil {
		return errors.New("analysis service not configured")
	}
	if !validFormat(exportFormat) {
		return fmt.Errorf("%w: unknown format %q (use json or yaml)", domain.ErrInvalidInput, exportFormat)
	}

	ref := exportRef
	if ref == "" {
		ref = defaultRef()
	}
	id := domain.NewSourceIdentity(args[0], ref, domain.NormaliseSubtree(exportSubtree))

	record, err := analysisService.Export(cmd.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("no stored analysis for %s; run 'repolens analyze' first: %w", id, err)
	}
	if err != nil {
		return fmt.Errorf("failed to export analysis: %w", err)
	}

	if err := writeRecordFile(exportOutput, record, exportFormat); err != nil {
		return err
	}

	cmd.Printf("Exported %s to %s\n", id, exportOutput)
	return nil
}
