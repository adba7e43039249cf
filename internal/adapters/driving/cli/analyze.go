package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/repolens/internal/core/domain"
	"github.com/custodia-labs/repolens/internal/core/ports/driving"
)

var (
	analyzeRef      string
	analyzeSubtree  string
	analyzeForce    bool
	analyzeMaxFiles int
	analyzeMaxChars int
	analyzeModel    string
	analyzeOutput   string
	analyzeJSON     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [location]",
	Short: "Analyse a repository",
	Long: `Analyse a repository or local directory and print a structured report.

The location may be a GitHub URL, any git remote, or a local directory.
Use --subtree to focus on one folder. Stored results are reused unless
--force is given.

Examples:
  repolens analyze https://github.com/spf13/cobra
  repolens analyze https://github.com/spf13/cobra --ref v1.10.1 --subtree doc
  repolens analyze . --max-files 40 --output report.json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeRef, "ref", "r", "", "branch, tag or commit (default from settings)")
	analyzeCmd.Flags().StringVarP(&analyzeSubtree, "subtree", "s", "", "folder inside the repository to focus on")
	analyzeCmd.Flags().BoolVarP(&analyzeForce, "force", "f", false, "re-analyse even when a stored result exists")
	analyzeCmd.Flags().IntVar(&analyzeMaxFiles, "max-files", 0, "maximum number of files sent to the analyzer (default from settings)")
	analyzeCmd.Flags().IntVar(&analyzeMaxChars, "max-chars", 0, "maximum characters kept per file (default from settings)")
	analyzeCmd.Flags().StringVarP(&analyzeModel, "model", "m", "", "analyzer model override")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "also write the report as JSON to this file")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analysisService == nil {
		return errors.New("analysis service not configured")
	}

	ref := analyzeRef
	if ref == "" {
		ref = defaultRef()
	}

	req := driving.AnalyzeRequest{
		Identity:        domain.NewSourceIdentity(args[0], ref, domain.NormaliseSubtree(analyzeSubtree)),
		Force:           analyzeForce,
		MaxFiles:        analyzeMaxFiles,
		MaxCharsPerFile: analyzeMaxChars,
		Model:           analyzeModel,
	}

	record, err := analysisService.Analyze(cmd.Context(), req)
	if record == nil {
		return describeFailure(err)
	}

	if analyzeJSON {
		if printErr := printRecord(cmd, record, formatJSON); printErr != nil {
			return printErr
		}
	} else {
		cmd.Print(renderReport(record))
	}

	if analyzeOutput != "" {
		if writeErr := writeRecordFile(analyzeOutput, record, formatJSON); writeErr != nil {
			return writeErr
		}
		cmd.PrintErrf("Report written to %s\n", analyzeOutput)
	}

	// The report is shown even when it could not be stored.
	if err != nil {
		return fmt.Errorf("analysis not saved: %w", err)
	}
	return nil
}

// describeFailure adds a hint for failures the user can act on.
func describeFailure(err error) error {
	if err == nil {
		return errors.New("analysis failed: no result")
	}

	var hint string
	switch {
	case errors.Is(err, domain.ErrLLMUnavailable):
		hint = "configure a provider with 'repolens settings llm' or 'repolens settings set-key'"
	case errors.Is(err, domain.ErrScopeNotFound), errors.Is(err, domain.ErrScopeNotADirectory):
		hint = "check the --subtree path"
	case errors.Is(err, domain.ErrNoAnalyzableContent):
		hint = "the scope has no source files; try another --subtree"
	case errors.Is(err, domain.ErrAcquisition):
		hint = "check the location and --ref, or set acquisition.github_token for private repositories"
	}

	if hint != "" {
		return fmt.Errorf("analysis failed: %w (%s)", err, hint)
	}
	return fmt.Errorf("analysis failed: %w", err)
}
