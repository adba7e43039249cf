package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/repolens/internal/core/domain"
)

var historyJSON bool

var historyCmd = &cobra.Command{
	Use:   "history [location]",
	Short: "List stored analyses",
	Long: `List stored analyses, most recently stored first.
Pass a location to only show analyses of that repository.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output history as JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if analysisService == nil {
		return errors.New("analysis service not configured")
	}

	var location string
	if len(args) == 1 {
		location = args[0]
	}

	entries, err := analysisService.History(cmd.Context(), location)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if historyJSON {
		if entries == nil {
			entries = []domain.HistoryEntry{}
		}
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(entries) == 0 {
		cmd.Println("No analyses found.")
		return nil
	}

	cmd.Print(renderHistory(entries))
	return nil
}
