package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.csv>",
	Short: "Bulk-ingest feedback from a CSV file",
	Long: `Reads a CSV file whose first line is a header and whose rows are "text,category",
classifies every row and appends it to the store in one write.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}

		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.close()

		result, err := a.ingestService.BulkUpload(cmd.Context(), content)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d rows, skipped %d\n", result.Ingested, result.Skipped)
		return nil
	},
}
