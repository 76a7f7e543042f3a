package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "finsheets",
		Short: "Ingest bank statement spreadsheets and push local files to Google Sheets",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.AddCommand(newDownloadCmd(), newUploadCmd(), newPlansCmd(), newRunsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
