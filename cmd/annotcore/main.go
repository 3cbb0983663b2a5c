package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"annotcore/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "annotcore",
		Short: "annotcore - microscopy upload annotation engine",
		Long: `annotcore builds, validates, and persists microscopy upload metadata:
it expands file arguments into upload records, applies annotation
templates, reports validation errors, and manages saved drafts.`,
	}

	rootCmd.AddCommand(cli.ValidateCmd())
	rootCmd.AddCommand(cli.RowsCmd())
	rootCmd.AddCommand(cli.RequestsCmd())
	rootCmd.AddCommand(cli.DraftCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
