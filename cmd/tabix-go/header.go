package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var headerCmd = &cobra.Command{
	Use:   "header <file.gz>",
	Short: "Print the header lines of a tabix-indexed file",
	Long: `Print the leading meta lines (those starting with the index meta character,
usually '#') and any lines the index marks as skipped.

Example:
  tabix-go header calls.vcf.gz`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, _, err := openFile(args[0], nil)
		if err != nil {
			return err
		}
		defer f.Close()

		header, err := f.Header()
		if err != nil {
			return fmt.Errorf("failed to read header: %w", err)
		}
		for _, line := range header {
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}
