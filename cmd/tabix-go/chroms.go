package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var chromsCmd = &cobra.Command{
	Use:     "chroms <file.gz>",
	Aliases: []string{"contigs"},
	Short:   "List the chromosomes named in the index",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, _, err := openFile(args[0], nil)
		if err != nil {
			return err
		}
		defer f.Close()

		for _, name := range f.Chromosomes() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}
