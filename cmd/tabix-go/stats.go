package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats <file.gz>",
	Short: "Show index statistics for a tabix-indexed file",
	Long: `Display the index layout and the per-chromosome record counts stored in
the index. Nothing but the index is read.

Example:
  tabix-go stats genes.bed.gz`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, _, err := openFile(args[0], nil)
		if err != nil {
			return err
		}
		defer f.Close()

		out := cmd.OutOrStdout()
		idx := f.Index()
		conf := idx.Config()

		fmt.Fprintln(out, "===========================================")
		fmt.Fprintln(out, "Tabix Index Statistics")
		fmt.Fprintln(out, "===========================================")
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Data: %s\n", f.Path())
		fmt.Fprintf(out, "Index: %s (%s)\n", f.IndexPath(), idx.Kind())
		fmt.Fprintln(out)

		fmt.Fprintln(out, "Layout:")
		fmt.Fprintf(out, "  Preset: %s\n", conf.Preset)
		if conf.ZeroBased {
			fmt.Fprintln(out, "  Coordinates: 0-based, half-open")
		} else {
			fmt.Fprintln(out, "  Coordinates: 1-based, closed")
		}
		fmt.Fprintf(out, "  Columns: sequence=%d begin=%d end=%d\n",
			conf.SeqColumn, conf.BeginColumn, conf.EndColumn)
		fmt.Fprintf(out, "  Meta character: %q\n", conf.MetaChar)
		fmt.Fprintf(out, "  Skipped lines: %d\n", conf.Skip)
		fmt.Fprintln(out)

		fmt.Fprintln(out, "References:")
		var total uint64
		for _, name := range f.Chromosomes() {
			stats, ok := idx.ReferenceStats(name)
			if !ok {
				fmt.Fprintf(out, "  %s: no statistics\n", name)
				continue
			}
			total += stats.Mapped
			fmt.Fprintf(out, "  %s: %d records\n", name, stats.Mapped)
		}
		fmt.Fprintf(out, "  Total: %d records\n", total)
		if n, ok := idx.Unplaced(); ok {
			fmt.Fprintf(out, "  Without coordinates: %d\n", n)
		}
		return nil
	},
}
