package main

import (
	"bytes"
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/scttfrdmn/tabix-go/pkg/tabix"
)

var (
	queryParser  string
	queryIndex   string
	queryStrict  bool
	queryCount   bool
	queryHeader  bool
	queryWorkers int
	queryLimit   int
)

var queryCmd = &cobra.Command{
	Use:   "query <file.gz> [region...]",
	Short: "Print the records overlapping one or more regions",
	Long: `Print the records of a tabix-indexed file that overlap each region.

Regions use the 1-based samtools format: chr, chr:start or chr:start-end.
A chromosome name containing ':' is matched against the index first. With no
region the whole file is printed.

Regions are read concurrently and printed in the order given.

Examples:
  tabix-go query genes.bed.gz chr1:10000-20000
  tabix-go query calls.vcf.gz chr1 chr2:1-5000000 --count
  tabix-go query s3://bucket/annot.gff3.gz chrX:1-100000 --parser gff3 --strict`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, cfg, err := openFile(args[0], func(cfg *tabix.Config) error {
			if queryIndex != "" {
				cfg.IndexPath = queryIndex
			}
			if cmd.Flags().Changed("strict") {
				cfg.Strict = queryStrict
			}
			if queryWorkers > 0 {
				cfg.Workers = queryWorkers
			}
			if queryParser != "" {
				p, err := newParser(queryParser, cfg.Encoding)
				if err != nil {
					return err
				}
				cfg.Parser = p
			}
			return nil
		})
		if err != nil {
			return err
		}
		defer f.Close()

		regions := []tabix.Region{tabix.WholeFile()}
		if len(args) > 1 {
			regions = regions[:0]
			for _, s := range args[1:] {
				region, err := f.ParseRegion(s)
				if err != nil {
					return fmt.Errorf("invalid region: %w", err)
				}
				regions = append(regions, region)
			}
		}

		out := cmd.OutOrStdout()
		if queryHeader && !queryCount {
			header, err := f.Header()
			if err != nil {
				return err
			}
			for _, line := range header {
				fmt.Fprintln(out, line)
			}
		}

		results := make([]regionResult, len(regions))
		g, ctx := errgroup.WithContext(cmd.Context())
		g.SetLimit(cfg.Workers)
		for i, region := range regions {
			g.Go(func() error {
				return queryRegion(ctx, f, region, cfg.Parser != nil, &results[i])
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for i := range results {
			res := &results[i]
			if queryCount {
				fmt.Fprintf(out, "%s\t%d\n", regions[i], res.count)
			} else {
				out.Write(res.buf.Bytes())
			}
			if res.skipped > 0 {
				cmd.PrintErrf("%s: skipped %d malformed records\n", regions[i], res.skipped)
			}
		}
		return nil
	},
}

type regionResult struct {
	buf     bytes.Buffer
	count   int
	skipped int
}

// queryRegion drains one region into res, stopping early when ctx is done.
func queryRegion(ctx context.Context, f *tabix.IndexedFile, region tabix.Region, parsed bool, res *regionResult) error {
	var it interface {
		Next() bool
		Err() error
		Skipped() int
		Close() error
	}
	var line func() []byte

	if parsed {
		pit, err := f.FetchParsed(region, nil)
		if err != nil {
			return fmt.Errorf("failed to query %s: %w", region, err)
		}
		it, line = pit, func() []byte { return []byte(pit.Record().Text()) }
	} else {
		rit, err := f.Fetch(region)
		if err != nil {
			return fmt.Errorf("failed to query %s: %w", region, err)
		}
		it, line = rit, func() []byte { return rit.Record().Line }
	}
	defer it.Close()

	for it.Next() {
		if res.count%1024 == 0 && ctx.Err() != nil {
			return ctx.Err()
		}
		res.count++
		if queryLimit > 0 && res.count > queryLimit {
			res.count--
			break
		}
		if !queryCount {
			res.buf.Write(line())
			res.buf.WriteByte('\n')
		}
	}
	if err := it.Err(); err != nil {
		return fmt.Errorf("query %s failed: %w", region, err)
	}
	res.skipped = it.Skipped()
	return nil
}

func init() {
	queryCmd.Flags().StringVarP(&queryParser, "parser", "p", "",
		"Parse records as tuple, bed, gtf, gff3 or vcf before printing")
	queryCmd.Flags().StringVar(&queryIndex, "index", "",
		"Index path (default <file>.tbi, then <file>.csi)")
	queryCmd.Flags().BoolVar(&queryStrict, "strict", false,
		"Fail on the first malformed record instead of skipping it")
	queryCmd.Flags().BoolVarP(&queryCount, "count", "c", false,
		"Only print the number of records per region")
	queryCmd.Flags().BoolVarP(&queryHeader, "header", "H", false,
		"Print the header lines first")
	queryCmd.Flags().IntVarP(&queryWorkers, "workers", "w", 0,
		"Regions read in parallel (default: auto-detect)")
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "n", 0,
		"Stop after n records per region (0 = no limit)")
}
