package tabix

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseRegion parses "chr", "chr:beg" or "chr:beg-end" with 1-based inclusive
// coordinates (commas allowed) into a 0-based half-open Region. The position
// suffix is split at the last ':'; when it is not a position range the whole
// string is taken as the chromosome name.
func ParseRegion(s string) (Region, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Region{}, fmt.Errorf("%w: empty region", ErrRegion)
	}

	i := strings.LastIndexByte(s, ':')
	if i < 0 {
		return Chromosome(s), nil
	}
	chrom, pos := s[:i], s[i+1:]
	if chrom == "" {
		return Region{}, fmt.Errorf("%w: missing chromosome in %q", ErrRegion, s)
	}

	begStr, endStr, hasEnd := strings.Cut(pos, "-")
	beg, err := parsePosition(begStr)
	if err != nil {
		return Chromosome(s), nil
	}
	if beg < 1 {
		return Region{}, fmt.Errorf("%w: start position %d in %q (positions are 1-based)", ErrRegion, beg, s)
	}
	if !hasEnd || endStr == "" {
		return Region{Chrom: chrom, Start: beg - 1, End: -1}, nil
	}

	end, err := parsePosition(endStr)
	if err != nil {
		return Region{}, fmt.Errorf("%w: invalid end position in %q", ErrRegion, s)
	}
	region := Interval(chrom, beg-1, end)
	if err := region.Validate(); err != nil {
		return Region{}, err
	}
	return region, nil
}

func parsePosition(s string) (int, error) {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	return strconv.Atoi(s)
}

// overlaps reports whether [beg, end) intersects the region, with End already resolved.
func (r Region) overlaps(beg, end int) bool {
	return beg < r.End && end > r.Start
}
