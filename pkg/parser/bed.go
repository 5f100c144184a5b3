package parser

import (
	"strconv"
	"strings"
)

// BED column positions.
const (
	bedChrom = iota
	bedStart
	bedEnd
	bedName
	bedScore
	bedStrand
	bedThickStart
	bedThickEnd
	bedItemRGB
	bedBlockCount
	bedBlockSizes
	bedBlockStarts
)

// BEDRecord is a BED line. Coordinates are 0-based half-open as stored.
type BEDRecord struct {
	fields
}

func parseBED(line []byte, enc Encoding) (Record, error) {
	if err := requireInt(line, bedStart, "start"); err != nil {
		return nil, err
	}
	if err := requireInt(line, bedEnd, "end"); err != nil {
		return nil, err
	}
	return &BEDRecord{fields: newFields(line, enc)}, nil
}

func (r *BEDRecord) Chrom() string { return r.Field(bedChrom) }

func (r *BEDRecord) Start() int {
	n, _ := r.intField(bedStart)
	return n
}

func (r *BEDRecord) End() int {
	n, _ := r.intField(bedEnd)
	return n
}

func (r *BEDRecord) Name() string   { return r.Field(bedName) }
func (r *BEDRecord) Score() string  { return r.Field(bedScore) }
func (r *BEDRecord) Strand() string { return r.Field(bedStrand) }
func (r *BEDRecord) ItemRGB() string {
	return r.Field(bedItemRGB)
}

// ThickStart returns the thickStart column when present and numeric.
func (r *BEDRecord) ThickStart() (int, bool) { return r.intField(bedThickStart) }

// ThickEnd returns the thickEnd column when present and numeric.
func (r *BEDRecord) ThickEnd() (int, bool) { return r.intField(bedThickEnd) }

// BlockCount returns the blockCount column when present and numeric.
func (r *BEDRecord) BlockCount() (int, bool) { return r.intField(bedBlockCount) }

// BlockSizes returns the comma-separated blockSizes column.
func (r *BEDRecord) BlockSizes() []int { return intList(r.Field(bedBlockSizes)) }

// BlockStarts returns the comma-separated blockStarts column.
func (r *BEDRecord) BlockStarts() []int { return intList(r.Field(bedBlockStarts)) }

func (r *BEDRecord) SetChrom(chrom string) { r.setPadded(bedChrom, chrom, "") }
func (r *BEDRecord) SetStart(start int)    { r.setPadded(bedStart, strconv.Itoa(start), "0") }
func (r *BEDRecord) SetEnd(end int)        { r.setPadded(bedEnd, strconv.Itoa(end), "0") }

// SetName sets the name column, adding the column if the line is shorter.
func (r *BEDRecord) SetName(name string) { r.setPadded(bedName, name, ".") }

// SetScore sets the score column, padding intermediate columns with ".".
func (r *BEDRecord) SetScore(score string) { r.setPadded(bedScore, score, ".") }

// SetStrand sets the strand column, padding intermediate columns with ".".
func (r *BEDRecord) SetStrand(strand string) { r.setPadded(bedStrand, strand, ".") }

func intList(s string) []int {
	s = strings.TrimSuffix(s, ",")
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil
		}
		out = append(out, n)
	}
	return out
}
