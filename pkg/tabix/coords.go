package tabix

import (
	"bytes"
	"strconv"

	"github.com/scttfrdmn/tabix-go/pkg/parser"
)

// interval is the location of one data line, 0-based half-open.
type interval struct {
	chrom []byte
	beg   int
	end   int
}

// coordinates extracts the sequence name and span of a data line according to
// the index configuration. Only the configured columns are examined.
func (c IndexConfig) coordinates(line []byte) (interval, error) {
	var iv interval

	chrom, ok := parser.Column(line, c.SeqColumn-1)
	if !ok {
		return iv, &MalformedRecordError{Column: c.SeqColumn - 1, Name: "sequence"}
	}
	iv.chrom = chrom

	beg, err := intColumn(line, c.BeginColumn-1, "begin")
	if err != nil {
		return iv, err
	}
	if !c.ZeroBased {
		beg--
	}
	if beg < 0 {
		beg = 0
	}
	iv.beg = beg

	switch c.Preset {
	case PresetVCF:
		iv.end = beg + vcfSpan(line)
	case PresetSAM:
		cigar, _ := parser.Column(line, 5)
		iv.end = beg + referenceLength(cigar)
	default:
		if c.EndColumn > 0 && c.EndColumn != c.BeginColumn {
			end, err := intColumn(line, c.EndColumn-1, "end")
			if err != nil {
				return iv, err
			}
			iv.end = end
		}
	}
	if iv.end <= iv.beg {
		iv.end = iv.beg + 1
	}
	return iv, nil
}

func intColumn(line []byte, i int, name string) (int, error) {
	col, ok := parser.Column(line, i)
	if !ok {
		return 0, &MalformedRecordError{Column: i, Name: name}
	}
	n, err := strconv.Atoi(string(col))
	if err != nil {
		return 0, &MalformedRecordError{Column: i, Name: name, Value: string(col), Err: err}
	}
	return n, nil
}

// vcfSpan is the number of reference bases a VCF record covers: up to INFO END
// when present, otherwise the length of REF.
func vcfSpan(line []byte) int {
	ref, _ := parser.Column(line, 3)
	span := len(ref)

	info, ok := parser.Column(line, 7)
	if !ok {
		return span
	}
	pos, err := intColumn(line, 1, "pos")
	if err != nil {
		return span
	}
	for _, kv := range bytes.Split(info, []byte{';'}) {
		v, found := bytes.CutPrefix(kv, []byte("END="))
		if !found {
			continue
		}
		if end, err := strconv.Atoi(string(v)); err == nil && end >= pos {
			return end - pos + 1
		}
		break
	}
	return span
}

// referenceLength returns the number of reference bases a CIGAR string consumes.
func referenceLength(cigar []byte) int {
	if len(cigar) == 0 || (len(cigar) == 1 && cigar[0] == '*') {
		return 0
	}

	length := 0
	n := 0
	for _, ch := range cigar {
		if ch >= '0' && ch <= '9' {
			n = n*10 + int(ch-'0')
			continue
		}
		switch ch {
		case 'M', 'D', 'N', '=', 'X':
			length += n
		}
		n = 0
	}
	return length
}
