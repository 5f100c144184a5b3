// Package parser turns tab-delimited genomic text lines into field-addressable
// records. A Parser is one of a fixed set of formats (Tuple, BED, GTF, GFF3, VCF);
// all of them split lazily and keep the original bytes until a field changes.
package parser

import (
	"fmt"
	"strings"
)

// Format identifies a parser variant.
type Format int

const (
	FormatTuple Format = iota
	FormatBED
	FormatGTF
	FormatGFF3
	FormatVCF
)

var formatNames = map[Format]string{
	FormatTuple: "tuple",
	FormatBED:   "bed",
	FormatGTF:   "gtf",
	FormatGFF3:  "gff3",
	FormatVCF:   "vcf",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat maps a format name (case-insensitive) to a Format.
func ParseFormat(name string) (Format, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "gff":
		return FormatGFF3, nil
	case "", "raw":
		return FormatTuple, nil
	}
	for f, n := range formatNames {
		if n == key {
			return f, nil
		}
	}
	return FormatTuple, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
}

// Parser converts one line into a Record. Implementations are limited to the
// formats declared in this package.
type Parser interface {
	Format() Format
	Encoding() Encoding
	// Parse never fails for short lines; it returns a *MalformedRecordError when a
	// mandatory coordinate column is present but not an integer.
	Parse(line []byte) (Record, error)

	sealed()
}

type formatParser struct {
	format Format
	enc    Encoding
	parse  func(line []byte, enc Encoding) (Record, error)
}

// New returns the parser for format f using encoding enc.
func New(f Format, enc Encoding) (Parser, error) {
	p := &formatParser{format: f, enc: enc}
	switch f {
	case FormatTuple:
		p.parse = parseTuple
	case FormatBED:
		p.parse = parseBED
	case FormatGTF:
		p.parse = parseGTF
	case FormatGFF3:
		p.parse = parseGFF3
	case FormatVCF:
		p.parse = parseVCF
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, f)
	}
	return p, nil
}

func mustNew(f Format) Parser {
	p, err := New(f, UTF8)
	if err != nil {
		panic(err)
	}
	return p
}

// AsTuple returns a UTF-8 parser exposing positional fields only.
func AsTuple() Parser { return mustNew(FormatTuple) }

// AsBED returns a UTF-8 BED parser.
func AsBED() Parser { return mustNew(FormatBED) }

// AsGTF returns a UTF-8 GTF parser.
func AsGTF() Parser { return mustNew(FormatGTF) }

// AsGFF3 returns a UTF-8 GFF3 parser.
func AsGFF3() Parser { return mustNew(FormatGFF3) }

// AsVCF returns a UTF-8 VCF parser.
func AsVCF() Parser { return mustNew(FormatVCF) }

func (p *formatParser) Format() Format     { return p.format }
func (p *formatParser) Encoding() Encoding { return p.enc }
func (p *formatParser) sealed()            {}

func (p *formatParser) Parse(line []byte) (Record, error) {
	return p.parse(line, p.enc)
}

// TupleRecord exposes positional fields with no named columns.
type TupleRecord struct {
	fields
}

func parseTuple(line []byte, enc Encoding) (Record, error) {
	return &TupleRecord{fields: newFields(line, enc)}, nil
}
