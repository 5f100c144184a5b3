package parser

import (
	"strconv"
	"strings"
)

// Column positions shared by GTF and GFF3.
const (
	gffContig = iota
	gffSource
	gffFeature
	gffStart
	gffEnd
	gffScore
	gffStrand
	gffFrame
	gffAttributes
)

// Attribute is one key/value pair of a GTF or GFF3 attribute column.
type Attribute struct {
	Key   string
	Value string
}

// gffColumns implements the eight fixed columns common to GTF and GFF3.
// Start is exposed 0-based, End as stored (1-based inclusive equals 0-based exclusive).
type gffColumns struct {
	fields
}

func parseGFFCoordinates(line []byte) error {
	if err := requireInt(line, gffStart, "start"); err != nil {
		return err
	}
	return requireInt(line, gffEnd, "end")
}

func (r *gffColumns) Contig() string  { return r.Field(gffContig) }
func (r *gffColumns) Source() string  { return r.Field(gffSource) }
func (r *gffColumns) Feature() string { return r.Field(gffFeature) }
func (r *gffColumns) Score() string   { return r.Field(gffScore) }
func (r *gffColumns) Strand() string  { return r.Field(gffStrand) }
func (r *gffColumns) Frame() string   { return r.Field(gffFrame) }

func (r *gffColumns) Start() int {
	n, _ := r.intField(gffStart)
	return n - 1
}

func (r *gffColumns) End() int {
	n, _ := r.intField(gffEnd)
	return n
}

func (r *gffColumns) SetContig(v string)  { r.setPadded(gffContig, v, ".") }
func (r *gffColumns) SetSource(v string)  { r.setPadded(gffSource, v, ".") }
func (r *gffColumns) SetFeature(v string) { r.setPadded(gffFeature, v, ".") }
func (r *gffColumns) SetStrand(v string)  { r.setPadded(gffStrand, v, ".") }

// SetStart takes a 0-based start and stores it 1-based.
func (r *gffColumns) SetStart(start int) {
	r.setPadded(gffStart, strconv.Itoa(start+1), ".")
}

func (r *gffColumns) SetEnd(end int) { r.setPadded(gffEnd, strconv.Itoa(end), ".") }

// GTFRecord is a GTF (GFF2) line with `key "value";` attributes.
type GTFRecord struct {
	gffColumns
}

func parseGTF(line []byte, enc Encoding) (Record, error) {
	if err := parseGFFCoordinates(line); err != nil {
		return nil, err
	}
	return &GTFRecord{gffColumns{fields: newFields(line, enc)}}, nil
}

// Attributes returns the attribute pairs in column order, quotes removed.
func (r *GTFRecord) Attributes() []Attribute {
	var attrs []Attribute
	for _, item := range splitGTFAttributes(r.Field(gffAttributes)) {
		key, value, _ := strings.Cut(item, " ")
		value = strings.TrimSpace(value)
		if unq, err := strconv.Unquote(value); err == nil {
			value = unq
		} else {
			value = strings.Trim(value, `"`)
		}
		attrs = append(attrs, Attribute{Key: key, Value: value})
	}
	return attrs
}

// Attribute returns the first value stored under key.
func (r *GTFRecord) Attribute(key string) (string, bool) {
	return lookupAttribute(r.Attributes(), key)
}

// GeneID returns the gene_id attribute.
func (r *GTFRecord) GeneID() string {
	v, _ := r.Attribute("gene_id")
	return v
}

// TranscriptID returns the transcript_id attribute.
func (r *GTFRecord) TranscriptID() string {
	v, _ := r.Attribute("transcript_id")
	return v
}

// SetAttribute replaces the first value of key, or appends the pair.
// Non-numeric values are quoted.
func (r *GTFRecord) SetAttribute(key, value string) {
	attrs := setAttribute(r.Attributes(), key, value)
	items := make([]string, len(attrs))
	for i, a := range attrs {
		v := a.Value
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			v = strconv.Quote(v)
		}
		items[i] = a.Key + " " + v + ";"
	}
	r.setPadded(gffAttributes, strings.Join(items, " "), ".")
}

// splitGTFAttributes splits on ';' outside double quotes.
func splitGTFAttributes(s string) []string {
	var items []string
	inQuote := false
	start := 0
	add := func(item string) {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case ';':
			if !inQuote {
				add(s[start:i])
				start = i + 1
			}
		}
	}
	add(s[start:])
	return items
}

func lookupAttribute(attrs []Attribute, key string) (string, bool) {
	for _, a := range attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

func setAttribute(attrs []Attribute, key, value string) []Attribute {
	for i := range attrs {
		if attrs[i].Key == key {
			attrs[i].Value = value
			return attrs
		}
	}
	return append(attrs, Attribute{Key: key, Value: value})
}
