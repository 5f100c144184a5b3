package parser

import (
	"net/url"
	"strings"
)

// GFF3Record is a GFF3 line with `key=value;` attributes.
type GFF3Record struct {
	gffColumns
}

func parseGFF3(line []byte, enc Encoding) (Record, error) {
	if err := parseGFFCoordinates(line); err != nil {
		return nil, err
	}
	return &GFF3Record{gffColumns{fields: newFields(line, enc)}}, nil
}

// Attributes returns the attribute pairs in column order with percent-escapes decoded.
// Duplicate keys are kept; Attribute and AttributeMap use the first occurrence.
func (r *GFF3Record) Attributes() []Attribute {
	col := r.Field(gffAttributes)
	if col == "" || col == "." {
		return nil
	}
	var attrs []Attribute
	for _, item := range strings.Split(col, ";") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key, value, _ := strings.Cut(item, "=")
		attrs = append(attrs, Attribute{Key: unescapeGFF3(key), Value: unescapeGFF3(value)})
	}
	return attrs
}

// AttributeMap decomposes the attribute column; the first occurrence of a key wins.
func (r *GFF3Record) AttributeMap() map[string]string {
	attrs := r.Attributes()
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		if _, seen := m[a.Key]; !seen {
			m[a.Key] = a.Value
		}
	}
	return m
}

// Attribute returns the first value stored under key.
func (r *GFF3Record) Attribute(key string) (string, bool) {
	return lookupAttribute(r.Attributes(), key)
}

// AttributeValues splits a multi-valued attribute such as Parent=a,b.
func (r *GFF3Record) AttributeValues(key string) []string {
	v, ok := r.Attribute(key)
	if !ok || v == "" {
		return nil
	}
	return strings.Split(v, ",")
}

// ID returns the ID attribute.
func (r *GFF3Record) ID() string {
	v, _ := r.Attribute("ID")
	return v
}

// SetAttribute replaces the first value of key, or appends the pair, and
// rewrites the attribute column with reserved characters escaped.
func (r *GFF3Record) SetAttribute(key, value string) {
	attrs := setAttribute(r.Attributes(), key, value)
	items := make([]string, len(attrs))
	for i, a := range attrs {
		items[i] = escapeGFF3(a.Key) + "=" + escapeGFF3Value(a.Value)
	}
	r.setPadded(gffAttributes, strings.Join(items, ";"), ".")
}

func unescapeGFF3(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	out, err := url.PathUnescape(s)
	if err != nil {
		return s
	}
	return out
}

var gff3Escaper = strings.NewReplacer(
	"%", "%25",
	";", "%3B",
	"=", "%3D",
	"&", "%26",
	",", "%2C",
	"\t", "%09",
	"\n", "%0A",
	"\r", "%0D",
)

func escapeGFF3(s string) string { return gff3Escaper.Replace(s) }

// escapeGFF3Value keeps commas, which separate multiple values.
func escapeGFF3Value(s string) string {
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = escapeGFF3(p)
	}
	return strings.Join(parts, ",")
}
