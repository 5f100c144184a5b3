package parser

import (
	"bytes"
	"strconv"
	"strings"
)

// Record is a single parsed line. Fields are split on first access and the
// original bytes are kept until a field is modified.
type Record interface {
	// Len returns the number of tab-separated fields.
	Len() int
	// Field returns field i, or "" when the line has fewer fields.
	Field(i int) string
	// Fields returns a copy of all fields.
	Fields() []string
	// SetField replaces field i.
	SetField(i int, value string) error
	// Dirty reports whether any field was modified since parsing.
	Dirty() bool
	// Text returns the line without its newline, rebuilt from the fields when dirty.
	Text() string
	// Bytes returns the encoded line, the original bytes when not dirty.
	Bytes() []byte

	record()
}

// fields is the lazy field storage shared by every record variant.
type fields struct {
	raw    []byte
	enc    Encoding
	bounds []int    // start offset of every field plus a sentinel, nil until split
	values []string // materialised on first modification
	dirty  bool
}

func newFields(line []byte, enc Encoding) fields {
	return fields{raw: bytes.Clone(trimEOL(line)), enc: enc}
}

func (f *fields) record() {}

func (f *fields) split() {
	if f.bounds != nil {
		return
	}
	n := bytes.Count(f.raw, []byte{'\t'}) + 1
	f.bounds = make([]int, 0, n+1)
	f.bounds = append(f.bounds, 0)
	for i, b := range f.raw {
		if b == '\t' {
			f.bounds = append(f.bounds, i+1)
		}
	}
	f.bounds = append(f.bounds, len(f.raw)+1)
}

func (f *fields) Len() int {
	if f.values != nil {
		return len(f.values)
	}
	f.split()
	return len(f.bounds) - 1
}

func (f *fields) Field(i int) string {
	if f.values != nil {
		if i < 0 || i >= len(f.values) {
			return ""
		}
		return f.values[i]
	}
	f.split()
	if i < 0 || i >= len(f.bounds)-1 {
		return ""
	}
	return f.enc.Decode(f.raw[f.bounds[i] : f.bounds[i+1]-1])
}

func (f *fields) Fields() []string {
	n := f.Len()
	out := make([]string, n)
	for i := range out {
		out[i] = f.Field(i)
	}
	return out
}

func (f *fields) materialise() {
	if f.values == nil {
		f.values = f.Fields()
	}
}

func (f *fields) SetField(i int, value string) error {
	if i < 0 || i >= f.Len() {
		return ErrFieldIndex
	}
	f.materialise()
	f.values[i] = value
	f.dirty = true
	return nil
}

// setPadded sets field i, appending empty fields (or pad) as needed.
func (f *fields) setPadded(i int, value, pad string) {
	f.materialise()
	for len(f.values) <= i {
		f.values = append(f.values, pad)
	}
	f.values[i] = value
	f.dirty = true
}

func (f *fields) Dirty() bool { return f.dirty }

func (f *fields) Text() string {
	if !f.dirty {
		return f.enc.Decode(f.raw)
	}
	return strings.Join(f.values, "\t")
}

func (f *fields) Bytes() []byte {
	if !f.dirty {
		return f.raw
	}
	return f.enc.Encode(f.Text())
}

func (f *fields) String() string { return f.Text() }

// intField parses field i as an integer.
func (f *fields) intField(i int) (int, bool) {
	if i >= f.Len() {
		return 0, false
	}
	n, err := strconv.Atoi(f.Field(i))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Column returns the i-th tab-separated column of line without splitting the rest.
func Column(line []byte, i int) ([]byte, bool) {
	line = trimEOL(line)
	for ; i > 0; i-- {
		j := bytes.IndexByte(line, '\t')
		if j < 0 {
			return nil, false
		}
		line = line[j+1:]
	}
	if j := bytes.IndexByte(line, '\t'); j >= 0 {
		line = line[:j]
	}
	return line, true
}

// requireInt validates column i of line as an integer when the column is present.
func requireInt(line []byte, i int, name string) error {
	col, ok := Column(line, i)
	if !ok {
		return nil
	}
	if _, err := strconv.Atoi(string(col)); err != nil {
		return &MalformedRecordError{Column: i, Name: name, Value: string(col), Err: err}
	}
	return nil
}

func trimEOL(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte{'\n'})
	return bytes.TrimSuffix(line, []byte{'\r'})
}
