package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord is returned when a mandatory coordinate column is not an integer.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrFieldIndex is returned when setting a field outside the record.
	ErrFieldIndex = errors.New("field index out of range")

	// ErrUnknownFormat is returned by ParseFormat for unrecognised format names.
	ErrUnknownFormat = errors.New("unknown format")

	// ErrUnknownEncoding is returned by LookupEncoding for unsupported encodings.
	ErrUnknownEncoding = errors.New("unknown encoding")
)

// MalformedRecordError reports the column of a single record that failed to parse.
// It matches ErrMalformedRecord with errors.Is.
type MalformedRecordError struct {
	Column int    // 0-based column index
	Name   string // column name, e.g. "start"
	Value  string
	Err    error
}

func (e *MalformedRecordError) Error() string {
	name := e.Name
	if name == "" {
		name = fmt.Sprintf("column %d", e.Column+1)
	}
	if e.Err != nil {
		return fmt.Sprintf("malformed record: %s %q: %v", name, e.Value, e.Err)
	}
	return fmt.Sprintf("malformed record: %s %q", name, e.Value)
}

// Unwrap exposes both ErrMalformedRecord and the underlying conversion error.
func (e *MalformedRecordError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedRecord}
	}
	return []error{ErrMalformedRecord, e.Err}
}
