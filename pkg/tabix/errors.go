package tabix

import (
	"errors"

	"github.com/scttfrdmn/tabix-go/pkg/parser"
)

// Sentinel errors returned by tabix operations. Callers match them with errors.Is;
// the returned errors usually wrap them with path or region context.
var (
	// ErrNotFound is returned when the data file does not exist.
	ErrNotFound = errors.New("data file not found")

	// ErrIndexNotFound is returned when no index exists at the given or derived path.
	ErrIndexNotFound = errors.New("index not found")

	// ErrIndexFormat is returned when the index magic or structure is invalid.
	ErrIndexFormat = errors.New("invalid index format")

	// ErrIndexVersion is returned for a recognised index family with an unsupported version.
	ErrIndexVersion = errors.New("unsupported index version")

	// ErrClosed is returned when operating on a closed file handle or iterator.
	ErrClosed = errors.New("file handle is closed")

	// ErrRegion is returned for malformed or ambiguous region requests.
	ErrRegion = errors.New("invalid region")

	// ErrDecompression is returned when a BGZF block cannot be decoded.
	ErrDecompression = errors.New("decompression failed")

	// ErrIO is returned when the underlying storage fails.
	ErrIO = errors.New("i/o error")

	// ErrMalformedRecord is returned when a record's coordinate columns are not integers.
	ErrMalformedRecord = parser.ErrMalformedRecord
)

// MalformedRecordError describes a single record whose coordinates could not be read.
type MalformedRecordError = parser.MalformedRecordError
