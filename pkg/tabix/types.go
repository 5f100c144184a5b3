package tabix

import (
	"bytes"
	"fmt"

	"github.com/biogo/hts/bgzf"
)

// Region is a genomic interval query. Start is inclusive and End exclusive,
// both 0-based. End < 0 means "to the end of the chromosome" and an empty
// Chrom means the whole file.
type Region struct {
	Chrom string
	Start int
	End   int
}

// WholeFile returns the region covering every record in the file.
func WholeFile() Region { return Region{End: -1} }

// Chromosome returns the region covering a whole chromosome.
func Chromosome(name string) Region { return Region{Chrom: name, End: -1} }

// Interval returns the half-open region [start, end) on chrom.
func Interval(chrom string, start, end int) Region {
	return Region{Chrom: chrom, Start: start, End: end}
}

// IsWholeFile reports whether the region selects the entire file.
func (r Region) IsWholeFile() bool { return r.Chrom == "" }

// Validate checks Start <= End and that Start is not negative.
func (r Region) Validate() error {
	if r.Start < 0 {
		return fmt.Errorf("%w: negative start %d", ErrRegion, r.Start)
	}
	if r.End >= 0 && r.Start > r.End {
		return fmt.Errorf("%w: start %d is after end %d", ErrRegion, r.Start, r.End)
	}
	return nil
}

// String formats the region in the 1-based samtools style.
func (r Region) String() string {
	switch {
	case r.Chrom == "":
		return "*"
	case r.End < 0 && r.Start == 0:
		return r.Chrom
	case r.End < 0:
		return fmt.Sprintf("%s:%d", r.Chrom, r.Start+1)
	}
	return fmt.Sprintf("%s:%d-%d", r.Chrom, r.Start+1, r.End)
}

// IteratorState is the lifecycle position of a record iterator.
type IteratorState int

const (
	StateCreated IteratorState = iota
	StateInRange
	StateExhausted
	StateFailed
)

func (s IteratorState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInRange:
		return "in-range"
	case StateExhausted:
		return "exhausted"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("IteratorState(%d)", int(s))
}

// RawRecord is one undecoded line and the virtual-offset span it was read from.
type RawRecord struct {
	Line  []byte
	Chunk bgzf.Chunk
}

// Clone copies the line so the record outlives the iterator step.
func (r RawRecord) Clone() RawRecord {
	return RawRecord{Line: bytes.Clone(r.Line), Chunk: r.Chunk}
}

// RecordIterator yields raw lines. It is a single-goroutine cursor:
//
//	for it.Next() {
//		rec := it.Record()
//	}
//	if err := it.Err(); err != nil { ... }
//
// The line returned by Record is only valid until the next call to Next.
type RecordIterator interface {
	Next() bool
	Record() RawRecord
	Err() error
	State() IteratorState
	// Skipped counts malformed records dropped under the tolerant policy.
	Skipped() int
	Close() error
}

// ReferenceStats holds the per-chromosome summary stored in the index pseudo-bin.
type ReferenceStats struct {
	Mapped   uint64
	Unmapped uint64
	Chunk    bgzf.Chunk
}

// compareOffsets orders virtual offsets by compressed block, then in-block position.
func compareOffsets(a, b bgzf.Offset) int {
	switch {
	case a.File < b.File:
		return -1
	case a.File > b.File:
		return 1
	case a.Block < b.Block:
		return -1
	case a.Block > b.Block:
		return 1
	}
	return 0
}

// virtualOffset splits a packed 64-bit virtual offset.
func virtualOffset(v uint64) bgzf.Offset {
	return bgzf.Offset{File: int64(v >> 16), Block: uint16(v)}
}
