package tabix

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/biogo/hts/bgzf"
	"github.com/sirupsen/logrus"
)

// policy decides what happens to records whose coordinates cannot be read.
type policy struct {
	strict      bool
	onMalformed func(error)
}

// cursor is the state shared by the region and whole-file iterators. mu is
// held for the duration of each step so that closing the file can release the
// reader of an iterator another goroutine is using.
type cursor struct {
	file   *IndexedFile
	policy policy
	log    logrus.FieldLogger

	mu      sync.Mutex
	reader  BlockReader
	state   IteratorState
	rec     RawRecord
	err     error
	skipped int
	lineNo  int
}

// step reports whether the cursor may read. It fails the cursor when the file
// was closed underneath it.
func (c *cursor) step() bool {
	if c.state == StateExhausted || c.state == StateFailed {
		return false
	}
	if c.file.closed.Load() {
		c.fail(ErrClosed)
		return false
	}
	return true
}

func (c *cursor) finish() {
	c.state = StateExhausted
	c.rec = RawRecord{}
	c.release()
}

func (c *cursor) fail(err error) {
	c.state = StateFailed
	c.err = err
	c.rec = RawRecord{}
	c.release()
	c.log.WithError(err).Debug("iterator failed")
}

// malformed applies the policy to a bad record and reports whether to continue.
func (c *cursor) malformed(err error, line []byte) bool {
	var mre *MalformedRecordError
	if errors.As(err, &mre) && mre.Value == "" && len(line) > 0 {
		mre.Value = string(line)
	}
	if c.policy.strict {
		c.fail(err)
		return false
	}
	c.skipped++
	c.log.WithFields(logrus.Fields{
		"line":  c.lineNo,
		"error": err,
	}).Warn("skipping malformed record")
	if c.policy.onMalformed != nil {
		c.policy.onMalformed(err)
	}
	return true
}

func (c *cursor) readLine() ([]byte, error) {
	line, err := c.reader.ReadLine()
	if err != nil {
		return nil, err
	}
	c.lineNo++
	return trimCR(line), nil
}

// release closes the reader and unregisters the cursor from its file.
func (c *cursor) release() {
	if err := c.releaseReader(); err != nil {
		c.log.WithError(err).Debug("failed to close reader")
	}
	c.file.forget(c)
}

func (c *cursor) releaseReader() error {
	if c.reader == nil {
		return nil
	}
	err := c.reader.Close()
	c.reader = nil
	return err
}

func (c *cursor) Record() RawRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rec
}

func (c *cursor) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *cursor) State() IteratorState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *cursor) Skipped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.skipped
}

// Close releases the reader. A closed iterator is exhausted.
func (c *cursor) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateFailed {
		c.state = StateExhausted
	}
	c.rec = RawRecord{}
	err := c.releaseReader()
	c.file.forget(c)
	return err
}

// readError classifies a reader failure.
func readError(path string, err error) error {
	if errors.Is(err, ErrDecompression) || errors.Is(err, ErrIO) {
		return err
	}
	return fmt.Errorf("%w: failed to read %s: %v", ErrIO, path, err)
}

// RegionIterator yields the records overlapping one region, visiting the
// index chunks in file order.
type RegionIterator struct {
	*cursor
	region Region
	conf   IndexConfig
	chunks []bgzf.Chunk
	next   int
	seen   bool
}

var _ RecordIterator = (*RegionIterator)(nil)

// Region returns the query, with an open end resolved to the index maximum.
func (it *RegionIterator) Region() Region { return it.region }

// Chunks returns the index chunks the iterator reads.
func (it *RegionIterator) Chunks() []bgzf.Chunk { return it.chunks }

func (it *RegionIterator) Next() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	if !it.step() {
		return false
	}

	for {
		if it.state == StateCreated || compareOffsets(it.reader.Offset(), it.chunks[it.next].End) >= 0 {
			if !it.advance() {
				return false
			}
		}

		line, err := it.readLine()
		if errors.Is(err, io.EOF) {
			it.finish()
			return false
		}
		if err != nil {
			it.fail(readError(it.file.dataPath, err))
			return false
		}
		if len(line) == 0 || it.file.isMeta(line) {
			continue
		}

		iv, err := it.conf.coordinates(line)
		if err != nil {
			if !it.malformed(err, line) {
				return false
			}
			continue
		}
		if string(iv.chrom) != it.region.Chrom {
			if it.seen {
				// Sorted input: the chromosome is over.
				it.finish()
				return false
			}
			continue
		}
		it.seen = true
		if iv.beg >= it.region.End {
			it.finish()
			return false
		}
		if !it.region.overlaps(iv.beg, iv.end) {
			continue
		}

		it.rec = RawRecord{Line: line, Chunk: it.reader.LastChunk()}
		return true
	}
}

// advance moves to the next chunk, seeking only when it starts beyond the
// current position.
func (it *RegionIterator) advance() bool {
	it.next++
	if it.next >= len(it.chunks) {
		it.finish()
		return false
	}
	chunk := it.chunks[it.next]
	if it.state == StateCreated || compareOffsets(chunk.Begin, it.reader.Offset()) > 0 {
		if err := it.reader.Seek(chunk.Begin); err != nil {
			it.fail(err)
			return false
		}
	}
	it.state = StateInRange
	return true
}

// WholeFileIterator yields every non-header line in file order.
type WholeFileIterator struct {
	*cursor
}

var _ RecordIterator = (*WholeFileIterator)(nil)

func (it *WholeFileIterator) Next() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	if !it.step() {
		return false
	}

	if it.state == StateCreated {
		if err := it.reader.Seek(bgzf.Offset{}); err != nil {
			it.fail(err)
			return false
		}
		it.state = StateInRange
	}

	for {
		line, err := it.readLine()
		if errors.Is(err, io.EOF) {
			it.finish()
			return false
		}
		if err != nil {
			it.fail(readError(it.file.dataPath, err))
			return false
		}
		if it.lineNo <= it.file.skip || len(line) == 0 || it.file.isMeta(line) {
			continue
		}
		it.rec = RawRecord{Line: line, Chunk: it.reader.LastChunk()}
		return true
	}
}
