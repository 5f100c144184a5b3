package tabix

import (
	"errors"
	"fmt"
	"io"

	"github.com/biogo/hts/bgzf"
	"github.com/biogo/hts/bgzf/cache"
)

// BlockReader reads lines from a BGZF container addressed by virtual offsets.
// A BlockReader is not safe for concurrent use; Duplicate gives each cursor its
// own file handle.
type BlockReader interface {
	// Seek positions the reader at a virtual offset.
	Seek(off bgzf.Offset) error
	// ReadLine returns the next line without its newline. The slice is reused by
	// the following call. io.EOF marks the end of the stream.
	ReadLine() ([]byte, error)
	// Offset returns the virtual offset of the next unread byte.
	Offset() bgzf.Offset
	// LastChunk returns the span of the line most recently returned.
	LastChunk() bgzf.Chunk
	// Duplicate opens an independent reader on the same file.
	Duplicate() (BlockReader, error)
	Close() error
}

type bgzfBlockReader struct {
	storage   Storage
	path      string
	cacheSize int

	f    File
	bg   *bgzf.Reader
	off  bgzf.Offset
	last bgzf.Chunk
	line []byte
	one  [1]byte
}

// OpenBlockReader opens path through storage as a BGZF stream. cacheSize is the
// number of decompressed blocks kept in an LRU cache; zero disables caching.
func OpenBlockReader(storage Storage, path string, cacheSize int) (BlockReader, error) {
	f, err := storage.Open(path)
	if err != nil {
		return nil, err
	}

	// A single decompressor keeps all work on the calling goroutine's schedule.
	bg, err := bgzf.NewReader(f, 1)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s is not BGZF: %v", ErrDecompression, path, err)
	}
	if cacheSize > 0 {
		bg.SetCache(cache.NewLRU(cacheSize))
	}

	return &bgzfBlockReader{
		storage:   storage,
		path:      path,
		cacheSize: cacheSize,
		f:         f,
		bg:        bg,
	}, nil
}

func (r *bgzfBlockReader) Seek(off bgzf.Offset) error {
	if err := r.bg.Seek(off); err != nil {
		return fmt.Errorf("%w: failed to seek %s to %d:%d: %v", ErrIO, r.path, off.File, off.Block, err)
	}
	r.off = off
	r.last = bgzf.Chunk{Begin: off, End: off}
	return nil
}

func (r *bgzfBlockReader) ReadLine() ([]byte, error) {
	r.line = r.line[:0]
	begin := r.off
	started := false
	for {
		n, err := r.bg.Read(r.one[:])
		if n > 0 {
			// A line starting a block begins at that block, not at the end of the previous one.
			if !started {
				begin = r.bg.LastChunk().Begin
				started = true
			}
			r.off = r.bg.LastChunk().End
			if r.one[0] == '\n' {
				r.last = bgzf.Chunk{Begin: begin, End: r.off}
				return r.line, nil
			}
			r.line = append(r.line, r.one[0])
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			if len(r.line) > 0 {
				r.last = bgzf.Chunk{Begin: begin, End: r.off}
				return r.line, nil
			}
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: %s near %d:%d: %v", ErrDecompression, r.path, r.off.File, r.off.Block, err)
	}
}

func (r *bgzfBlockReader) Offset() bgzf.Offset   { return r.off }
func (r *bgzfBlockReader) LastChunk() bgzf.Chunk { return r.last }

func (r *bgzfBlockReader) Duplicate() (BlockReader, error) {
	return OpenBlockReader(r.storage, r.path, r.cacheSize)
}

func (r *bgzfBlockReader) Close() error {
	err := r.bg.Close()
	if ferr := r.f.Close(); err == nil {
		err = ferr
	}
	return err
}
