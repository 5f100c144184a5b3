// Package tabix reads records from BGZF-compressed, tab-delimited genomic files
// through a tabix (.tbi) or CSI (.csi) index.
//
// A typical query:
//
//	f, err := tabix.Open("genes.bed.gz", nil)
//	if err != nil {
//		return err
//	}
//	defer f.Close()
//
//	it, err := f.Fetch(tabix.Interval("chr1", 10000, 20000))
//	if err != nil {
//		return err
//	}
//	defer it.Close()
//	for it.Next() {
//		fmt.Println(string(it.Record().Line))
//	}
//	return it.Err()
package tabix

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/scttfrdmn/tabix-go/pkg/parser"
)

// IndexedFile is an open data file together with its index. Fetch may be called
// from several goroutines; every iterator reads through its own file handle.
type IndexedFile struct {
	dataPath  string
	indexPath string
	storage   Storage
	index     *Index
	cfg       Config
	log       logrus.FieldLogger
	enc       parser.Encoding
	metaChar  byte
	skip      int
	reader    BlockReader

	mu     sync.Mutex
	parser parser.Parser
	live   map[*cursor]struct{}
	closed atomic.Bool
}

// TabixFile is the historical name of IndexedFile.
type TabixFile = IndexedFile

// Open opens dataPath and its index, choosing local or S3 storage from the path.
// A nil cfg uses NewConfig.
func Open(dataPath string, cfg *Config) (*IndexedFile, error) {
	storage, err := NewStorage(context.Background(), dataPath)
	if err != nil {
		return nil, err
	}
	return OpenWithStorage(storage, dataPath, cfg)
}

// OpenWithStorage opens dataPath and its index through an explicit storage backend.
func OpenWithStorage(storage Storage, dataPath string, cfg *Config) (*IndexedFile, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	copied := *cfg
	cfg = &copied
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.logger().WithField("path", dataPath)

	exists, err := storage.Exists(dataPath)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to stat %s: %v", ErrIO, dataPath, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, dataPath)
	}

	indexPath, err := findIndex(storage, dataPath, cfg.IndexPath)
	if err != nil {
		return nil, err
	}
	index, err := LoadIndex(storage, indexPath)
	if err != nil {
		return nil, err
	}

	reader, err := OpenBlockReader(storage, dataPath, cfg.BlockCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", dataPath, err)
	}

	f := &IndexedFile{
		dataPath:  dataPath,
		indexPath: indexPath,
		storage:   storage,
		index:     index,
		cfg:       *cfg,
		log:       log,
		enc:       cfg.encoding(),
		metaChar:  index.conf.MetaChar,
		skip:      index.conf.Skip,
		reader:    reader,
		parser:    cfg.Parser,
		live:      make(map[*cursor]struct{}),
	}
	if cfg.MetaChar != 0 {
		f.metaChar = cfg.MetaChar
	}
	if f.metaChar == 0 {
		f.metaChar = '#'
	}

	log.WithFields(logrus.Fields{
		"index":       indexPath,
		"format":      index.Kind(),
		"preset":      index.conf.Preset,
		"chromosomes": len(index.names),
	}).Debug("opened indexed file")
	return f, nil
}

// findIndex returns the explicit index path, or the first of <data>.tbi and
// <data>.csi that exists.
func findIndex(storage Storage, dataPath, explicit string) (string, error) {
	candidates := []string{dataPath + ".tbi", dataPath + ".csi"}
	if explicit != "" {
		candidates = []string{explicit}
	}
	for _, p := range candidates {
		ok, err := storage.Exists(p)
		if err != nil {
			return "", fmt.Errorf("%w: failed to stat %s: %v", ErrIO, p, err)
		}
		if ok {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %v", ErrIndexNotFound, candidates)
}

// Path returns the data file path.
func (f *IndexedFile) Path() string { return f.dataPath }

// IndexPath returns the path the index was loaded from.
func (f *IndexedFile) IndexPath() string { return f.indexPath }

// Index returns the loaded index.
func (f *IndexedFile) Index() *Index { return f.index }

// Chromosomes returns the indexed sequence names in index order.
func (f *IndexedFile) Chromosomes() []string { return f.index.Chromosomes() }

// SetParser sets the parser FetchParsed uses when none is given. nil restores Tuple.
func (f *IndexedFile) SetParser(p parser.Parser) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.parser = p
}

// Parser returns the default parser.
func (f *IndexedFile) Parser() parser.Parser {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.parser == nil {
		p, _ := parser.New(parser.FormatTuple, f.enc)
		return p
	}
	return f.parser
}

// Header returns the leading header lines: lines starting with the meta
// character and the first skip lines configured in the index. Iteration state
// is not affected.
func (f *IndexedFile) Header() ([]string, error) {
	if f.closed.Load() {
		return nil, ErrClosed
	}
	r, err := f.reader.Duplicate()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.dataPath, err)
	}
	defer r.Close()

	var header []string
	for n := 0; ; n++ {
		line, err := r.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read header of %s: %w", f.dataPath, err)
		}
		if n >= f.skip && !f.isMeta(line) {
			break
		}
		header = append(header, f.enc.Decode(trimCR(line)))
	}
	return header, nil
}

// Fetch returns an iterator over the records overlapping region. The whole-file
// region iterates every non-header line; an unindexed chromosome yields an
// empty iterator.
func (f *IndexedFile) Fetch(region Region) (RecordIterator, error) {
	if f.closed.Load() {
		return nil, ErrClosed
	}
	if err := region.Validate(); err != nil {
		return nil, err
	}

	if region.IsWholeFile() {
		c, err := f.newCursor(true)
		if err != nil {
			return nil, err
		}
		return &WholeFileIterator{cursor: c}, nil
	}

	chunks := f.index.Overlaps(region.Chrom, region.Start, region.End)
	c, err := f.newCursor(len(chunks) > 0)
	if err != nil {
		return nil, err
	}
	if region.End < 0 {
		region.End = f.index.MaxEnd()
	}
	c.log = c.log.WithField("chrom", region.Chrom)
	c.log.WithFields(logrus.Fields{
		"region": region.String(),
		"chunks": len(chunks),
	}).Debug("fetching region")
	return &RegionIterator{
		cursor: c,
		region: region,
		conf:   f.index.conf,
		chunks: chunks,
		next:   -1,
	}, nil
}

// FetchParsed is Fetch followed by parsing every record with p. A nil p uses
// the default parser.
func (f *IndexedFile) FetchParsed(region Region, p parser.Parser) (*ParsedIterator, error) {
	if p == nil {
		p = f.Parser()
	}
	it, err := f.Fetch(region)
	if err != nil {
		return nil, err
	}
	return newParsedIterator(it, p, f.policy(), f.log), nil
}

// ParseRegion parses a region string against the index. A string that names
// an indexed chromosome and also reads as a range on another indexed
// chromosome is ambiguous.
func (f *IndexedFile) ParseRegion(s string) (Region, error) {
	region, err := ParseRegion(s)
	if f.index.HasChromosome(s) {
		if err == nil && region.Chrom != s && f.index.HasChromosome(region.Chrom) {
			return Region{}, fmt.Errorf("%w: %q is both a chromosome and a range on %s", ErrRegion, s, region.Chrom)
		}
		return Chromosome(s), nil
	}
	return region, err
}

// Close releases the file and the readers of every live iterator. Iterators
// still in use fail with ErrClosed on their next step.
func (f *IndexedFile) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}

	f.mu.Lock()
	live := make([]*cursor, 0, len(f.live))
	for c := range f.live {
		live = append(live, c)
	}
	f.live = nil
	f.mu.Unlock()

	var errs []error
	for _, c := range live {
		c.mu.Lock()
		errs = append(errs, c.releaseReader())
		c.mu.Unlock()
	}
	errs = append(errs, f.reader.Close())

	f.log.WithField("iterators", len(live)).Debug("closed indexed file")
	return errors.Join(errs...)
}

func (f *IndexedFile) isMeta(line []byte) bool {
	return len(line) > 0 && line[0] == f.metaChar
}

func (f *IndexedFile) policy() policy {
	return policy{
		strict:      f.cfg.Strict,
		onMalformed: f.cfg.OnMalformed,
	}
}

// newCursor registers a cursor, duplicating the reader when it will read.
func (f *IndexedFile) newCursor(withReader bool) (*cursor, error) {
	c := &cursor{file: f, policy: f.policy(), log: f.log}
	if withReader {
		r, err := f.reader.Duplicate()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", f.dataPath, err)
		}
		c.reader = r
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.live == nil {
		if c.reader != nil {
			c.reader.Close()
		}
		return nil, ErrClosed
	}
	f.live[c] = struct{}{}
	return c, nil
}

func (f *IndexedFile) forget(c *cursor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.live, c)
}

func trimCR(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\r' {
		return line[:n-1]
	}
	return line
}
